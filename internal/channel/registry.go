package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrChannelNotFound is returned when no sender is registered for a channel type.
var ErrChannelNotFound = errors.New("channel sender not found")

// Sender delivers plain-text replies on one platform.
type Sender interface {
	Type() ChannelType
	SendText(ctx context.Context, target, body string) error
}

// Registry holds the outbound senders keyed by channel type. It must be
// created via NewRegistry and passed explicitly to components that need it.
type Registry struct {
	mu      sync.RWMutex
	senders map[ChannelType]Sender
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: map[ChannelType]Sender{},
	}
}

// Register adds a sender to the registry.
func (r *Registry) Register(sender Sender) error {
	if sender == nil {
		return fmt.Errorf("sender is nil")
	}
	ct := normalizeChannelType(sender.Type().String())
	if ct == "" {
		return fmt.Errorf("channel type is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.senders[ct]; exists {
		return fmt.Errorf("channel type already registered: %s", ct)
	}
	r.senders[ct] = sender
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(sender Sender) {
	if err := r.Register(sender); err != nil {
		panic(err)
	}
}

// Get returns the sender for the given channel type.
func (r *Registry) Get(channelType ChannelType) (Sender, bool) {
	ct := normalizeChannelType(channelType.String())
	r.mu.RLock()
	defer r.mu.RUnlock()
	sender, ok := r.senders[ct]
	return sender, ok
}

// Types returns all registered channel types in sorted order.
func (r *Registry) Types() []ChannelType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]ChannelType, 0, len(r.senders))
	for ct := range r.senders {
		items = append(items, ct)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// Send delivers body to target through the sender registered for channelType.
func (r *Registry) Send(ctx context.Context, channelType ChannelType, target, body string) error {
	sender, ok := r.Get(channelType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelNotFound, channelType)
	}
	return sender.SendText(ctx, target, body)
}

func normalizeChannelType(raw string) ChannelType {
	return ChannelType(strings.ToLower(strings.TrimSpace(raw)))
}
