// Package whatsapp implements the WhatsApp Cloud API channel: webhook
// parsing, media download and text replies.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/config"
	"github.com/santiyeai/sitechief/internal/media"
	"github.com/santiyeai/sitechief/internal/prune"
)

// Type is the channel type of the WhatsApp adapter.
const Type channel.ChannelType = "whatsapp"

const errorBodyPreviewBytes = 512

// Client talks to the Graph API on behalf of one business phone number.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	phoneID    string
	token      string
	maxBytes   int64
	logger     *slog.Logger
}

// NewClient creates a Graph API client from configuration. maxBytes caps
// media downloads; zero or less selects media.MaxAssetBytes.
func NewClient(log *slog.Logger, cfg config.WhatsAppConfig, maxBytes int64) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GraphBaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultGraphBaseURL
	}
	version := strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if version == "" {
		version = config.DefaultGraphAPIVersion
	}
	if maxBytes <= 0 {
		maxBytes = media.MaxAssetBytes
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		version:    version,
		phoneID:    strings.TrimSpace(cfg.PhoneID),
		token:      strings.TrimSpace(cfg.APIToken),
		maxBytes:   maxBytes,
		logger:     log.With(slog.String("channel", string(Type))),
	}
}

// Configured reports whether the client has credentials to send messages.
func (c *Client) Configured() bool {
	return c.phoneID != "" && c.token != ""
}

// Type returns the channel type.
func (c *Client) Type() channel.ChannelType {
	return Type
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// SendText posts a text message to target.
func (c *Client) SendText(ctx context.Context, target, body string) error {
	if !c.Configured() {
		return fmt.Errorf("send text: %w", media.ErrNotConfigured)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("send text: target is required")
	}
	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               target,
		Type:             "text",
		Text:             textBody{Body: prune.Fit(body, prune.Config{MaxRunes: prune.WhatsAppMaxRunes})},
	})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyPreviewBytes))
		return fmt.Errorf("send text status %d: %s", resp.StatusCode, strings.TrimSpace(string(preview)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.logger.Debug("text sent", slog.String("to", target), slog.Int("status", resp.StatusCode))
	return nil
}

type mediaLookup struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// Fetch resolves mediaID to its short-lived URL and opens the content.
// Caller must close the returned reader.
func (c *Client) Fetch(ctx context.Context, mediaID string) (io.ReadCloser, string, error) {
	if c.token == "" {
		return nil, "", media.ErrNotConfigured
	}
	mediaID = strings.TrimSpace(mediaID)
	if mediaID == "" {
		return nil, "", fmt.Errorf("media id is required")
	}

	lookup, err := c.lookupMedia(ctx, mediaID)
	if err != nil {
		return nil, "", err
	}
	if lookup.FileSize > c.maxBytes {
		return nil, "", fmt.Errorf("%w: max %d bytes", media.ErrAssetTooLarge, c.maxBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download media: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() {
			_ = resp.Body.Close()
		}()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("download media status: %d", resp.StatusCode)
	}
	if resp.ContentLength > c.maxBytes {
		defer func() {
			_ = resp.Body.Close()
		}()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("%w: max %d bytes", media.ErrAssetTooLarge, c.maxBytes)
	}
	mime := strings.TrimSpace(lookup.MimeType)
	if mime == "" {
		mime = strings.TrimSpace(resp.Header.Get("Content-Type"))
	}
	return resp.Body, mime, nil
}

func (c *Client) lookupMedia(ctx context.Context, mediaID string) (mediaLookup, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return mediaLookup{}, fmt.Errorf("build media lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mediaLookup{}, fmt.Errorf("media lookup: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return mediaLookup{}, fmt.Errorf("media lookup status: %d", resp.StatusCode)
	}
	data, err := media.ReadAllWithLimit(resp.Body, 64*1024)
	if err != nil {
		return mediaLookup{}, fmt.Errorf("read media lookup: %w", err)
	}
	var lookup mediaLookup
	if err := json.Unmarshal(data, &lookup); err != nil {
		return mediaLookup{}, fmt.Errorf("decode media lookup: %w", err)
	}
	if strings.TrimSpace(lookup.URL) == "" {
		return mediaLookup{}, fmt.Errorf("media lookup returned no url")
	}
	return lookup, nil
}
