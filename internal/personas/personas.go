// Package personas loads named persona templates for the chat path.
package personas

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/santiyeai/sitechief/internal/chat"
)

// DefaultName is the built-in persona, always available.
const DefaultName = "dayi"

var ErrPersonaNotFound = errors.New("persona not found")

type Persona struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Template    string `yaml:"template" json:"template"`
}

type fileFormat struct {
	Personas []Persona `yaml:"personas"`
}

// Library is an immutable set of personas keyed by lowercase name.
type Library struct {
	items map[string]Persona
}

// Builtin returns a library holding only the default persona.
func Builtin() *Library {
	return &Library{items: map[string]Persona{
		DefaultName: {
			Name:        DefaultName,
			Description: "Şantiye şefi Dayı",
			Template:    chat.DefaultPersonaTemplate,
		},
	}}
}

// Load reads personas from a YAML file on top of the built-in set.
// An empty path returns the built-in set.
func Load(path string) (*Library, error) {
	lib := Builtin()
	path = strings.TrimSpace(path)
	if path == "" {
		return lib, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas: %w", err)
	}
	if err := lib.merge(data); err != nil {
		return nil, err
	}
	return lib, nil
}

// Parse builds a library from YAML content.
func Parse(data []byte) (*Library, error) {
	lib := Builtin()
	if err := lib.merge(data); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *Library) merge(data []byte) error {
	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse personas: %w", err)
	}
	for i, p := range file.Personas {
		name := normalizeName(p.Name)
		if name == "" {
			return fmt.Errorf("persona %d: name is required", i)
		}
		if strings.TrimSpace(p.Template) == "" {
			return fmt.Errorf("persona %q: template is required", name)
		}
		p.Name = name
		l.items[name] = p
	}
	return nil
}

// Get returns the persona with name.
func (l *Library) Get(name string) (Persona, error) {
	if p, ok := l.items[normalizeName(name)]; ok {
		return p, nil
	}
	return Persona{}, fmt.Errorf("%w: %s", ErrPersonaNotFound, strings.TrimSpace(name))
}

// Template returns the template for name, or the default template when the
// name is unknown.
func (l *Library) Template(name string) string {
	if p, err := l.Get(name); err == nil {
		return p.Template
	}
	return chat.DefaultPersonaTemplate
}

// Names lists persona names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.items))
	for name := range l.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
