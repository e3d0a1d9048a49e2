package personas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiyeai/sitechief/internal/chat"
)

const sampleYAML = `
personas:
  - name: Muhasebe
    description: Bütçe odaklı
    template: |
      Sen muhasebecisin.
      {HARD_FACTS}
  - name: dayi
    template: "override {MEMORY_CONTEXT}"
`

func TestParse(t *testing.T) {
	t.Parallel()

	lib, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	p, err := lib.Get(" muhasebe ")
	require.NoError(t, err)
	assert.Equal(t, "muhasebe", p.Name)
	assert.Contains(t, p.Template, "{HARD_FACTS}")

	assert.Equal(t, "override {MEMORY_CONTEXT}", lib.Template("dayi"))
	assert.Equal(t, []string{"dayi", "muhasebe"}, lib.Names())
}

func TestUnknownPersonaFallsBack(t *testing.T) {
	t.Parallel()

	lib := Builtin()
	_, err := lib.Get("yok")
	assert.ErrorIs(t, err, ErrPersonaNotFound)
	assert.Equal(t, chat.DefaultPersonaTemplate, lib.Template("yok"))
	assert.Equal(t, chat.DefaultPersonaTemplate, lib.Template(DefaultName))
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("personas:\n  - name: x\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("personas:\n  - template: y\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("personas: ["))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	lib, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultName}, lib.Names())

	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	lib, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, lib.Names(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
