package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagprompt/tagprompt/internal/prompt"
)

// isolate points the config directory at a fresh temp dir and returns the
// tagprompt directory inside it.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	dir := filepath.Join(tmp, "tagprompt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExtractFlag(t *testing.T) {
	tests := map[string]string{
		"--format":      "format",
		"--format=json": "format",
		"-f":            "f",
		"-f=json":       "f",
		"-":             "",
		"text":          "",
	}
	for in, want := range tests {
		if got := extractFlag(in); got != want {
			t.Errorf("extractFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitDefaults(t *testing.T) {
	isolate(t)

	flags, positional, err := Init([]string{"a, b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a, b"}, positional)
	assert.Equal(t, FormatText, flags.Format)
	assert.Equal(t, SectionAll, flags.Section)
	assert.Equal(t, 1.1, flags.CurlyBase)
	assert.Equal(t, "emphasis", flags.ParenMode)
	assert.Equal(t, ":8080", flags.Address)
	assert.Equal(t, prompt.DefaultOptions(), flags.BuildParserOptions())
}

func TestInitConfigFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"),
		"format: json\ncurlyBase: 0.9\nparenMode: group\nnoWeight: true\naddress: localhost:9000\n")

	flags, _, err := Init([]string{"--format", "yaml", "--address=:7000"})
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, flags.Format, "command line wins over config")
	assert.Equal(t, ":7000", flags.Address)
	assert.Equal(t, 0.9, flags.CurlyBase)
	assert.Equal(t, "group", flags.ParenMode)
	assert.True(t, flags.NoWeight)
	assert.Equal(t, prompt.ParenGroup, flags.BuildParserOptions().ParenMode)
}

func TestInitEnvironmentBeatsConfig(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "format: yaml\n")
	t.Setenv("TAGPROMPT_FORMAT", "json")

	flags, _, err := Init(nil)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, flags.Format)
}

func TestInitEnvFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "TAGPROMPT_PAREN_MODE=group\n")
	t.Cleanup(func() { os.Unsetenv("TAGPROMPT_PAREN_MODE") })

	flags, _, err := Init(nil)
	require.NoError(t, err)
	assert.Equal(t, "group", flags.ParenMode)
}

func TestInitExplicitConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "legacyColonGroups: true\n")

	flags, _, err := Init([]string{"--config", path})
	require.NoError(t, err)
	assert.True(t, flags.LegacyColonGroups)

	_, _, err = Init([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, _, err = Init([]string{"--config", filepath.Join(t.TempDir(), "new.yaml"), "--save-config"})
	assert.NoError(t, err)
}

func TestInitRejectsInvalidValues(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"--format", "xml"},
		{"--section", "middle"},
		{"--paren-mode", "square"},
	} {
		_, _, err := Init(args)
		assert.Error(t, err, "%v", args)
	}

	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "format: [broken\n")
	_, _, err := Init(nil)
	assert.Error(t, err)
}
