package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovasoa/rustache"
	"github.com/lovasoa/rustache/scanner"
)

func defaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(defaults())
	require.NoError(t, err)

	assert.Equal(t, ".mustache", cfg.Partials.Extension)
	assert.Equal(t, rustache.DefaultMaxDepth, cfg.Render.MaxDepth)
	assert.Equal(t, "html", cfg.Render.Escape)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost", cfg.Serve.Host)
	assert.Equal(t, 8080, cfg.Serve.Port)

	d, err := cfg.Delimiters()
	require.NoError(t, err)
	assert.Equal(t, scanner.DefaultDelimiters(), d)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"bad extension", "partials.extension", "mustache"},
		{"extension with directory", "partials.extension", "./x"},
		{"bad delimiters", "render.delimiters", "{{"},
		{"delimiters with equals", "render.delimiters", "<= =>"},
		{"bad escape", "render.escape", "xml"},
		{"bad level", "log.level", "chatty"},
		{"bad format", "log.format", "xml"},
		{"port too large", "serve.port", 70000},
		{"host with path", "serve.host", "localhost/x"},
		{"port not a number", "serve.port", "eighty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaults()
			v.Set(tt.key, tt.value)
			cfg, err := Load(v)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestNewReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
partials:
  dir: ./partials
render:
  max_depth: 20
  escape: none
serve:
  port: 9000
`), 0o644))

	t.Setenv("RUSTACHE_SERVE_PORT", "9100")
	t.Setenv("RUSTACHE_RENDER_DELIMITERS", "<% %>")

	v, err := New(file)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./partials", cfg.Partials.Dir)
	assert.Equal(t, 20, cfg.Render.MaxDepth)
	assert.Equal(t, "none", cfg.Render.Escape)
	assert.Equal(t, 9100, cfg.Serve.Port, "env overrides file")

	d, err := cfg.Delimiters()
	require.NoError(t, err)
	assert.Equal(t, scanner.Delimiters{Open: "<%", Close: "%>"}, d)
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestNewWithoutDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())
	v, err := New("")
	require.NoError(t, err)
	_, err = Load(v)
	assert.NoError(t, err)
}

func TestEnvironment(t *testing.T) {
	v := defaults()
	v.Set("render.escape", "none")
	v.Set("render.delimiters", "[[ ]]")
	cfg, err := Load(v)
	require.NoError(t, err)

	var logs bytes.Buffer
	env, err := cfg.Environment(cfg.Logger(&logs))
	require.NoError(t, err)

	tmpl, err := env.TemplateFromString("[[v]]")
	require.NoError(t, err)
	out, err := tmpl.Render(map[string]string{"v": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "<b>", out)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
