package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.LLM.Timeout)
	assert.Equal(t, "alloy", cfg.Voice.Theme)
	assert.Equal(t, filepath.Join(dir, "medication_manager.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, filepath.Join(dir, "scratch"), cfg.Voice.ScratchDir)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.NotEmpty(t, cfg.Security.JWTSecret)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medreminder.yaml")
	content := `
server:
  port: 9090
voice:
  theme: nova
llm:
  model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("MEDREMINDER_LLM_MODEL", "gpt-4o")

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "nova", cfg.Voice.Theme)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model, "env should override file")
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown voice", "voice:\n  theme: robot\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"telegram without chat", "reminders:\n  telegram:\n    enabled: true\n    bot_token: abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "medreminder.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path, dir)
			assert.Error(t, err)
		})
	}
}

func TestLoad_GeneratedJWTSecret(t *testing.T) {
	t.Setenv("MEDREMINDER_SECURITY_JWT_SECRET", "")
	t.Setenv("MEDREMINDER_JWT_SECRET", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "medreminder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("voice:\n  theme: echo\n"), 0644))

	first, err := Load(path, dir)
	require.NoError(t, err)
	second, err := Load(path, dir)
	require.NoError(t, err)

	assert.Len(t, first.Security.JWTSecret, 64)
	assert.NotEqual(t, first.Security.JWTSecret, second.Security.JWTSecret)

	next, err := first.reload()
	require.NoError(t, err)
	assert.Equal(t, first.Security.JWTSecret, next.Security.JWTSecret, "reload keeps the generated secret")
}

func TestLoad_ConfiguredJWTSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medreminder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("security:\n  jwt_secret: s3cret\n"), 0644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Security.JWTSecret)
}

func TestIsVoiceTheme(t *testing.T) {
	assert.True(t, IsVoiceTheme("shimmer"))
	assert.False(t, IsVoiceTheme("Shimmer"))
	assert.False(t, IsVoiceTheme(""))
}
