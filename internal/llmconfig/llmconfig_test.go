package llmconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempService(t *testing.T) *Service {
	t.Helper()
	return NewService(filepath.Join(t.TempDir(), "llm_config.toml"), "TEST_LLM_KEY")
}

func TestGet_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	s := tempService(t)

	cfg := s.Get()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Empty(t, cfg.APIKey)
}

func TestGet_EnvFallbackForKeyOnly(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-env-0123456789")
	s := tempService(t)

	cfg := s.Get()
	assert.Equal(t, "sk-env-0123456789", cfg.APIKey)
	assert.Equal(t, "openai", cfg.Provider)
}

func TestGet_StoredKeyBeatsEnv(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-env-0123456789")
	s := tempService(t)

	_, err := s.Set(Update{APIKey: ptr("sk-stored-9876543210")})
	require.NoError(t, err)

	assert.Equal(t, "sk-stored-9876543210", s.Get().APIKey)
}

func TestSet_PartialMerge(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	s := tempService(t)

	_, err := s.Set(Update{APIKey: ptr("sk-abcdef0123456789"), ChatModel: ptr("gpt-4o")})
	require.NoError(t, err)

	// A later update of one field must not clobber the others.
	_, err = s.Set(Update{Provider: ptr("openrouter")})
	require.NoError(t, err)

	cfg := s.Get()
	assert.Equal(t, "openrouter", cfg.Provider)
	assert.Equal(t, "sk-abcdef0123456789", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
}

func TestGet_ReturnsUnmaskedKey(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	s := tempService(t)

	_, err := s.Set(Update{APIKey: ptr("sk-proj-abcdef0123456789")})
	require.NoError(t, err)

	assert.Equal(t, "sk-proj-abcdef0123456789", s.Get().APIKey)
}

func TestGet_UnparsableFileIgnored(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	path := filepath.Join(t.TempDir(), "llm_config.toml")
	require.NoError(t, os.WriteFile(path, []byte("provider = [broken"), 0o600))

	cfg := NewService(path, "TEST_LLM_KEY").Get()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
}

func TestSet_FilePermissions(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	path := filepath.Join(t.TempDir(), "llm_config.toml")
	s := NewService(path, "TEST_LLM_KEY")

	_, err := s.Set(Update{APIKey: ptr("sk-abcdef0123456789")})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "••••••••", MaskKey(""))
	assert.Equal(t, "••••••••", MaskKey("short"))
	assert.Equal(t, "sk-proj...6789", MaskKey("sk-proj-abcdef0123456789"))
}

func ptr(s string) *string { return &s }
