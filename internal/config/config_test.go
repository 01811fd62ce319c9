package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DUEL_DB", "DUEL_AI_PROVIDER", "DUEL_AI_TIMEOUT", "DUEL_SAVE_DEBOUNCE", "DUEL_PROFILE_KEY"} {
		// Setenv registers the restore; Unsetenv lets the defaults apply.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "player-profile", cfg.ProfileKey)
	assert.Equal(t, 2*time.Second, cfg.SaveDebounce)
	assert.Equal(t, 4*time.Second, cfg.AITimeout)
	assert.Equal(t, "", cfg.AIProvider)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DUEL_AI_PROVIDER", "ollama")
	t.Setenv("DUEL_AI_MODEL", "llama3")
	t.Setenv("DUEL_AI_TIMEOUT", "750ms")
	t.Setenv("DUEL_DB", "/tmp/duel.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.AIProvider)
	assert.Equal(t, "llama3", cfg.AIModel)
	assert.Equal(t, 750*time.Millisecond, cfg.AITimeout)
	assert.Equal(t, "/tmp/duel.db", cfg.DB)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Config{AIProvider: "anthropic-ish", AITimeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = Config{AIProvider: "openai"}
	assert.Error(t, cfg.Validate(), "zero timeout")
}
