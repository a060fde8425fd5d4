package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "4100")
	t.Setenv("RAG_API_TIMEOUT", "not-a-duration")
	t.Setenv("CHAT_ROLLBACK_HISTORY_ON_FAILURE", "true")

	cfg := Load()

	assert.Equal(t, "4100", cfg.App.Port)
	assert.Equal(t, 120*time.Second, cfg.RAG.RequestTimeout)
	assert.Equal(t, 6, cfg.Chat.HistoryWindow)
	assert.True(t, cfg.Chat.RollbackHistoryOnFailure)
	assert.False(t, cfg.Chat.RestoreSessions)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "750ms")
	assert.Equal(t, 750*time.Millisecond, getEnvAsDuration("SOME_TIMEOUT", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("MISSING_TIMEOUT", time.Second))
}
