package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, "memory", cfg.ArchiveDriver)
	assert.Equal(t, 15*time.Second, cfg.CommentaryTimeout)
	assert.Equal(t, "gemini-3-flash-preview", cfg.GeminiModel)
	assert.Empty(t, cfg.CommentaryKey())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestCommentaryKeyPrefersGeminiKey(t *testing.T) {
	t.Setenv("API_KEY", "generic")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.CommentaryKey())

	t.Setenv("GEMINI_API_KEY", " gemini ")
	cfg, err = Parse()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.CommentaryKey())
}

func TestParseErrors(t *testing.T) {
	cases := map[string][2]string{
		"bad duration":      {"COMMENTARY_TIMEOUT", "soon"},
		"negative duration": {"COMMENTARY_TIMEOUT", "-1s"},
		"unknown driver":    {"ARCHIVE_DRIVER", "postgres"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, Config{LogLevel: "debug"}.Level())
	assert.Equal(t, zerolog.InfoLevel, Config{LogLevel: "loud"}.Level())
	assert.Equal(t, zerolog.InfoLevel, Config{LogLevel: ""}.Level())
}
