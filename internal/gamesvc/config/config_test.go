package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"MONGODB_URI", "RATE_LIMIT", "SMTP_PORT", "CORS_ORIGINS", "MAIL_FROM", "NO_REPLY_ADDRESS", "DISPLAY_TIMEZONE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017/hockeycompass", cfg.MongoURI)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "no-reply@hockeycompass.com", cfg.MailFrom)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT", "30")
	t.Setenv("CORS_ORIGINS", "https://a.com, https://b.com,")
	t.Setenv("NO_REPLY_ADDRESS", "noreply@a.com")
	t.Setenv("MAIL_FROM", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORSOrigins)
	assert.Equal(t, "noreply@a.com", cfg.MailFrom)
}

func TestLoadTelegramChats(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_IDS", "123, -456")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{123, -456}, cfg.TelegramChatIDs)

	t.Setenv("TELEGRAM_CHAT_IDS", "abc")
	_, err = Load()
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_IDS")
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")

	_, err := Load()

	assert.ErrorContains(t, err, "RATE_LIMIT")
}

func TestLocationRejectsUnknownZone(t *testing.T) {
	_, err := Config{DisplayTimezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

func TestLoadSMTPTimeout(t *testing.T) {
	t.Setenv("SMTP_TIMEOUT", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.SMTPTimeout)

	t.Setenv("SMTP_TIMEOUT", "3s")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.SMTPTimeout)

	t.Setenv("SMTP_TIMEOUT", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "SMTP_TIMEOUT")
}
