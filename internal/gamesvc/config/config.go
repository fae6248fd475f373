package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read from the environment once at startup. Every process takes
// the part it needs.
type Config struct {
	MongoURI string
	RootURL  string

	StripeSecretKey string
	StripeAPIURL    string
	JWTSecret       string

	Port       string
	SocketPort string
	RateLimit  int

	NatsURL   string
	NatsToken string

	DisplayTimezone string
	CORSOrigins     []string

	NoReplyAddress string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPTimeout    time.Duration
	MailFrom       string

	EmailCheckSchedule string
	PayoutSchedule     string

	TelegramBotToken string
	TelegramChatIDs  []int64
}

func Load() (Config, error) {
	cfg := Config{
		MongoURI:           env("MONGODB_URI", "mongodb://localhost:27017/hockeycompass"),
		RootURL:            env("ROOT_URL", "http://localhost:3000"),
		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		StripeAPIURL:       env("STRIPE_API_URL", "https://api.stripe.com"),
		JWTSecret:          os.Getenv("JWT_SECRET_KEY"),
		Port:               env("GAME_SERVICE_PORT", "8080"),
		SocketPort:         env("SOCKET_SERVICE_PORT", "8081"),
		NatsURL:            os.Getenv("NATS_URL"),
		NatsToken:          os.Getenv("NATS_TOKEN"),
		DisplayTimezone:    env("DISPLAY_TIMEZONE", "America/Chicago"),
		CORSOrigins:        splitList(env("CORS_ORIGINS", "http://localhost:3000")),
		NoReplyAddress:     env("NO_REPLY_ADDRESS", "no-reply@hockeycompass.com"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		EmailCheckSchedule: env("EMAIL_CHECK_SCHEDULE", "*/5 * * * *"),
		PayoutSchedule:     env("PAYOUT_SCHEDULE", "0 3 * * *"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
	cfg.MailFrom = env("MAIL_FROM", cfg.NoReplyAddress)

	var err error
	if cfg.RateLimit, err = intEnv("RATE_LIMIT", 100); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.SMTPTimeout, err = durationEnv("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	for _, id := range splitList(os.Getenv("TELEGRAM_CHAT_IDS")) {
		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TELEGRAM_CHAT_IDS entry %q", id)
		}
		cfg.TelegramChatIDs = append(cfg.TelegramChatIDs, chatID)
	}
	return cfg, nil
}

// Location resolves DisplayTimezone, the zone dates are shown in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
