package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevTokenSecret is the placeholder signing secret used when INVITE_TOKEN_SECRET is unset.
// Validate refuses to run production with it.
const DevTokenSecret = "dev-only-invite-secret-change-in-prod"

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	DatabaseURL         string // postgres DSN, or sqlite:<path>
	RedisURL            string // optional; enables token revocation and request stats
	InviteTokenSecret   string
	InviteTokenTTL      time.Duration
	QRImagesDir         string
	InvitationsDir      string
	ExportsDir          string
	PublicBaseURL       string // base for RSVP links and public invitation links
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	MailFrom            string
	EventSubtitle       string
	EventHostOrg        string
	EventTimezone       string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "sqlite:guestpass.db")
	viper.SetDefault("INVITE_TOKEN_TTL", "720h")
	viper.SetDefault("QR_IMAGES_DIR", "qr_images")
	viper.SetDefault("INVITATIONS_DIR", "invitations")
	viper.SetDefault("EXPORTS_DIR", "exports")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("MAIL_FROM", "noreply@guestpass.local")
	viper.SetDefault("EVENT_SUBTITLE", "Lễ kỷ niệm 15 năm thành lập")
	viper.SetDefault("EVENT_HOST_ORG", "EXP Technology Company Limited")
	viper.SetDefault("EVENT_TIMEZONE", "Asia/Ho_Chi_Minh")

	secret := viper.GetString("INVITE_TOKEN_SECRET")
	if secret == "" {
		secret = DevTokenSecret
	}

	cfg := &Config{
		Env:                 viper.GetString("APP_ENV"),
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		InviteTokenSecret:   secret,
		InviteTokenTTL:      viper.GetDuration("INVITE_TOKEN_TTL"),
		QRImagesDir:         viper.GetString("QR_IMAGES_DIR"),
		InvitationsDir:      viper.GetString("INVITATIONS_DIR"),
		ExportsDir:          viper.GetString("EXPORTS_DIR"),
		PublicBaseURL:       strings.TrimRight(strings.TrimSpace(viper.GetString("PUBLIC_BASE_URL")), "/"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		EventSubtitle:       viper.GetString("EVENT_SUBTITLE"),
		EventHostOrg:        viper.GetString("EVENT_HOST_ORG"),
		EventTimezone:       viper.GetString("EVENT_TIMEZONE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks settings that must never be defaulted outside development.
func (c *Config) Validate() error {
	if c.InviteTokenTTL <= 0 {
		return errors.New("INVITE_TOKEN_TTL must be positive")
	}
	if c.IsProduction() && (c.InviteTokenSecret == "" || c.InviteTokenSecret == DevTokenSecret) {
		return errors.New("INVITE_TOKEN_SECRET must be set in production")
	}
	return nil
}
