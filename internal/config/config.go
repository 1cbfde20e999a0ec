package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SMTPConfig struct {
	Host     string `mapstructure:"smtp_host"`
	Port     int    `mapstructure:"smtp_port"`
	User     string `mapstructure:"smtp_user"`
	Password string `mapstructure:"smtp_password"`
	From     string `mapstructure:"email_from"`
}

// Configured reports whether there is enough to open an SMTP session. When
// false the mailer falls back to logging invite links instead of sending.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Port > 0
}

type Config struct {
	Port        string `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	ClientURL   string `mapstructure:"client_url"`

	InviteTTLHours int `mapstructure:"project_invite_ttl_hours"`

	// Invite emails propagate send failures to the caller unless this is
	// set; release notifications are always best-effort.
	InviteEmailBestEffort bool `mapstructure:"invite_email_best_effort"`

	AllowedOrigins string `mapstructure:"allowed_origins"`

	SMTP SMTPConfig `mapstructure:",squash"`
}

func (c Config) InviteTTL() time.Duration {
	hours := c.InviteTTLHours
	if hours <= 0 {
		hours = 72
	}
	return time.Duration(hours) * time.Hour
}

func (c Config) Origins() []string {
	origins := []string{"http://localhost:3000", "http://localhost:5173"}

	if c.ClientURL != "" {
		origins = append(origins, c.ClientURL)
	}

	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}

func Load() (Config, error) {
	viper.SetDefault("port", "3000")
	viper.SetDefault("client_url", "http://localhost:5173")
	viper.SetDefault("project_invite_ttl_hours", 72)
	viper.SetDefault("email_from", "Verto <no-reply@verto.app>")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{
		"port", "database_url", "jwt_secret", "client_url",
		"project_invite_ttl_hours", "invite_email_best_effort",
		"allowed_origins",
		"smtp_host", "smtp_port", "smtp_user", "smtp_password", "email_from",
	} {
		_ = viper.BindEnv(key, strings.ToUpper(key))
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, err
	}

	return c, nil
}
