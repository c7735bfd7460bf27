package auth0

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
)

const (
	DefaultConnection        = "Username-Password-Authentication"
	DefaultRequestsPerSecond = 10
	DefaultRefreshInterval   = 5 * time.Minute
)

// Config holds the Auth0 tenant settings.
type Config struct {
	// Domain is the Auth0 tenant domain (e.g., "example.us.auth0.com").
	Domain string `env:"AUTH0_DOMAIN"`

	// ClientID and ClientSecret identify an application allowed to use both
	// the password grant and the Management API.
	ClientID     string `env:"AUTH0_CLIENT_ID"`
	ClientSecret string `env:"AUTH0_CLIENT_SECRET"`

	// Connection is the database connection used for email accounts.
	Connection string `env:"AUTH0_CONNECTION" envDefault:"Username-Password-Authentication"`

	// Audience is requested on password logins (optional).
	Audience string `env:"AUTH0_AUDIENCE"`

	// RequestsPerSecond throttles Management API calls.
	RequestsPerSecond int `env:"AUTH0_REQUESTS_PER_SECOND" envDefault:"10"`

	// RefreshInterval is the RunRefresher period.
	RefreshInterval time.Duration `env:"AUTH0_REFRESH_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(domain, clientID, clientSecret string) Config {
	return Config{
		Domain:            domain,
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		Connection:        DefaultConnection,
		RequestsPerSecond: DefaultRequestsPerSecond,
		RefreshInterval:   DefaultRefreshInterval,
	}
}

// LoadConfig reads the optional dotenv files, then the environment.
// Variables already set in the environment win over file values.
func LoadConfig(files ...string) (Config, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the required settings.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Domain, validation.Required),
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.Connection, validation.Required),
		validation.Field(&c.RequestsPerSecond, validation.Required, validation.Min(1)),
		validation.Field(&c.RefreshInterval, validation.Required, validation.Min(time.Second)),
	)
}

// domain returns the bare tenant host expected by the SDK clients.
func (c Config) domain() string {
	domain := strings.TrimSpace(c.Domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}

func (c Config) issuerURL() string {
	domain := c.domain()
	if domain == "" {
		return ""
	}
	return normalizeIssuer("https://" + domain)
}

func normalizeIssuer(issuer string) string {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return issuer
	}
	if strings.HasSuffix(issuer, "/") {
		return issuer
	}
	return issuer + "/"
}
