package bunsink

import (
	"context"
	"database/sql"
	"io/fs"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/schema"

	authstate "github.com/goliatone/go-authstate"
)

// Config describes the database the sink migrates and writes to.
type Config struct {
	Driver         string        `env:"AUTHSTATE_DB_DRIVER" envDefault:"sqlite"`
	Server         string        `env:"AUTHSTATE_DB_DSN" envDefault:"file::memory:?cache=shared"`
	Debug          bool          `env:"AUTHSTATE_DB_DEBUG"`
	PingTimeout    time.Duration `env:"AUTHSTATE_DB_PING_TIMEOUT" envDefault:"5s"`
	OtelIdentifier string        `env:"AUTHSTATE_DB_OTEL_ID"`
}

func (c Config) GetDebug() bool                { return c.Debug }
func (c Config) GetDriver() string             { return c.Driver }
func (c Config) GetServer() string             { return c.Server }
func (c Config) GetDSN() string                { return c.Server }
func (c Config) GetOtelIdentifier() string     { return c.OtelIdentifier }
func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

// Open builds a persistence client over sqlDB, registers the sink models and
// runs the dialect migrations. Use client.DB() to build the Store.
func Open(ctx context.Context, cfg Config, sqlDB *sql.DB, dialect schema.Dialect, logger authstate.Logger) (*persistence.Client, error) {
	persistence.RegisterModel((*EventModel)(nil))
	persistence.RegisterModel((*IdentityModel)(nil))
	persistence.RegisterModel((*PropertiesModel)(nil))

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		return nil, err
	}

	_, logger = authstate.ResolveLogger("authstate.persistence", nil, logger)
	client.SetLogger(logger)

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}
	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("bunsink/data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
