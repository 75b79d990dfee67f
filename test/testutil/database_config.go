package testutil

import (
	"net/url"
	"os"

	"github.com/spf13/cast"
)

// DatabaseConfig selects the server integration tests run against.
type DatabaseConfig struct {
	// URL of an existing server; empty means start a container.
	URL string
	// MaxOpenConns caps connections per test database (0 = unlimited).
	MaxOpenConns int
}

// GetDatabaseConfig reads AUTOLOAD_TEST_DATABASE_URL, then DATABASE_URL, then
// the DATABASE_HOST/PORT/USER/PASSWORD/NAME/SSLMODE components. The admin
// user must be allowed to create databases.
func GetDatabaseConfig() DatabaseConfig {
	cfg := DatabaseConfig{MaxOpenConns: cast.ToInt(os.Getenv("DATABASE_MAX_CONNS"))}

	for _, key := range []string{"AUTOLOAD_TEST_DATABASE_URL", "DATABASE_URL"} {
		if v := os.Getenv(key); v != "" {
			cfg.URL = v
			return cfg
		}
	}

	host := os.Getenv("DATABASE_HOST")
	if host == "" {
		return cfg
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + envOr("DATABASE_PORT", "5432"),
		Path:     "/" + envOr("DATABASE_NAME", "postgres"),
		RawQuery: url.Values{"sslmode": {envOr("DATABASE_SSLMODE", "prefer")}}.Encode(),
	}
	if pw := os.Getenv("DATABASE_PASSWORD"); pw != "" {
		u.User = url.UserPassword(envOr("DATABASE_USER", "postgres"), pw)
	} else {
		u.User = url.User(envOr("DATABASE_USER", "postgres"))
	}
	cfg.URL = u.String()
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
