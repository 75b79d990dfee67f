package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pthm/autoload"
)

const (
	maxWalkDepth = 25
)

// Config represents the autoload configuration from autoload.yaml.
type Config struct {
	// Schema is the path to the entity schema YAML file.
	Schema string `mapstructure:"schema" json:"schema"`

	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Select   SelectConfig   `mapstructure:"select" json:"select"`
	Cache    CacheConfig    `mapstructure:"cache" json:"cache"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver: "pgx" (default) or "postgres" (lib/pq).
	Driver   string `mapstructure:"driver" json:"driver"`
	URL      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// SelectConfig holds the default query-building options.
type SelectConfig struct {
	Limit       int      `mapstructure:"limit" json:"limit"`
	NoLimit     bool     `mapstructure:"no_limit" json:"no_limit"`
	OrderBy     []string `mapstructure:"order_by" json:"order_by"`
	SelfKey     string   `mapstructure:"self_key" json:"self_key"`
	ManyLoad    string   `mapstructure:"many_load" json:"many_load"`
	Distinct    bool     `mapstructure:"distinct" json:"distinct"`
	CheckTables bool     `mapstructure:"check_tables" json:"check_tables"`
	Alignment   bool     `mapstructure:"alignment" json:"alignment"`
}

// CacheConfig holds cache sizing.
type CacheConfig struct {
	Size int `mapstructure:"size" json:"size"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AUTOLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "schema.yaml")

	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	v.SetDefault("select.limit", autoload.DefaultLimit)
	v.SetDefault("select.no_limit", false)
	v.SetDefault("select.order_by", []string{})
	v.SetDefault("select.self_key", "")
	v.SetDefault("select.many_load", "subqueryload")
	v.SetDefault("select.distinct", false)
	v.SetDefault("select.check_tables", false)
	v.SetDefault("select.alignment", true)

	v.SetDefault("cache.size", 0)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for autoload.yaml or autoload.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"autoload.yaml", "autoload.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break // repo root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Redacted returns a copy of c safe to print: the password and any password
// embedded in database.url are masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Select.OrderBy = append([]string(nil), c.Select.OrderBy...)
	if out.Database.Password != "" {
		out.Database.Password = redactedMark
	}
	out.Database.URL = RedactDSN(c.Database.URL)
	return &out
}

const redactedMark = "xxxxx"

// RedactDSN masks the password of a URL-form DSN. Strings that do not parse
// as a URL with credentials are returned unchanged.
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); !ok {
		return dsn
	}
	return u.Redacted()
}

// DriverName maps database.driver to a registered database/sql driver name.
func (c *Config) DriverName() (string, error) {
	switch strings.ToLower(c.Database.Driver) {
	case "", "pgx":
		return "pgx", nil
	case "postgres", "pq", "lib/pq":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database.driver %q (want pgx or postgres)", c.Database.Driver)
	}
}

// SelectOptions converts the select section into query options. Later options
// passed to Select override these.
func (c *Config) SelectOptions() []autoload.SelectOption {
	s := c.Select
	var opts []autoload.SelectOption
	if s.NoLimit {
		opts = append(opts, autoload.WithoutLimit())
	} else {
		opts = append(opts, autoload.WithLimit(s.Limit))
	}
	if len(s.OrderBy) > 0 {
		opts = append(opts, autoload.WithOrderBy(s.OrderBy...))
	}
	if s.SelfKey != "" {
		opts = append(opts, autoload.WithSelfKey(s.SelfKey))
	}
	if s.ManyLoad != "" {
		opts = append(opts, autoload.WithManyLoadName(s.ManyLoad))
	}
	if s.Distinct {
		opts = append(opts, autoload.WithDistinct())
	}
	if s.CheckTables {
		opts = append(opts, autoload.WithCheckTables())
	}
	if !s.Alignment {
		opts = append(opts, autoload.WithoutAlignment())
	}
	return opts
}
