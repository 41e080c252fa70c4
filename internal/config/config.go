package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FIELDACCESS_SERVER_PORT.
const EnvPrefix = "FIELDACCESS"

type Config struct {
	Server         ServerConfig   `mapstructure:"server"`
	Database       DatabaseConfig `mapstructure:"database"`
	Log            LogConfig      `mapstructure:"log"`
	JWTSecret      string         `mapstructure:"jwt_secret"`
	TokenTTL       int            `mapstructure:"token_ttl"` // seconds
	AdminKeySecret string         `mapstructure:"admin_key_secret"`
	EntitiesFile   string         `mapstructure:"entities_file"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	Dir   string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return filepath.Join(d.Path, d.Name+".db")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// Load reads configuration from path, or from app.yaml in the working
// directory when path is empty. A missing app.yaml is not an error: defaults
// and FIELDACCESS_* environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("../..")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "fieldaccess")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("log.debug", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("jwt_secret", "changeme-secret")
	v.SetDefault("token_ttl", 3600)
	v.SetDefault("admin_key_secret", "")
	v.SetDefault("entities_file", "")
}
