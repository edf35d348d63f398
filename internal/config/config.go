// Package config loads settings from defaults, an optional config file,
// HIT_COUNTER_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendDatastore = "datastore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

var Backends = []string{BackendMemory, BackendFile, BackendRedis, BackendDatastore, BackendPostgres, BackendSQLite}

const EnvPrefix = "HIT_COUNTER"

type Config struct {
	Listen          string        `mapstructure:"listen"`
	LogLevel        string        `mapstructure:"log-level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	Store           Store         `mapstructure:"store"`
}

type Store struct {
	Backend   string    `mapstructure:"backend"`
	File      File      `mapstructure:"file"`
	Redis     Redis     `mapstructure:"redis"`
	Datastore Datastore `mapstructure:"datastore"`
	SQL       SQL       `mapstructure:"sql"`
}

type File struct {
	Path string `mapstructure:"path"`
}

type Redis struct {
	Addrs     []string `mapstructure:"addrs"`
	KeyPrefix string   `mapstructure:"key-prefix"`
	PoolSize  int      `mapstructure:"pool-size"`
}

type Datastore struct {
	Project   string `mapstructure:"project"`
	Namespace string `mapstructure:"namespace"`
	Kind      string `mapstructure:"kind"`
}

type SQL struct {
	DSN string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")
	v.SetDefault("shutdown-timeout", 10*time.Second)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.file.path", "counter.json")
	v.SetDefault("store.redis.addrs", []string{})
	v.SetDefault("store.redis.key-prefix", "counter:")
	v.SetDefault("store.redis.pool-size", 200)
	v.SetDefault("store.datastore.project", "")
	v.SetDefault("store.datastore.namespace", "")
	v.SetDefault("store.datastore.kind", "Counter")
	v.SetDefault("store.sql.dsn", "")
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path/to/hit-counter.yaml")
	fs.String("listen", ":8080", "addr:port to listen on")
	fs.String("log-level", "info", "debug|info|warn|error")
	fs.Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests on shutdown")
	fs.String("store.backend", BackendMemory, strings.Join(Backends, "|"))
	fs.String("store.file.path", "counter.json", "path/to/counter.json for the file backend")
	fs.StringSlice("store.redis.addrs", nil, "addr:port of redis, comma separated")
	fs.String("store.redis.key-prefix", "counter:", "prefix of redis keys")
	fs.Int("store.redis.pool-size", 200, "redis connection pool size")
	fs.String("store.datastore.project", "", "datastore project, defaults to $PROJECT_ID")
	fs.String("store.datastore.namespace", "", "datastore namespace")
	fs.String("store.datastore.kind", "Counter", "datastore kind")
	fs.String("store.sql.dsn", "", "dsn for the postgres and sqlite backends")
}

// Load builds the Config. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configFile := ""
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("v.BindPFlags: %w", err)
		}
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("hit-counter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("v.ReadInConfig: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}

	if conf.Store.Datastore.Project == "" {
		conf.Store.Datastore.Project = os.Getenv("PROJECT_ID")
	}
	conf.Store.Redis.Addrs = lo.Compact(lo.Map(conf.Store.Redis.Addrs, func(a string, _ int) string {
		return strings.TrimSpace(a)
	}))

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	if !lo.Contains(Backends, c.Store.Backend) {
		return fmt.Errorf("unknown store.backend: %s, must be one of %s", c.Store.Backend, strings.Join(Backends, "|"))
	}
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.File.Path == "" {
			return errors.New("store.file.path must be specified")
		}
	case BackendRedis:
		if len(c.Store.Redis.Addrs) == 0 {
			return errors.New("store.redis.addrs must be specified")
		}
	case BackendPostgres, BackendSQLite:
		if c.Store.SQL.DSN == "" {
			return errors.New("store.sql.dsn must be specified")
		}
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown-timeout must not be negative: %s", c.ShutdownTimeout)
	}
	return nil
}
