package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env   string `env:"ENV" env-required:"true"`
	HTTP  HTTPConfig
	Store StoreConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	ClientDir       string        `env:"HTTP_CLIENT_DIR" env-default:"web"`
}

type StoreConfig struct {
	// DSN defaults to a private in-memory database that lives
	// and dies with the process.
	DSN         string        `env:"STORE_DSN" env-default:":memory:"`
	OpenTimeout time.Duration `env:"STORE_OPEN_TIMEOUT" env-default:"10s"`
	Seed        bool          `env:"STORE_SEED" env-default:"true"`
}
