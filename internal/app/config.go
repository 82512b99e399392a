package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/avelichko/go-taskboard/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("store_dsn", cfg.Store.DSN).
		Msg("read env")

	config.SetGlobal(cfg)
}
