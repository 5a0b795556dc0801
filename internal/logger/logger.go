package logger

import (
	"go.uber.org/zap"

	"github.com/aliskhannn/flashquiz-bot/internal/config"
)

// New returns a JSON production logger in production and a console
// development logger everywhere else.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}

	logCfg := zap.NewDevelopmentConfig()
	logCfg.DisableStacktrace = true
	return logCfg.Build(zap.Fields(zap.String("env", cfg.Env)))
}
