package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/soundvault/soundvault-back/internal/auth"
	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/seclog"
	"github.com/soundvault/soundvault-back/internal/service"
	"github.com/soundvault/soundvault-back/internal/transport"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			newLogger,
			seclog.New,
			db.NewGormClient,
			auth.NewManager,
			service.NewAuth,
			service.NewSounds,
			service.NewTags,
			service.NewComments,
			service.NewFavorites,
			transport.New,
		),
		fx.Invoke(transport.Register),
	)

	app.Run()
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if cfg.Debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
