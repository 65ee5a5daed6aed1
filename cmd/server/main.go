package main

import (
	"context"
	"fmt"

	"github.com/medboxio/medbox/internal/config"
	"github.com/medboxio/medbox/internal/handler"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/server"
	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/internal/store"
	"github.com/medboxio/medbox/internal/token"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("medbox-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx := context.Background()

	db, err := store.NewConnect(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	storages := store.NewStorages(db, log)

	tokens := token.NewJWTAuthority(cfg.Auth.TokenSignKey, cfg.Auth.TokenIssuer, cfg.Auth.TokenDuration)
	services := service.NewServices(storages, tokens, log)

	if cfg.Auth.AdminPIN != "" {
		if err := services.UserService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPIN); err != nil {
			log.Fatal().Err(err).Msg("error seeding administrator account")
		}
	}

	handlers, err := handler.NewHandlers(services, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
