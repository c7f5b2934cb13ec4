package main

import (
	"fmt"
	"os"

	_ "openclaw/docs"
	"openclaw/internal/config"
	"openclaw/internal/database"
	"openclaw/internal/logger"
	"openclaw/internal/server"
)

// @title           OpenClaw API
// @version         1.0
// @description     Tasks and scheduled reminders delivered over WhatsApp, Telegram and the UI.

// @host      localhost:8080
// @BasePath  /

// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("app", cfg.AppName).Str("env", cfg.Env).Msg("starting")

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database initialization failed")
	}

	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	s, err := server.Init(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server initialization failed")
	}

	if err := s.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}
