package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nisshi-dev/nisshi-dev-survey-api/app"
	"github.com/nisshi-dev/nisshi-dev-survey-api/auth"
	"github.com/nisshi-dev/nisshi-dev-survey-api/config"
	"github.com/nisshi-dev/nisshi-dev-survey-api/database"
	"github.com/nisshi-dev/nisshi-dev-survey-api/log"
	"github.com/nisshi-dev/nisshi-dev-survey-api/mailer"
	"github.com/nisshi-dev/nisshi-dev-survey-api/routes"
	"github.com/nisshi-dev/nisshi-dev-survey-api/storage"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	store := storage.New(db)
	if err := bootstrapAdmin(store, cfg); err != nil {
		log.Fatal("main.admin:", err)
	}

	var m mailer.Mailer = mailer.Disabled{}
	if cfg.ResendAPIKey != "" && cfg.FromEmail != "" {
		m = mailer.NewResend(cfg.ResendAPIKey, cfg.FromEmail)
	} else {
		log.Warn("Mailer not configured, response copies will not be sent")
	}

	app := app.App{
		Store:    store,
		Sessions: auth.NewProvider(store, cfg.SessionTTL),
		Mailer:   m,
		Config:   cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

// bootstrapAdmin creates or updates the configured admin user so a fresh
// deployment has someone able to sign in.
func bootstrapAdmin(store *storage.Store, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	err = store.UpsertAdminUser(context.Background(), cfg.AdminEmail, hash)
	if err != nil {
		return err
	}
	log.Info("Admin user ready: " + cfg.AdminEmail)
	return nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
