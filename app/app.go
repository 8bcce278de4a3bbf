package app

import (
	"github.com/nisshi-dev/nisshi-dev-survey-api/auth"
	"github.com/nisshi-dev/nisshi-dev-survey-api/config"
	"github.com/nisshi-dev/nisshi-dev-survey-api/mailer"
	"github.com/nisshi-dev/nisshi-dev-survey-api/storage"
)

type App struct {
	*storage.Store
	Sessions *auth.Provider
	Mailer   mailer.Mailer
	config.Config
}
