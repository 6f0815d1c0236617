package main

import (
	"github.com/dmitrymomot/medisage/pkg/auth"
	"github.com/dmitrymomot/medisage/pkg/billing"
	"github.com/dmitrymomot/medisage/pkg/httpserver"
	"github.com/dmitrymomot/medisage/pkg/mongo"
	"github.com/dmitrymomot/medisage/pkg/redis"
	"github.com/dmitrymomot/medisage/svc/analysis"
)

// appConfig is the complete process configuration, read from the
// environment and an optional .env file.
type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_SERVICE" envDefault:"medisage"`
	BaseURL string `env:"APP_BASE_URL,required"`

	// ClientIPHeaders lists the headers set by the trusted proxy, in order.
	ClientIPHeaders []string `env:"CLIENT_IP_HEADERS" envSeparator:","`

	HTTP     httpserver.Config
	Redis    redis.Config
	Mongo    mongo.Config
	Stripe   billing.Config
	Auth     auth.Config
	Analysis analysis.Config
}
