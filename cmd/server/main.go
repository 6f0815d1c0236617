package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/medisage/modules/analysis"
	"github.com/dmitrymomot/medisage/modules/billing"
	"github.com/dmitrymomot/medisage/modules/usage"
	"github.com/dmitrymomot/medisage/pkg/auth"
	billingprovider "github.com/dmitrymomot/medisage/pkg/billing"
	"github.com/dmitrymomot/medisage/pkg/clientip"
	"github.com/dmitrymomot/medisage/pkg/config"
	"github.com/dmitrymomot/medisage/pkg/httpserver"
	"github.com/dmitrymomot/medisage/pkg/logger"
	"github.com/dmitrymomot/medisage/pkg/metrics"
	"github.com/dmitrymomot/medisage/pkg/mongo"
	"github.com/dmitrymomot/medisage/pkg/plan"
	"github.com/dmitrymomot/medisage/pkg/redis"
	"github.com/dmitrymomot/medisage/pkg/requestid"
	analysissvc "github.com/dmitrymomot/medisage/svc/analysis"
	"github.com/dmitrymomot/medisage/svc/subscription"
	usagesvc "github.com/dmitrymomot/medisage/svc/usage"
)

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithRedactedKeys("email", "authorization", "token", "symptoms", "description", "additional_info"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			auth.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()

	provider, err := billingprovider.NewStripeProvider(cfg.Stripe)
	if err != nil {
		return err
	}

	upstream, err := analysissvc.NewClient(cfg.Analysis)
	if err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	var billingOpts []billing.Option
	if cfg.Auth.SecretKey != "" {
		directory, err := auth.NewDirectory(cfg.Auth)
		if err != nil {
			return err
		}
		billingOpts = append(billingOpts, billing.WithEmailLookup(directory))
	} else {
		log.Warn("AUTH_SECRET_KEY is not set, checkout requires an email claim in session tokens")
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
	if err != nil {
		_ = rdb.Close()
		return err
	}

	subStore := subscription.NewMongoStore(db)
	if err := subStore.EnsureIndexes(ctx); err != nil {
		_ = rdb.Close()
		_ = db.Client().Disconnect(context.Background())
		return err
	}

	catalog := plan.Default().WithPrices(map[plan.Tier]string{
		plan.Professional: cfg.Stripe.PriceProfessional,
		plan.Clinical:     cfg.Stripe.PriceClinical,
	})

	subs := subscription.NewService(subStore, provider,
		subscription.WithCatalog(catalog),
		subscription.WithBaseURL(cfg.BaseURL),
		subscription.WithLogger(log.With(logger.Component("subscription"))),
		subscription.WithMetrics(m),
	)
	limiter := usagesvc.NewLimiter(usagesvc.NewRedisStore(rdb), subs,
		usagesvc.WithLogger(log.With(logger.Component("usage"))),
		usagesvc.WithMetrics(m),
	)
	analyses := analysissvc.NewService(upstream, limiter, subs,
		analysissvc.WithLogger(log.With(logger.Component("analysis"))),
	)

	billingHandler := billing.NewHandler(subs, log, billingOpts...)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestid.Middleware,
		clientip.Middleware(cfg.ClientIPHeaders...),
		m.Middleware,
	)

	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log,
		redis.Healthcheck(rdb),
		mongo.Healthcheck(db.Client()),
	))
	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/webhooks/stripe", billingHandler.Webhook())

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, log))
			r.Mount("/analysis-limit", usage.NewHandler(limiter, log).Handle())
			r.Mount("/analyze", analysis.NewHandler(analyses, log).Handle())
			r.Mount("/", billingHandler.Handle())
		})
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func() {
			if err := rdb.Close(); err != nil {
				log.Error("close redis", logger.Error(err))
			}
		}),
		httpserver.WithStopHook(func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Error("disconnect mongo", logger.Error(err))
			}
		}),
	)

	return srv.Run(ctx, r)
}
