// Package bootstrap connects the backing services from config and assembles
// the loan application service shared by the server and the CLI.
package bootstrap

import (
	"context"
	"time"

	"loan-intake/internal/applicants"
	"loan-intake/internal/applications"
	awsclients "loan-intake/internal/common/aws"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/database"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/common/startup"
	"loan-intake/internal/loanapp"
	"loan-intake/internal/notify"
	"loan-intake/internal/search"
)

// App holds the connected clients. Redis and Elasticsearch are nil when
// disabled or unreachable at startup.
type App struct {
	Config        *config.Config
	Service       *loanapp.Service
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient

	logger logger.Logger
}

type options struct {
	retries    int
	retryDelay time.Duration
	obs        *observability.Observability
}

type Option func(*options)

// WithRetry sets how often the postgres connection is attempted.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.retries = attempts
		o.retryDelay = initialDelay
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *options) { o.obs = obs }
}

// New connects postgres (required) and the optional side services, then
// builds the service. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	o := options{retries: 15, retryDelay: 2 * time.Second, obs: observability.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, logger: log}

	err := startup.RetryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		app.Postgres = pg
		return nil
	}, o.retries, o.retryDelay, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	var verifierOpts []applicants.Option
	if cfg.Database.Redis.Enabled {
		app.Redis = connectRedis(ctx, cfg.Database.Redis, log)
		if app.Redis != nil {
			ttl := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
			verifierOpts = append(verifierOpts, applicants.WithCache(app.Redis, ttl))
		}
	}

	serviceOpts := []loanapp.Option{loanapp.WithObservability(o.obs)}

	if cfg.Database.Elasticsearch.Enabled {
		app.Elasticsearch = connectElasticsearch(ctx, cfg.Database.Elasticsearch, log)
		if app.Elasticsearch != nil {
			indexer := search.NewIndexer(app.Elasticsearch.Client, cfg.Database.Elasticsearch.Index, log)
			serviceOpts = append(serviceOpts, loanapp.WithSearchIndexer(indexer))
		}
	}

	notifier, err := NewNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		log.Warn("notifications disabled", map[string]interface{}{"error": err.Error()})
	} else if notifier != nil {
		serviceOpts = append(serviceOpts, loanapp.WithNotifier(notifier))
	}

	app.Service = loanapp.NewService(
		cfg.Storage,
		applicants.NewVerifier(app.Postgres.DB, log, verifierOpts...),
		applications.NewRepository(app.Postgres.DB, log),
		log,
		serviceOpts...,
	)

	return app, nil
}

// ReadyChecks lists the connected dependencies for the readiness endpoint.
func (a *App) ReadyChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"postgres": a.Postgres.Ping,
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Ping
	}
	if a.Elasticsearch != nil {
		checks["elasticsearch"] = a.Elasticsearch.Ping
	}
	return checks
}

// Close releases every connection opened by New.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			a.logger.Warn("postgres close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// NewNotifier builds the AWS-backed notifier. It returns nil when neither
// email nor events are enabled.
func NewNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*notify.Notifier, error) {
	if !cfg.Email.Enabled && !cfg.Events.Enabled {
		return nil, nil
	}

	awsCfg, err := awsclients.LoadConfig(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}

	var ses notify.SESService
	if cfg.Email.Enabled {
		ses = awsclients.NewSESClient(awsCfg)
	}
	var sns notify.SNSService
	if cfg.Events.Enabled {
		sns = awsclients.NewSNSClient(awsCfg)
	}

	return notify.NewNotifier(notify.Config{
		EmailEnabled:  cfg.Email.Enabled,
		FromEmail:     cfg.Email.FromEmail,
		EventsEnabled: cfg.Events.Enabled,
		TopicARN:      cfg.Events.TopicARN,
	}, ses, sns, log), nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) *database.RedisClient {
	client := database.NewRedis(cfg)
	if err := client.Ping(ctx); err != nil {
		log.Warn("redis unavailable, applicant cache disabled", map[string]interface{}{"error": err.Error()})
		client.Close()
		return nil
	}
	log.Info("Redis connected successfully", nil)
	return client
}

func connectElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, log logger.Logger) *database.ElasticsearchClient {
	client, err := database.NewElasticsearch(cfg)
	if err == nil {
		err = client.Ping(ctx)
	}
	if err != nil {
		log.Warn("elasticsearch unavailable, search indexing disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	log.Info("Elasticsearch connected successfully", nil)
	return client
}
