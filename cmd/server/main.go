// Command server runs the Trade Card Builder HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tradecardhq/tradecard/modules/account"
	billingmod "github.com/tradecardhq/tradecard/modules/billing"
	"github.com/tradecardhq/tradecard/modules/cards"
	"github.com/tradecardhq/tradecard/modules/quotas"
	"github.com/tradecardhq/tradecard/modules/webhooks"
	"github.com/tradecardhq/tradecard/pkg/clientip"
	"github.com/tradecardhq/tradecard/pkg/config"
	"github.com/tradecardhq/tradecard/pkg/httpserver"
	"github.com/tradecardhq/tradecard/pkg/logger"
	"github.com/tradecardhq/tradecard/pkg/pg"
	"github.com/tradecardhq/tradecard/pkg/redis"
	"github.com/tradecardhq/tradecard/pkg/requestid"
	"github.com/tradecardhq/tradecard/pkg/session"
	"github.com/tradecardhq/tradecard/pkg/storage"
	"github.com/tradecardhq/tradecard/svc/auth"
	"github.com/tradecardhq/tradecard/svc/billing"
	"github.com/tradecardhq/tradecard/svc/content"
	"github.com/tradecardhq/tradecard/svc/draft"
	"github.com/tradecardhq/tradecard/svc/export"
	"github.com/tradecardhq/tradecard/svc/notify"
	"github.com/tradecardhq/tradecard/svc/quota"
	"github.com/tradecardhq/tradecard/svc/subscription"
	"github.com/tradecardhq/tradecard/svc/user"
)

type appConfig struct {
	AppName         string            `env:"APP_NAME" envDefault:"tradecard"`
	BillingProvider string            `env:"BILLING_PROVIDER" envDefault:"polar"`
	SessionBackend  string            `env:"SESSION_BACKEND" envDefault:"memory"`
	PlansPath       string            `env:"QUOTA_PLANS_PATH"`
	PlanMap         map[string]string `env:"BILLING_PLAN_MAP" envSeparator:"," envKeyValSeparator:":"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg    appConfig
		logCfg    logger.Config
		httpCfg   httpserver.Config
		pgCfg     pg.Config
		sessCfg   session.Config
		authCfg   auth.Config
		acctCfg   account.Config
		billCfg   billingmod.Config
		exportCfg export.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&sessCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&acctCfg)
	config.MustLoad(&billCfg)
	config.MustLoad(&exportCfg)

	log := logger.NewFromConfig(logCfg, logger.WithAttr(slog.String("app", appCfg.AppName)))
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	provider, err := newBillingProvider(appCfg.BillingProvider)
	if err != nil {
		return err
	}

	sessionStore, err := newSessionStore(ctx, appCfg.SessionBackend)
	if err != nil {
		return err
	}
	sessions := session.NewManager(sessionStore, sessCfg)

	users := user.NewService(user.NewPostgresStore(pool))

	var notifyCfg notify.Config
	config.MustLoad(&notifyCfg)
	sender, err := notify.NewPostmarkSender(notifyCfg)
	if err != nil {
		return fmt.Errorf("init postmark sender: %w", err)
	}

	subs := subscription.NewService(
		subscription.NewPostgresStore(pool),
		users,
		provider,
		subscription.NewPlanMapper(appCfg.PlanMap),
		log,
		subscription.WithNotifier(notify.NewSubscriptionNotifier(sender)),
	)

	quotaSvc, err := quota.NewService(ctx, planSource(appCfg.PlansPath), quota.NewPostgresStore(pool), subs, log)
	if err != nil {
		return fmt.Errorf("init quota service: %w", err)
	}

	drafts := draft.NewService(draft.NewPostgresStore(pool))

	var contentCfg content.Config
	config.MustLoad(&contentCfg)
	generator := content.NewServiceFromConfig(contentCfg)

	var s3Cfg storage.Config
	config.MustLoad(&s3Cfg)
	files, err := storage.NewS3Storage(ctx, s3Cfg)
	if err != nil {
		return fmt.Errorf("init s3 storage: %w", err)
	}
	exporter := export.NewService(files, exportCfg)

	var googleCfg auth.GoogleConfig
	var githubCfg auth.GithubConfig
	config.MustLoad(&googleCfg)
	config.MustLoad(&githubCfg)
	authSvc := auth.NewService(users, authCfg,
		auth.NewGoogleAdapter(googleCfg),
		auth.NewGithubAdapter(githubCfg),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(sessions.Middleware)

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, pg.Healthcheck(pool)))
	r.Mount("/auth", account.Router(account.Deps{
		Auth:     authSvc,
		Sessions: sessions,
		Users:    users,
		Log:      log,
	}, acctCfg))
	r.Mount("/webhooks", webhooks.Router(subs, log))
	r.Mount("/quota", quotas.Router(quotaSvc))
	r.Mount("/billing", billingmod.Router(subs, users, billCfg))
	r.Mount("/drafts", cards.Router(cards.Deps{
		Drafts:    drafts,
		Generator: generator,
		Exporter:  exporter,
		Quotas:    quotaSvc,
		Log:       log,
	}))

	log.InfoContext(ctx, "starting http server",
		slog.String("addr", httpCfg.Addr),
		slog.String("billing_provider", provider.Name()))

	return httpserver.NewFromConfig(httpCfg).Run(ctx, r)
}

// newBillingProvider constructs only the configured provider, so only its
// credentials need to be present in the environment.
func newBillingProvider(name string) (billing.Provider, error) {
	switch name {
	case billing.ProviderPolar:
		var cfg billing.PolarConfig
		config.MustLoad(&cfg)
		return billing.NewPolarProvider(cfg), nil
	case billing.ProviderLemonSqueezy:
		var cfg billing.LemonSqueezyConfig
		config.MustLoad(&cfg)
		return billing.NewLemonSqueezyProvider(cfg), nil
	case billing.ProviderPaddle:
		var cfg billing.PaddleConfig
		config.MustLoad(&cfg)
		return billing.NewPaddleProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", billing.ErrUnknownProvider, name)
	}
}

func newSessionStore(ctx context.Context, backend string) (session.Store, error) {
	switch backend {
	case "redis":
		var cfg redis.Config
		config.MustLoad(&cfg)
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return session.NewRedisStore(client), nil
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}

func planSource(path string) quota.PlanSource {
	if path != "" {
		return quota.YAMLFileSource{Path: path}
	}
	return quota.DefaultPlans()
}
