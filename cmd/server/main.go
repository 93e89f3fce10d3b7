package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/authkit/handler"
	"github.com/dmitrymomot/authkit/modules/account"
	"github.com/dmitrymomot/authkit/pkg/captcha"
	"github.com/dmitrymomot/authkit/pkg/clientip"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/environment"
	"github.com/dmitrymomot/authkit/pkg/httpserver"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/mongo"
	"github.com/dmitrymomot/authkit/pkg/pg"
	"github.com/dmitrymomot/authkit/pkg/queue"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/pkg/redis"
	"github.com/dmitrymomot/authkit/pkg/requestid"
	accountsvc "github.com/dmitrymomot/authkit/svc/account"
	"github.com/dmitrymomot/authkit/svc/auth"
)

type appConfig struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	Name        string   `env:"APP_NAME" envDefault:"authkit"`
	StoreDriver string   `env:"STORE_DRIVER" envDefault:"memory"`
	IPHeaders   []string `env:"TRUSTED_IP_HEADERS" envSeparator:","`
}

type jwtConfig struct {
	Secret string        `env:"JWT_SECRET,required"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"authkit"`
}

var envFiles = []config.Option{config.WithEnvFiles(".env"), config.WithOptionalEnvFiles()}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app, envFiles...); err != nil {
		return err
	}
	env := environment.Parse(app.Env)

	log := logger.New(
		logger.WithEnvironment(env.String(), app.Name),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
			auth.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	var (
		jwtCfg     jwtConfig
		authCfg    auth.Config
		cookieCfg  cookie.Config
		captchaCfg captcha.Config
		googleCfg  auth.GoogleConfig
		limitCfg   ratelimiter.Settings
		mailCfg    email.Config
		serverCfg  httpserver.Config
	)
	for _, v := range []func() error{
		func() error { return config.Load(&jwtCfg, envFiles...) },
		func() error { return config.Load(&authCfg, envFiles...) },
		func() error { return config.Load(&cookieCfg, envFiles...) },
		func() error { return config.Load(&captchaCfg, envFiles...) },
		func() error { return config.Load(&googleCfg, envFiles...) },
		func() error { return config.Load(&limitCfg, envFiles...) },
		func() error { return config.Load(&mailCfg, envFiles...) },
		func() error { return config.Load(&serverCfg, envFiles...) },
	} {
		if err := v(); err != nil {
			return err
		}
	}
	if _, set := os.LookupEnv("COOKIE_SECURE"); !set {
		cookieCfg.Secure = env.IsProduction()
	}

	store, checks, closeStore, err := openStore(ctx, app.StoreDriver, log)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter, limiterChecks, closeLimiter, err := openLimiter(ctx, limitCfg)
	if err != nil {
		return err
	}
	defer closeLimiter()
	checks = append(checks, limiterChecks...)

	signer, err := jwt.NewFromString(jwtCfg.Secret, jwt.WithIssuer(jwtCfg.Issuer))
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	tokens, err := auth.NewTokenService(signer, jwtCfg.TTL)
	if err != nil {
		return err
	}
	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return fmt.Errorf("cookies: %w", err)
	}

	sender, err := email.NewSender(mailCfg)
	if err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	tasks := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(tasks)
	if err != nil {
		return err
	}
	worker, err := queue.NewWorker(tasks, queue.WithWorkerLogger(log))
	if err != nil {
		return err
	}
	handlers := append(auth.MailHandlers(sender), auth.PurgeResetTokensHandler(store, time.Now))
	if err := worker.RegisterHandlers(handlers...); err != nil {
		return err
	}
	scheduler, err := queue.NewScheduler(tasks, queue.WithSchedulerLogger(log))
	if err != nil {
		return err
	}
	if err := scheduler.AddTask(auth.PurgeResetTokensTask, queue.Hourly()); err != nil {
		return err
	}

	captchaOpts, err := captchaOptions(ctx, env, captchaCfg, log)
	if err != nil {
		return err
	}
	svcOpts := append([]auth.Option{auth.WithLogger(log)}, captchaOpts...)
	authSvc, err := auth.NewService(store, tokens, enqueuer, authCfg, svcOpts...)
	if err != nil {
		return err
	}

	gate := auth.NewGate(tokens, cookies, auth.WithGateLogger(log))
	errs := handler.NewErrorWriter(log, handler.ErrorHandlerConfig{Development: env.IsDevelopment()})

	pageOpts := []account.PageOption{
		account.WithSiteKey(captchaCfg.SiteKey),
		account.WithPageLogger(log),
	}
	if googleCfg.Enabled() {
		pageOpts = append(pageOpts,
			account.WithGoogle(auth.NewGoogleProvider(googleCfg)),
			account.WithStateTTL(googleCfg.StateTTL),
		)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestid.Middleware,
		environment.Middleware(env),
		clientip.New(clientip.WithTrustedHeaders(app.IPHeaders...)).Middleware,
	)
	r.NotFound(errs.NotFound())
	r.MethodNotAllowed(errs.MethodNotAllowed())

	r.Get("/health", httpserver.HealthCheckHandler(log, checks...))
	r.Mount("/", account.Router(account.RouterOptions{
		API:            account.NewAPIService(authSvc, gate, errs),
		Pages:          account.NewPageService(authSvc, gate, cookies, errs, pageOpts...),
		APIMiddlewares: []func(http.Handler) http.Handler{account.RateLimit(limiter, errs)},
	}))

	server := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx, r) })
	g.Go(worker.Run(ctx))
	g.Go(func() error { return scheduler.Start(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

var errCaptchaRequired = errors.New("RECAPTCHA_SECRET_KEY is required in production")

// captchaOptions enables reCAPTCHA when a secret is configured. Without one,
// checks are skipped outside production and startup fails in production.
func captchaOptions(ctx context.Context, env environment.Environment, cfg captcha.Config, log *slog.Logger) ([]auth.Option, error) {
	if cfg.SecretKey == "" {
		if env.IsProduction() {
			return nil, errCaptchaRequired
		}
		log.WarnContext(ctx, "reCAPTCHA secret is not set, captcha checks are disabled")
		return nil, nil
	}
	verifier, err := captcha.New(cfg, captcha.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("captcha: %w", err)
	}
	return []auth.Option{auth.WithCaptcha(verifier)}, nil
}

// openStore connects the account backend named by driver and returns its
// health checks together with a cleanup func.
func openStore(ctx context.Context, driver string, log *slog.Logger) (accountsvc.Store, []func(context.Context) error, func(), error) {
	switch driver {
	case "", "memory":
		log.WarnContext(ctx, "using in-memory account store, data is lost on restart")
		return accountsvc.NewMemoryStore(), nil, func() {}, nil

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg, envFiles...); err != nil {
			return nil, nil, nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.WithoutCancel(ctx)); err != nil {
				log.Error("failed to disconnect mongo", logger.Error(err))
			}
		}
		store := accountsvc.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return store, []func(context.Context) error{mongo.Healthcheck(db.Client())}, closeFn, nil

	case "postgres":
		var cfg pg.Config
		if err := config.Load(&cfg, envFiles...); err != nil {
			return nil, nil, nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, accountsvc.Migrations, accountsvc.MigrationsDir, cfg, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return accountsvc.NewPostgresStore(pool), []func(context.Context) error{pg.Healthcheck(pool)}, pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
}

func openLimiter(ctx context.Context, cfg ratelimiter.Settings) (ratelimiter.RateLimiter, []func(context.Context) error, func(), error) {
	var (
		store   ratelimiter.Store
		checks  []func(context.Context) error
		closeFn = func() {}
	)
	switch cfg.Store {
	case "", "memory":
		store = ratelimiter.NewMemoryStore()

	case "redis":
		var rcfg redis.Config
		if err := config.Load(&rcfg, envFiles...); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		rs, err := ratelimiter.NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		store = rs
		checks = append(checks, redis.Healthcheck(client))
		closeFn = func() { _ = client.Close() }

	default:
		return nil, nil, nil, fmt.Errorf("unknown RATE_LIMIT_STORE %q", cfg.Store)
	}

	bucket, err := ratelimiter.NewBucket(store, cfg.BucketConfig())
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return bucket, checks, closeFn, nil
}
