// Package app assembles the clinic bot: infrastructure bootstrap,
// conversation engine, menu wiring, and the background scheduler.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	"github.com/mkamenev/clinicbot/core/bootstrap"
	"github.com/mkamenev/clinicbot/core/cmd"
	"github.com/mkamenev/clinicbot/core/logger"
	coretelegram "github.com/mkamenev/clinicbot/core/telegram"
	"github.com/mkamenev/clinicbot/core/telegram/router"
	"github.com/mkamenev/clinicbot/internal/access"
	"github.com/mkamenev/clinicbot/internal/cache"
	"github.com/mkamenev/clinicbot/internal/config"
	"github.com/mkamenev/clinicbot/internal/flows"
	"github.com/mkamenev/clinicbot/internal/fsm"
	"github.com/mkamenev/clinicbot/internal/links"
	"github.com/mkamenev/clinicbot/internal/scheduler"
	"github.com/mkamenev/clinicbot/internal/stats"
	"github.com/mkamenev/clinicbot/internal/storage"
)

// App is the assembled bot application.
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	redis  *redis.Client
	store  *storage.Store
	cache  *cache.Coordinator
	access *access.Checker
	engine *fsm.Engine
	env    *flows.Env
	sched  *scheduler.Scheduler
	handle *botHandle
}

// LoadConfig loads the application configuration for the shared runner.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	return config.Load(path)
}

// Bootstrap initializes infrastructure and wires the application graph.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := storage.New(res.DB)
	coord := cache.New(cache.NewRedisBackend(rdb), store, cfg.Cache.TTL)
	checker := access.NewChecker(coord, cfg.Clinic.SuperAdminID)
	engine := fsm.NewEngine(fsm.NewRedisStore(rdb, cfg.Session.TTL))

	handle := &botHandle{}
	env := &flows.Env{
		Data:   store,
		Cache:  coord,
		Access: checker,
		Stats:  stats.NewService(store),
		Links:  links.NewHTTPProvider(cfg.Links.BaseURL, cfg.Links.Timeout),
		Payments: &invoiceSender{
			handle:   handle,
			token:    cfg.Payments.ProviderToken,
			currency: cfg.Payments.Currency,
		},
		Notify: &notifier{handle: handle},
		Cfg: flows.Config{
			SuperAdminID: cfg.Clinic.SuperAdminID,
			OpsChatID:    cfg.Clinic.OpsChatID,
			PageSize:     cfg.Clinic.PageSize,
			SpecsPerRow:  cfg.Clinic.SpecsPerRow,
			PhotoDir:     cfg.Clinic.PhotoDir,
			PhotoExt:     cfg.Clinic.PhotoExt,
		},
	}
	flows.RegisterAll(engine, env)

	sched := scheduler.New(coord, env.Links, env.Stats, env.Notify, scheduler.Config{
		OpsChatID:   cfg.Clinic.OpsChatID,
		StatsChatID: cfg.Clinic.StatsChatID,
	})

	return &App{
		cfg:    cfg,
		db:     res.DB,
		redis:  rdb,
		store:  store,
		cache:  coord,
		access: checker,
		engine: engine,
		env:    env,
		sched:  sched,
		handle: handle,
	}, nil
}

// TelegramRunOptions builds the bot runtime: registry, routes, middlewares,
// and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerHandlers(reg)

	adapter := &engineAdapter{engine: a.engine}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(adapter, reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(adapter, reg, router.TextOptions{})...)
	routes = append(routes,
		coretelegram.Route{
			Endpoint: tele.OnCheckout,
			Handler: func(c tele.Context) error {
				return c.Accept()
			},
		},
		coretelegram.Route{
			Endpoint: tele.OnPayment,
			Handler:  adapter.PaymentHandler,
		},
	)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.handle.Bind(rt.Bot)
			// Warm the reference cache; a cold start with a down backend
			// still serves through the degraded path.
			if err := a.cache.RefreshAll(ctx); err != nil {
				logger.Cache.LogAttrs(ctx, slog.LevelWarn, "warmup.failed",
					slog.Any("error", err))
			}
			return a.sched.Start()
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.sched.Stop()
			if err := a.redis.Close(); err != nil {
				logger.Cache.LogAttrs(ctx, slog.LevelWarn, "redis.close_failed",
					slog.Any("error", err))
			}
			return a.db.Close()
		},
	}, nil
}
