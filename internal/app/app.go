// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// два Telegram-бота, DB listener и планировщик.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/teamhub-bot/internal/bot"
	"serotonyl.ru/teamhub-bot/internal/bot/filters"
	"serotonyl.ru/teamhub-bot/internal/config"
	"serotonyl.ru/teamhub-bot/internal/db/postgres"
	"serotonyl.ru/teamhub-bot/internal/features/admin"
	"serotonyl.ru/teamhub-bot/internal/features/discovery"
	"serotonyl.ru/teamhub-bot/internal/features/drivers"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
	"serotonyl.ru/teamhub-bot/internal/geo"
	"serotonyl.ru/teamhub-bot/internal/jobs"
	"serotonyl.ru/teamhub-bot/internal/listener"
	"serotonyl.ru/teamhub-bot/internal/metrics"
)

// App содержит все компоненты приложения.
type App struct {
	DriverBot *bot.Bot
	AdminBot  *bot.Bot
	Listener  *listener.Listener
	Scheduler *jobs.Scheduler
	Metrics   *metrics.Manager
	DB        *pgxpool.Pool

	metricsAddr string
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Метрики и геокодер ===
	m := metrics.NewManager(metrics.WithNamespace("teamhub"))
	resolver := geo.NewNominatim(cfg.GeoBaseURL, cfg.GeoUserAgent, cfg.GeoCountryCodes, cfg.GeoTimeout)

	// === 3. Telegram Bot API ===
	driverAPI, err := newTelegramAPI(ctx, cfg, cfg.DriverBotToken, "driver")
	if err != nil {
		pool.Close()
		return nil, err
	}
	adminAPI, err := newTelegramAPI(ctx, cfg, cfg.AdminBotToken, "admin")
	if err != nil {
		pool.Close()
		return nil, err
	}

	// === 4. Репозитории ===
	driverRepo := drivers.NewRepository(pool)
	ratingRepo := rating.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	driverService := drivers.NewService(driverRepo, resolver)
	ratingService := rating.NewService(ratingRepo, driverRepo, m)
	finder := discovery.NewEngine(resolver, cfg.GeoTimeout, m)
	adminService := admin.NewService(driverService, ratingService, finder, adminRepo)

	// === 6. Обработчики ===
	chatFilter := filters.NewChatFilter(cfg.AdminGroupID)
	driverHandler := drivers.NewHandler(driverService, driverAPI)
	adminHandler := admin.NewHandler(adminService, adminAPI, chatFilter, loadLocation(cfg.AppTimezone))

	// === 7. Собираем ботов ===
	opts := func(name string) bot.Options {
		return bot.Options{
			Name:          name,
			MaxInflight:   cfg.BotMaxInflight,
			UpdateTimeout: cfg.BotUpdateTimeoutSeconds,
			RateRequests:  cfg.RateLimitRequests,
			RateWindow:    cfg.RateLimitWindow,
		}
	}
	driverBot := bot.New(driverAPI, driverHandler, opts("driver"))
	adminBot := bot.New(adminAPI, adminHandler, opts("admin"))

	// === 8. DB listener ===
	l := listener.New(
		listener.PgDialer{DSN: cfg.DatabaseDSN()},
		cfg.ListenerChannels,
		notificationRouter(adminHandler.NotifyNewDriver, driverHandler.NotifyApproved),
		listener.WithBackoff(listener.Backoff{
			Initial: cfg.ListenerBackoff,
			Max:     cfg.ListenerMaxBackoff,
			Factor:  cfg.ListenerBackoffFactor,
		}),
		listener.WithHeartbeat(cfg.ListenerHeartbeat),
		listener.WithMetrics(m),
	)

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(jobs.Config{
		Spec:          cfg.ReminderCron,
		InactiveHours: cfg.ReminderInactiveHours,
		Timezone:      cfg.AppTimezone,
	}, driverService, driverHandler)

	return &App{
		DriverBot:   driverBot,
		AdminBot:    adminBot,
		Listener:    l,
		Scheduler:   scheduler,
		Metrics:     m,
		DB:          pool,
		metricsAddr: cfg.MetricsAddr,
	}, nil
}

// Run запускает ботов, listener, cron и /metrics. Блокируется до отмены ctx
// или до фатальной ошибки одного из компонентов.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.DriverBot.Start(ctx) })
	g.Go(func() error { return a.AdminBot.Start(ctx) })
	g.Go(func() error {
		defer a.Listener.Wait()
		return a.Listener.Run(ctx)
	})

	if a.metricsAddr != "" {
		g.Go(func() error { return a.serveMetrics(ctx) })
	}

	return g.Wait()
}

// Close освобождает ресурсы.
func (a *App) Close() {
	a.DB.Close()
}

func (a *App) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	srv := &http.Server{
		Addr:              a.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", a.metricsAddr).Info("Метрики доступны на /metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка HTTP-сервера метрик: %w", err)
	}
	return nil
}

// newTelegramAPI создаёт клиент Bot API и проверяет токен через getMe.
func newTelegramAPI(ctx context.Context, cfg *config.Config, token, name string) (*telego.Bot, error) {
	logOpt := telego.WithDiscardLogger()
	if cfg.AppEnv == "development" {
		logOpt = telego.WithDefaultLogger(false, true)
	}

	api, err := telego.NewBot(token, logOpt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API (%s): %w", name, err)
	}

	me, err := api.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка авторизации бота %s: %w", name, err)
	}
	log.WithField("bot", name).Infof("Авторизован как @%s", me.Username)
	return api, nil
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("tz", name).Warn("Не удалось загрузить часовой пояс, используем UTC")
		return time.UTC
	}
	return loc
}
