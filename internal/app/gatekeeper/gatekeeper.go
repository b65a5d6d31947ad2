// Package gatekeeper собирает основное приложение: HTTP API, фоновую
// проверку истечения подписок и ленту алертов MOEX. Все три части живут
// в одном процессе и разделяют таблицу блокировок по пользователям.
package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/access"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/cache"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/config"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/migrations"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/moex"
	alertsservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/alerts"
	lifecycleservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/lifecycle"
	paymentservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/payment"
	sweeperservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/sweeper"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/telegram"
)

// App основное приложение.
type App struct {
	server  *http.Server
	sweeper *sweeperservice.Service
	feed    *alertsservice.Feed
	logger  *slog.Logger
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
}

// New собирает приложение: хранилище с миграциями, кеш, брокер
// уведомлений, клиенты Bot API и AlgoPack, сервисы и HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitConnection, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	tgClient := telegram.NewClient(cfg.Telegram)
	moexClient := moex.NewClient(cfg.Moex)
	jwtMaker := jwt.NewMaker(cfg.AdminAuth.JWTSecretKey, cfg.AdminAuth.TokenTTL)
	evaluator := access.Evaluator{TrialPeriod: cfg.Access.TrialPeriod}

	lifecycleSvc := lifecycleservice.New(db, tgClient, publisher, cacheRedis, evaluator, logger)
	paymentSvc := paymentservice.New(db, lifecycleSvc, publisher,
		cfg.Payments.Amount, cfg.Access.GrantDays, logger)
	sweeperSvc := sweeperservice.New(db, lifecycleSvc,
		cfg.Access.SweepInterval, cfg.Access.TrialPeriod, logger)
	feed := alertsservice.NewFeed(moexClient, publisher,
		cfg.Moex.CheckInterval, cfg.Moex.FreshnessWindow, logger)

	router := chi.NewRouter()
	RegisterRoutes(ctx, router, logger, lifecycleSvc, paymentSvc, jwtMaker, cfg)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		sweeper: sweeperSvc,
		feed:    feed,
		logger:  logger,
		db:      db,
		conn:    conn,
		ch:      ch,
	}, nil
}

// Run запускает фоновые службы и HTTP-сервер, при отмене контекста
// останавливает сервер с пятнадцатисекундным таймаутом.
func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Run(ctx)
	go a.feed.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if chErr := a.ch.Close(); chErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", chErr))
		}
		if connErr := a.conn.Close(); connErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", connErr))
		}
		a.db.DB.Close()
		return err
	}
}
