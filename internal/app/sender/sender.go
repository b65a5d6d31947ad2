// Package sender собирает сервис доставки уведомлений: потребители
// очередей RabbitMQ и клиент Bot API для отправки сообщений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/config"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/rabbitmq"
	senderservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/sender"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/telegram"
)

// App сервис доставки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New собирает сервис: подключение к брокеру, канал с очередями
// и сервис доставки поверх клиента Bot API.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitConnection, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	tgClient := telegram.NewClient(cfg.Telegram)
	senderService := senderservice.New(tgClient, cfg.Telegram.AdminChatID, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и ждет отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, a.senderService.Handle); err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
		a.logger.Info("started consumer", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
