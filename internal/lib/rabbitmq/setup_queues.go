package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации для привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации уведомлений.
const (
	// RouteUsers личные сообщения пользователям и администратору.
	RouteUsers = "users"
	// RouteAlerts алерты для публикации в закрытый канал.
	RouteAlerts = "alerts"
)

// GetNotificationQueues возвращает очереди сервиса доставки уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.users", RoutingKey: RouteUsers},
		{QueueName: "notification.alerts", RoutingKey: RouteAlerts},
	}
}
