package rabbitmq

// prefetch ограничивает число неподтверждённых сообщений на канал.
const prefetch = 10

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues возвращает очереди воркера уведомлений.
func NotificationQueues(queue, routingKey string) []QueueConfig {
	return []QueueConfig{
		{QueueName: queue, RoutingKey: routingKey},
	}
}
