package rabbitmq

// ExchangeName exchange, через который идут все уведомления.
const ExchangeName = "notifications"

// ReminderRoutingKey ключ маршрутизации напоминаний о продлении.
const ReminderRoutingKey = "reminder"

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.reminder", RoutingKey: ReminderRoutingKey},
	}
}
