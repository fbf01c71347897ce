package kafkaconsumer

import (
	"time"

	"github.com/x5geo/x5-index/internal/core/config"
)

type Config struct {
	Brokers          []string
	Topic            string
	GroupID          string
	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

// FromApp derives the consumer settings from the service configuration.
func FromApp(c config.Config) Config {
	return Config{
		Brokers:          c.KafkaBrokers(),
		Topic:            c.Kafka.Topic,
		GroupID:          c.Kafka.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    true,
	}
}
