package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если брокеры заданы. Без брокеров
// возвращает nil, nil: витрина работает без публикации событий.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// cartPublisher отправляет снимок корзины после каждого изменения.
// Ошибка публикации не влияет на операцию корзины.
func cartPublisher(publisher domain.EventPublisher, logger *log.Entry) func([]domain.LineItem) {
	return func(lines []domain.LineItem) {
		if err := publisher.PublishEvent(kafka.TopicCartEvents, "cart", kafka.NewCartUpdatedEvent(lines)); err != nil {
			logger.WithError(err).Warn("failed to publish cart event")
		}
	}
}

// closeKafka закрывает producer, если он был создан.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
