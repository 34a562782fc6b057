package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestProducer_PublishOrderPlaced(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerFromSync(mockProducer, log.WithField("component", "kafka-producer-test"))

	order := domain.Order{
		ID:     "ORD-1",
		Items:  []domain.OrderLine{{ProductID: "P1", Qty: 2, UnitPrice: 5, LineTotal: 10}},
		Totals: domain.ComputeTotals(10, domain.DefaultTaxRate),
	}

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, TopicOrderEvents, msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "ORD-1", string(key))
		require.Len(t, msg.Headers, 1)
		require.Equal(t, HeaderEventType, string(msg.Headers[0].Key))
		require.Equal(t, string(EventTypeOrderPlaced), string(msg.Headers[0].Value))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(value, &decoded))
		require.Equal(t, "order.placed", decoded["event_type"])
		require.InDelta(t, 11.0, decoded["total"], 1e-9)
		return nil
	})

	require.NoError(t, producer.PublishEvent(TopicOrderEvents, order.ID, NewOrderPlacedEvent(order)))
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerFromSync(mockProducer, nil)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(TopicCartEvents, "cart", NewCartUpdatedEvent(nil))
	require.Error(t, err)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PlainPayloadHasNoHeaders(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerFromSync(mockProducer, nil)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Empty(t, msg.Headers)
		return nil
	})

	require.NoError(t, producer.PublishEvent(TopicCartEvents, "k", map[string]int{"count": 1}))
	require.NoError(t, mockProducer.Close())
}

func TestProducer_MarshalError(t *testing.T) {
	producer := NewProducerFromSync(mocks.NewSyncProducer(t, nil), nil)

	err := producer.PublishEvent(TopicCartEvents, "k", make(chan int))
	require.ErrorIs(t, err, ErrEncodeEvent)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestEvents(t *testing.T) {
	lines := []domain.LineItem{{ProductID: "P1", Qty: 2}, {ProductID: "P2", Qty: 1}}

	cartEvent := NewCartUpdatedEvent(lines)
	require.Equal(t, EventTypeCartUpdated, cartEvent.Type())
	require.Equal(t, 3, cartEvent.Count)
	require.False(t, cartEvent.Timestamp.IsZero())

	rejected := NewCheckoutRejectedEvent("ORD-9", domain.CheckoutResult{
		Reason: domain.ReasonStockConflict,
		Items:  []domain.ItemOutcome{{ProductID: "P1", Available: domain.IntPtr(1)}},
	})
	require.Equal(t, EventTypeCheckoutRejected, rejected.Type())
	require.Equal(t, domain.ReasonStockConflict, rejected.Reason)
	require.Len(t, rejected.Outcomes, 1)

	compensated := NewStockCompensatedEvent("ORD-9", lines[:1])
	require.Equal(t, EventTypeStockCompensated, compensated.Type())
	require.Equal(t, lines[:1], compensated.Items)
}
