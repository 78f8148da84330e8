package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/application/operation"
)

func sampleEvent() operation.ValidatedEvent {
	return operation.ValidatedEvent{
		EventID:     "evt-1",
		OperationID: "op-1",
		Type:        "DELIVERY",
		Reference:   "WH/OUT/00001",
		Actor:       "user-1",
		Changes: []operation.StockChangedEvent{
			{ProductID: "p1", LocationID: "l1", Delta: -5, Quantity: 15},
		},
		OccurredAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_EnviaEventoConClaveYCabeceras(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "bodega.operations" {
			return fmt.Errorf("tópico inesperado %q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "op-1" {
			return fmt.Errorf("clave inesperada %q", key)
		}
		for _, h := range msg.Headers {
			if string(h.Key) == "event_type" && string(h.Value) == EventTypeOperationValidated {
				return nil
			}
		}
		return errors.New("falta la cabecera event_type")
	})

	pub := NewKafkaPublisherWithProducer(producer, "bodega.operations", nil)
	require.NoError(t, pub.PublishOperationValidated(context.Background(), sampleEvent()))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_CuerpoJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got operation.ValidatedEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Reference != "WH/OUT/00001" || len(got.Changes) != 1 || got.Changes[0].Delta != -5 {
			return fmt.Errorf("evento inesperado: %+v", got)
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "bodega.operations", nil)
	require.NoError(t, pub.PublishOperationValidated(context.Background(), sampleEvent()))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_ErrorDelBroker(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	pub := NewKafkaPublisherWithProducer(producer, "bodega.operations", nil)
	err := pub.PublishOperationValidated(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, pub.Close())
}
