package events

import (
	"context"
	"encoding/json"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикует события о проведённых платежах в топик Kafka.
// Ключом сообщения служит референс транзакции, поэтому события одного платежа
// попадают в одну партицию.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e entity.SettlementEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Reference),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("settlement." + string(e.Status))},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop отбрасывает события. Используется, если брокеры Kafka не настроены.
type Nop struct{}

func (Nop) Publish(context.Context, entity.SettlementEvent) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
