package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nurlyy/contract_manager/pkg/logger"
	kafkawrap "github.com/nurlyy/contract_manager/pkg/messaging"
)

// KafkaConsumer читает доменные события из Kafka
type KafkaConsumer struct {
	consumer *kafkawrap.KafkaConsumer
	logger   logger.Logger
}

// NewKafkaConsumer создает новый экземпляр KafkaConsumer
func NewKafkaConsumer(consumer *kafkawrap.KafkaConsumer, logger logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		consumer: consumer,
		logger:   logger,
	}
}

// Close закрывает соединение с Kafka
func (c *KafkaConsumer) Close() error {
	c.logger.Info("Closing Kafka consumer")
	return c.consumer.Close()
}

// ReadMessage читает сообщение из Kafka
func (c *KafkaConsumer) ReadMessage(ctx context.Context) (*Message, error) {
	kafkaMsg, err := c.consumer.Read(ctx)
	if err != nil {
		return nil, err
	}

	return &Message{
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Time:      kafkaMsg.Time,
		Raw:       kafkaMsg,
	}, nil
}

// CommitMessages подтверждает обработку сообщений
func (c *KafkaConsumer) CommitMessages(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		kafkaMsgs[i] = msg.Raw
	}

	return c.consumer.CommitMessages(ctx, kafkaMsgs...)
}

// ParseMessage десериализует сообщение в структуру
func (c *KafkaConsumer) ParseMessage(msg *Message, dest interface{}) error {
	if err := json.Unmarshal(msg.Value, dest); err != nil {
		c.logger.Error("Failed to parse message", err, map[string]interface{}{
			"topic": msg.Topic,
			"key":   msg.Key,
		})
		return fmt.Errorf("failed to parse message: %w", err)
	}

	return nil
}

// Message представляет сообщение из Kafka
type Message struct {
	Key       string
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Time      time.Time
	Raw       kafka.Message
}
