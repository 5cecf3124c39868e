package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

var Kafka *KafkaService

type KafkaService struct {
	Brokers []string
	writers map[string]*kafka.Writer
}

func ConnectKafka() error {
	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")

	Kafka = &KafkaService{
		Brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}

	return nil
}

func (k *KafkaService) writer(topic string) *kafka.Writer {
	w, found := k.writers[topic]
	if found {
		return w
	}

	w = &kafka.Writer{
		Addr:         kafka.TCP(k.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	k.writers[topic] = w

	return w
}

func (k *KafkaService) Publish(topic string, message []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return k.writer(topic).WriteMessages(ctx, kafka.Message{Value: message})
}

// Subscribe consumes a topic until the handler returns an error or the
// context is done. Messages are committed only after the handler accepts
// them, so delivery is at least once.
func (k *KafkaService) Subscribe(ctx context.Context, topic string, group string, handler func(message []byte) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.Brokers,
		GroupID: group,
		Topic:   topic,
	})
	defer reader.Close()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := handler(m.Value); err != nil {
			Logger.Errorf("Worker error: %v", err.Error())
			continue
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			return err
		}
	}
}

func (k *KafkaService) Close() {
	for _, w := range k.writers {
		w.Close()
	}
}
