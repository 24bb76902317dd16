package subscriber

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/segmentio/kafka-go"
)

const kafkaSourceName = "kafka"

type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// KafkaSource consumes JSON encoded events from a Kafka topic. Offsets are committed
// only after the event has been handled.
type KafkaSource struct {
	reader *kafka.Reader
	group  string
	logger *slog.Logger

	malformed atomic.Uint64
}

func NewKafkaSource(config KafkaConfig, logger *slog.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaSource{
		reader: reader,
		group:  config.ConsumerGroup,
		logger: logger,
	}
}

func (k *KafkaSource) Name() string {
	return kafkaSourceName
}

func (k *KafkaSource) Run(ctx context.Context, out chan<- Delivery) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		ev, err := decodeEvent(msg.Value)
		if err != nil {
			k.malformed.Add(1)
			malformedCounter.WithLabelValues(kafkaSourceName).Inc()
			k.logger.Warn("KAFKA: bogus event message", "partition", msg.Partition, "offset", msg.Offset, "err", err)
			if err := k.commit(ctx, msg); err != nil {
				return err
			}
			continue
		}

		d := Delivery{Source: kafkaSourceName, Event: ev}
		if k.group != "" {
			d.Ack = func(ctx context.Context) error {
				return k.reader.CommitMessages(ctx, msg)
			}
		}
		if err := deliver(ctx, out, d); err != nil {
			return err
		}
	}
}

// commit skips over a message without handling it. Without a consumer group there is nothing to commit.
func (k *KafkaSource) commit(ctx context.Context, msg kafka.Message) error {
	if k.group == "" {
		return nil
	}
	return k.reader.CommitMessages(ctx, msg)
}

func (k *KafkaSource) Close() error {
	return k.reader.Close()
}
