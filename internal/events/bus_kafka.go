package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaBus publishes and consumes events over a Kafka-compatible broker.
// Records are keyed by aggregate ID so all events of one contract land on one
// partition; consumers still must not assume global ordering.
type KafkaBus struct {
	logger     *slog.Logger
	client     *kgo.Client
	topic      string
	dispatcher *Dispatcher
}

// NewKafkaBus connects to the broker and ensures the topic exists. The
// dispatcher may be nil for publish-only clients.
func NewKafkaBus(ctx context.Context, logger *slog.Logger, brokers []string, topic, group string, dispatcher *Dispatcher) (*KafkaBus, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(brokers...)}
	if dispatcher != nil {
		opts = append(opts,
			kgo.ConsumerGroup(group),
			kgo.ConsumeTopics(topic),
		)
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaBus{logger: logger, client: client, topic: topic, dispatcher: dispatcher}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %q: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Publish produces the event synchronously. Failures are returned to the
// caller, which logs and moves on: the datastore write already happened.
func (b *KafkaBus) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: b.topic,
		Key:   []byte(env.AggregateID()),
		Value: value,
	}
	if err := b.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Run polls the broker and dispatches events until the context is cancelled.
// Undecodable records are logged and skipped; redelivery semantics come from
// the broker's consumer-group offsets, we add no retry of our own.
func (b *KafkaBus) Run(ctx context.Context) error {
	if b.dispatcher == nil {
		return errors.New("kafka bus started without a dispatcher")
	}
	for {
		fetches := b.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			b.logger.ErrorContext(ctx, "kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			var env Envelope
			if err := json.Unmarshal(record.Value, &env); err != nil {
				b.logger.ErrorContext(ctx, "skipping undecodable event record", "error", err)
				return
			}
			b.dispatcher.Dispatch(ctx, env)
		})
	}
}

// Close releases the underlying client.
func (b *KafkaBus) Close() {
	b.client.Close()
}
