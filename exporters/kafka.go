package exporters

import (
	"context"
	"fmt"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
	"github.com/twmb/franz-go/pkg/kgo"
)

type kafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Flush(ctx context.Context) error
	Close()
}

// KafkaSink produces every HAR log as one record and waits for the broker to
// acknowledge it, so a rejected batch fails its delivery. It runs on the delivery
// workers, never on the request path.
type KafkaSink struct {
	Topic   string
	Timeout time.Duration
	client  kafkaProducer
}

func NewKafkaSink(brokers string, topic string, timeout time.Duration) (*KafkaSink, error) {
	hosts, err := core.ProduceHosts(brokers, 9092)
	if err != nil {
		return nil, err
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(hosts.Addresses()...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client failed: %w", err)
	}
	return &KafkaSink{
		Topic:   topic,
		Timeout: timeout,
		client:  client,
	}, nil
}

func (k *KafkaSink) Process(harData *har.Har, data []byte) error {
	ctx := context.Background()
	if k.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.Timeout)
		defer cancel()
	}

	record := &kgo.Record{
		Topic: k.Topic,
		Key:   []byte(harData.Log.Creator.Name),
		Value: data,
	}
	err := k.client.ProduceSync(ctx, record).FirstErr()
	if err != nil {
		return fmt.Errorf("produce to kafka topic %v failed: %w", k.Topic, err)
	}
	return nil
}

func (k *KafkaSink) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := k.client.Flush(ctx)
	if err != nil {
		core.Warn("flush kafka records failed: %v", err)
	}
	k.client.Close()
}
