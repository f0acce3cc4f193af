package exporters

import (
	"fmt"

	"github.com/alonana/harmetrics/har"
	"github.com/go-redis/redis"
)

type redisPublisher interface {
	Publish(channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisSink publishes every HAR log to a pub/sub channel.
type RedisSink struct {
	Channel string
	client  redisPublisher
}

func NewRedisSink(address string, channel string) *RedisSink {
	return &RedisSink{
		Channel: channel,
		client: redis.NewClient(&redis.Options{
			Addr: address,
		}),
	}
}

func (r *RedisSink) Process(harData *har.Har, data []byte) error {
	err := r.client.Publish(r.Channel, data).Err()
	if err != nil {
		return fmt.Errorf("publish to redis channel %v failed: %w", r.Channel, err)
	}
	return nil
}

func (r *RedisSink) Stop() {
	r.client.Close()
}
