package events

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events on a Redis Pub/Sub channel.
type RedisPublisher struct {
	Redis   *redis.Client
	Channel string
}

// NewRedisPublisher connects to addr and checks the connection with PING.
func NewRedisPublisher(ctx context.Context, addr, password string, db int) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("INFO: Successfully connected to Redis.")
	return &RedisPublisher{Redis: rdb, Channel: DefaultChannel}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := e.Encode()
	if err != nil {
		return err
	}
	return p.Redis.Publish(ctx, p.Channel, payload).Err()
}

// Listen subscribes to the channel and calls handle for every decodable
// event until ctx is cancelled. Undecodable payloads are logged and skipped.
func (p *RedisPublisher) Listen(ctx context.Context, handle func(Event)) {
	pubsub := p.Redis.Subscribe(ctx, p.Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			e, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Printf("ERROR: unmarshalling Redis event: %v", err)
				continue
			}
			handle(e)
		}
	}
}

func (p *RedisPublisher) Close() error {
	return p.Redis.Close()
}
