package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Tópicos entregues aos clientes WebSocket
const (
	TopicNotice  = "notice"
	TopicResults = "results"
)

// Update é o envelope trafegado no canal Redis e repassado ao WS
type Update struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, topic string, payload any) error {
	msg, err := json.Marshal(Update{Topic: topic, Payload: payload})
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, msg).Err()
}
