// Package realtime pushes "something changed, re-render" notifications to
// browsers over Redis pub/sub and websockets.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is the payload delivered to subscribed browsers.
type Event struct {
	Type          string `json:"type"`
	JobID         string `json:"job_id,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
	Status        string `json:"status,omitempty"`
	At            int64  `json:"at"`
}

const (
	EventApplicationCreated = "application_created"
	EventStatusChanged      = "status_changed"
	EventJobChanged         = "job_changed"
)

func JobChannel(jobID string) string   { return "job:" + jobID + ":applications" }
func UserChannel(userID string) string { return "user:" + userID + ":applications" }

type Publisher interface {
	Publish(ctx context.Context, channel string, e Event) error
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, e Event) error {
	if e.At == 0 {
		e.At = time.Now().UTC().Unix()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channel, string(b)).Err()
}

// Subscriber is the receiving side used by the websocket handler.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}
