package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event kinds published by the kiosk.
const (
	KindLogin  = "login"
	KindLogout = "logout"
)

// TapEvent describes one accepted tap. The worker consumes these for
// traffic logging and open-session sweeps.
type TapEvent struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	RFID   string    `json:"rfid"`
	UserID int64     `json:"user_id"`
	At     time.Time `json:"at"`
}

// NewTapEvent stamps an event with a fresh id.
func NewTapEvent(kind, rfid string, userID int64, at time.Time) TapEvent {
	return TapEvent{ID: uuid.NewString(), Kind: kind, RFID: rfid, UserID: userID, At: at}
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, evt TapEvent) error
	Consume(ctx context.Context) (<-chan TapEvent, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan TapEvent
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan TapEvent, size)}
}

// Publish enqueues an event.
func (q *InMemory) Publish(ctx context.Context, evt TapEvent) error {
	select {
	case q.ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan TapEvent, error) {
	out := make(chan TapEvent)
	go func() {
		defer close(out)
		for {
			select {
			case evt := <-q.ch:
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "kiosk:taps"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues an event as JSON.
func (q *RedisQueue) Publish(ctx context.Context, evt TapEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Consume streams events using BRPOP. Malformed payloads are skipped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan TapEvent, error) {
	out := make(chan TapEvent)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				var evt TapEvent
				if err := json.Unmarshal([]byte(res[1]), &evt); err == nil {
					select {
					case out <- evt:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}
