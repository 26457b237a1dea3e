package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ratchetfsm/ratchet/pkg/api"
)

// RedisAdapter is a PersistenceAdapter backed by Redis. It uses a simple
// key structure:
//
//	<prefix>state:<id>   => gob-encoded AllState snapshot
//	<prefix>events:<id>  => LIST of gob-encoded events, RPUSH'd in order
type RedisAdapter[C any] struct {
	client *redis.Client
	prefix string
}

var _ api.PersistenceAdapter[any] = (*RedisAdapter[any])(nil)

// NewRedisAdapter creates a RedisAdapter. prefix is optional but
// recommended (e.g. "ratchet:").
func NewRedisAdapter[C any](client *redis.Client, prefix string) *RedisAdapter[C] {
	if prefix == "" {
		prefix = "ratchet:"
	}
	return &RedisAdapter[C]{client: client, prefix: prefix}
}

func (a *RedisAdapter[C]) keyState(id string) string  { return a.prefix + "state:" + id }
func (a *RedisAdapter[C]) keyEvents(id string) string { return a.prefix + "events:" + id }

func (a *RedisAdapter[C]) Write(ctx context.Context, instanceID string, state api.AllState[C]) error {
	snapshot, err := EncodeState(state)
	if err != nil {
		return err
	}
	if err := a.client.Set(ctx, a.keyState(instanceID), snapshot, 0).Err(); err != nil {
		return fmt.Errorf("redis SET state: %w", err)
	}
	return nil
}

func (a *RedisAdapter[C]) WriteEvents(ctx context.Context, instanceID string, events []api.Event) error {
	if len(events) == 0 {
		return nil
	}

	encoded := make([]any, 0, len(events))
	for _, ev := range events {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(&ev); err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		encoded = append(encoded, buf.Bytes())
	}

	if err := a.client.RPush(ctx, a.keyEvents(instanceID), encoded...).Err(); err != nil {
		return fmt.Errorf("redis RPUSH events: %w", err)
	}
	return nil
}

func (a *RedisAdapter[C]) Read(ctx context.Context, instanceID string) (api.AllState[C], bool, error) {
	data, err := a.client.Get(ctx, a.keyState(instanceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return api.AllState[C]{}, false, nil
	}
	if err != nil {
		return api.AllState[C]{}, false, fmt.Errorf("redis GET state: %w", err)
	}

	st, err := DecodeState[C](data)
	if err != nil {
		return api.AllState[C]{}, false, err
	}
	return st, true, nil
}

// Events returns the append-only event log for an instance in write order.
func (a *RedisAdapter[C]) Events(ctx context.Context, instanceID string) ([]api.Event, error) {
	raw, err := a.client.LRange(ctx, a.keyEvents(instanceID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE events: %w", err)
	}

	events := make([]api.Event, 0, len(raw))
	for _, item := range raw {
		var ev api.Event
		if err := gob.NewDecoder(bytes.NewReader([]byte(item))).Decode(&ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
