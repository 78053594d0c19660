// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"catpicker/internal/models"
)

const fieldKeyPrefix = "field:"

// FieldKey returns the Valkey key holding an entry field's reference list.
func FieldKey(entryID, fieldID string) string {
	return fieldKeyPrefix + entryID + ":" + fieldID
}

// FieldChannel returns the pub/sub channel announcing changes to the field.
func FieldChannel(entryID, fieldID string) string {
	return FieldKey(entryID, fieldID) + ":changed"
}

// ValkeyField is a reference-list field stored in Valkey. Every write is
// published so that all processes holding the field see the change.
type ValkeyField struct {
	client  *redis.Client
	key     string
	channel string
}

// NewValkeyField returns the field for an entry and field id.
func NewValkeyField(client *redis.Client, entryID, fieldID string) *ValkeyField {
	return &ValkeyField{
		client:  client,
		key:     FieldKey(entryID, fieldID),
		channel: FieldChannel(entryID, fieldID),
	}
}

// GetValue returns the stored list. An unset key is an empty list.
func (f *ValkeyField) GetValue(ctx context.Context) ([]models.Link, error) {
	val, err := f.client.Get(ctx, f.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get field %s: %w", f.key, err)
	}
	var links []models.Link
	if err := json.Unmarshal(val, &links); err != nil {
		return nil, fmt.Errorf("decode field %s: %w", f.key, err)
	}
	return links, nil
}

// SetValue stores value and publishes it on the change channel.
func (f *ValkeyField) SetValue(ctx context.Context, value []models.Link) error {
	if value == nil {
		value = []models.Link{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode field %s: %w", f.key, err)
	}

	_, err = f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, f.key, data, 0)
		pipe.Publish(ctx, f.channel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set field %s: %w", f.key, err)
	}
	return nil
}

// OnValueChanged subscribes fn to the change channel. Messages are delivered
// on a dedicated goroutine until the returned function is called.
func (f *ValkeyField) OnValueChanged(fn func([]models.Link)) func() {
	pubsub := f.client.Subscribe(context.Background(), f.channel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if _, err := pubsub.Receive(ctx); err != nil {
		slog.Warn("field subscribe error", "channel", f.channel, "error", err)
	}
	cancel()

	go func() {
		for msg := range pubsub.Channel() {
			var links []models.Link
			if err := json.Unmarshal([]byte(msg.Payload), &links); err != nil {
				slog.Warn("field change decode error", "channel", f.channel, "error", err)
				continue
			}
			fn(links)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				slog.Warn("field unsubscribe error", "channel", f.channel, "error", err)
			}
		})
	}
}
