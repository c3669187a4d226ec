// Package notifications publishes domain events to Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published by the API.
const (
	EventCommentCreated = "comment_created"
	EventPostPublished  = "post_published"
)

// BroadcastChannel receives events every subscriber should see.
const BroadcastChannel = "notifications:broadcast"

// Event is the JSON payload written to a channel.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels.
// A nil client turns every publish into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends an event to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, eventType string, data any) error {
	return n.publish(ctx, UserChannel(userID), eventType, data)
}

// PublishBroadcast sends an event to every subscriber.
func (n *Notifier) PublishBroadcast(ctx context.Context, eventType string, data any) error {
	return n.publish(ctx, BroadcastChannel, eventType, data)
}

func (n *Notifier) publish(ctx context.Context, channel, eventType string, data any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Event{Type: eventType, Data: data, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// UserChannel is the per-user notification channel.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}
