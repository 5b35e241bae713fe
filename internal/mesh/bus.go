// Package mesh fans task change events out to in-process or NATS subscribers.
package mesh

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TopicTaskCreated = "task.created"
	TopicTaskUpdated = "task.updated"
	TopicTaskDeleted = "task.deleted"
)

// TaskTopics lists every topic the API publishes on.
var TaskTopics = []string{TopicTaskCreated, TopicTaskUpdated, TopicTaskDeleted}

type Event struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// NewEvent marshals payload into an Event for topic.
func NewEvent(topic string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Topic: topic, Payload: b, Timestamp: time.Now()}, nil
}

type Handler func(ctx context.Context, e Event)

type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(topic string, h Handler) (unsubscribe func(), err error)
	Close() error
}
