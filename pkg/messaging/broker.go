package messaging

import (
	"context"
)

// Channels published by the API and worker.
const (
	ChannelEvents        = "healthmate.events"
	ChannelNotifications = "notifications"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// Message is the envelope written to ChannelEvents.
type Message struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Notification is the envelope written to ChannelNotifications and consumed
// by the push gateway.
type Notification struct {
	PatientID string `json:"patient_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
}
