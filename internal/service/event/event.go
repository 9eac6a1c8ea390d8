package event

import (
	"context"
)

// Emitter records domain events for asynchronous delivery.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Nop discards events. Used by one-shot commands and tests.
type Nop struct{}

func (Nop) Emit(context.Context, string, interface{}) error { return nil }
