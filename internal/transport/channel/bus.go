// Package channel carries stage events from the pipeline to in-process
// consumers (metrics, run-history analytics) over a bounded buffer.
package channel

import (
	"context"

	"github.com/guildops/guildflow/internal/domain"
)

type EventBus struct {
	ch chan domain.StageEvent
}

func NewEventBus(buffer int) *EventBus {
	return &EventBus{
		ch: make(chan domain.StageEvent, buffer),
	}
}

func (b *EventBus) Emit(ctx context.Context, event domain.StageEvent) error {
	select {
	case b.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *EventBus) Channel() <-chan domain.StageEvent {
	return b.ch
}

// Close ends the stream so consumers draining Channel() terminate.
// Emit must not be called after Close.
func (b *EventBus) Close() {
	close(b.ch)
}
