package channel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/testutil"
)

func TestEventBus_EmitAndReceive(t *testing.T) {
	ctx := testutil.TestContext(t)
	bus := NewEventBus(2)

	event := domain.StageEvent{
		RunID:    uuid.New(),
		Pipeline: "war-leaderboard",
		Stage:    "bronze-leaderboard",
		Outcome:  domain.OutcomeSuccess,
	}
	if err := bus.Emit(ctx, event); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	got := <-bus.Channel()
	if got.Stage != event.Stage || got.RunID != event.RunID {
		t.Errorf("received %+v, want %+v", got, event)
	}
}

func TestEventBus_EmitBlockedByFullBufferHonorsContext(t *testing.T) {
	bus := NewEventBus(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := bus.Emit(ctx, domain.StageEvent{}); err != nil {
		t.Fatalf("first Emit: %v", err)
	}
	if err := bus.Emit(ctx, domain.StageEvent{}); err == nil {
		t.Fatal("second Emit succeeded on a full buffer with expired context")
	}
}

func TestEventBus_CloseEndsStream(t *testing.T) {
	bus := NewEventBus(1)
	bus.Close()

	if _, ok := <-bus.Channel(); ok {
		t.Error("Channel yielded an event after Close")
	}
}
