package reminder

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(Alert{ID: "later", TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Alert{ID: "sooner", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitAlert(t, engine.C(), time.Second)
	second := waitAlert(t, engine.C(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Alert{
			ID:        fmt.Sprintf("alert-%d", i),
			TriggerAt: now,
		}); err != nil {
			t.Fatalf("schedule alert: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped alerts > 0, got %d", engine.Dropped())
	}
}

func TestScheduleIsIdempotentPerID(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	trigger := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := engine.Schedule(Alert{ID: "block-start:blk", TriggerAt: trigger}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	waitAlert(t, engine.C(), time.Second)
	select {
	case extra := <-engine.C():
		t.Fatalf("duplicate alert emitted: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Alert{ID: "bad"}); !errors.Is(err, ErrInvalidTriggerTime) {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestAlertConstructors(t *testing.T) {
	start := time.Date(2026, time.August, 24, 10, 0, 0, 0, time.UTC)
	alert := ForBlockStart(model.FocusBlock{ID: "blk", Title: "Deep work", StartAt: start, EndAt: start.Add(time.Hour)}, 5*time.Minute)
	if alert.Kind != KindBlockStarting || alert.Subject != "blk" {
		t.Fatalf("block alert = %+v", alert)
	}
	if want := start.Add(-5 * time.Minute); !alert.TriggerAt.Equal(want) {
		t.Fatalf("trigger = %v, want %v", alert.TriggerAt, want)
	}

	if _, ok := ForTaskDue(model.PlanItem{ID: "t"}); ok {
		t.Fatal("task without a due date must not produce an alert")
	}
	due := start.Add(24 * time.Hour)
	alert, ok := ForTaskDue(model.PlanItem{ID: "t", Title: "Pay rent", DueAt: &due})
	if !ok || alert.Kind != KindTaskDue || !alert.TriggerAt.Equal(due) {
		t.Fatalf("due alert = %+v ok = %v", alert, ok)
	}
}

func waitAlert(t *testing.T, ch <-chan Alert, timeout time.Duration) Alert {
	t.Helper()
	select {
	case alert := <-ch:
		return alert
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for alert")
		return Alert{}
	}
}
