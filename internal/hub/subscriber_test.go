package hub

import (
	"errors"
	"testing"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/events"
)

func TestChannelSubscriber_SendAndReceive(t *testing.T) {
	sub := NewChannelSubscriber("tui", 4)
	if sub.ID() != "tui" {
		t.Errorf("ID() = %q, want tui", sub.ID())
	}

	if err := sub.Send(events.NewSystemWakeEvent("clock")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ev := <-sub.Events()
	if ev.Type() != events.EventTypeSystemWake {
		t.Errorf("Type() = %s, want system_wake", ev.Type())
	}
}

func TestChannelSubscriber_FullBufferEvictsOldest(t *testing.T) {
	sub := NewChannelSubscriber("slow", 2)

	for _, reason := range []string{"r1", "r2", "r3", "r4"} {
		if err := sub.Send(changed(reason)); err != nil {
			t.Fatalf("Send(%s) error = %v", reason, err)
		}
	}

	if sub.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", sub.Dropped())
	}

	var reasons []string
	for i := 0; i < 2; i++ {
		ev := <-sub.Events()
		reasons = append(reasons, ev.(*events.BaseEvent).Payload.(events.SessionsChangedPayload).Reason)
	}
	if reasons[0] != "r3" || reasons[1] != "r4" {
		t.Errorf("queued = %v, want [r3 r4]", reasons)
	}
}

func TestChannelSubscriber_ZeroBufferStillQueuesOne(t *testing.T) {
	sub := NewChannelSubscriber("zero", 0)
	if err := sub.Send(changed("a")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(sub.Events()) != 1 {
		t.Errorf("queued %d events, want 1", len(sub.Events()))
	}
}

func TestChannelSubscriber_Close(t *testing.T) {
	sub := NewChannelSubscriber("c", 2)
	_ = sub.Send(changed("kept"))

	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	select {
	case <-sub.Done():
	default:
		t.Error("Done() should be closed")
	}

	if _, ok := <-sub.Events(); !ok {
		t.Error("queued event should survive Close")
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("Events() should be closed after draining")
	}

	if err := sub.Send(changed("late")); !errors.Is(err, domain.ErrSubscriberClosed) {
		t.Errorf("Send() after Close error = %v, want ErrSubscriberClosed", err)
	}
}

func TestFuncSubscriber(t *testing.T) {
	var got []events.EventType
	sub := NewFuncSubscriber("log", func(ev events.Event) { got = append(got, ev.Type()) })

	_ = sub.Send(changed("a"))
	_ = sub.Send(events.NewSystemWakeEvent("clock"))

	if len(got) != 2 || got[1] != events.EventTypeSystemWake {
		t.Errorf("callback saw %v", got)
	}

	_ = sub.Close()
	if err := sub.Send(changed("b")); !errors.Is(err, domain.ErrSubscriberClosed) {
		t.Errorf("Send() after Close error = %v, want ErrSubscriberClosed", err)
	}
	select {
	case <-sub.Done():
	default:
		t.Error("Done() should be closed")
	}
}

func TestFuncSubscriber_NilCallback(t *testing.T) {
	sub := NewFuncSubscriber("nil", nil)
	if err := sub.Send(changed("a")); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}
