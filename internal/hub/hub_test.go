package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/session"
	"github.com/brianly1003/glance/internal/testutil"
)

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New()
	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Stop() })
	return h
}

func changed(reason string, ids ...string) events.Event {
	recs := make([]session.Record, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, session.Record{ID: id, Status: session.StatusIdle})
	}
	return events.NewSessionsChangedEvent(reason, recs, session.Aggregate(recs, session.DefaultPriority))
}

func TestHub_StartStopIdempotent(t *testing.T) {
	h := New()

	for i := 0; i < 2; i++ {
		if err := h.Start(); err != nil {
			t.Fatalf("Start() #%d error = %v", i+1, err)
		}
	}
	if !h.IsRunning() {
		t.Error("hub should be running after Start()")
	}

	for i := 0; i < 2; i++ {
		if err := h.Stop(); err != nil {
			t.Fatalf("Stop() #%d error = %v", i+1, err)
		}
	}
	if h.IsRunning() {
		t.Error("hub should not be running after Stop()")
	}
}

func TestHub_DeliversInPublishOrder(t *testing.T) {
	h := startHub(t)
	sub := testutil.NewMockSubscriber("tui")
	h.Subscribe(sub)
	waitFor(t, func() bool { return h.SubscriberCount() == 1 }, "registration")

	h.Publish(changed(events.ReasonStartup, "a"))
	h.Publish(events.NewSystemWakeEvent("clock"))
	h.Publish(changed(events.ReasonWake, "a", "b"))

	waitFor(t, func() bool { return sub.EventCount() == 3 }, "three events")

	got := sub.Events()
	want := []events.EventType{events.EventTypeSessionsChanged, events.EventTypeSystemWake, events.EventTypeSessionsChanged}
	for i, ev := range got {
		if ev.Type() != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Type(), want[i])
		}
	}
}

func TestHub_RetainsLatestSessionsChanged(t *testing.T) {
	h := startHub(t)
	if h.Latest() != nil {
		t.Fatal("Latest() should be nil before any change")
	}

	h.Publish(changed(events.ReasonStartup, "a"))
	h.Publish(changed(events.ReasonReload, "a", "b"))
	h.Publish(events.NewSystemWakeEvent("login1"))

	waitFor(t, func() bool {
		latest := h.Latest()
		if latest == nil {
			return false
		}
		p := latest.(*events.BaseEvent).Payload.(events.SessionsChangedPayload)
		return p.Reason == events.ReasonReload
	}, "latest to be the reload event")
}

func TestHub_ReplaysLatestToNewSubscriber(t *testing.T) {
	h := startHub(t)
	h.Publish(changed(events.ReasonStartup, "a", "b"))
	waitFor(t, func() bool { return h.Latest() != nil }, "retained event")

	late := testutil.NewMockSubscriber("late")
	h.Subscribe(late)

	waitFor(t, func() bool { return late.EventCount() == 1 }, "replay")
	p := late.Events()[0].(*events.BaseEvent).Payload.(events.SessionsChangedPayload)
	if len(p.Sessions) != 2 {
		t.Errorf("replayed %d sessions, want 2", len(p.Sessions))
	}
}

func TestHub_FailedSendDetachesSubscriber(t *testing.T) {
	h := startHub(t)
	bad := testutil.NewMockSubscriber("bad")
	bad.SetSendError(errors.New("gone"))
	good := testutil.NewMockSubscriber("good")
	h.Subscribe(bad)
	h.Subscribe(good)
	waitFor(t, func() bool { return h.SubscriberCount() == 2 }, "registration")

	h.Publish(changed(events.ReasonReload, "a"))

	waitFor(t, func() bool { return h.SubscriberCount() == 1 }, "bad subscriber detached")
	waitFor(t, bad.IsClosed, "bad subscriber closed")
	if good.EventCount() != 1 {
		t.Errorf("good subscriber got %d events, want 1", good.EventCount())
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := startHub(t)
	sub := testutil.NewMockSubscriber("a")
	h.Subscribe(sub)
	waitFor(t, func() bool { return h.SubscriberCount() == 1 }, "registration")

	h.Unsubscribe("a")
	h.Unsubscribe("missing")

	waitFor(t, func() bool { return h.SubscriberCount() == 0 }, "unsubscribe")
	if !sub.IsClosed() {
		t.Error("unsubscribed subscriber should be closed")
	}
}

func TestHub_SubscribeBeforeStart(t *testing.T) {
	h := New()
	sub := testutil.NewMockSubscriber("early")
	h.Subscribe(sub)
	if h.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", h.SubscriberCount())
	}

	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = h.Stop() }()

	h.Publish(changed(events.ReasonStartup))
	waitFor(t, func() bool { return sub.EventCount() == 1 }, "delivery to early subscriber")
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	h := New()
	_ = h.Start()
	subs := []*testutil.MockSubscriber{testutil.NewMockSubscriber("1"), testutil.NewMockSubscriber("2")}
	for _, s := range subs {
		h.Subscribe(s)
	}
	waitFor(t, func() bool { return h.SubscriberCount() == 2 }, "registration")

	_ = h.Stop()

	for _, s := range subs {
		if !s.IsClosed() {
			t.Errorf("subscriber %s not closed", s.ID())
		}
	}
	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d after Stop, want 0", h.SubscriberCount())
	}
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := startHub(t)
	sub := h.SubscribeChannel(broadcastBuffer)
	waitFor(t, func() bool { return h.SubscriberCount() == 1 }, "registration")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				h.Publish(events.NewSystemWakeEvent("clock"))
			}
		}()
	}
	wg.Wait()

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 40 {
		select {
		case <-sub.Events():
			received++
		case <-timeout:
			t.Fatalf("received %d events, want 40", received)
		}
	}
}

func TestHub_SessionsChangedSurvivesBurst(t *testing.T) {
	h := startHub(t)

	var mu sync.Mutex
	var last events.Event
	h.Subscribe(NewFuncSubscriber("slow", func(ev events.Event) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		last = ev
		mu.Unlock()
	}))
	waitFor(t, func() bool { return h.SubscriberCount() == 1 }, "registration")

	for i := 0; i < 2*broadcastBuffer; i++ {
		rec := session.Record{ID: "gone", Status: session.StatusIdle}
		h.Publish(events.NewSessionRemovedEvent(rec, events.ReasonExpired))
	}
	final := changed(events.ReasonReload, "a")
	h.Publish(final)

	waitFor(t, func() bool { return h.Latest() == final }, "retained sessions_changed")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last == final
	}, "final sessions_changed delivered")
}

func TestHub_SessionsChangedKeptWhenQueueFullBeforeStart(t *testing.T) {
	h := New()
	for i := 0; i < broadcastBuffer; i++ {
		h.Publish(events.NewSystemWakeEvent("clock"))
	}
	final := changed(events.ReasonStartup, "a")
	h.Publish(final)

	if h.Latest() != final {
		t.Errorf("Latest() = %v, want the overflowing sessions_changed", h.Latest())
	}
}
