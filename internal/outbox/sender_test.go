package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"msgdeck/internal/bus"
	"msgdeck/internal/store"
)

type fakeTextSender struct {
	mu    sync.Mutex
	sent  []string
	errOn string
}

func (f *fakeTextSender) SendText(_ context.Context, chatID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if text == f.errOn {
		return "", errors.New("send rejected")
	}
	f.sent = append(f.sent, text)
	return "srv-" + text, nil
}

func TestQueuePublishesOptimisticEcho(t *testing.T) {
	b := bus.New()
	s := NewSender(&fakeTextSender{}, b, zap.NewNop())

	ch, unsub := b.Subscribe("send.", 10)
	defer unsub()

	msg := s.Queue("g@g.us", "hello")
	if msg.Status != store.StatusQueued || !msg.FromMe {
		t.Errorf("optimistic echo = %+v, want queued FromMe message", msg)
	}
	if msg.ID == "" {
		t.Error("optimistic echo needs a client message id")
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindSendQueued {
			t.Errorf("kind = %q, want send.queued", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send.queued")
	}
}

func TestProcessPendingMarksSent(t *testing.T) {
	fake := &fakeTextSender{}
	s := NewSender(fake, bus.New(), zap.NewNop())

	s.Queue("g@g.us", "hello")
	s.processPending(context.Background())

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Status != store.StatusSent {
		t.Errorf("Status = %q, want sent", entries[0].Status)
	}
	if entries[0].ServerMsgID != "srv-hello" {
		t.Errorf("ServerMsgID = %q, want srv-hello", entries[0].ServerMsgID)
	}
}

func TestSendFailureKeepsEntryFailed(t *testing.T) {
	fake := &fakeTextSender{errOn: "doomed"}
	b := bus.New()
	s := NewSender(fake, b, zap.NewNop())

	ch, unsub := b.Subscribe(bus.KindSendFailed, 10)
	defer unsub()

	s.Queue("g@g.us", "doomed")
	s.Queue("g@g.us", "fine")
	s.processPending(context.Background())

	var failed, sent int
	for _, e := range s.Entries() {
		switch e.Status {
		case store.StatusFailed:
			failed++
			if e.Error == "" {
				t.Error("failed entry should carry the error")
			}
		case store.StatusSent:
			sent++
		}
	}
	if failed != 1 || sent != 1 {
		t.Errorf("failed=%d sent=%d, want 1 and 1", failed, sent)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindSendFailed {
			t.Errorf("kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send.failed")
	}
}

func TestReconcileConfirmsOptimisticEntry(t *testing.T) {
	s := NewSender(&fakeTextSender{}, bus.New(), zap.NewNop())

	s.Queue("g@g.us", "hello")
	s.processPending(context.Background())

	// Authoritative copy arrives on the stream with the server id.
	matched := s.Reconcile(&store.Message{ID: "srv-hello", ChatID: "g@g.us", FromMe: true})
	if !matched {
		t.Fatal("Reconcile() = false, want match")
	}
	if got := s.Entries(); len(got) != 0 {
		t.Errorf("entries after reconcile = %d, want 0", len(got))
	}

	// Unrelated or repeated copies do not match.
	if s.Reconcile(&store.Message{ID: "srv-hello", FromMe: true}) {
		t.Error("second Reconcile should find nothing")
	}
	if s.Reconcile(&store.Message{ID: "other", FromMe: false}) {
		t.Error("inbound messages from others never reconcile")
	}
}

func TestStartDrainsQueue(t *testing.T) {
	fake := &fakeTextSender{}
	s := NewSender(fake, bus.New(), zap.NewNop())

	s.Queue("g@g.us", "hello")
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries := s.Entries()
		if len(entries) == 1 && entries[0].Status == store.StatusSent {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("queued entry never sent by the loop")
}
