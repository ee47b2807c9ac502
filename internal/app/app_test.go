package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"msgdeck/internal/api"
	"msgdeck/internal/bus"
	"msgdeck/internal/gateway"
	"msgdeck/internal/notify"
	"msgdeck/internal/replies"
	"msgdeck/internal/status"
	"msgdeck/internal/store"
	intsync "msgdeck/internal/sync"
)

type scriptConn struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *scriptConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		return 1, f, nil
	case <-c.done:
		return 0, nil, errors.New("closed")
	}
}

func (c *scriptConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

type chanToaster struct{ ch chan notify.Toast }

func (t *chanToaster) ShowToast(toast notify.Toast) error {
	t.ch <- toast
	return nil
}

type noopFetcher struct{}

func (noopFetcher) ChatMessages(context.Context, string) ([]api.TranscriptMessage, error) {
	return nil, nil
}

// TestStreamToToastPipeline wires the full path by hand: socket frame ->
// decoder -> bus -> engine -> store + notification sinks.
func TestStreamToToastPipeline(t *testing.T) {
	logger := zap.NewNop()
	b := bus.New()
	machine := status.NewMachine(b)

	conn := &scriptConn{frames: make(chan []byte, 8), done: make(chan struct{})}
	manager := gateway.NewManager("ws://gateway.test", func(string) (gateway.Conn, error) {
		return conn, nil
	}, machine, logger)
	defer manager.Close()

	chats := store.New(b)
	inbox := store.NewInbox(nil, b)
	resolver := replies.NewResolver(b)
	toasts := make(chan notify.Toast, 8)
	dispatcher := notify.NewDispatcher("12", &chanToaster{ch: toasts}, nil, nil, logger)

	engine := intsync.NewEngine(chats, inbox, resolver, dispatcher, nil, noopFetcher{}, b, "U12", logger)
	engine.Start(context.Background())
	defer engine.Stop()

	handler := gateway.NewEventHandler(b, logger)
	manager.OnEvent(handler.Handle)

	if err := manager.Connect(); err != nil {
		t.Fatal(err)
	}

	conn.frames <- []byte(`{"type":"NEW_MESSAGE","data":{
		"from":"917700000001@c.us","group":"Ops Crew","body":"ship it U12",
		"timestamp":"1735000000000","chatId":"g@g.us","messageId":"m1"}}`)

	select {
	case toast := <-toasts:
		if toast.ChatID != "g@g.us" || toast.MessageID != "m1" {
			t.Errorf("toast = %+v", toast)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame never reached the toast sink")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c, ok := chats.Get("g@g.us"); ok && c.UnreadCount == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("chat store never updated")
}
