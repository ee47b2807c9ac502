package notify

import (
	"context"
	"time"

	"msgdeck/internal/api"
	"msgdeck/internal/bus"
)

// Toast is an in-app notification. ChatID/MessageID let the view action
// select the chat and scroll to the message.
type Toast struct {
	Title       string
	Description string
	ChatID      string
	ChatName    string
	IsGroup     bool
	MessageID   string
}

// Toaster displays in-app toasts.
type Toaster interface {
	ShowToast(t Toast) error
}

// DesktopNotifier is the platform notification surface. Implementations
// own the actual OS API; the core only asks for permission once and
// then posts.
type DesktopNotifier interface {
	RequestPermission() (bool, error)
	Notify(title, body string) error
}

// Persister records a delivered notification remotely.
type Persister interface {
	SaveNotification(ctx context.Context, req api.SaveNotificationRequest) error
}

// BusToaster publishes toasts on the event bus for the dashboard views.
type BusToaster struct {
	Bus *bus.Bus
}

func (t *BusToaster) ShowToast(toast Toast) error {
	t.Bus.Publish(bus.Event{Kind: bus.KindNotifyToast, Timestamp: time.Now(), Payload: toast})
	return nil
}

// BusDesktopNotifier forwards desktop notifications on the event bus;
// the host shell decides how to render them. Permission is always
// granted since no OS prompt is involved.
type BusDesktopNotifier struct {
	Bus *bus.Bus
}

func (n *BusDesktopNotifier) RequestPermission() (bool, error) {
	return true, nil
}

func (n *BusDesktopNotifier) Notify(title, body string) error {
	n.Bus.Publish(bus.Event{
		Kind:      bus.KindNotifyDesktop,
		Timestamp: time.Now(),
		Payload:   Toast{Title: title, Description: body},
	})
	return nil
}
