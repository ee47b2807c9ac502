package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"msgdeck/internal/api"
	"msgdeck/internal/store"
)

const persistTimeout = 10 * time.Second

// Dispatcher fans a notification out to up to three sinks: the in-app
// toast, the OS notification, and the remote persistence endpoint. The
// sinks are independent and best-effort: each failure is logged and
// never blocks or rolls back the others.
type Dispatcher struct {
	toaster   Toaster
	desktop   DesktopNotifier
	persister Persister
	logger    *zap.Logger
	userID    string

	// Desktop permission is requested once, lazily, the first time a
	// notification is ready to show.
	permOnce    sync.Once
	permGranted bool

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the given user. Any sink may be
// nil and is then skipped.
func NewDispatcher(userID string, toaster Toaster, desktop DesktopNotifier, persister Persister, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		toaster:   toaster,
		desktop:   desktop,
		persister: persister,
		logger:    logger,
		userID:    userID,
	}
}

// Dispatch shows the notification for msg on every sink. Sink calls are
// fire-and-forget; the caller's reconciliation path never waits on them.
func (d *Dispatcher) Dispatch(msg *store.Message) {
	toast := buildToast(msg)

	if d.toaster != nil {
		d.run(func() {
			if err := d.toaster.ShowToast(toast); err != nil {
				d.logger.Warn("toast sink failed", zap.Error(err), zap.String("msg_id", msg.ID))
			}
		})
	}

	if d.desktop != nil {
		d.run(func() {
			d.permOnce.Do(func() {
				granted, err := d.desktop.RequestPermission()
				if err != nil {
					d.logger.Warn("desktop notification permission request failed", zap.Error(err))
					return
				}
				d.permGranted = granted
			})
			if !d.permGranted {
				return
			}
			if err := d.desktop.Notify(toast.Title, toast.Description); err != nil {
				d.logger.Warn("desktop sink failed", zap.Error(err), zap.String("msg_id", msg.ID))
			}
		})
	}

	if d.persister != nil {
		d.run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			err := d.persister.SaveNotification(ctx, api.SaveNotificationRequest{
				UserID:      d.userID,
				Title:       toast.Title,
				Description: toast.Description,
				ChatID:      toast.ChatID,
				MessageID:   toast.MessageID,
			})
			if err != nil {
				d.logger.Warn("notification persistence failed", zap.Error(err), zap.String("msg_id", msg.ID))
			}
		})
	}
}

// Drain blocks until in-flight sink calls finish. Used on teardown and
// in tests; the dispatch path itself never waits.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

func (d *Dispatcher) run(f func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		f()
	}()
}

func buildToast(msg *store.Message) Toast {
	ts := time.UnixMilli(msg.TimestampMs).Format(time.RFC3339)
	desc := fmt.Sprintf("%s\n%s", msg.Body, ts)
	if msg.ReplyTo != nil && msg.ReplyTo.TargetBody != "" {
		desc = fmt.Sprintf("Replying to: %q\n\n%s\n%s", msg.ReplyTo.TargetBody, msg.Body, ts)
	}
	return Toast{
		Title:       fmt.Sprintf("%s - %s", msg.ChatName, msg.Author),
		Description: desc,
		ChatID:      msg.ChatID,
		ChatName:    msg.ChatName,
		IsGroup:     true,
		MessageID:   msg.ID,
	}
}
