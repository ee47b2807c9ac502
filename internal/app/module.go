package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"msgdeck/internal/api"
	"msgdeck/internal/bus"
	"msgdeck/internal/config"
	"msgdeck/internal/gateway"
	"msgdeck/internal/lock"
	"msgdeck/internal/logging"
	"msgdeck/internal/notify"
	"msgdeck/internal/outbox"
	"msgdeck/internal/replies"
	"msgdeck/internal/session"
	"msgdeck/internal/status"
	"msgdeck/internal/store"
	intsync "msgdeck/internal/sync"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("msgdeckd",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideAPIClient,
			provideChatStore,
			provideInbox,
			provideResolver,
			provideDispatcher,
			provideOutbox,
			provideManager,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideAPIClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.APIBaseURL)
}

func provideChatStore(b *bus.Bus) *store.Store {
	return store.New(b)
}

func provideInbox(cfg *config.Config, b *bus.Bus) *store.Inbox {
	return store.NewInbox(cfg.AccountIDs, b)
}

func provideResolver(b *bus.Bus) *replies.Resolver {
	return replies.NewResolver(b)
}

func provideDispatcher(cfg *config.Config, client *api.Client, b *bus.Bus, logger *zap.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(
		cfg.UserID,
		&notify.BusToaster{Bus: b},
		&notify.BusDesktopNotifier{Bus: b},
		client,
		logger,
	)
}

func provideOutbox(client *api.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(client, b, logger)
}

func provideManager(cfg *config.Config, machine *status.Machine, logger *zap.Logger) *gateway.Manager {
	return gateway.NewManager(cfg.GatewayURL, nil, machine, logger)
}

func provideEngine(
	cfg *config.Config,
	chats *store.Store,
	inbox *store.Inbox,
	resolver *replies.Resolver,
	dispatcher *notify.Dispatcher,
	ob *outbox.Sender,
	client *api.Client,
	b *bus.Bus,
	logger *zap.Logger,
) *intsync.Engine {
	return intsync.NewEngine(chats, inbox, resolver, dispatcher, ob, client, b, cfg.MentionTag(), logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	lk *lock.Lock,
	manager *gateway.Manager,
	engine *intsync.Engine,
	dispatcher *notify.Dispatcher,
	sender *outbox.Sender,
	b *bus.Bus,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Start the engine first so no gateway event is missed.
			engine.Start(context.Background())

			handler := gateway.NewEventHandler(b, logger)
			manager.OnEvent(handler.Handle)

			sender.Start(context.Background())

			// The manager retries on its own; a failed first dial is
			// not a startup failure.
			go func() {
				if err := manager.Connect(); err != nil {
					logger.Warn("initial gateway connect failed, retrying", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			sender.Stop()
			engine.Stop()
			manager.Close()
			dispatcher.Drain()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
