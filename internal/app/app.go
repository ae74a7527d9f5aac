// Package app initializes and runs the gateway: it opens storage, connects
// the mesh transport, starts the sync engine and the optional JS8Call
// bridge, and routes inbound traffic between the sync protocol and the
// interactive menu. It also handles graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meshbbs/internal/config"
	"meshbbs/internal/js8call"
	"meshbbs/internal/logging"
	"meshbbs/internal/menu"
	"meshbbs/internal/meshsync"
	"meshbbs/internal/storage"
	"meshbbs/internal/transport"
)

// App owns the wired subsystems for one running gateway.
type App struct {
	cfg    *config.Config
	logger logging.Logger

	store     *storage.Store
	transport transport.Transport
	mqtt      *transport.MQTTTransport
	engine    *meshsync.Engine
	menu      *menu.Menu
	js8       *js8call.Client
}

// NewApp wires the full production stack from configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if cfg.NodeID == "" {
		return nil, fmt.Errorf("node_id is required: the MQTT transport cannot learn it from the radio")
	}

	mq, err := transport.NewMQTTTransport(transport.MQTTConfig{
		Broker:    cfg.MQTT.Broker,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		TopicRoot: cfg.MQTT.TopicRoot,
		Channel:   cfg.MQTT.ChannelName,
		NodeID:    cfg.NodeID,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("transport init error: %w", err)
	}

	app, err := build(ctx, cfg, mq, logger)
	if err != nil {
		return nil, err
	}
	app.mqtt = mq
	return app, nil
}

// build assembles everything above the transport. Tests call it with an
// in-memory transport.
func build(ctx context.Context, cfg *config.Config, tr transport.Transport, logger logging.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	engine := meshsync.NewEngine(meshsync.Config{
		NodeID:     tr.SelfID(),
		NodeName:   cfg.NodeName,
		Enabled:    cfg.Sync.Enabled,
		Interval:   time.Duration(cfg.Sync.IntervalMinutes) * time.Minute,
		MaxAgeDays: cfg.Sync.MaxAgeDays,
	}, &storeAdapter{store: store}, tr, meshsync.NewRegistry(), logger)

	m := menu.New(cfg.NodeName, store.Bulletins, store.Channels, store.Mail, engine, logger)

	app := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		transport: tr,
		engine:    engine,
		menu:      m,
	}

	if cfg.JS8Call.Enabled {
		app.js8 = js8call.NewClient(js8call.Config{
			Addr:     cfg.JS8Call.Addr,
			Operator: tr.SelfID(),
		}, store.Mail, logger)
	}

	tr.OnMessage(app.route)
	return app, nil
}

// route is the single inbound dispatch point. Sync traffic is consumed by
// the engine; direct messages from users drive the menu; everything else is
// ordinary mesh chatter and is left alone.
func (app *App) route(ctx context.Context, msg *transport.Message) {
	if app.engine.HandleMessage(ctx, msg.From, msg.Content) {
		return
	}
	if msg.To != app.transport.SelfID() {
		return
	}

	reply := app.menu.Handle(ctx, msg.From, "", msg.Content)
	if reply == "" {
		return
	}
	if err := app.transport.Send(ctx, msg.From, reply); err != nil {
		app.logger.Warn(ctx, "menu reply send failed", "to", msg.From, "error", err)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts every subsystem and blocks until the context is canceled or a
// termination signal arrives, then stops them in reverse order.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting gateway", "node", app.transport.SelfID(), "name", app.cfg.NodeName)
	app.initSignalHandler(cancelFunc)

	if app.mqtt != nil {
		if err := app.mqtt.Connect(ctx); err != nil {
			return fmt.Errorf("mqtt connect error: %w", err)
		}
	}

	app.engine.Start(ctx)
	if app.js8 != nil {
		app.js8.Start(ctx)
	}

	// Introduce ourselves and find who else is out there.
	app.engine.AnnounceToNetwork(ctx)
	app.engine.DiscoverPeers(ctx)

	<-ctx.Done()
	app.logger.Info(ctx, "shutting down gateway")

	if app.js8 != nil {
		app.js8.Stop()
	}
	app.engine.Stop()
	if app.mqtt != nil {
		app.mqtt.Close()
	}
	return app.store.Close()
}
