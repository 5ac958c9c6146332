package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/HMasataka/conduit/internal/bridge"
	"github.com/HMasataka/conduit/internal/command"
	"github.com/HMasataka/conduit/internal/config"
	"github.com/HMasataka/conduit/internal/eventbus"
	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/internal/process"
	"github.com/HMasataka/conduit/pkg/hub"
	"github.com/HMasataka/conduit/pkg/router"
	"github.com/HMasataka/conduit/pkg/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

type broker struct {
	cfg     *config.Config
	logger  *logging.Logger
	bus     *eventbus.InMemoryBus
	hub     *hub.Hub
	proc    *process.Process
	bridge  *bridge.Bridge
	server  *http.Server
	eventID string
}

func newBroker(cfg *config.Config, logger *logging.Logger) (*broker, error) {
	registry, err := command.NewBuiltinRegistry(command.Options{
		Target:       cfg.Commands.Target,
		Radius:       cfg.Commands.Radius,
		MaxCount:     cfg.Commands.MaxCount,
		DefaultCount: cfg.Commands.DefaultCount,
	})
	if err != nil {
		return nil, fmt.Errorf("building command registry: %w", err)
	}

	bus := eventbus.NewInMemoryBus(256)
	eventLogger := logger.Named("events")
	eventID := bus.SubscribeAll(func(event *eventbus.Event) {
		eventLogger.Debug(string(event.Type), "source", event.Source, "data", event.Data)
	})

	h := hub.New(hub.Options{
		Logger:      logger,
		SendTimeout: cfg.Server.SendTimeout,
	})

	proc, err := process.Start(process.Options{
		Command:        cfg.Process.Command,
		Dir:            cfg.Process.Dir,
		TerminateGrace: cfg.Process.TerminateGrace,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	br := bridge.New(bridge.Streams{
		Stdin:  proc.Stdin(),
		Stdout: proc.Stdout(),
		Stderr: proc.Stderr(),
	}, h, logger)

	rt := router.New(router.Options{
		Interpreter: command.NewInterpreter(registry),
		Submitter:   br,
		Logger:      logger,
		EventBus:    bus,
	})

	ws := websocket.NewServer(
		websocket.WithHub(h),
		websocket.WithHandler(rt),
		websocket.WithLogger(logger),
		websocket.WithEventBus(bus),
		websocket.WithClientOptions(websocket.ClientOptions{
			WriteTimeout:   cfg.Server.WriteTimeout,
			ReadTimeout:    cfg.Server.ReadTimeout,
			PingInterval:   cfg.Server.PingInterval,
			MaxMessageSize: cfg.Server.MaxMessageSize,
		}),
	)

	return &broker{
		cfg:    cfg,
		logger: logger,
		bus:    bus,
		hub:    h,
		proc:   proc,
		bridge: br,
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           newHandler(cfg.Server.Path, ws, h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		eventID: eventID,
	}, nil
}

// newHandler mounts the websocket endpoint next to the health and stats
// routes.
func newHandler(path string, ws http.Handler, h *hub.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(path, ws.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("ok"))
		})

		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(h.GetStats())
		})
	})

	return r
}

func (b *broker) run(ctx context.Context) error {
	b.bus.Start(ctx)
	defer b.bus.Stop()

	if err := b.bridge.Start(ctx); err != nil {
		return err
	}

	go b.watchProcess()

	serveErr := make(chan error, 1)
	go func() {
		b.logger.Info("listening", "addr", b.server.Addr, "path", b.cfg.Server.Path)
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		b.logger.Info("shutting down")
	case err := <-serveErr:
		runErr = err
	}

	b.shutdown()
	return runErr
}

func (b *broker) watchProcess() {
	<-b.proc.Done()
	err := b.proc.Wait()
	b.bridge.MarkExited(err)

	b.bus.PublishAsync(eventbus.NewEvent(eventbus.EventProcessExited, "process", map[string]string{
		"pid":       strconv.Itoa(b.proc.Pid()),
		"exit_code": strconv.Itoa(b.proc.ExitCode()),
	}))
}

func (b *broker) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := b.server.Shutdown(ctx); err != nil {
		b.logger.Warn("http shutdown", "error", err)
	}

	// Websocket connections are hijacked, so Shutdown does not wait for them.
	b.hub.Close()

	if err := b.bridge.Close(); err != nil {
		b.logger.Debug("closing process stdin", "error", err)
	}

	termCtx, termCancel := context.WithTimeout(context.Background(), b.cfg.Process.TerminateGrace+shutdownTimeout)
	defer termCancel()
	if err := b.proc.Terminate(termCtx); err != nil {
		b.logger.Error("terminating process", "error", err)
	}

	select {
	case <-b.bridge.Done():
	case <-time.After(shutdownTimeout):
		b.logger.Warn("output relays did not stop in time")
	}
	if err := b.proc.Close(); err != nil {
		b.logger.Debug("closing process output", "error", err)
	}

	b.bus.Unsubscribe(b.eventID)
	b.logger.Info("shutdown complete")
}
