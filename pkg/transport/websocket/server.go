package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"github.com/HMasataka/conduit/internal/eventbus"
	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/pkg/domain"
)

// Server accepts websocket clients, registers them with the hub for
// broadcasts and feeds their lines to the handler.
type Server struct {
	upgrader websocket.Upgrader
	hub      domain.Hub
	handler  domain.LineHandler
	logger   *logging.Logger
	eventBus eventbus.Bus
	options  ServerOptions
}

// NewServer creates a new WebSocket server
func NewServer(opts ...ServerOption) *Server {
	options := ServerOptions{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		Client: DefaultClientOptions(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = logging.Discard()
	}

	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  options.ReadBufferSize,
			WriteBufferSize: options.WriteBufferSize,
			CheckOrigin:     options.CheckOrigin,
		},
		hub:      options.Hub,
		handler:  options.Handler,
		logger:   options.Logger.Named("websocket"),
		eventBus: options.EventBus,
		options:  options,
	}
}

// ServeHTTP implements http.Handler. It returns once the client is gone.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade error",
			"error", err,
			"remote_addr", r.RemoteAddr,
		)
		return
	}

	clientID := xid.New().String()
	client := NewClient(clientID, conn, s.handler, s.logger, s.options.Client)

	if err := s.hub.Register(client); err != nil {
		s.logger.Error("failed to register client",
			"error", err,
			"client_id", clientID,
		)
		client.Close()
		conn.Close()
		return
	}

	s.publish(eventbus.EventClientConnected, map[string]string{
		"client_id":   clientID,
		"remote_addr": r.RemoteAddr,
	})

	client.Start()

	s.logger.Info("client connected",
		"client_id", clientID,
		"remote_addr", r.RemoteAddr,
	)

	<-client.Context().Done()

	s.hub.Unregister(clientID)
	client.Wait()

	s.publish(eventbus.EventClientDisconnected, map[string]string{
		"client_id": clientID,
	})

	s.logger.Info("client disconnected", "client_id", clientID)
}

func (s *Server) publish(eventType eventbus.EventType, data map[string]string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.PublishAsync(eventbus.NewEvent(eventType, "websocket-server", data))
}
