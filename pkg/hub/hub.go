package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/pkg/domain"
	"github.com/HMasataka/conduit/pkg/errors"
)

const defaultSendTimeout = 5 * time.Second

type Options struct {
	Logger *logging.Logger
	// SendTimeout bounds each per-client delivery in Publish.
	SendTimeout time.Duration
}

// Hub holds the set of connected clients and fans published messages out
// to all of them. A client whose delivery fails stays registered; its own
// receive loop notices the broken connection and unregisters it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]domain.Client
	closed  bool

	logger      *logging.Logger
	sendTimeout time.Duration

	messagesPublished int64
	messagesSent      int64
	sendFailures      int64
	startTime         time.Time
}

var _ domain.Hub = (*Hub)(nil)

func New(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}

	return &Hub{
		clients:     make(map[string]domain.Client),
		logger:      logger.Named("hub"),
		sendTimeout: sendTimeout,
		startTime:   time.Now(),
	}
}

func (h *Hub) Register(client domain.Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return domain.ErrHubClosed
	}

	clientID := client.ID()
	if _, exists := h.clients[clientID]; exists {
		h.logger.Debug("client already registered", "client_id", clientID)
		return nil
	}

	h.clients[clientID] = client

	h.logger.Info("client registered",
		"client_id", clientID,
		"total_clients", len(h.clients),
	)
	return nil
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}
	delete(h.clients, clientID)

	h.logger.Info("client unregistered",
		"client_id", clientID,
		"total_clients", len(h.clients),
	)
}

// Publish delivers message to a snapshot of the registered clients, each
// on its own goroutine with its own timeout. It returns once every
// delivery has finished or timed out; failures are logged and counted.
func (h *Hub) Publish(ctx context.Context, message []byte) {
	clients := h.GetClients()
	if len(clients) == 0 {
		return
	}

	atomic.AddInt64(&h.messagesPublished, 1)

	var (
		g            errgroup.Group
		successCount int64
		errorCount   int64
	)

	for _, client := range clients {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()

			if err := client.Send(sendCtx, message); err != nil {
				atomic.AddInt64(&errorCount, 1)
				h.logger.Warn("failed to send to client",
					"client_id", client.ID(),
					"error", errors.From(errors.ErrClientSendFailure, client.ID()).WithCause(err),
				)
				return nil
			}

			atomic.AddInt64(&successCount, 1)
			return nil
		})
	}
	_ = g.Wait()

	atomic.AddInt64(&h.messagesSent, successCount)
	atomic.AddInt64(&h.sendFailures, errorCount)

	h.logger.Debug("broadcast complete",
		"success_count", successCount,
		"error_count", errorCount,
	)
}

func (h *Hub) GetClient(clientID string) (domain.Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	return client, ok
}

func (h *Hub) GetClients() []domain.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]domain.Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Close closes every registered client and refuses new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]domain.Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	clear(h.clients)
	h.mu.Unlock()

	for _, client := range clients {
		if err := client.Close(); err != nil {
			h.logger.Debug("error closing client", "client_id", client.ID(), "error", err)
		}
	}

	h.logger.Info("hub closed", "closed_clients", len(clients))
}

func (h *Hub) GetStats() domain.HubStats {
	return domain.HubStats{
		ConnectedClients:  h.Count(),
		MessagesPublished: atomic.LoadInt64(&h.messagesPublished),
		MessagesSent:      atomic.LoadInt64(&h.messagesSent),
		SendFailures:      atomic.LoadInt64(&h.sendFailures),
		Uptime:            time.Since(h.startTime).Seconds(),
	}
}
