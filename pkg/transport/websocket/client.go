package websocket

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/pkg/domain"
	"github.com/HMasataka/conduit/pkg/errors"
)

// ClientOptions represents websocket client options
type ClientOptions struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024, // 64KB
		SendBuffer:     256,
	}
}

// Client implements domain.Client over a websocket connection
type Client struct {
	id       string
	conn     *websocket.Conn
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logging.Logger
	options  ClientOptions
	sendChan chan []byte
	handler  domain.LineHandler
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
}

var _ domain.Client = (*Client)(nil)

// NewClient wraps conn. Call Start to run the pumps.
func NewClient(id string, conn *websocket.Conn, handler domain.LineHandler, logger *logging.Logger, options ClientOptions) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	if options.SendBuffer <= 0 {
		options.SendBuffer = DefaultClientOptions().SendBuffer
	}

	return &Client{
		id:       id,
		conn:     conn,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.WithFields(map[string]any{"client_id": id}),
		options:  options,
		sendChan: make(chan []byte, options.SendBuffer),
		handler:  handler,
	}
}

// ID implements domain.Client
func (c *Client) ID() string {
	return c.id
}

// Send implements domain.Client. It queues without blocking; a full
// queue means the client is not keeping up and the message is dropped.
func (c *Client) Send(ctx context.Context, message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errors.From(errors.ErrConnectionClosed, "")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.sendChan <- message:
		return nil
	default:
		return errors.New(errors.ErrorTypeTransport, errors.CodeSendBufferFull, "send buffer is full")
	}
}

// Close implements domain.Client
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	close(c.sendChan)
	c.mu.Unlock()

	c.logger.Debug("closing client connection")

	// The write pump sends a close frame once it drains sendChan; the
	// read pump unblocks when the peer answers or the deadline passes.
	return nil
}

// Context implements domain.Client
func (c *Client) Context() context.Context {
	return c.ctx
}

// Start starts the client read and write pumps
func (c *Client) Start() {
	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
}

// Wait blocks until both pumps have stopped
func (c *Client) Wait() {
	c.wg.Wait()
}

// readPump reads lines from the connection and hands them to the handler
func (c *Client) readPump() {
	defer c.wg.Done()
	defer func() {
		c.logger.Debug("read pump stopped")
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.options.MaxMessageSize)
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("websocket read error", "error", err)
			} else {
				c.logger.Info("websocket connection closed")
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		c.extendReadDeadline()

		line := strings.TrimRight(string(message), "\r\n")

		if c.handler == nil {
			continue
		}

		for _, reply := range c.handler.HandleLine(c.ctx, c, line) {
			if err := c.Send(c.ctx, []byte(reply)); err != nil {
				c.logger.Warn("failed to send reply", "error", err)
				break
			}
		}
	}
}

func (c *Client) extendReadDeadline() {
	if c.options.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
	}
}

// writePump pumps queued messages to the connection
func (c *Client) writePump() {
	defer c.wg.Done()
	defer func() {
		c.logger.Debug("write pump stopped")
	}()

	var tick <-chan time.Time
	if c.options.PingInterval > 0 {
		ticker := time.NewTicker(c.options.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case message, ok := <-c.sendChan:
			c.setWriteDeadline()

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("websocket write error", "error", err)
				c.abort()
				return
			}

		case <-tick:
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("websocket ping error", "error", err)
				c.abort()
				return
			}
		}
	}
}

func (c *Client) setWriteDeadline() {
	if c.options.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
	}
}

// abort tears the connection down after a failed write so the read pump
// unblocks, and discards whatever is left in the send queue.
func (c *Client) abort() {
	c.Close()
	c.conn.Close()
	for range c.sendChan {
	}
}
