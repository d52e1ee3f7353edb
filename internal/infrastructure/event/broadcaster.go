package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind identifies the lifecycle event carried by a broadcast message
type Kind string

const (
	KindReportCreated Kind = "report-created"
	KindStatusChanged Kind = "status-changed"
)

// Message is the wire format pushed to connected viewers
type Message struct {
	Type    Kind `json:"type"`
	Payload any  `json:"payload"`
}

// Conn abstracts the client transport. *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is a registered viewer connection
type Client struct {
	ID        string
	AccountID string
	conn      Conn
	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed when the client is unregistered
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Broadcaster tracks live viewer connections and fans lifecycle events
// out to all of them. Delivery is best-effort: a slow or closed client
// loses messages, nothing is queued or retried.
type Broadcaster struct {
	clients      sync.Map // client ID -> *Client
	logger       *zap.Logger
	bufferSize   int
	writeTimeout time.Duration
	maxClients   int
}

// Option is a functional option for configuring the broadcaster
type Option func(*Broadcaster)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

// WithClientBufferSize sets the per-client outbound buffer size
func WithClientBufferSize(size int) Option {
	return func(b *Broadcaster) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithWriteTimeout sets the deadline for a single client write
func WithWriteTimeout(timeout time.Duration) Option {
	return func(b *Broadcaster) {
		if timeout > 0 {
			b.writeTimeout = timeout
		}
	}
}

// WithMaxClients caps the number of concurrent connections (0 = unlimited)
func WithMaxClients(max int) Option {
	return func(b *Broadcaster) {
		b.maxClients = max
	}
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		logger:       zap.NewNop(),
		bufferSize:   64,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ErrMaxClientsReached is returned by Register when the connection cap is hit
type ErrMaxClientsReached struct{}

func (ErrMaxClientsReached) Error() string {
	return "maximum number of stream connections reached"
}

// Register adds a connection to the active set and starts its write
// loop. The returned client's Done channel closes on unregistration.
func (b *Broadcaster) Register(conn Conn, accountID string) (*Client, error) {
	if b.maxClients > 0 && b.ClientCount() >= b.maxClients {
		return nil, ErrMaxClientsReached{}
	}

	client := &Client{
		ID:        uuid.New().String(),
		AccountID: accountID,
		conn:      conn,
		send:      make(chan Message, b.bufferSize),
		done:      make(chan struct{}),
	}

	b.clients.Store(client.ID, client)
	go b.writePump(client)

	b.logger.Info("Stream client connected",
		zap.String("client_id", client.ID),
		zap.String("account_id", accountID))

	return client, nil
}

// Unregister removes a connection from the active set. Safe to call
// multiple times and for clients that were never registered.
func (b *Broadcaster) Unregister(client *Client) {
	if client == nil {
		return
	}
	if _, loaded := b.clients.LoadAndDelete(client.ID); loaded {
		b.logger.Info("Stream client disconnected", zap.String("client_id", client.ID))
	}
	client.closeOnce.Do(func() {
		close(client.done)
	})
}

// Publish serializes the event and attempts delivery to every
// registered connection. Failures for individual clients are dropped
// silently; the caller never sees them.
func (b *Broadcaster) Publish(kind Kind, payload any) {
	msg := Message{Type: kind, Payload: payload}

	b.clients.Range(func(_, value any) bool {
		client, ok := value.(*Client)
		if !ok {
			return true
		}

		select {
		case client.send <- msg:
		default:
			// Buffer full, client is too slow. Drop the message.
			b.logger.Warn("Client buffer full, dropping event",
				zap.String("client_id", client.ID),
				zap.String("event", string(kind)))
		}
		return true
	})
}

// ClientCount returns the number of registered connections
func (b *Broadcaster) ClientCount() int {
	count := 0
	b.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Close unregisters every client and closes their transports
func (b *Broadcaster) Close() {
	b.clients.Range(func(_, value any) bool {
		if client, ok := value.(*Client); ok {
			b.Unregister(client)
			_ = client.conn.Close()
		}
		return true
	})
}

// writePump pushes queued messages to a single client until it is
// unregistered or the transport fails.
func (b *Broadcaster) writePump(client *Client) {
	for {
		select {
		case <-client.done:
			return
		case msg := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
			if err := client.conn.WriteJSON(msg); err != nil {
				b.logger.Debug("Stream write failed, dropping client",
					zap.String("client_id", client.ID),
					zap.Error(err))
				b.Unregister(client)
				_ = client.conn.Close()
				return
			}
		}
	}
}
