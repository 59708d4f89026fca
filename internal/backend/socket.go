package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

const (
	defaultWriteWait = 10 * time.Second
	maxFrameSize     = 1 << 20
)

// EventHandler receives backend socket events. Calls come from a single
// read goroutine per connection, in arrival order.
type EventHandler interface {
	OnConnect()
	OnDisconnect()
	OnBotMessage(text string)
	OnProduct(raw domain.UpstreamRecord)
}

// SocketConfig holds backend socket settings
type SocketConfig struct {
	URL            string
	DialTimeout    time.Duration
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// SocketClient is the duplex event channel to the search backend.
// Frames are JSON envelopes: {"event": "...", "data": {...}}.
type SocketClient struct {
	cfg    SocketConfig
	dialer *websocket.Dialer
	logger *zap.Logger

	handlerMu sync.RWMutex
	handler   EventHandler

	// mu guards conn and serializes writes; gorilla allows one writer at a time
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocketClient creates a new socket client. Set a handler before Run.
func NewSocketClient(cfg SocketConfig, logger *zap.Logger) *SocketClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocketClient{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.DialTimeout,
			ReadBufferSize:   64 * 1024,
			WriteBufferSize:  64 * 1024,
		},
		logger: logger,
	}
}

// SetHandler registers the receiver of inbound events
func (c *SocketClient) SetHandler(h EventHandler) {
	c.handlerMu.Lock()
	c.handler = h
	c.handlerMu.Unlock()
}

func (c *SocketClient) eventHandler() EventHandler {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()
	return c.handler
}

// Connected reports whether a live connection is open
func (c *SocketClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run keeps a connection open until ctx is cancelled, reconnecting after
// ReconnectDelay whenever the connection drops or the dial fails.
func (c *SocketClient) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("Backend socket closed, reconnecting",
			zap.String("url", c.cfg.URL),
			zap.Duration("delay", c.cfg.ReconnectDelay),
			zap.Error(err),
		)

		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *SocketClient) runOnce(ctx context.Context) error {
	dialCtx := ctx
	if c.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.DialTimeout)
		defer cancel()
	}

	conn, _, err := c.dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial backend: %w", err)
	}
	conn.SetReadLimit(maxFrameSize)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("Backend socket connected", zap.String("url", c.cfg.URL))
	if h := c.eventHandler(); h != nil {
		h.OnConnect()
	}

	done := make(chan struct{})
	defer func() {
		close(done)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		if h := c.eventHandler(); h != nil {
			h.OnDisconnect()
		}
	}()

	go c.keepAlive(ctx, conn, done)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		c.dispatch(frame)
	}
}

// keepAlive pings the backend and closes the connection when ctx ends
func (c *SocketClient) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	var tick <-chan time.Time
	if c.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			conn.Close()
			return
		case <-tick:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultWriteWait)); err != nil {
				c.logger.Debug("Ping failed", zap.Error(err))
			}
		}
	}
}

func (c *SocketClient) dispatch(frame []byte) {
	if !gjson.ValidBytes(frame) {
		c.logger.Warn("Ignoring malformed frame", zap.Int("bytes", len(frame)))
		return
	}
	h := c.eventHandler()
	if h == nil {
		return
	}

	event := gjson.GetBytes(frame, "event").String()
	data := gjson.GetBytes(frame, "data")

	switch event {
	case domain.EventBotMessage:
		text := data.Get("text").String()
		if data.Type == gjson.String {
			text = data.String()
		}
		h.OnBotMessage(text)
	case domain.EventProduct:
		if !data.IsObject() {
			c.logger.Warn("Ignoring product frame without an object payload")
			return
		}
		var raw domain.UpstreamRecord
		if err := recordAPI.UnmarshalFromString(data.Raw, &raw); err != nil {
			c.logger.Warn("Ignoring undecodable product payload", zap.Error(err))
			return
		}
		h.OnProduct(raw)
	default:
		c.logger.Debug("Ignoring unknown event", zap.String("event", event))
	}
}

// SendUserMessage emits a user_message event with the query text
func (c *SocketClient) SendUserMessage(ctx context.Context, text string) error {
	payload, err := sonic.Marshal(domain.TextPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	frame, err := sonic.Marshal(domain.Envelope{Event: domain.EventUserMessage, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return domain.ErrNotConnected
	}

	deadline := time.Now().Add(defaultWriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
