// Package live maintains the push channel that carries record mutation
// events from the base service.
//
// A Channel is a long-lived websocket. When the connection drops it
// reconnects with exponential backoff and gives up after a bounded number
// of attempts; a successful connection resets the backoff. Events missed
// while disconnected are not replayed: consumers recover by refetching.
package live

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// State is the connection state of a Channel.
type State int

// Channel states.
const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateWaiting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateWaiting:
		return "waiting"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Message outcomes reported to Metrics.
const (
	MessageDelivered = "delivered"
	MessageMalformed = "malformed"
)

// Metrics receives channel outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveMessage(outcome string)
	ObserveReconnect()
	ObserveState(state State)
}

// Handler receives decoded events in arrival order. Handlers run on the
// channel's read goroutine and must not block.
type Handler func(types.LiveEvent)

// Settings tunes connection behavior.
type Settings struct {
	HandshakeTimeout time.Duration
	// ReadTimeout is how long the connection may stay silent, pongs
	// included, before it is considered dead.
	ReadTimeout  time.Duration
	PingPeriod   time.Duration
	WriteTimeout time.Duration

	ReconnectInitial     time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMaxAttempts int
}

// DefaultSettings mirrors the reconnect policy of the web client: first
// retry after one second, doubling, at most five attempts.
func DefaultSettings() *Settings {
	return &Settings{
		HandshakeTimeout:     5 * time.Second,
		ReadTimeout:          60 * time.Second,
		PingPeriod:           54 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReconnectInitial:     types.DefaultReconnectInitial,
		ReconnectMaxDelay:    DefaultMaxDelay,
		ReconnectMaxAttempts: types.DefaultReconnectMaxAttempts,
	}
}

// Option configures a Channel.
type Option func(*Channel)

// WithMetrics reports channel outcomes to m.
func WithMetrics(m Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// Channel is one push connection subscribed to a fixed set of tables,
// chosen when it is created.
type Channel struct {
	id       ulid.ULID
	url      string
	settings *Settings
	metrics  Metrics

	mu       sync.Mutex
	state    State
	handlers map[int]Handler
	nextID   int
}

// NewChannel prepares a channel to rawURL. Each table id is appended as a
// tableId query parameter so the server subscribes the connection to it.
// Nothing is dialed until Run.
func NewChannel(rawURL string, tableIDs []string, settings *Settings, opts ...Option) (*Channel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse channel url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, types.ErrWSURLInvalid
	}
	if len(tableIDs) > 0 {
		q := u.Query()
		for _, id := range tableIDs {
			q.Add("tableId", id)
		}
		u.RawQuery = q.Encode()
	}
	if settings == nil {
		settings = DefaultSettings()
	}

	c := &Channel{
		id:       ulid.Make(),
		url:      u.String(),
		settings: settings,
		handlers: make(map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID identifies this channel instance in logs.
func (c *Channel) ID() string { return c.id.String() }

// URL returns the dialed URL including table subscriptions.
func (c *Channel) URL() string { return c.url }

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers h for every subsequent event. The returned function
// removes it.
func (c *Channel) Subscribe(h Handler) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

// Run connects and delivers events until ctx is cancelled, in which case
// it returns nil, or until reconnect attempts are exhausted, in which case
// it returns an error wrapping types.ErrRetriesExhausted. Either way the
// channel ends in StateClosed.
func (c *Channel) Run(ctx context.Context) error {
	backoff := &Backoff{
		Initial:     c.settings.ReconnectInitial,
		MaxDelay:    c.settings.ReconnectMaxDelay,
		MaxAttempts: c.settings.ReconnectMaxAttempts,
	}
	defer c.setState(StateClosed)

	for {
		c.setState(StateConnecting)
		ws, err := c.dial(ctx)
		if err == nil {
			backoff.Reset()
			c.setState(StateConnected)
			glog.Infof("[live %s] connected %s", c.id, c.url)
			err = c.serve(ctx, ws)
		}
		if ctx.Err() != nil {
			glog.Infof("[live %s] closed", c.id)
			return nil
		}
		glog.Infof("[live %s] disconnected: %v", c.id, err)

		delay, ok := backoff.Next()
		if !ok {
			glog.Warningf("[live %s] giving up after %d reconnect attempts", c.id, backoff.Attempts())
			return fmt.Errorf("%w: %v", types.ErrRetriesExhausted, err)
		}
		c.setState(StateWaiting)
		if c.metrics != nil {
			c.metrics.ObserveReconnect()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: c.settings.HandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// serve reads until the connection fails or ctx is done. A second
// goroutine owns pings and the close handshake.
func (c *Channel) serve(ctx context.Context, ws *websocket.Conn) error {
	defer ws.Close()

	handleCtx, handleCancel := context.WithCancel(ctx)
	defer handleCancel()

	extend := func() {
		ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	}
	extend()
	ws.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	go func() {
		ticker := time.NewTicker(c.settings.PingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-handleCtx.Done():
				deadline := time.Now().Add(c.settings.WriteTimeout)
				ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
				ws.Close()
				return
			case <-ticker.C:
				deadline := time.Now().Add(c.settings.WriteTimeout)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					glog.V(1).Infof("[live %s] ping: %v", c.id, err)
					handleCancel()
					ws.Close()
					return
				}
			}
		}
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		extend()
		c.dispatch(message)
	}
}

// dispatch decodes one frame. The server may coalesce queued messages
// into a single frame separated by newlines.
func (c *Channel) dispatch(frame []byte) {
	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		event, err := types.DecodeLiveEvent(line)
		if err != nil {
			glog.Warningf("[live %s] dropping message: %v", c.id, err)
			if c.metrics != nil {
				c.metrics.ObserveMessage(MessageMalformed)
			}
			continue
		}
		glog.V(2).Infof("[live %s] %s %s/%s", c.id, event.Type, event.TableID, event.RecordID)

		c.mu.Lock()
		handlers := make([]Handler, 0, len(c.handlers))
		for id := 0; id < c.nextID; id++ {
			if h, ok := c.handlers[id]; ok {
				handlers = append(handlers, h)
			}
		}
		c.mu.Unlock()

		for _, h := range handlers {
			h(event)
		}
		if c.metrics != nil {
			c.metrics.ObserveMessage(MessageDelivered)
		}
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.metrics != nil {
		c.metrics.ObserveState(s)
	}
}
