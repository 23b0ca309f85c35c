// Package notify keeps a WebSocket open to the server and fans the pushed
// events out to subscribers. Lost connections are retried with exponential
// backoff until the attempt budget runs out.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrGaveUp is returned by Run once every reconnect attempt failed.
var ErrGaveUp = errors.New("notify: giving up after repeated reconnect failures")

// State of the connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	GaveUp
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case GaveUp:
		return "gave up"
	default:
		return "disconnected"
	}
}

// Backoff describes the reconnect schedule.
type Backoff struct {
	Initial  time.Duration
	Max      time.Duration
	Attempts int
}

// DefaultBackoff waits 1s, 2s, 4s, 8s and 16s before giving up.
func DefaultBackoff() Backoff {
	return Backoff{Initial: time.Second, Max: 30 * time.Second, Attempts: 5}
}

// Delay is the wait before reconnect attempt n, counting from zero.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	for i := 0; i < n; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Handler receives events. It runs on the channel's read goroutine.
type Handler func(Event)

type subscription struct {
	id int
	h  Handler
}

// Channel is a reconnecting notification connection.
type Channel struct {
	url     string
	dialer  *websocket.Dialer
	log     logrus.FieldLogger
	backoff Backoff
	sleep   func(ctx context.Context, d time.Duration) error
	onState func(State)

	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   int
	state    State

	connMu sync.Mutex
	conn   *websocket.Conn
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer replaces the default dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Channel) { c.log = l }
}

// WithBackoff sets the reconnect schedule.
func WithBackoff(b Backoff) Option {
	return func(c *Channel) { c.backoff = b }
}

// WithSleep replaces the wait between reconnect attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Channel) { c.sleep = fn }
}

// WithStateHandler is called on every state change.
func WithStateHandler(fn func(State)) Option {
	return func(c *Channel) { c.onState = fn }
}

// New creates a channel for the ws:// or wss:// url. Nothing connects until
// Run is called.
func New(url string, opts ...Option) *Channel {
	c := &Channel{
		url:      url,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      logrus.StandardLogger(),
		backoff:  DefaultBackoff(),
		sleep:    sleep,
		handlers: map[string][]subscription{},
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.WithField("component", "notify")
	return c
}

// URLFromBase turns the server's http base url into the channel url.
func URLFromBase(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("notify: bad server url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("notify: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// On subscribes h to events of the given type, or to all events with Any.
// The returned func removes the subscription.
func (c *Channel) On(eventType string, h Handler) (off func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[eventType] = append(c.handlers[eventType], subscription{id: id, h: h})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				c.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// State returns the connection state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.onState != nil {
		c.onState(s)
	}
}

// Run connects and dispatches events until ctx is done or reconnecting is
// abandoned, in which case it returns ErrGaveUp.
func (c *Channel) Run(ctx context.Context) error {
	attempt := 0
	for {
		c.setState(Connecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err == nil {
			attempt = 0
			c.setConn(conn)
			c.setState(Connected)
			c.log.Info("connected")
			err = c.read(ctx, conn)
			c.setConn(nil)
			_ = conn.Close()
		}
		if ctx.Err() != nil {
			c.setState(Disconnected)
			return ctx.Err()
		}
		c.setState(Disconnected)

		if attempt >= c.backoff.Attempts {
			c.log.WithError(err).Warn("max reconnect attempts reached")
			c.setState(GaveUp)
			return ErrGaveUp
		}
		delay := c.backoff.Delay(attempt)
		attempt++
		c.log.WithError(err).WithField("attempt", attempt).Infof("reconnecting in %v", delay)
		if err := c.sleep(ctx, delay); err != nil {
			c.setState(Disconnected)
			return err
		}
	}
}

func (c *Channel) read(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
			c.log.WithField("frame", string(raw)).Warn("dropping malformed frame")
			continue
		}
		c.dispatch(ev)
	}
}

// dispatch runs type handlers first, then wildcard handlers.
func (c *Channel) dispatch(ev Event) {
	c.mu.RLock()
	subs := append([]subscription(nil), c.handlers[ev.Type]...)
	if ev.Type != Any {
		subs = append(subs, c.handlers[Any]...)
	}
	c.mu.RUnlock()

	for _, s := range subs {
		c.call(s.h, ev)
	}
}

func (c *Channel) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("type", ev.Type).Errorf("handler panicked: %v", r)
		}
	}()
	h(ev)
}

// Send writes v as JSON. Without an open connection the message is dropped
// with a warning.
func (c *Channel) Send(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		c.log.Warn("not connected, dropping message")
		return nil
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

func (c *Channel) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
