package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

type sleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleeps) seconds() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.delays))
	for i, d := range s.delays {
		out[i] = int(d / time.Second)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBackoffDelay(t *testing.T) {
	b := DefaultBackoff()
	want := []time.Duration{1, 2, 4, 8, 16, 30, 30}
	for i, w := range want {
		if got := b.Delay(i); got != w*time.Second {
			t.Fatalf("attempt %d: expected %v, got %v", i, w*time.Second, got)
		}
	}
}

func TestRunGivesUpAfterFiveAttempts(t *testing.T) {
	var dials int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&dials, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var s sleeps
	var states []State
	c := New(wsURL(srv),
		WithLogger(quietLogger()),
		WithSleep(s.sleep),
		WithStateHandler(func(st State) { states = append(states, st) }),
	)

	err := c.Run(context.Background())
	if !errors.Is(err, ErrGaveUp) {
		t.Fatalf("expected ErrGaveUp, got %v", err)
	}
	if got := s.seconds(); !equalInts(got, []int{1, 2, 4, 8, 16}) {
		t.Fatalf("expected delays 1,2,4,8,16 got %v", got)
	}
	if n := atomic.LoadInt32(&dials); n != 6 {
		t.Fatalf("expected 6 connection attempts, got %d", n)
	}
	if c.State() != GaveUp || states[len(states)-1] != GaveUp {
		t.Fatalf("expected gave up state, got %v", c.State())
	}
}

func TestSuccessfulConnectResetsBackoff(t *testing.T) {
	var dials int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&dials, 1) != 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}))
	defer srv.Close()

	var s sleeps
	c := New(wsURL(srv), WithLogger(quietLogger()), WithSleep(s.sleep))
	if err := c.Run(context.Background()); !errors.Is(err, ErrGaveUp) {
		t.Fatalf("expected ErrGaveUp, got %v", err)
	}
	if got := s.seconds(); !equalInts(got, []int{1, 1, 2, 4, 8, 16}) {
		t.Fatalf("expected delays 1,1,2,4,8,16 got %v", got)
	}
}

func TestDispatch(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"timer_started","data":{"id":7,"project":"Design","description":"","start_time":"2024-06-03T09:00:00"}}`))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"project_deleted","data":{"id":3}}`))
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(wsURL(srv), WithLogger(quietLogger()), WithSleep(func(ctx context.Context, d time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	got := make(chan string, 10)
	c.On(TimerStarted, func(Event) { panic("boom") })
	c.On(TimerStarted, func(ev Event) {
		var d TimerStartedData
		if err := ev.Decode(&d); err != nil {
			got <- "decode error: " + err.Error()
			return
		}
		got <- "typed:" + d.Project
	})
	off := c.On(ProjectDeleted, func(Event) { got <- "removed handler ran" })
	off()
	c.On(Any, func(ev Event) { got <- "any:" + ev.Type })

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	want := []string{"typed:Design", "any:timer_started", "any:project_deleted"}
	for _, w := range want {
		select {
		case g := <-got:
			if g != w {
				t.Fatalf("expected %q, got %q", w, g)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}

	if c.State() != Connected {
		t.Fatalf("expected connected, got %v", c.State())
	}
	if err := c.Send(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	select {
	case g := <-got:
		t.Fatalf("unexpected extra event %q", g)
	default:
	}
}

func TestSendWithoutConnection(t *testing.T) {
	c := New("ws://127.0.0.1:1/ws", WithLogger(quietLogger()))
	if err := c.Send(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("expected dropped message without error, got %v", err)
	}
}

func TestURLFromBase(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8000":     "ws://localhost:8000/ws",
		"https://zeit.example.com/": "wss://zeit.example.com/ws",
		"http://host/prefix":        "ws://host/prefix/ws",
	}
	for in, want := range tests {
		got, err := URLFromBase(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	if _, err := URLFromBase("ftp://host"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}
