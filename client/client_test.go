package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/calendar-sync/client/internal/shardqueue"
)

type stubExec struct{ stops, flushes int }

func (s *stubExec) Do(ctx context.Context, _ string, j shardqueue.Job) error { return j.Run(ctx) }
func (s *stubExec) Flush(context.Context) error                              { s.flushes++; return nil }
func (s *stubExec) Stop()                                                    { s.stops++ }

func TestIsBackPressure(t *testing.T) {
	if !IsBackPressure(ErrBackPressure) {
		t.Fatalf("expected back pressure")
	}
	if IsBackPressure(errors.New("other")) {
		t.Fatalf("unexpected back pressure detection")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := &stubExec{}
	c := &Client{exec: s}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.stops != 1 {
		t.Fatalf("executor stop called %d times", s.stops)
	}
	if err := c.Mutate(context.Background(), "k", func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
	if s.flushes != 0 {
		t.Fatalf("closed client flushed its executor")
	}
}

func TestFlush_WaitsForPendingMutations(t *testing.T) {
	c, err := New("http://example.com/api")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()

	started := make(chan struct{})
	var done int32
	go func() {
		_ = c.Mutate(context.Background(), "evt-1", func(context.Context) error {
			close(started)
			time.Sleep(10 * time.Millisecond)
			atomic.StoreInt32(&done, 1)
			return nil
		})
	}()
	<-started

	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if atomic.LoadInt32(&done) != 1 {
		t.Fatalf("flush returned before the pending mutation finished")
	}
}

func TestWithLogger_RoutesExecutorLogs(t *testing.T) {
	var buf bytes.Buffer
	c, err := New("http://example.com/api", WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = c.Close()
	if !strings.Contains(buf.String(), "stopping executor") {
		t.Fatalf("expected executor logs on the injected logger, got %q", buf.String())
	}
}

func TestEndpoints_CarryToken(t *testing.T) {
	var tokens []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, r.Header.Get(TokenHeader))
		mu.Unlock()
		switch {
		case r.URL.Path == "/api/auth/renew":
			_ = json.NewEncoder(w).Encode(AuthResponse{Ok: true, UID: "u1", Name: "Ana", Token: "t2"})
		case r.URL.Path == "/api/events" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(ListEventsResponse{Ok: true, Eventos: []EventPayload{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api/", WithTokenSource(StaticToken("t1")))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Renew(context.Background()); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if evs, err := c.ListEvents(context.Background()); err != nil || len(evs) != 0 {
		t.Fatalf("list: %v %v", evs, err)
	}
	if c.BaseURL() != srv.URL+"/api" {
		t.Fatalf("trailing slash not trimmed: %s", c.BaseURL())
	}
	mu.Lock()
	defer mu.Unlock()
	for _, tok := range tokens {
		if tok != "t1" {
			t.Fatalf("expected x-token t1 on every request, got %v", tokens)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"msg":"No hay token en la petición"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/api")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.Renew(context.Background())
	if !IsAuth(err) || IsNetwork(err) || IsRecoverable(err) {
		t.Fatalf("unexpected classification for %v", err)
	}
	if ServerMessage(err) != "No hay token en la petición" {
		t.Fatalf("unexpected message %q", ServerMessage(err))
	}
	var ce *ClassifiedError
	if !errors.As(err, &ce) || ce.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected *ClassifiedError with 401, got %v", err)
	}
}

func TestUpdateAndDelete_RequireID(t *testing.T) {
	c := &Client{exec: &stubExec{}}
	if _, err := c.UpdateEvent(context.Background(), EventPayload{}); err == nil {
		t.Fatal("expected error for update without id")
	}
	if err := c.DeleteEvent(context.Background(), ""); err == nil {
		t.Fatal("expected error for delete without id")
	}
}

func TestMutate_SerializesPerKey(t *testing.T) {
	c, err := New("http://example.com/api", WithExecutorConfig(shardqueue.Config{Shards: 4, QueueSize: 16, MaxAttempts: 1}))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	var inFlight, overlap int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Mutate(context.Background(), "evt-1", func(context.Context) error {
				if atomic.AddInt32(&inFlight, 1) > 1 {
					atomic.StoreInt32(&overlap, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	if atomic.LoadInt32(&overlap) == 1 {
		t.Fatal("mutations for the same key overlapped")
	}
}

func TestMutate_ReturnsJobError(t *testing.T) {
	c := &Client{exec: &stubExec{}}
	boom := errors.New("boom")
	if err := c.Mutate(context.Background(), "k", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
