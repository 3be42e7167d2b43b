package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"8888":         ":8888",
		":8888":        ":8888",
		"0.0.0.0:8443": "0.0.0.0:8443",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_WriteTimeoutFloor(t *testing.T) {
	srv := newHTTPServer(":0", http.NotFoundHandler(), time.Second)
	if srv.WriteTimeout != minWriteTimeout {
		t.Fatalf("write timeout = %v, want %v", srv.WriteTimeout, minWriteTimeout)
	}
	srv = newHTTPServer(":0", http.NotFoundHandler(), time.Minute)
	if srv.WriteTimeout != time.Minute {
		t.Fatalf("write timeout = %v", srv.WriteTimeout)
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	var s Server
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestRunAndShutdown(t *testing.T) {
	var s Server
	errc := make(chan error, 1)
	go func() { errc <- s.Run("127.0.0.1:0", http.NotFoundHandler(), 0) }()

	// Run assigns httpServer before listening; give it a moment
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run returned %v, want nil after Shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestIgnoreClosed(t *testing.T) {
	if ignoreClosed(http.ErrServerClosed) != nil {
		t.Fatal("ErrServerClosed must be swallowed")
	}
	boom := errors.New("bind: address in use")
	if !errors.Is(ignoreClosed(boom), boom) {
		t.Fatal("other errors must pass through")
	}
}
