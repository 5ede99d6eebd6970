package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWSServer upgrades and then drains the connection until the client
// hangs up
func newWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendAfterDisconnectErrors(t *testing.T) {
	srv := newWSServer(t)
	c := New(srv.URL, log.New(io.Discard))
	require.NoError(t, c.Connect())
	require.NoError(t, c.Disconnect())

	assert.False(t, c.IsConnected())
	assert.Error(t, c.Hit("abc123"))
	assert.Error(t, c.Join("abc123", "Alice"))
}

func TestDisconnectRacesWithSends(t *testing.T) {
	srv := newWSServer(t)
	c := New(srv.URL, log.New(io.Discard))
	require.NoError(t, c.Connect())

	// Hammer the send path while disconnecting; a close/send race would
	// panic the whole test binary.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = c.Hit("abc123")
		}
	}()

	require.NoError(t, c.Disconnect())
	<-done
}

func TestEventsCloseWhenServerDrops(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, log.New(io.Discard))
	require.NoError(t, c.Connect())

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed after the server dropped")
		}
	}
}
