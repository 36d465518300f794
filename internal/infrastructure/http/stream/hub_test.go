package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/infrastructure/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_ForwardsDomainEvents(t *testing.T) {
	logger := zaptest.NewLogger(t)
	hub := NewHub(nil, logger)
	dispatcher := events.NewDispatcher(logger)
	hub.Subscribe(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Event)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	item := inventory.Item{Name: "Milk", Category: inventory.CategoryDairy}
	require.NoError(t, dispatcher.Dispatch(inventory.ItemAddedEvent{Item: item, AddedAt: time.Now()}))

	var got struct {
		Event   string                   `json:"event"`
		Payload inventory.ItemAddedEvent `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, inventory.EventItemAdded, got.Event)
	assert.Equal(t, "Milk", got.Payload.Item.Name)
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub := NewHub(nil, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_KeepsAnsweringClientsAndDropsSilentOnes(t *testing.T) {
	hub := NewHub(nil, zaptest.NewLogger(t))
	hub.pongWait = 300 * time.Millisecond
	hub.pingPeriod = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	// Reading lets the default ping handler answer with pongs
	live := dial(t, srv)
	go func() {
		for {
			if _, _, err := live.ReadMessage(); err != nil {
				return
			}
		}
	}()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	// Never reads, so pings go unanswered
	dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 20*time.Millisecond)

	// The answering client outlives several pong windows
	time.Sleep(3 * hub.pongWait)
	assert.Equal(t, 1, hub.Clients())
}
