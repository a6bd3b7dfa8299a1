package realtime

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school_transport/internal/models"
)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routeID, _ := strconv.ParseUint(r.URL.Query().Get("route_id"), 10, 64)
		_ = hub.Serve(w, r, uint(routeID))
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, routeID uint) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?route_id=" + strconv.Itoa(int(routeID))
	before := hub.Subscribers(routeID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Subscribers(routeID) == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func routePtr(id uint) *uint { return &id }

func TestHubDeliversToRouteAndAllRouteSubscribers(t *testing.T) {
	hub, srv := newHubServer(t)
	route1 := dial(t, hub, srv, 1)
	all := dial(t, hub, srv, AllRoutes)

	hub.Publish(models.TripLog{EventID: "evt-1", CardID: "ABC123", RouteID: routePtr(1), Status: models.TripStatusSuccess})

	for _, conn := range []*websocket.Conn{route1, all} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "evt-1", ev.EventID)
		assert.Equal(t, "ABC123", ev.CardID)
		require.NotNil(t, ev.RouteID)
		assert.Equal(t, uint(1), *ev.RouteID)
	}
}

func TestHubSkipsOtherRoutes(t *testing.T) {
	hub, srv := newHubServer(t)
	route2 := dial(t, hub, srv, 2)
	all := dial(t, hub, srv, AllRoutes)

	hub.Publish(models.TripLog{EventID: "evt-1", RouteID: routePtr(1)})
	hub.Publish(models.TripLog{EventID: "evt-2", RouteID: routePtr(2)})

	// route 2 only ever sees its own event
	require.NoError(t, route2.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, route2.ReadJSON(&ev))
	assert.Equal(t, "evt-2", ev.EventID)

	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, "evt-1", ev.EventID)
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, "evt-2", ev.EventID)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, hub, srv, 5)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Subscribers(5) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishDoesNotBlockWhenQueueIsFull(t *testing.T) {
	hub := NewHub()
	hub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.Publish(models.TripLog{EventID: strconv.Itoa(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}
