package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/burrow/internal/events"
	"grimm.is/burrow/internal/netstate"
)

// dialEvents connects to the event stream and returns the connection
// plus a publisher that repeats events until the test ends, since the
// handler's subscription races the first publish.
func dialEvents(t *testing.T, hub *events.Hub, query string) *websocket.Conn {
	t.Helper()

	mgr := &netstate.MockManager{}
	srv, err := NewServer(ServerOptions{Manager: mgr, Hub: hub})
	require.NoError(t, err)

	ts := httptest.NewServer(asUID(srv.Handler(), 0))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	return conn
}

// republish sends the events every 50ms until the test finishes.
func republish(t *testing.T, hub *events.Hub, evs ...events.Event) {
	t.Helper()
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	go func() {
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				for _, ev := range evs {
					hub.Publish(ev)
				}
			}
		}
	}()
}

func TestEventStream(t *testing.T) {
	hub := events.NewHub()
	conn := dialEvents(t, hub, "")

	republish(t, hub, events.Event{
		Type:   events.EventLinkAdd,
		Source: "api",
		Data:   events.MutationData{Namespace: "blue", Resource: "dummy0"},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.EventLinkAdd, ev.Type)
	assert.Equal(t, "api", ev.Source)
}

func TestEventStreamTypeFilter(t *testing.T) {
	hub := events.NewHub()
	conn := dialEvents(t, hub, "?types=rule.add")

	republish(t, hub,
		events.Event{Type: events.EventLinkAdd, Source: "api"},
		events.Event{Type: events.EventRuleAdd, Source: "api"},
	)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.EventRuleAdd, ev.Type, "filtered stream only carries subscribed types")
}
