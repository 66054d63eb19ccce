package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectdimensions/react-flow-testbed/internal/assert/helpers"
	"github.com/selectdimensions/react-flow-testbed/internal/server"
	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

type wsEnv struct {
	*testServerEnv
	http *httptest.Server
	Conn *websocket.Conn
}

const wsReadTimeout = 2 * time.Second

func testWebSocket(t *testing.T, query string) *wsEnv {
	t.Helper()
	env := testServer(t)
	ts := httptest.NewServer(env.router)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/flows/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &wsEnv{testServerEnv: env, http: ts, Conn: conn}
}

func (e *wsEnv) readEvent(t *testing.T) *api.FlowEvent {
	t.Helper()
	_ = e.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var ev api.FlowEvent
	require.NoError(t, e.Conn.ReadJSON(&ev))
	return &ev
}

func (e *wsEnv) expectSilence(t *testing.T) {
	t.Helper()
	_ = e.Conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var ev api.FlowEvent
	assert.Error(t, e.Conn.ReadJSON(&ev))
}

func (e *wsEnv) post(t *testing.T, n int) api.FlowID {
	t.Helper()
	w := e.do(http.MethodPost, "/flows", helpers.NewTestFlowJSON(n))
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[api.FlowCreatedResponse](t, w).ID
}

func TestWebSocketReceivesEvents(t *testing.T) {
	env := testWebSocket(t, "")

	id := env.post(t, 2)
	ev := env.readEvent(t)
	assert.Equal(t, api.EventTypeFlowCreated, ev.Type)
	assert.Equal(t, id, ev.FlowID)
	assert.NotZero(t, ev.Timestamp)

	w := env.do(http.MethodDelete, "/flows/"+string(id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	ev = env.readEvent(t)
	assert.Equal(t, api.EventTypeFlowDeleted, ev.Type)
	assert.Equal(t, id, ev.FlowID)
}

func TestWebSocketQueryFilter(t *testing.T) {
	env := testWebSocket(t, "?type=flow_deleted")

	id := env.post(t, 1)
	w := env.do(http.MethodDelete, "/flows/"+string(id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	ev := env.readEvent(t)
	assert.Equal(t, api.EventTypeFlowDeleted, ev.Type)
	assert.Equal(t, id, ev.FlowID)
}

func TestWebSocketSubscribe(t *testing.T) {
	env := testWebSocket(t, "")

	keep := env.post(t, 1)
	assert.Equal(t, keep, env.readEvent(t).FlowID)

	err := env.Conn.WriteJSON(api.SubscribeRequest{
		Type: api.MessageTypeSubscribe,
		Data: api.ClientSubscription{FlowID: keep},
	})
	require.NoError(t, err)

	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var ack api.SubscribedResult
	require.NoError(t, env.Conn.ReadJSON(&ack))
	assert.Equal(t, api.MessageTypeSubscribed, ack.Type)
	assert.Equal(t, keep, ack.Data.FlowID)

	env.post(t, 1)
	w := env.do(http.MethodDelete, "/flows/"+string(keep), nil)
	require.Equal(t, http.StatusOK, w.Code)

	ev := env.readEvent(t)
	assert.Equal(t, api.EventTypeFlowDeleted, ev.Type)
	assert.Equal(t, keep, ev.FlowID)
}

func TestWebSocketIgnoresInvalidMessages(t *testing.T) {
	env := testWebSocket(t, "?type=flow_deleted")

	err := env.Conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	require.NoError(t, err)
	err = env.Conn.WriteJSON(api.SubscribeRequest{Type: "other"})
	require.NoError(t, err)

	env.post(t, 1)
	env.expectSilence(t)
}

func TestCloseWebSockets(t *testing.T) {
	env := testWebSocket(t, "")

	// an event round trip proves the client is registered
	id := env.post(t, 1)
	assert.Equal(t, id, env.readEvent(t).FlowID)

	env.Server.CloseWebSockets()

	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := env.Conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestBuildFilter(t *testing.T) {
	created := &api.FlowEvent{Type: api.EventTypeFlowCreated, FlowID: "a"}
	deleted := &api.FlowEvent{Type: api.EventTypeFlowDeleted, FlowID: "a"}
	other := &api.FlowEvent{Type: api.EventTypeFlowCreated, FlowID: "b"}

	all := server.BuildFilter(&api.ClientSubscription{})
	assert.True(t, all(created))
	assert.True(t, all(other))

	flowA := server.BuildFilter(&api.ClientSubscription{FlowID: "a"})
	assert.True(t, flowA(created))
	assert.False(t, flowA(other))

	deletes := server.BuildFilter(&api.ClientSubscription{
		EventTypes: []api.EventType{api.EventTypeFlowDeleted},
		FlowID:     "a",
	})
	assert.False(t, deletes(created))
	assert.True(t, deletes(deleted))
}
