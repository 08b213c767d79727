package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/simulator"
)

func testPlant() model.Plant {
	return model.Plant{
		Name:        "test roof",
		Location:    model.Location{Latitude: 40, Longitude: -3.7},
		Orientation: model.PanelOrientation{Azimuth: 180, Tilt: 30},
		System:      model.DefaultSystemParameters(),
	}
}

// testEngine wires an engine to a hub through the bridge, so job events
// reach connected clients. Weather years are synthesized clear-sky years.
func testEngine(t *testing.T) (*simulator.Engine, *Hub) {
	t.Helper()
	hub := NewHub()
	engine := simulator.New(NewBridge(hub), nil)
	require.NoError(t, engine.SetPlant(testPlant()))
	engine.SetYears([]int{2023})
	return engine, hub
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// readUntil skips messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()
	for i := 0; i < 200; i++ {
		env := readJSON(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %s message received", msgType)
	return Envelope{}
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHandler_InitialMessages(t *testing.T) {
	engine, hub := testEngine(t)
	conn, cleanup := dialHandler(t, NewHandler(hub, engine))
	defer cleanup()

	env1 := readJSON(t, conn)
	assert.Equal(t, TypePlantLoaded, env1.Type)

	var pl PlantLoadedPayload
	require.NoError(t, json.Unmarshal(env1.Payload, &pl))
	assert.Equal(t, "test roof", pl.Name)
	assert.Equal(t, 40.0, pl.Location.Latitude)
	assert.Equal(t, "South", pl.Recommendation.Facing)

	env2 := readJSON(t, conn)
	assert.Equal(t, TypeJobState, env2.Type)

	var js JobStatePayload
	require.NoError(t, json.Unmarshal(env2.Payload, &js))
	assert.Equal(t, "idle", js.Status)
}

func TestHandler_OptimizeStart(t *testing.T) {
	engine, hub := testEngine(t)
	conn, cleanup := dialHandler(t, NewHandler(hub, engine))
	defer cleanup()

	readJSON(t, conn) // plant:loaded
	readJSON(t, conn) // job:state

	sendJSON(t, conn, TypeOptimizeStart, OptimizeStartPayload{AzimuthStep: 45, TiltStep: 30})

	env := readUntil(t, conn, TypeOptimizeResult)
	var res OptimizeResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &res))
	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, 180.0, res.Azimuth)
	assert.Equal(t, 32, res.Evaluated)

	engine.Wait()
	assert.Equal(t, simulator.StatusDone, engine.State().Status)
}

func TestHandler_AnalyzeStart(t *testing.T) {
	engine, hub := testEngine(t)
	conn, cleanup := dialHandler(t, NewHandler(hub, engine))
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeAnalyzeStart, nil)

	env := readUntil(t, conn, TypeAnalyzeResult)
	var res AnalyzeResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &res))
	assert.Greater(t, res.AverageAnnualKWh, 0.0)
	assert.Contains(t, res.YearlyTotalKWh, 2023)
}

func TestHandler_InvalidOptimizeRequest(t *testing.T) {
	engine, hub := testEngine(t)
	conn, cleanup := dialHandler(t, NewHandler(hub, engine))
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeOptimizeStart, OptimizeStartPayload{Strategy: "best-guess"})

	env := readUntil(t, conn, TypeJobError)
	var p JobErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, CodeInvalidInput, p.Code)

	engine.Wait()
	assert.Equal(t, simulator.StatusFailed, engine.State().Status)
}

func TestHandler_InvalidMessage(t *testing.T) {
	engine, hub := testEngine(t)
	conn, cleanup := dialHandler(t, NewHandler(hub, engine))
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	// Send invalid JSON; the connection must survive it.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendJSON(t, conn, "sim:unknown", nil)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, simulator.StatusIdle, engine.State().Status)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHandler_CancelWithoutJob(t *testing.T) {
	engine, hub := testEngine(t)
	conn, cleanup := dialHandler(t, NewHandler(hub, engine))
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeJobCancel, nil)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, simulator.StatusIdle, engine.State().Status)
}
