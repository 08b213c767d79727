package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"pv_optimizer/internal/log"
	"pv_optimizer/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the engine.
type Handler struct {
	hub    *Hub
	engine *simulator.Engine
}

func NewHandler(hub *Hub, engine *simulator.Engine) *Handler {
	return &Handler{hub: hub, engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade error: %v", err)
		return
	}

	client := newClient(h.hub, conn)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	go client.writePump()

	h.sendPlantLoaded(client)
	h.sendJobState(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("websocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Warnf("invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeOptimizeStart:
		var p OptimizeStartPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			log.Warnf("invalid optimize:start payload: %v", err)
			h.sendError(c, "", err)
			return
		}
		if _, err := h.engine.StartOptimize(p.Request()); err != nil {
			h.sendError(c, "", err)
		}

	case TypeAnalyzeStart:
		var p AnalyzeStartPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			log.Warnf("invalid analyze:start payload: %v", err)
			h.sendError(c, "", err)
			return
		}
		if _, err := h.engine.StartAnalyze(p.Request()); err != nil {
			h.sendError(c, "", err)
		}

	case TypeJobCancel:
		if !h.engine.Cancel() {
			log.Debugw("cancel requested with no running job")
		}

	default:
		log.Warnf("unknown message type: %s", env.Type)
	}
}

// decodePayload treats a missing payload as an empty object.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (h *Handler) sendError(c *Client, jobID string, err error) {
	msg, merr := NewEnvelope(TypeJobError, JobErrorFromEngine(jobID, err))
	if merr != nil {
		log.Errorf("error creating job:error message: %v", merr)
		return
	}
	h.hub.SendTo(c, msg)
}

func (h *Handler) sendPlantLoaded(c *Client) {
	msg, err := NewEnvelope(TypePlantLoaded, PlantLoadedFromEngine(h.engine.Plant()))
	if err != nil {
		log.Errorf("error creating plant:loaded message: %v", err)
		return
	}
	h.hub.SendTo(c, msg)
}

func (h *Handler) sendJobState(c *Client) {
	msg, err := NewEnvelope(TypeJobState, JobStateFromEngine(h.engine.State()))
	if err != nil {
		return
	}
	h.hub.SendTo(c, msg)
}
