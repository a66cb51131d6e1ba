package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nkirchner/typerush/go/internal/race"
)

// Handler bridges WebSocket frames to the race engine and exposes the
// gateway's HTTP routes.
type Handler struct {
	cm     *ConnectionManager
	engine *race.Engine
}

// NewHandler wires the connection manager to the engine.
func NewHandler(cm *ConnectionManager, engine *race.Engine) *Handler {
	h := &Handler{cm: cm, engine: engine}
	cm.setSink(h)
	return h
}

// RegisterRoutes registers the gateway's routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/race", h.HandleRaceConnection)
	mux.HandleFunc("/ws/stats", h.HandleGatewayStats)
}

// HandleRaceConnection upgrades an HTTP request into a race session.
func (h *Handler) HandleRaceConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.cm.Upgrade(w, r); err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusBadRequest)
	}
}

// HandleGatewayStats reports live connection and room counts.
func (h *Handler) HandleGatewayStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": h.cm.ConnectionCount(),
		"active_rooms":      h.engine.RoomCount(),
	})
}

// HandleMessage implements MessageSink, dispatching one inbound frame to
// the engine. Rejections go back to the requester only.
func (h *Handler) HandleMessage(conn *Connection, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().
			Err(err).
			Str("conn", conn.ID.String()).
			Msg("discarding malformed frame")
		h.cm.SendError(conn.ID, "Invalid message")
		return
	}

	var rerr *race.Error
	switch env.Type {
	case TypeRoomCreate:
		var p createPayload
		json.Unmarshal(env.Data, &p)
		rerr = h.engine.Create(conn.ID, conn.UserID, p.Username)

	case TypeRoomJoin:
		var p joinPayload
		json.Unmarshal(env.Data, &p)
		rerr = h.engine.Join(conn.ID, conn.UserID, p.RoomID, p.Username)

	case TypeRoomSetDuration:
		var p setDurationPayload
		json.Unmarshal(env.Data, &p)
		rerr = h.engine.SetDuration(conn.ID, p.Duration)

	case TypeRoomReady:
		rerr = h.engine.ToggleReady(conn.ID)

	case TypeRoomStart:
		rerr = h.engine.Start(conn.ID)

	case TypeRaceProgress:
		var p progressPayload
		json.Unmarshal(env.Data, &p)
		rerr = h.engine.Progress(conn.ID, p.Progress, p.WPM, p.Accuracy, p.CursorIndex)

	case TypeRoomPlayAgain:
		rerr = h.engine.PlayAgain(conn.ID)

	case TypeRoomLeave:
		h.engine.Leave(conn.ID)

	default:
		log.Debug().
			Str("conn", conn.ID.String()).
			Str("type", env.Type).
			Msg("unknown event type")
	}

	if rerr != nil {
		h.cm.SendError(conn.ID, rerr.Message)
	}
}

// HandleDisconnect implements MessageSink.
func (h *Handler) HandleDisconnect(conn *Connection) {
	h.engine.Disconnect(conn.ID)
}
