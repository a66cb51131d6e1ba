package gateway

import (
	"encoding/json"

	"github.com/nkirchner/typerush/go/internal/race"
)

// Inbound event types accepted from clients.
const (
	TypeRoomCreate      = "room:create"
	TypeRoomJoin        = "room:join"
	TypeRoomSetDuration = "room:setDuration"
	TypeRoomReady       = "room:ready"
	TypeRoomStart       = "room:start"
	TypeRoomPlayAgain   = "room:playAgain"
	TypeRoomLeave       = "room:leave"
	TypeRaceProgress    = "race:progress"
)

// Outbound event types pushed to clients.
const (
	TypeRoomState = "room:state"
	TypeRoomError = "room:error"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type createPayload struct {
	Username string `json:"username"`
}

type joinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type setDurationPayload struct {
	Duration int `json:"duration"`
}

type progressPayload struct {
	Progress    int `json:"progress"`
	WPM         int `json:"wpm"`
	Accuracy    int `json:"accuracy"`
	CursorIndex int `json:"cursorIndex"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func newStateMessage(state race.RoomState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: TypeRoomState, Data: data})
}

func newErrorMessage(message string) ([]byte, error) {
	data, err := json.Marshal(errorPayload{Message: message})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: TypeRoomError, Data: data})
}
