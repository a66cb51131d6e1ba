package race

import "github.com/google/uuid"

// PlayerState is one player's entry in a room snapshot.
type PlayerState struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Progress    int    `json:"progress"`
	WPM         int    `json:"wpm"`
	Accuracy    int    `json:"accuracy"`
	CursorIndex int    `json:"cursorIndex"`
	Ready       bool   `json:"ready"`
	Finished    bool   `json:"finished"`
	FinishTime  *int64 `json:"finishTime"`
	Position    *int   `json:"position"`
}

// RoomState is the full snapshot pushed to every member after each accepted
// mutation and each timer tick.
type RoomState struct {
	RoomID    string        `json:"roomId"`
	Text      string        `json:"text"`
	Status    Status        `json:"status"`
	Countdown int           `json:"countdown"`
	HostID    string        `json:"hostId"`
	StartTime *int64        `json:"startTime"` // unix milliseconds, nil before racing
	Duration  int           `json:"duration"`
	TimeLeft  int           `json:"timeLeft"`
	Players   []PlayerState `json:"players"`
}

// Broadcaster is the only write path from the engine to clients.
// Implementations must not block and must not call back into the engine:
// PublishState runs inside the room's critical section.
type Broadcaster interface {
	// PublishState delivers the snapshot to every listed connection.
	PublishState(conns []uuid.UUID, state RoomState)
	// SendError delivers a room-scoped error to a single requester.
	SendError(conn uuid.UUID, message string)
}

// snapshotLocked copies the room into a wire snapshot. Pointer fields are
// duplicated so later mutations cannot race with message marshaling.
func (r *Room) snapshotLocked() RoomState {
	state := RoomState{
		RoomID:    r.Code,
		Text:      r.Text,
		Status:    r.Status,
		Countdown: r.Countdown,
		HostID:    r.HostID.String(),
		Duration:  r.Duration,
		TimeLeft:  r.TimeLeft,
		Players:   make([]PlayerState, len(r.Players)),
	}
	if !r.StartedAt.IsZero() {
		ms := r.StartedAt.UnixMilli()
		state.StartTime = &ms
	}
	for i, p := range r.Players {
		ps := PlayerState{
			ID:          p.ConnID.String(),
			Username:    p.DisplayName,
			Progress:    p.Progress,
			WPM:         p.WPM,
			Accuracy:    p.Accuracy,
			CursorIndex: p.CursorIndex,
			Ready:       p.Ready,
			Finished:    p.Finished,
		}
		if p.FinishTime != nil {
			ft := *p.FinishTime
			ps.FinishTime = &ft
		}
		if p.Position != nil {
			pos := *p.Position
			ps.Position = &pos
		}
		state.Players[i] = ps
	}
	return state
}
