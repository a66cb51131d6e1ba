package race

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusRacing    Status = "racing"
	StatusFinished  Status = "finished"
)

const (
	// MaxPlayers bounds room membership.
	MaxPlayers = 5
	// MinPlayersToStart is required before the host may start a race.
	MinPlayersToStart = 2
	// CountdownSeconds is the length of the pre-race countdown.
	CountdownSeconds = 5
	// DefaultDuration is the race length of a fresh room, in seconds.
	DefaultDuration = 30
)

// Durations are the race lengths a host may choose from, in seconds.
var Durations = []int{15, 30, 60, 120}

func validDuration(d int) bool {
	for _, v := range Durations {
		if v == d {
			return true
		}
	}
	return false
}

// Player is one connection's membership in a room. All fields except ConnID,
// UserID and DisplayName reset between races.
type Player struct {
	ConnID      uuid.UUID
	UserID      *uuid.UUID // set when the client identified itself; enables stats recording
	DisplayName string
	Progress    int
	WPM         int
	Accuracy    int
	CursorIndex int
	Ready       bool
	Finished    bool
	FinishTime  *int64 // milliseconds from race start, set at most once
	Position    *int   // 1-based finishing rank, unique within a race
}

func newPlayer(connID uuid.UUID, userID *uuid.UUID, displayName string) *Player {
	if displayName == "" {
		displayName = "Player"
	}
	return &Player{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
		Accuracy:    100,
	}
}

// Room is the aggregate for one race lobby. Every mutation, inbound event or
// timer tick alike, runs under mu so members observe a linear sequence of
// committed states.
type Room struct {
	mu sync.Mutex

	Code      string
	Status    Status
	HostID    uuid.UUID
	Players   []*Player // join order
	Text      string
	Duration  int
	Countdown int
	TimeLeft  int
	StartedAt time.Time

	// closed marks a room that was removed from the store; guards late
	// joins and ticks that still hold a reference.
	closed bool

	// stopTicker is non-nil while a ticker goroutine is running. At most
	// one of the countdown and race tickers is active at any time.
	stopTicker chan struct{}
}

func newRoom(code string) *Room {
	return &Room{
		Code:     code,
		Status:   StatusWaiting,
		Duration: DefaultDuration,
		TimeLeft: DefaultDuration,
	}
}

func (r *Room) player(connID uuid.UUID) *Player {
	for _, p := range r.Players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayer(connID uuid.UUID) bool {
	for i, p := range r.Players {
		if p.ConnID == connID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) countFinished() int {
	n := 0
	for _, p := range r.Players {
		if p.Finished {
			n++
		}
	}
	return n
}

func (r *Room) allFinished() bool {
	return r.countFinished() == len(r.Players)
}

// resetForRematch clears every per-race field while keeping membership and
// host status. The host stays ready, everyone else has to re-ready.
func (r *Room) resetForRematch() {
	r.Status = StatusWaiting
	r.Text = ""
	r.Countdown = 0
	r.StartedAt = time.Time{}
	r.TimeLeft = r.Duration
	for _, p := range r.Players {
		p.Progress = 0
		p.WPM = 0
		p.Accuracy = 100
		p.CursorIndex = 0
		p.Ready = p.ConnID == r.HostID
		p.Finished = false
		p.FinishTime = nil
		p.Position = nil
	}
}

// stopTickerLocked halts whichever ticker is running. Idempotent.
func (r *Room) stopTickerLocked() {
	if r.stopTicker != nil {
		close(r.stopTicker)
		r.stopTicker = nil
	}
}

func (r *Room) memberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ConnID
	}
	return ids
}
