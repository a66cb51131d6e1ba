package race

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Engine validates inbound session events against current room state and
// drives each room through the waiting, countdown, racing, finished
// lifecycle. Every mutation of a room, client event or timer tick alike,
// runs under that room's mutex, so each mutation and its broadcast commit
// atomically with respect to all other events for that room.
type Engine struct {
	store    *Store
	registry *Registry
	texts    *TextPool
	clock    clockwork.Clock
	bc       Broadcaster
	recorder ResultRecorder
}

// NewEngine wires a race engine. The clock is injected so tests can drive
// the countdown and race tickers deterministically.
func NewEngine(store *Store, registry *Registry, texts *TextPool, clock clockwork.Clock, bc Broadcaster, recorder ResultRecorder) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		texts:    texts,
		clock:    clock,
		bc:       bc,
		recorder: recorder,
	}
}

// RoomCount reports the number of live rooms.
func (e *Engine) RoomCount() int { return e.store.Len() }

// Create puts the connection into a fresh room as host, leaving any current
// room first.
func (e *Engine) Create(connID uuid.UUID, userID *uuid.UUID, displayName string) *Error {
	e.Leave(connID)

	p := newPlayer(connID, userID, displayName)
	p.Ready = true // the host is implicitly always ready
	room := e.store.CreateRoom(func(room *Room) {
		room.HostID = connID
		room.Players = append(room.Players, p)
	})
	room.mu.Lock()
	defer room.mu.Unlock()

	e.registry.Bind(connID, room.Code)

	log.Info().
		Str("room", room.Code).
		Str("conn", connID.String()).
		Str("username", p.DisplayName).
		Msg("room created")

	e.publishLocked(room)
	return nil
}

// Join adds the connection to an existing waiting room, leaving any current
// room first.
func (e *Engine) Join(connID uuid.UUID, userID *uuid.UUID, code, displayName string) *Error {
	e.Leave(connID)

	room, ok := e.store.Get(code)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return ErrRaceStarted
	}
	if len(room.Players) >= MaxPlayers {
		return ErrRoomFull
	}

	p := newPlayer(connID, userID, displayName)
	room.Players = append(room.Players, p)
	e.registry.Bind(connID, room.Code)

	log.Info().
		Str("room", room.Code).
		Str("conn", connID.String()).
		Str("username", p.DisplayName).
		Int("players", len(room.Players)).
		Msg("player joined")

	e.publishLocked(room)
	return nil
}

// SetDuration changes the race length. Host-only, lobby-only.
func (e *Engine) SetDuration(connID uuid.UUID, duration int) *Error {
	room, rerr := e.memberRoom(connID)
	if rerr != nil {
		return rerr
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return ErrRaceStarted
	}
	if connID != room.HostID {
		return ErrNotHostDuration
	}
	if !validDuration(duration) {
		return ErrBadDuration
	}

	room.Duration = duration
	room.TimeLeft = duration
	e.publishLocked(room)
	return nil
}

// ToggleReady flips a non-host player's ready flag while waiting.
func (e *Engine) ToggleReady(connID uuid.UUID) *Error {
	room, rerr := e.memberRoom(connID)
	if rerr != nil {
		return rerr
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return ErrRaceStarted
	}
	if connID == room.HostID {
		return ErrHostAlwaysReady
	}
	p := room.player(connID)
	if p == nil {
		return ErrRoomNotFound
	}

	p.Ready = !p.Ready
	e.publishLocked(room)
	return nil
}

// Start begins the countdown. Host-only; requires at least two players with
// every non-host player ready.
func (e *Engine) Start(connID uuid.UUID) *Error {
	room, rerr := e.memberRoom(connID)
	if rerr != nil {
		return rerr
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return ErrRaceStarted
	}
	if connID != room.HostID {
		return ErrNotHostStart
	}
	if len(room.Players) < MinPlayersToStart {
		return ErrNeedPlayers
	}
	for _, p := range room.Players {
		if p.ConnID != room.HostID && !p.Ready {
			return ErrNotAllReady
		}
	}

	room.Status = StatusCountdown
	room.Countdown = CountdownSeconds
	room.Text = e.texts.Pick()
	stop := make(chan struct{})
	room.stopTicker = stop
	go e.runTicker(room.Code, stop, e.tickCountdown)

	log.Info().
		Str("room", room.Code).
		Int("players", len(room.Players)).
		Int("duration", room.Duration).
		Msg("countdown started")

	e.publishLocked(room)
	return nil
}

// Progress ingests a live progress report from a racing player. Reports for
// a finished player, and reports that would move progress backwards, are
// ignored without error.
func (e *Engine) Progress(connID uuid.UUID, progress, wpm, accuracy, cursorIndex int) *Error {
	room, rerr := e.memberRoom(connID)
	if rerr != nil {
		return rerr
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	if room.Status != StatusRacing {
		return ErrRaceNotActive
	}
	p := room.player(connID)
	if p == nil {
		return ErrRoomNotFound
	}
	if p.Finished {
		// No further mutation at all once finished.
		return nil
	}
	if progress < p.Progress {
		// The server trusts client figures but holds the monotonic bound.
		return nil
	}
	if progress > 100 {
		progress = 100
	}
	if accuracy < 0 {
		accuracy = 0
	} else if accuracy > 100 {
		accuracy = 100
	}

	p.Progress = progress
	p.WPM = wpm
	p.Accuracy = accuracy
	p.CursorIndex = cursorIndex

	if p.Progress >= 100 {
		rank := room.countFinished() + 1
		ft := e.clock.Now().Sub(room.StartedAt).Milliseconds()
		p.Finished = true
		p.FinishTime = &ft
		p.Position = &rank

		log.Info().
			Str("room", room.Code).
			Str("username", p.DisplayName).
			Int("position", rank).
			Int64("finish_ms", ft).
			Msg("player finished")
	}

	e.publishLocked(room)
	e.checkRaceEndLocked(room)
	return nil
}

// PlayAgain resets the room for a rematch. Host-only, finished-only.
func (e *Engine) PlayAgain(connID uuid.UUID) *Error {
	room, rerr := e.memberRoom(connID)
	if rerr != nil {
		return rerr
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	if room.Status != StatusFinished {
		return ErrRaceNotFinished
	}
	if connID != room.HostID {
		return ErrNotHostRestart
	}

	room.stopTickerLocked()
	room.resetForRematch()

	log.Info().Str("room", room.Code).Msg("room reset for rematch")

	e.publishLocked(room)
	return nil
}

// Leave removes the connection from its current room, if any. The last
// member leaving deletes the room; a departing host hands the room to an
// arbitrary remaining member; a mid-race departure that leaves one active
// player finalizes the race immediately.
func (e *Engine) Leave(connID uuid.UUID) {
	code, ok := e.registry.RoomCode(connID)
	if !ok {
		return
	}
	e.registry.Unbind(connID)

	room, ok := e.store.Get(code)
	if !ok {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if !room.removePlayer(connID) {
		return
	}

	if len(room.Players) == 0 {
		room.closed = true
		room.stopTickerLocked()
		e.store.Remove(room.Code)
		log.Info().Str("room", room.Code).Msg("room removed")
		return
	}

	if room.HostID == connID {
		room.HostID = room.Players[0].ConnID
		log.Info().
			Str("room", room.Code).
			Str("host", room.HostID.String()).
			Msg("host migrated")
	}

	e.publishLocked(room)
	if room.Status == StatusRacing {
		e.checkRaceEndLocked(room)
	}
}

// Disconnect is the transport's close signal. Handled exactly like a leave.
func (e *Engine) Disconnect(connID uuid.UUID) { e.Leave(connID) }

// memberRoom resolves the connection's current room through the registry.
func (e *Engine) memberRoom(connID uuid.UUID) (*Room, *Error) {
	code, ok := e.registry.RoomCode(connID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	room, ok := e.store.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// runTicker drives one ticker phase for a room, firing once per second until
// the phase reports completion or the stop channel closes. The room is
// looked up by code on every fire so a late tick can never mutate a room
// that was already deleted.
func (e *Engine) runTicker(code string, stop <-chan struct{}, tick func(code string) bool) {
	t := e.clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.Chan():
			if !tick(code) {
				return
			}
		}
	}
}

// tickCountdown handles one second of pre-race countdown. Reaching zero
// transitions the room to racing and hands off to the race ticker.
func (e *Engine) tickCountdown(code string) bool {
	room, ok := e.store.Get(code)
	if !ok {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed || room.Status != StatusCountdown {
		return false
	}

	room.Countdown--
	if room.Countdown > 0 {
		e.publishLocked(room)
		return true
	}

	room.Countdown = 0
	room.Status = StatusRacing
	room.StartedAt = e.clock.Now()
	room.TimeLeft = room.Duration
	stop := make(chan struct{})
	room.stopTicker = stop
	go e.runTicker(code, stop, e.tickRace)

	log.Info().Str("room", room.Code).Msg("race started")

	e.publishLocked(room)
	return false
}

// tickRace handles one second of the active race. Reaching zero force
// finishes every remaining player and ends the race.
func (e *Engine) tickRace(code string) bool {
	room, ok := e.store.Get(code)
	if !ok {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed || room.Status != StatusRacing {
		return false
	}

	room.TimeLeft--
	if room.TimeLeft > 0 {
		e.publishLocked(room)
		return true
	}

	e.finishRaceLocked(room)
	return false
}

// checkRaceEndLocked ends the race early when every present player has
// finished, or when only one player remains in the room at all.
func (e *Engine) checkRaceEndLocked(room *Room) {
	if room.Status != StatusRacing {
		return
	}
	if len(room.Players) > 1 && !room.allFinished() {
		return
	}
	e.finishRaceLocked(room)
}

// finishRaceLocked force-finishes any unfinished players, in join order,
// with ranks strictly after every natural finisher, then moves the room to
// finished and emits results.
func (e *Engine) finishRaceLocked(room *Room) {
	room.stopTickerLocked()

	elapsed := e.clock.Now().Sub(room.StartedAt).Milliseconds()
	rank := room.countFinished() + 1
	for _, p := range room.Players {
		if p.Finished {
			continue
		}
		p.Finished = true
		ft := elapsed
		p.FinishTime = &ft
		pos := rank
		p.Position = &pos
		rank++
	}

	room.Status = StatusFinished
	room.TimeLeft = 0

	log.Info().
		Str("room", room.Code).
		Int("players", len(room.Players)).
		Msg("race finished")

	e.publishLocked(room)
	e.emitResultsLocked(room)
}

// emitResultsLocked hands each identified player's summary to the recorder.
// Recording runs outside the room's critical section and failures are only
// logged: the race outcome does not depend on the stats pipeline.
func (e *Engine) emitResultsLocked(room *Room) {
	var results []RaceResult
	for _, p := range room.Players {
		if p.UserID == nil {
			continue
		}
		results = append(results, resultFor(p, room.Duration))
	}
	if len(results) == 0 {
		return
	}

	code := room.Code
	go func() {
		for _, r := range results {
			if err := e.recorder.RecordResult(context.Background(), r); err != nil {
				log.Warn().
					Err(err).
					Str("room", code).
					Str("user", r.UserID.String()).
					Msg("failed to record race result")
			}
		}
	}()
}

func (e *Engine) publishLocked(room *Room) {
	e.bc.PublishState(room.memberIDs(), room.snapshotLocked())
}
