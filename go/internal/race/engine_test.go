package race

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type stubBroadcaster struct {
	mu     sync.Mutex
	states []RoomState
	errors []string
}

func (b *stubBroadcaster) PublishState(conns []uuid.UUID, state RoomState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states = append(b.states, state)
}

func (b *stubBroadcaster) SendError(conn uuid.UUID, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors = append(b.errors, message)
}

func (b *stubBroadcaster) publishCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.states)
}

func (b *stubBroadcaster) lastState(t *testing.T) RoomState {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.states) == 0 {
		t.Fatal("no state was broadcast")
	}
	return b.states[len(b.states)-1]
}

type stubRecorder struct {
	mu      sync.Mutex
	results []RaceResult
}

func (r *stubRecorder) RecordResult(_ context.Context, result RaceResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *stubRecorder) recorded() []RaceResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RaceResult(nil), r.results...)
}

func newTestEngine(clk clockwork.Clock) (*Engine, *stubBroadcaster, *stubRecorder) {
	bc := &stubBroadcaster{}
	rec := &stubRecorder{}
	e := NewEngine(NewStore(), NewRegistry(), NewTextPool(nil), clk, bc, rec)
	return e, bc, rec
}

// roomFor fetches the connection's current room or fails the test.
func roomFor(t *testing.T, e *Engine, connID uuid.UUID) *Room {
	t.Helper()
	room, rerr := e.memberRoom(connID)
	if rerr != nil {
		t.Fatalf("no room for connection %s: %v", connID, rerr)
	}
	return room
}

func roomStatus(r *Room) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status
}

// waitFor polls until cond holds, failing the test after two seconds. Used
// where ticker goroutines mutate rooms asynchronously.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

// startRace drives a two-player room to racing by invoking the countdown
// ticks directly.
func startRace(t *testing.T, e *Engine, host, other uuid.UUID) *Room {
	t.Helper()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.ToggleReady(other); rerr != nil {
		t.Fatalf("ready: %v", rerr)
	}
	if rerr := e.Start(host); rerr != nil {
		t.Fatalf("start: %v", rerr)
	}
	for i := 0; i < CountdownSeconds; i++ {
		e.tickCountdown(room.Code)
	}
	if got := roomStatus(room); got != StatusRacing {
		t.Fatalf("status = %q, want racing", got)
	}
	return room
}

func TestCreateRoom(t *testing.T) {
	e, bc, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()

	if rerr := e.Create(host, nil, "alice"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}

	state := bc.lastState(t)
	if state.Status != StatusWaiting {
		t.Errorf("status = %q, want waiting", state.Status)
	}
	if state.HostID != host.String() {
		t.Errorf("hostId = %q, want %q", state.HostID, host)
	}
	if len(state.Players) != 1 {
		t.Fatalf("players = %d, want 1", len(state.Players))
	}
	if !state.Players[0].Ready {
		t.Error("host should be implicitly ready")
	}
	if state.Duration != DefaultDuration {
		t.Errorf("duration = %d, want %d", state.Duration, DefaultDuration)
	}
	if len(state.RoomID) != codeLength {
		t.Errorf("room code %q has wrong length", state.RoomID)
	}
}

func TestCreateDefaultsDisplayName(t *testing.T) {
	e, bc, _ := newTestEngine(clockwork.NewFakeClock())

	if rerr := e.Create(uuid.New(), nil, ""); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	if got := bc.lastState(t).Players[0].Username; got != "Player" {
		t.Errorf("username = %q, want Player", got)
	}
}

func TestJoinCapacity(t *testing.T) {
	e, bc, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)

	for i := 1; i < MaxPlayers; i++ {
		if rerr := e.Join(uuid.New(), nil, room.Code, "p"); rerr != nil {
			t.Fatalf("join %d: %v", i, rerr)
		}
	}

	before := bc.publishCount()
	rerr := e.Join(uuid.New(), nil, room.Code, "late")
	if rerr != ErrRoomFull {
		t.Fatalf("sixth join error = %v, want ErrRoomFull", rerr)
	}
	if bc.publishCount() != before {
		t.Error("rejected join must not broadcast")
	}

	room.mu.Lock()
	n := len(room.Players)
	room.mu.Unlock()
	if n != MaxPlayers {
		t.Errorf("players = %d, want %d", n, MaxPlayers)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	if rerr := e.Join(uuid.New(), nil, "ZZZZZZ", "p"); rerr != ErrRoomNotFound {
		t.Fatalf("error = %v, want ErrRoomNotFound", rerr)
	}
}

func TestJoinLeavesPreviousRoom(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	mover := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	first := roomFor(t, e, host)
	if rerr := e.Join(mover, nil, first.Code, "mover"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}

	// Creating a new room must run the full leave sequence first.
	if rerr := e.Create(mover, nil, "mover"); rerr != nil {
		t.Fatalf("second create: %v", rerr)
	}

	first.mu.Lock()
	n := len(first.Players)
	first.mu.Unlock()
	if n != 1 {
		t.Errorf("first room players = %d, want 1", n)
	}
	second := roomFor(t, e, mover)
	if second.Code == first.Code {
		t.Error("mover should be in a new room")
	}
}

func TestStartRequiresHost(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.ToggleReady(other); rerr != nil {
		t.Fatalf("ready: %v", rerr)
	}

	if rerr := e.Start(other); rerr != ErrNotHostStart {
		t.Fatalf("non-host start error = %v, want ErrNotHostStart", rerr)
	}
	if got := roomStatus(room); got != StatusWaiting {
		t.Errorf("status = %q, want waiting after rejected start", got)
	}
}

func TestStartPreconditions(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)

	if rerr := e.Start(host); rerr != ErrNeedPlayers {
		t.Fatalf("solo start error = %v, want ErrNeedPlayers", rerr)
	}

	other := uuid.New()
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.Start(host); rerr != ErrNotAllReady {
		t.Fatalf("unready start error = %v, want ErrNotAllReady", rerr)
	}
}

func TestJoinRejectedAfterCountdownStarts(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.ToggleReady(other); rerr != nil {
		t.Fatalf("ready: %v", rerr)
	}
	if rerr := e.Start(host); rerr != nil {
		t.Fatalf("start: %v", rerr)
	}

	if rerr := e.Join(uuid.New(), nil, room.Code, "late"); rerr != ErrRaceStarted {
		t.Fatalf("join during countdown error = %v, want ErrRaceStarted", rerr)
	}
}

func TestCountdownEntryFixesText(t *testing.T) {
	e, bc, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.ToggleReady(other); rerr != nil {
		t.Fatalf("ready: %v", rerr)
	}
	if rerr := e.Start(host); rerr != nil {
		t.Fatalf("start: %v", rerr)
	}

	state := bc.lastState(t)
	if state.Status != StatusCountdown {
		t.Fatalf("status = %q, want countdown", state.Status)
	}
	if state.Countdown != CountdownSeconds {
		t.Errorf("countdown = %d, want %d", state.Countdown, CountdownSeconds)
	}
	if state.Text == "" {
		t.Error("text must be assigned when countdown begins")
	}

	text := state.Text
	for i := 0; i < CountdownSeconds; i++ {
		e.tickCountdown(room.Code)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != StatusRacing {
		t.Fatalf("status = %q, want racing", room.Status)
	}
	if room.Text != text {
		t.Error("text changed after countdown entry")
	}
	if room.TimeLeft != room.Duration {
		t.Errorf("timeLeft = %d, want %d", room.TimeLeft, room.Duration)
	}
	if room.StartedAt.IsZero() {
		t.Error("startedAt must be recorded at racing entry")
	}
}

func TestSetDuration(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}

	if rerr := e.SetDuration(other, 60); rerr != ErrNotHostDuration {
		t.Fatalf("non-host setDuration error = %v, want ErrNotHostDuration", rerr)
	}
	if rerr := e.SetDuration(host, 45); rerr != ErrBadDuration {
		t.Fatalf("invalid duration error = %v, want ErrBadDuration", rerr)
	}
	if rerr := e.SetDuration(host, 60); rerr != nil {
		t.Fatalf("setDuration: %v", rerr)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Duration != 60 || room.TimeLeft != 60 {
		t.Errorf("duration/timeLeft = %d/%d, want 60/60", room.Duration, room.TimeLeft)
	}
}

func TestHostCannotToggleReady(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	if rerr := e.ToggleReady(host); rerr != ErrHostAlwaysReady {
		t.Fatalf("host ready toggle error = %v, want ErrHostAlwaysReady", rerr)
	}
}

func TestFinishedPlayerIsImmutable(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	room := startRace(t, e, host, other)

	if rerr := e.Progress(other, 100, 90, 97, 140); rerr != nil {
		t.Fatalf("progress: %v", rerr)
	}

	room.mu.Lock()
	p := room.player(other)
	firstFinish := p.FinishTime
	firstPos := *p.Position
	room.mu.Unlock()

	// A later report must not touch rank, time or metrics.
	if rerr := e.Progress(other, 100, 120, 50, 150); rerr != nil {
		t.Fatalf("second progress: %v", rerr)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if p.FinishTime != firstFinish {
		t.Error("finishTime was overwritten")
	}
	if *p.Position != firstPos {
		t.Error("position was overwritten")
	}
	if p.WPM != 90 || p.Accuracy != 97 || p.CursorIndex != 140 {
		t.Error("metrics mutated after finish")
	}
}

func TestProgressMonotonicBound(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	room := startRace(t, e, host, other)

	if rerr := e.Progress(other, 40, 80, 95, 60); rerr != nil {
		t.Fatalf("progress: %v", rerr)
	}
	if rerr := e.Progress(other, 20, 85, 95, 30); rerr != nil {
		t.Fatalf("regressing progress: %v", rerr)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if got := room.player(other).Progress; got != 40 {
		t.Errorf("progress = %d, want 40 (regression ignored)", got)
	}
}

func TestForceFinishAssignsUniqueRanks(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	p2 := uuid.New()
	p3 := uuid.New()

	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	for _, id := range []uuid.UUID{p2, p3} {
		if rerr := e.Join(id, nil, room.Code, "p"); rerr != nil {
			t.Fatalf("join: %v", rerr)
		}
		if rerr := e.ToggleReady(id); rerr != nil {
			t.Fatalf("ready: %v", rerr)
		}
	}
	if rerr := e.Start(host); rerr != nil {
		t.Fatalf("start: %v", rerr)
	}
	for i := 0; i < CountdownSeconds; i++ {
		e.tickCountdown(room.Code)
	}

	// One natural finisher, the rest forced by the clock.
	if rerr := e.Progress(p2, 100, 100, 99, 140); rerr != nil {
		t.Fatalf("progress: %v", rerr)
	}
	for i := 0; i < DefaultDuration; i++ {
		e.tickRace(room.Code)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != StatusFinished {
		t.Fatalf("status = %q, want finished", room.Status)
	}
	if room.TimeLeft != 0 {
		t.Errorf("timeLeft = %d, want 0", room.TimeLeft)
	}
	seen := make(map[int]bool)
	for _, p := range room.Players {
		if !p.Finished || p.Position == nil {
			t.Fatalf("player %s not finished", p.DisplayName)
		}
		if seen[*p.Position] {
			t.Errorf("duplicate rank %d", *p.Position)
		}
		seen[*p.Position] = true
	}
	for rank := 1; rank <= len(room.Players); rank++ {
		if !seen[rank] {
			t.Errorf("rank %d missing, ranks must be a permutation of 1..N", rank)
		}
	}
	if got := *room.player(p2).Position; got != 1 {
		t.Errorf("natural finisher rank = %d, want 1", got)
	}
}

func TestLastPlayerLeavingFinalizesRace(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	room := startRace(t, e, host, other)

	e.Leave(other)

	if got := roomStatus(room); got != StatusFinished {
		t.Fatalf("status = %q, want finished immediately", got)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(host)
	if !p.Finished || p.Position == nil || *p.Position != 1 {
		t.Error("remaining player must be finished with rank 1")
	}
}

func TestHostMigrationAndRoomRemoval(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "other"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}

	e.Leave(host)
	room.mu.Lock()
	newHost := room.HostID
	room.mu.Unlock()
	if newHost != other {
		t.Errorf("host = %s, want %s after migration", newHost, other)
	}

	e.Leave(other)
	if _, ok := e.store.Get(room.Code); ok {
		t.Error("empty room must be removed from the store")
	}
	if _, ok := e.registry.RoomCode(other); ok {
		t.Error("registry must forget a departed connection")
	}
}

func TestPlayAgainResetsRoom(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	room := startRace(t, e, host, other)

	if rerr := e.Progress(other, 100, 95, 98, 140); rerr != nil {
		t.Fatalf("progress: %v", rerr)
	}
	for i := 0; i < DefaultDuration; i++ {
		e.tickRace(room.Code)
	}
	if got := roomStatus(room); got != StatusFinished {
		t.Fatalf("status = %q, want finished", got)
	}

	if rerr := e.PlayAgain(other); rerr != ErrNotHostRestart {
		t.Fatalf("non-host playAgain error = %v, want ErrNotHostRestart", rerr)
	}
	if rerr := e.PlayAgain(host); rerr != nil {
		t.Fatalf("playAgain: %v", rerr)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != StatusWaiting {
		t.Errorf("status = %q, want waiting", room.Status)
	}
	if room.Text != "" || room.Countdown != 0 || !room.StartedAt.IsZero() {
		t.Error("race fields were not cleared")
	}
	if room.TimeLeft != room.Duration {
		t.Errorf("timeLeft = %d, want %d", room.TimeLeft, room.Duration)
	}
	for _, p := range room.Players {
		if p.Progress != 0 || p.WPM != 0 || p.Accuracy != 100 || p.CursorIndex != 0 {
			t.Errorf("player %s metrics were not reset", p.DisplayName)
		}
		if p.Finished || p.FinishTime != nil || p.Position != nil {
			t.Errorf("player %s finish state was not reset", p.DisplayName)
		}
		wantReady := p.ConnID == room.HostID
		if p.Ready != wantReady {
			t.Errorf("player %s ready = %v, want %v", p.DisplayName, p.Ready, wantReady)
		}
	}
}

func TestPlayAgainOnlyWhenFinished(t *testing.T) {
	e, _, _ := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	if rerr := e.Create(host, nil, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	if rerr := e.PlayAgain(host); rerr != ErrRaceNotFinished {
		t.Fatalf("playAgain in lobby error = %v, want ErrRaceNotFinished", rerr)
	}
}

func TestResultsEmittedForIdentifiedPlayers(t *testing.T) {
	e, _, rec := newTestEngine(clockwork.NewFakeClock())
	host := uuid.New()
	other := uuid.New()
	hostUser := uuid.New()

	if rerr := e.Create(host, &hostUser, "host"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "anon"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.ToggleReady(other); rerr != nil {
		t.Fatalf("ready: %v", rerr)
	}
	if rerr := e.Start(host); rerr != nil {
		t.Fatalf("start: %v", rerr)
	}
	for i := 0; i < CountdownSeconds; i++ {
		e.tickCountdown(room.Code)
	}
	if rerr := e.Progress(host, 100, 88, 96, 140); rerr != nil {
		t.Fatalf("progress: %v", rerr)
	}
	for i := 0; i < DefaultDuration; i++ {
		e.tickRace(room.Code)
	}

	waitFor(t, func() bool { return len(rec.recorded()) == 1 }, "expected one recorded result")
	result := rec.recorded()[0]
	if result.UserID != hostUser {
		t.Errorf("result user = %s, want %s", result.UserID, hostUser)
	}
	if result.WPM != 88 || result.Accuracy != 96 {
		t.Errorf("result metrics = %d wpm / %d acc, want 88/96", result.WPM, result.Accuracy)
	}
	if result.DurationSeconds != DefaultDuration {
		t.Errorf("result duration = %d, want %d", result.DurationSeconds, DefaultDuration)
	}
}

// TestFullRaceLifecycle walks the whole flow on a fake clock: lobby, five
// countdown ticks, a natural finish at ten seconds and a forced finish when
// the clock runs out.
func TestFullRaceLifecycle(t *testing.T) {
	clk := clockwork.NewFakeClock()
	e, _, _ := newTestEngine(clk)
	host := uuid.New()
	other := uuid.New()

	if rerr := e.Create(host, nil, "H"); rerr != nil {
		t.Fatalf("create: %v", rerr)
	}
	room := roomFor(t, e, host)
	if rerr := e.Join(other, nil, room.Code, "P"); rerr != nil {
		t.Fatalf("join: %v", rerr)
	}
	if rerr := e.SetDuration(host, 15); rerr != nil {
		t.Fatalf("setDuration: %v", rerr)
	}
	if rerr := e.ToggleReady(other); rerr != nil {
		t.Fatalf("ready: %v", rerr)
	}
	if rerr := e.Start(host); rerr != nil {
		t.Fatalf("start: %v", rerr)
	}
	clk.BlockUntil(1)

	for i := 1; i <= CountdownSeconds; i++ {
		clk.Advance(time.Second)
		want := CountdownSeconds - i
		waitFor(t, func() bool {
			room.mu.Lock()
			defer room.mu.Unlock()
			return room.Countdown == want
		}, "countdown did not advance")
	}
	waitFor(t, func() bool { return roomStatus(room) == StatusRacing }, "race did not start")
	clk.BlockUntil(1)

	for i := 1; i <= 10; i++ {
		clk.Advance(time.Second)
		want := 15 - i
		waitFor(t, func() bool {
			room.mu.Lock()
			defer room.mu.Unlock()
			return room.TimeLeft == want
		}, "race clock did not advance")
	}

	if rerr := e.Progress(other, 100, 92, 98, 140); rerr != nil {
		t.Fatalf("progress: %v", rerr)
	}
	room.mu.Lock()
	p := room.player(other)
	if p.FinishTime == nil || *p.FinishTime != 10000 {
		t.Fatalf("finishTime = %v, want 10000ms", p.FinishTime)
	}
	if p.Position == nil || *p.Position != 1 {
		t.Fatalf("position = %v, want 1", p.Position)
	}
	status := room.Status
	room.mu.Unlock()
	if status != StatusRacing {
		t.Fatal("race must continue while the host is unfinished")
	}

	for i := 11; i <= 15; i++ {
		clk.Advance(time.Second)
		want := 15 - i
		waitFor(t, func() bool {
			room.mu.Lock()
			defer room.mu.Unlock()
			return room.TimeLeft == want
		}, "race clock did not advance")
	}
	waitFor(t, func() bool { return roomStatus(room) == StatusFinished }, "race did not finish on timeout")

	room.mu.Lock()
	defer room.mu.Unlock()
	h := room.player(host)
	if h.Position == nil || *h.Position != 2 {
		t.Errorf("host position = %v, want 2", h.Position)
	}
	if h.FinishTime == nil || *h.FinishTime != 15000 {
		t.Errorf("host finishTime = %v, want 15000ms", h.FinishTime)
	}
}
