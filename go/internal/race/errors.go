package race

// Kind classifies why a request was rejected.
type Kind int

const (
	KindRoomNotFound Kind = iota
	KindInvalidTransition
	KindUnauthorized
	KindCapacity
	KindPrecondition
)

// Error is a room-scoped rejection. It is delivered only to the requester,
// never mutates room state and never triggers a broadcast.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrRoomNotFound    = &Error{KindRoomNotFound, "Room not found"}
	ErrRaceStarted     = &Error{KindInvalidTransition, "Race already started"}
	ErrRaceNotActive   = &Error{KindInvalidTransition, "Race is not active"}
	ErrRaceNotFinished = &Error{KindInvalidTransition, "Race is not finished yet"}
	ErrRoomFull        = &Error{KindCapacity, "Room is full (max 5)"}
	ErrNotHostStart    = &Error{KindUnauthorized, "Only the host can start the race"}
	ErrNotHostRestart  = &Error{KindUnauthorized, "Only the host can restart"}
	ErrNotHostDuration = &Error{KindUnauthorized, "Only the host can change the duration"}
	ErrNeedPlayers     = &Error{KindPrecondition, "Need at least 2 players"}
	ErrNotAllReady     = &Error{KindPrecondition, "All players must be ready"}
	ErrHostAlwaysReady = &Error{KindPrecondition, "The host is always ready"}
	ErrBadDuration     = &Error{KindPrecondition, "Invalid race duration"}
)
