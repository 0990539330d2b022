package model

import "time"

type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "shortBreak"
	SessionLongBreak  SessionType = "longBreak"
)

type TimerStatus string

const (
	StatusIdle    TimerStatus = "idle"
	StatusRunning TimerStatus = "running"
	StatusPaused  TimerStatus = "paused"
)

type SourceKind string

const (
	SourceYouTube SourceKind = "youtube"
	SourceLibrary SourceKind = "library"
)

const (
	DefaultWorkMinutes       = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultTotalCycles       = 4
	DefaultLongBreakInterval = 4

	MaxTotalCycles       = 20
	MaxLongBreakInterval = 10
)

// SessionTypes lists the decks of a configuration in phase order. Two-phase
// configurations collapse both break kinds into the short break.
func SessionTypes(threePhase bool) []SessionType {
	if threePhase {
		return []SessionType{SessionWork, SessionShortBreak, SessionLongBreak}
	}
	return []SessionType{SessionWork, SessionShortBreak}
}

func ParseSessionType(raw string) (SessionType, bool) {
	switch SessionType(raw) {
	case SessionWork, SessionShortBreak, SessionLongBreak:
		return SessionType(raw), true
	}
	return "", false
}

func ParseSourceKind(raw string) (SourceKind, bool) {
	switch SourceKind(raw) {
	case SourceYouTube, SourceLibrary:
		return SourceKind(raw), true
	}
	return "", false
}

// TimerState is the snapshot the timer engine publishes after every change.
type TimerState struct {
	SessionType       SessionType `json:"sessionType"`
	Status            TimerStatus `json:"status"`
	RemainingSeconds  int         `json:"remainingSeconds"`
	CurrentCycle      int         `json:"currentCycle"`
	TotalCycles       int         `json:"totalCycles"`
	LongBreakInterval int         `json:"longBreakInterval"`
	WorkMinutes       int         `json:"workMinutes"`
	ShortBreakMinutes int         `json:"shortBreakMinutes"`
	LongBreakMinutes  int         `json:"longBreakMinutes"`
	IsComplete        bool        `json:"isComplete"`
	ThreePhase        bool        `json:"threePhase"`
}

// DurationMinutes returns the configured length of the given session type.
func (s TimerState) DurationMinutes(t SessionType) int {
	switch t {
	case SessionShortBreak:
		return s.ShortBreakMinutes
	case SessionLongBreak:
		return s.LongBreakMinutes
	default:
		return s.WorkMinutes
	}
}

type DeckView struct {
	SessionType    SessionType `json:"sessionType"`
	SourceKind     SourceKind  `json:"sourceKind"`
	URL            string      `json:"url"`
	VideoID        *string     `json:"videoId"`
	URLError       *string     `json:"urlError"`
	LibraryTrackID string      `json:"libraryTrackId"`
	Created        bool        `json:"created"`
	Active         bool        `json:"active"`
}

const (
	PhaseCompleted = "completed"
	PhaseCancelled = "cancelled"
)

// PhaseRecord is one finished phase in the history ledger.
type PhaseRecord struct {
	ID             string      `json:"id"`
	SessionType    SessionType `json:"sessionType"`
	Cycle          int         `json:"cycle"`
	PlannedSeconds int         `json:"plannedSeconds"`
	ActualSeconds  int         `json:"actualSeconds"`
	StartedAt      time.Time   `json:"startedAt"`
	EndedAt        time.Time   `json:"endedAt"`
	Status         string      `json:"status"`
}
