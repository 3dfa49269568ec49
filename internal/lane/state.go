package lane

import "fmt"

// Side identifies a lane boundary.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Mode is the search mode of one side.
type Mode int

const (
	// NoPriorFit forces a full sliding-window search.
	NoPriorFit Mode = iota
	// HasPriorFit allows a search around the previous line.
	HasPriorFit
)

func (m Mode) String() string {
	switch m {
	case NoPriorFit:
		return "no_prior_fit"
	case HasPriorFit:
		return "has_prior_fit"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// SideState is the tracking state of one lane side.
type SideState struct {
	Mode Mode
	// Current is the reported line. Valid is false when the side is lost.
	Current  Line
	History  *History
	Failures int

	// confidence of the last accepted fit, before decay for held frames
	fitConfidence float64
}

// State is the per-sequence tracking state for both sides.
type State struct {
	Left  *SideState
	Right *SideState

	// Frames counts the masks processed so far.
	Frames int

	width, height int
}

// NewState creates the initial state: both sides in NoPriorFit with empty
// histories of the given capacity.
func NewState(historyLength int) *State {
	return &State{
		Left:  &SideState{History: NewHistory(historyLength)},
		Right: &SideState{History: NewHistory(historyLength)},
	}
}

// Side returns the state of one side.
func (s *State) Side(side Side) *SideState {
	if side == Right {
		return s.Right
	}
	return s.Left
}

// Reset returns both sides to the initial state, keeping history capacity.
func (s *State) Reset() {
	for _, ss := range []*SideState{s.Left, s.Right} {
		ss.Mode = NoPriorFit
		ss.Current = Line{}
		ss.History.Clear()
		ss.Failures = 0
		ss.fitConfidence = 0
	}
	s.Frames = 0
	s.width, s.height = 0, 0
}
