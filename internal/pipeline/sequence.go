package pipeline

import (
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ironsheep/lanefinder/internal/lane"
	"github.com/ironsheep/lanefinder/internal/logging"
)

// Sequence processes the frames of one video in order. It owns the tracking
// state; calls are serialized so the state sees one frame at a time.
type Sequence struct {
	ID      string
	Started time.Time

	p     *Pipeline
	mu    sync.Mutex
	state *lane.State
	last  time.Time
}

// NewSequence starts a sequence with a fresh state.
func (p *Pipeline) NewSequence() *Sequence {
	s := &Sequence{
		ID:      uuid.NewString(),
		Started: time.Now(),
		p:       p,
		state:   p.NewState(),
	}
	s.last = s.Started
	logging.Debugf("sequence %s: started", s.ID)
	return s
}

// Process runs the next frame of the sequence.
func (s *Sequence) Process(frame image.Image) (*FrameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.p.Process(s.state, frame)
	if err != nil {
		logging.Debugf("sequence %s: frame rejected: %v", s.ID, err)
		return nil, err
	}
	s.last = time.Now()
	return res, nil
}

// Frames returns the number of frames processed so far.
func (s *Sequence) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Frames
}

// LastActive returns when the last frame was accepted.
func (s *Sequence) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reset forgets all tracking state, as after a scene cut.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
	logging.Debugf("sequence %s: reset", s.ID)
}
