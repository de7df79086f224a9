package trainer

import (
	"time"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
)

// StageState is the runtime position within an exercise
type StageState struct {
	ExerciseID     catalog.ExerciseID
	Stage          int
	StageCount     int
	LastTransition time.Time
}

// StageClock cycles through the stages of the selected exercise, advancing
// one stage every dwell. It has no terminal state and no timers of its own;
// callers drive it with Tick.
type StageClock struct {
	catalog *catalog.Catalog
	dwell   time.Duration
	state   StageState
}

func NewStageClock(c *catalog.Catalog, dwell time.Duration) *StageClock {
	if c == nil {
		panic("StageClock: catalog cannot be nil")
	}
	if dwell <= 0 {
		dwell = DefaultStageDwell
	}
	return &StageClock{catalog: c, dwell: dwell}
}

// Select switches to an exercise and restarts at stage 0
func (sc *StageClock) Select(id catalog.ExerciseID, now time.Time) error {
	count, err := sc.catalog.StageCount(id)
	if err != nil {
		return err
	}
	sc.state = StageState{ExerciseID: id, Stage: 0, StageCount: count, LastTransition: now}
	return nil
}

// Tick advances to the next stage, wrapping after the last, once the dwell
// has elapsed. Returns true when the stage changed.
func (sc *StageClock) Tick(now time.Time) bool {
	if sc.state.ExerciseID == "" || sc.state.StageCount == 0 {
		return false
	}
	if now.Sub(sc.state.LastTransition) < sc.dwell {
		return false
	}
	sc.state.Stage = (sc.state.Stage + 1) % sc.state.StageCount
	sc.state.LastTransition = now
	return true
}

// Remaining is the time left until the next stage change
func (sc *StageClock) Remaining(now time.Time) time.Duration {
	if sc.state.ExerciseID == "" {
		return 0
	}
	left := sc.dwell - now.Sub(sc.state.LastTransition)
	if left < 0 {
		return 0
	}
	return left
}

// State returns a copy of the current stage state
func (sc *StageClock) State() StageState {
	return sc.state
}

// Dwell returns the time spent in each stage
func (sc *StageClock) Dwell() time.Duration {
	return sc.dwell
}
