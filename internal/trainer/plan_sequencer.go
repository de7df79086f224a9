package trainer

import (
	"time"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
)

// PlanSequencer walks through the exercises of a training plan. Each
// exercise lasts dwell, counted from the first frame in which a person is
// detected rather than from the moment the exercise was selected.
type PlanSequencer struct {
	plan   catalog.Plan
	dwell  time.Duration
	status PlanStatus
	index  int

	timerStarted bool
	timerStart   time.Time
}

func NewPlanSequencer(plan catalog.Plan, dwell time.Duration) *PlanSequencer {
	if dwell <= 0 {
		dwell = DefaultExerciseDwell
	}
	return &PlanSequencer{plan: plan, dwell: dwell, status: PlanNotStarted}
}

// Start moves a not started plan to its first exercise. An empty plan
// completes immediately. Returns false if the plan was already started.
func (ps *PlanSequencer) Start() bool {
	if ps.status != PlanNotStarted {
		return false
	}
	ps.index = 0
	ps.resetTimer()
	if len(ps.plan.Exercises) == 0 {
		ps.status = PlanCompleted
		return true
	}
	ps.status = PlanInProgress
	return true
}

// Advance moves to the next exercise and returns it. After the last
// exercise the plan is completed and false is returned; on a completed or
// not started plan Advance does nothing.
func (ps *PlanSequencer) Advance() (catalog.ExerciseID, bool) {
	if ps.status != PlanInProgress {
		return "", false
	}
	ps.resetTimer()
	if ps.index+1 < len(ps.plan.Exercises) {
		ps.index++
		return ps.plan.Exercises[ps.index], true
	}
	ps.status = PlanCompleted
	return "", false
}

// Restart rewinds to the first exercise, either back to not started or
// straight into progress
func (ps *PlanSequencer) Restart(toNotStarted bool) {
	ps.index = 0
	ps.resetTimer()
	if toNotStarted {
		ps.status = PlanNotStarted
		return
	}
	ps.status = PlanNotStarted
	ps.Start()
}

// Tick updates the exercise timer. The timer starts on the first tick with
// poseDetected set; once dwell has passed the plan advances.
func (ps *PlanSequencer) Tick(now time.Time, poseDetected bool) PlanTransition {
	none := PlanTransition{Kind: TransitionNone, PlanName: ps.plan.Name}
	if ps.status != PlanInProgress {
		return none
	}
	if !ps.timerStarted {
		if poseDetected {
			ps.timerStarted = true
			ps.timerStart = now
		}
		return none
	}
	if now.Sub(ps.timerStart) < ps.dwell {
		return none
	}

	previous := ps.plan.Exercises[ps.index]
	next, ok := ps.Advance()
	if !ok {
		return PlanTransition{Kind: TransitionPlanCompleted, PlanName: ps.plan.Name, Previous: previous, At: now}
	}
	return PlanTransition{Kind: TransitionExerciseChanged, PlanName: ps.plan.Name, Previous: previous, Next: next, At: now}
}

// Remaining is the time left on the current exercise, or the full dwell
// while the timer has not started yet
func (ps *PlanSequencer) Remaining(now time.Time) time.Duration {
	if ps.status != PlanInProgress {
		return 0
	}
	if !ps.timerStarted {
		return ps.dwell
	}
	left := ps.dwell - now.Sub(ps.timerStart)
	if left < 0 {
		return 0
	}
	return left
}

// Current returns the exercise in progress
func (ps *PlanSequencer) Current() (catalog.ExerciseID, bool) {
	if ps.status != PlanInProgress {
		return "", false
	}
	return ps.plan.Exercises[ps.index], true
}

// Peek returns the exercise after the current one
func (ps *PlanSequencer) Peek() (catalog.ExerciseID, bool) {
	if ps.status != PlanInProgress || ps.index+1 >= len(ps.plan.Exercises) {
		return "", false
	}
	return ps.plan.Exercises[ps.index+1], true
}

func (ps *PlanSequencer) Status() PlanStatus { return ps.status }
func (ps *PlanSequencer) Index() int { return ps.index }
func (ps *PlanSequencer) Plan() catalog.Plan { return ps.plan }
func (ps *PlanSequencer) TimerStarted() bool { return ps.timerStarted }
func (ps *PlanSequencer) Dwell() time.Duration { return ps.dwell }

func (ps *PlanSequencer) resetTimer() {
	ps.timerStarted = false
	ps.timerStart = time.Time{}
}
