package trainer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/analysis"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

var (
	ErrNoExerciseSelected = errors.New("no exercise selected")
	ErrNoPlan             = errors.New("no plan loaded")
)

// SessionConfig holds the timing parameters of a session
type SessionConfig struct {
	StageDwell    time.Duration
	ExerciseDwell time.Duration
}

// FrameResult is what one processed frame produced
type FrameResult struct {
	Evaluation   analysis.EvaluationResult
	StageChanged bool
	Transition   PlanTransition
}

// Session is one user's evaluation run: the selected exercise, its stage
// clock and an optional plan. It is frame driven and not safe for concurrent
// use; SessionManager serializes access to it.
type Session struct {
	ID string

	catalog   *catalog.Catalog
	evaluator *analysis.Evaluator
	clock     *StageClock
	plan      *PlanSequencer
	cfg       SessionConfig

	lastResult     analysis.EvaluationResult
	lastTransition PlanTransition
	framesSeen     uint64
}

func NewSession(c *catalog.Catalog, cfg SessionConfig) *Session {
	if c == nil {
		panic("Session: catalog cannot be nil")
	}
	if cfg.StageDwell <= 0 {
		cfg.StageDwell = DefaultStageDwell
	}
	if cfg.ExerciseDwell <= 0 {
		cfg.ExerciseDwell = DefaultExerciseDwell
	}
	return &Session{
		ID:        uuid.NewString(),
		catalog:   c,
		evaluator: analysis.NewEvaluator(c),
		clock:     NewStageClock(c, cfg.StageDwell),
		cfg:       cfg,
	}
}

// SelectExercise switches to a single exercise. Any loaded plan is dropped.
func (s *Session) SelectExercise(id catalog.ExerciseID, now time.Time) error {
	if err := s.clock.Select(id, now); err != nil {
		return err
	}
	s.plan = nil
	s.lastResult = analysis.EvaluationResult{}
	return nil
}

// StartPlan loads a plan and begins its first exercise
func (s *Session) StartPlan(name string, now time.Time) error {
	plan, err := s.catalog.Plan(name)
	if err != nil {
		return err
	}
	seq := NewPlanSequencer(plan, s.cfg.ExerciseDwell)
	seq.Start()
	first, ok := seq.Current()
	if !ok {
		return fmt.Errorf("plan %q has no exercises", name)
	}
	if err := s.clock.Select(first, now); err != nil {
		return err
	}
	s.plan = seq
	s.lastResult = analysis.EvaluationResult{}
	s.lastTransition = PlanTransition{}
	return nil
}

// AdvancePlan skips to the next exercise of the plan
func (s *Session) AdvancePlan(now time.Time) (PlanTransition, error) {
	if s.plan == nil {
		return PlanTransition{}, ErrNoPlan
	}
	name := s.plan.Plan().Name
	if s.plan.Status() != PlanInProgress {
		return PlanTransition{Kind: TransitionNone, PlanName: name}, nil
	}
	previous, _ := s.plan.Current()
	next, ok := s.plan.Advance()
	if !ok {
		t := PlanTransition{Kind: TransitionPlanCompleted, PlanName: name, Previous: previous, At: now}
		s.lastTransition = t
		return t, nil
	}
	if err := s.clock.Select(next, now); err != nil {
		return PlanTransition{}, err
	}
	t := PlanTransition{Kind: TransitionExerciseChanged, PlanName: name, Previous: previous, Next: next, At: now}
	s.lastTransition = t
	return t, nil
}

// RestartPlan rewinds the plan to its first exercise and starts it again
func (s *Session) RestartPlan(now time.Time) error {
	if s.plan == nil {
		return ErrNoPlan
	}
	s.plan.Restart(false)
	first, ok := s.plan.Current()
	if !ok {
		return fmt.Errorf("plan %q has no exercises", s.plan.Plan().Name)
	}
	s.lastTransition = PlanTransition{}
	return s.clock.Select(first, now)
}

// ProcessFrame evaluates a frame against the current stage, then ticks the
// stage clock and the plan, in that order. A plan transition never changes
// the evaluation already computed for the frame.
func (s *Session) ProcessFrame(frame pose.Frame, now time.Time) (FrameResult, error) {
	st := s.clock.State()
	if st.ExerciseID == "" {
		return FrameResult{}, ErrNoExerciseSelected
	}
	s.framesSeen++

	eval, err := s.evaluator.Evaluate(frame, st.ExerciseID, st.Stage)
	if err != nil {
		return FrameResult{}, err
	}
	res := FrameResult{Evaluation: eval}
	s.lastResult = eval

	res.StageChanged = s.clock.Tick(now)

	if s.plan != nil {
		res.Transition = s.plan.Tick(now, frame.HasPose())
		switch res.Transition.Kind {
		case TransitionExerciseChanged:
			if err := s.clock.Select(res.Transition.Next, now); err != nil {
				return res, err
			}
			s.lastTransition = res.Transition
		case TransitionPlanCompleted:
			s.lastTransition = res.Transition
		}
	}
	return res, nil
}

// Snapshot builds the value state published to readers
func (s *Session) Snapshot(now time.Time) SessionState {
	st := s.clock.State()
	state := SessionState{
		SessionID:      s.ID,
		ExerciseID:     st.ExerciseID,
		Stage:          st.Stage,
		StageCount:     st.StageCount,
		LastResult:     s.lastResult,
		LastTransition: s.lastTransition,
		FramesSeen:     s.framesSeen,
	}
	if st.ExerciseID != "" {
		if ex, err := s.catalog.Exercise(st.ExerciseID); err == nil {
			state.ExerciseName = ex.Name
			state.Instruction = ex.Stages[st.Stage].Instruction
		}
		state.NextStageIn = s.clock.Remaining(now)
	}
	if s.plan != nil {
		state.PlanName = s.plan.Plan().Name
		state.PlanStatus = s.plan.Status()
		state.PlanIndex = s.plan.Index()
		state.PlanLength = len(s.plan.Plan().Exercises)
		state.PlanTimerStarted = s.plan.TimerStarted()
		state.ExerciseRemaining = s.plan.Remaining(now)
		state.NextExerciseID, _ = s.plan.Peek()
	}
	return state
}

// Stage returns the current exercise and stage index
func (s *Session) Stage() (catalog.ExerciseID, int) {
	st := s.clock.State()
	return st.ExerciseID, st.Stage
}

// PlanStatus returns the status of the loaded plan
func (s *Session) PlanStatus() (PlanStatus, error) {
	if s.plan == nil {
		return PlanNotStarted, ErrNoPlan
	}
	return s.plan.Status(), nil
}
