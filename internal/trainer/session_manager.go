package trainer

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/analysis"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/go_func_utils"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/metrics"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// ErrManagerStopped is returned by commands sent after Shutdown
var ErrManagerStopped = errors.New("session manager stopped")

// DefaultPublishInterval is how often the state is republished while no
// frames arrive, so countdowns keep moving on screen
const DefaultPublishInterval = 250 * time.Millisecond

// sessionCommandKind represents commands sent to the session goroutine
type sessionCommandKind int

const (
	cmdSelectExercise sessionCommandKind = iota
	cmdStartPlan
	cmdAdvancePlan
	cmdRestartPlan
	cmdStopSession
)

func (k sessionCommandKind) String() string {
	switch k {
	case cmdSelectExercise:
		return "select_exercise"
	case cmdStartPlan:
		return "start_plan"
	case cmdAdvancePlan:
		return "advance_plan"
	case cmdRestartPlan:
		return "restart_plan"
	case cmdStopSession:
		return "stop_session"
	default:
		return "unknown"
	}
}

type sessionCommand struct {
	kind     sessionCommandKind
	exercise catalog.ExerciseID
	plan     string
	reply    chan error
}

// SessionManagerArgs holds the dependencies of a SessionManager
type SessionManagerArgs struct {
	Model   *UIModel
	Source  PoseSource
	Catalog *catalog.Catalog
	Metrics *metrics.Manager
	Config  SessionConfig
	Logger  *log.Logger

	// Now is the clock used to timestamp frames; defaults to time.Now
	Now func() time.Time
	// PublishInterval defaults to DefaultPublishInterval
	PublishInterval time.Duration
}

// SessionManager owns the running Session. A single goroutine reads frames
// from the pose source and commands from the UI, drives the session and
// publishes value snapshots to the UIModel.
type SessionManager struct {
	model   *UIModel
	source  PoseSource
	catalog *catalog.Catalog
	metrics *metrics.Manager
	cfg     SessionConfig
	logger  *log.Logger
	now     func() time.Time

	publishInterval time.Duration

	// Owned by the session goroutine
	session *Session

	// Last published state (protected by mu)
	mu    sync.RWMutex
	state SessionState

	// Goroutine management
	cmdChan      chan sessionCommand
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewSessionManager creates a SessionManager and starts its goroutine. The
// pose source must already be started.
func NewSessionManager(args SessionManagerArgs) *SessionManager {
	if args.Model == nil {
		panic("SessionManager: model cannot be nil")
	}
	if args.Source == nil {
		panic("SessionManager: source cannot be nil")
	}
	if args.Catalog == nil {
		panic("SessionManager: catalog cannot be nil")
	}
	if args.Metrics == nil {
		panic("SessionManager: metrics cannot be nil")
	}
	if args.Logger == nil {
		panic("SessionManager: logger cannot be nil")
	}
	if args.Now == nil {
		args.Now = time.Now
	}
	if args.PublishInterval <= 0 {
		args.PublishInterval = DefaultPublishInterval
	}

	sm := &SessionManager{
		model:           args.Model,
		source:          args.Source,
		catalog:         args.Catalog,
		metrics:         args.Metrics,
		cfg:             args.Config,
		logger:          args.Logger,
		now:             args.Now,
		publishInterval: args.PublishInterval,
		cmdChan:         make(chan sessionCommand),
		doneChan:        make(chan struct{}),
	}

	sm.wg.Add(1)
	go_func_utils.SafeGo(sm.logger, "SessionManager.loop", sm.runSessionLoop)

	return sm
}

// SelectExercise starts evaluating a single exercise, dropping any plan
func (sm *SessionManager) SelectExercise(id catalog.ExerciseID) error {
	return sm.send(sessionCommand{kind: cmdSelectExercise, exercise: id})
}

// StartPlan loads a training plan and starts its first exercise
func (sm *SessionManager) StartPlan(name string) error {
	return sm.send(sessionCommand{kind: cmdStartPlan, plan: name})
}

// AdvancePlan skips to the next exercise of the plan
func (sm *SessionManager) AdvancePlan() error {
	return sm.send(sessionCommand{kind: cmdAdvancePlan})
}

// RestartPlan starts the loaded plan over from its first exercise
func (sm *SessionManager) RestartPlan() error {
	return sm.send(sessionCommand{kind: cmdRestartPlan})
}

// StopSession discards the running session
func (sm *SessionManager) StopSession() error {
	return sm.send(sessionCommand{kind: cmdStopSession})
}

// State returns the last published session state
func (sm *SessionManager) State() SessionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// Shutdown stops the session goroutine
// Safe to call multiple times - only the first call has effect
func (sm *SessionManager) Shutdown() {
	sm.shutdownOnce.Do(func() {
		sm.logger.Printf("SessionManager: Shutting down")
		close(sm.doneChan)
		sm.wg.Wait()
		sm.logger.Printf("SessionManager: Shutdown complete")
	})
}

// send hands a command to the session goroutine and waits for its outcome
func (sm *SessionManager) send(cmd sessionCommand) error {
	cmd.reply = make(chan error, 1)
	select {
	case sm.cmdChan <- cmd:
	case <-sm.doneChan:
		return ErrManagerStopped
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-sm.doneChan:
		return ErrManagerStopped
	}
}

// commandResult holds what a command changed
type commandResult struct {
	state      SessionState
	transition PlanTransition
	err        error
}

// handleCommand applies a command to the session. Only called from the
// session goroutine.
func (sm *SessionManager) handleCommand(cmd sessionCommand) commandResult {
	now := sm.now()

	switch cmd.kind {
	case cmdSelectExercise:
		session := sm.sessionOrNew()
		if err := session.SelectExercise(cmd.exercise, now); err != nil {
			return commandResult{err: err}
		}
		sm.session = session
		sm.logger.Printf("SessionManager: Exercise %s selected (session %s)", cmd.exercise, session.ID)

	case cmdStartPlan:
		session := sm.sessionOrNew()
		if err := session.StartPlan(cmd.plan, now); err != nil {
			return commandResult{err: err}
		}
		sm.session = session
		sm.logger.Printf("SessionManager: Plan '%s' started (session %s)", cmd.plan, session.ID)

	case cmdAdvancePlan:
		if sm.session == nil {
			return commandResult{err: ErrNoPlan}
		}
		t, err := sm.session.AdvancePlan(now)
		if err != nil {
			return commandResult{err: err}
		}
		sm.logger.Printf("SessionManager: Plan advanced manually (%s)", t.Kind)
		return commandResult{state: sm.session.Snapshot(now), transition: t}

	case cmdRestartPlan:
		if sm.session == nil {
			return commandResult{err: ErrNoPlan}
		}
		if err := sm.session.RestartPlan(now); err != nil {
			return commandResult{err: err}
		}
		sm.logger.Printf("SessionManager: Plan restarted")

	case cmdStopSession:
		if sm.session != nil {
			sm.logger.Printf("SessionManager: Session %s stopped", sm.session.ID)
		}
		sm.session = nil
		return commandResult{state: SessionState{}}
	}

	return commandResult{state: sm.session.Snapshot(now)}
}

// sessionOrNew returns the running session or a fresh one that is only kept
// if the command succeeds
func (sm *SessionManager) sessionOrNew() *Session {
	if sm.session != nil {
		return sm.session
	}
	return NewSession(sm.catalog, sm.cfg)
}

// frameResult holds the result of processing one frame
type frameResult struct {
	state        SessionState
	skip         bool // no exercise selected, frame dropped
	err          error
	took         time.Duration
	stageChanged bool
	transition   PlanTransition
}

// handleFrame runs one frame through the session. Only called from the
// session goroutine.
func (sm *SessionManager) handleFrame(frame pose.Frame) frameResult {
	if sm.session == nil {
		return frameResult{skip: true}
	}

	now := sm.now()
	start := time.Now()
	res, err := sm.session.ProcessFrame(frame, now)
	took := time.Since(start)
	if errors.Is(err, ErrNoExerciseSelected) {
		return frameResult{skip: true}
	}

	sm.observeFrame(res.Evaluation, took, err)
	return frameResult{
		state:        sm.session.Snapshot(now),
		err:          err,
		took:         took,
		stageChanged: res.StageChanged,
		transition:   res.Transition,
	}
}

// observeFrame records frame metrics. A failed frame only counts as an error,
// its partial result is not observed.
func (sm *SessionManager) observeFrame(eval analysis.EvaluationResult, took time.Duration, err error) {
	if err != nil {
		sm.metrics.CounterErrors.WithLabelValues("process_frame").Inc()
		return
	}
	sm.metrics.ObserveEvaluation(eval, took)
}

// publish stores the state and hands it to the model.
// No lock needed by the caller.
func (sm *SessionManager) publish(state SessionState) {
	sm.mu.Lock()
	sm.state = state
	sm.mu.Unlock()

	sm.model.SetSessionState(state)
	sm.metrics.GaugeDroppedEvents.Set(float64(sm.model.DroppedSessionStates()))
}

func (sm *SessionManager) announce(t PlanTransition) {
	if t.Kind == TransitionNone {
		return
	}
	sm.metrics.CounterPlanTransitions.WithLabelValues(t.Kind.String()).Inc()
	switch t.Kind {
	case TransitionExerciseChanged:
		sm.logger.Printf("SessionManager: Plan '%s' moved from %s to %s", t.PlanName, t.Previous, t.Next)
	case TransitionPlanCompleted:
		sm.logger.Printf("SessionManager: Plan '%s' completed", t.PlanName)
	}
	sm.model.NotifyPlanTransition(t)
}

// runSessionLoop is the main goroutine that drives the session.
func (sm *SessionManager) runSessionLoop() {
	defer sm.wg.Done()

	frames := sm.source.Frames()
	ticker := time.NewTicker(sm.publishInterval)
	defer ticker.Stop()

	sm.metrics.GaugeLifeSignal.Set(1)
	defer sm.metrics.GaugeLifeSignal.Set(0)

	for {
		select {
		case <-sm.doneChan:
			sm.logger.Printf("SessionManager: Goroutine exiting")
			return

		case cmd := <-sm.cmdChan:
			result := sm.handleCommand(cmd)
			if result.err != nil {
				sm.metrics.CounterErrors.WithLabelValues(cmd.kind.String()).Inc()
				sm.logger.Printf("SessionManager: %s failed: %v", cmd.kind, result.err)
				cmd.reply <- result.err
				continue
			}
			sm.publish(result.state)
			sm.announce(result.transition)
			cmd.reply <- nil

		case frame, ok := <-frames:
			if !ok {
				sm.logger.Printf("SessionManager: Pose source closed")
				frames = nil
				continue
			}
			result := sm.handleFrame(frame)
			if result.skip {
				continue
			}
			if result.err != nil {
				sm.logger.Printf("SessionManager: Frame failed: %v", result.err)
			}
			if result.stageChanged {
				sm.metrics.CounterStageChanges.Inc()
			}
			sm.publish(result.state)
			sm.announce(result.transition)

		case <-ticker.C:
			if sm.session == nil {
				continue
			}
			sm.publish(sm.session.Snapshot(sm.now()))
		}
	}
}
