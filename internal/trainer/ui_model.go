package trainer

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/events"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/go_func_utils"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// UIExerciseModel is one row of the exercise list
type UIExerciseModel struct {
	ID         catalog.ExerciseID
	Name       string
	StageCount int
}

// UIPlanModel is one row of the plan list
type UIPlanModel struct {
	Name      string
	Exercises []string // display names in plan order
}

// LastSelection is what the user picked in the previous run
type LastSelection struct {
	Exercise catalog.ExerciseID
	Plan     string
}

type UIModel struct {
	catalog               *catalog.Catalog
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	sessionStateEvent     *events.ChannelEvent[SessionState]
	sessionState          SessionState
	planTransitionEvent   *events.CallbackEvent[PlanTransition]
	persistence           *uiModelPersistence
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

// NewUIModel creates the model. statePath is where the last selection is
// remembered; an empty path uses the default under the home directory.
func NewUIModel(c *catalog.Catalog, logger *log.Logger, uiLogChan <-chan string, statePath string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if c == nil {
		panic("UIModel: catalog cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		catalog:               c,
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeExerciseSelection},
		sessionStateEvent:     events.NewChannelEvent[SessionState](true),
		planTransitionEvent:   events.NewCallbackEvent[PlanTransition](false),
		persistence:           newUIModelPersistence(logger, statePath),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModel.log", func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToSessionState registers a channel to receive session state updates
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSessionState(ch chan<- SessionState) func() {
	return m.sessionStateEvent.Listen(ch)
}

// GetSessionState returns the last published session state
func (m *UIModel) GetSessionState() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionState
}

// SetSessionState updates the session state and notifies listeners
func (m *UIModel) SetSessionState(state SessionState) {
	m.mu.Lock()
	m.sessionState = state
	m.mu.Unlock()

	m.sessionStateEvent.Notify(state)
}

// DroppedSessionStates is how many session updates slow listeners missed
func (m *UIModel) DroppedSessionStates() uint64 {
	return m.sessionStateEvent.Dropped()
}

// ListenToPlanTransition registers a callback run on every plan transition
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToPlanTransition(callback func(PlanTransition)) func() {
	return m.planTransitionEvent.Listen(callback)
}

// NotifyPlanTransition reports a plan transition to listeners
func (m *UIModel) NotifyPlanTransition(t PlanTransition) {
	m.planTransitionEvent.Notify(t)
}

// GetExercises returns the exercise list in catalog order
func (m *UIModel) GetExercises() []UIExerciseModel {
	exercises := m.catalog.Exercises()
	result := make([]UIExerciseModel, 0, len(exercises))
	for _, ex := range exercises {
		result = append(result, UIExerciseModel{ID: ex.ID, Name: ex.Name, StageCount: len(ex.Stages)})
	}
	return result
}

// GetPlans returns the plan list in catalog order
func (m *UIModel) GetPlans() []UIPlanModel {
	plans := m.catalog.Plans()
	result := make([]UIPlanModel, 0, len(plans))
	for _, plan := range plans {
		names := make([]string, 0, len(plan.Exercises))
		for _, id := range plan.Exercises {
			names = append(names, m.ExerciseName(id))
		}
		result = append(result, UIPlanModel{Name: plan.Name, Exercises: names})
	}
	return result
}

// ExerciseName returns the display name of an exercise, or its ID if unknown
func (m *UIModel) ExerciseName(id catalog.ExerciseID) string {
	ex, err := m.catalog.Exercise(id)
	if err != nil {
		return string(id)
	}
	return ex.Name
}

// GetLastSelection returns the exercise or plan picked in the previous run
func (m *UIModel) GetLastSelection() LastSelection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistence.getLastSelection()
}

// SetLastExercise remembers a single exercise selection
func (m *UIModel) SetLastExercise(id catalog.ExerciseID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistence.setLastSelection(LastSelection{Exercise: id})
}

// SetLastPlan remembers a plan selection
func (m *UIModel) SetLastPlan(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistence.setLastSelection(LastSelection{Plan: name})
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
