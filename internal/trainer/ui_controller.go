package trainer

import (
	"log"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
)

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model          *UIModel
	sessionManager *SessionManager
	logger         *log.Logger
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, sessionManager *SessionManager, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if sessionManager == nil {
		panic("UIController: sessionManager cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	return &UIController{
		model:          model,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// RestoreLastSelection resumes the exercise or plan picked in the previous
// run. Returns true if a session was started.
func (c *UIController) RestoreLastSelection() bool {
	sel := c.model.GetLastSelection()
	switch {
	case sel.Plan != "":
		c.logger.Printf("Restoring plan '%s' from last run", sel.Plan)
		return c.StartPlan(sel.Plan)
	case sel.Exercise != "":
		c.logger.Printf("Restoring exercise %s from last run", sel.Exercise)
		return c.SelectExercise(sel.Exercise)
	default:
		return false
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// --- Exercise Selection Methods ---

// OnExerciseSelected handles when an exercise is selected from the list
func (c *UIController) OnExerciseSelected(index int) {
	exercises := c.model.GetExercises()
	if index < 0 || index >= len(exercises) {
		c.logger.Printf("Invalid exercise index: %d", index)
		return
	}
	if c.SelectExercise(exercises[index].ID) {
		c.model.SetMode(UIModeCoachingDashboard)
	}
}

// SelectExercise starts a single exercise and remembers the choice
func (c *UIController) SelectExercise(id catalog.ExerciseID) bool {
	if err := c.sessionManager.SelectExercise(id); err != nil {
		c.logger.Printf("Cannot select exercise %s: %v", id, err)
		return false
	}
	c.logger.Printf("Exercise selected: %s", c.model.ExerciseName(id))
	c.model.SetLastExercise(id)
	return true
}

// --- Plan Selection Methods ---

// OnPlanSelected handles when a plan is selected from the list
func (c *UIController) OnPlanSelected(index int) {
	plans := c.model.GetPlans()
	if index < 0 || index >= len(plans) {
		c.logger.Printf("Invalid plan index: %d", index)
		return
	}
	if c.StartPlan(plans[index].Name) {
		c.model.SetMode(UIModeCoachingDashboard)
	}
}

// StartPlan starts a plan and remembers the choice
func (c *UIController) StartPlan(name string) bool {
	if err := c.sessionManager.StartPlan(name); err != nil {
		c.logger.Printf("Cannot start plan '%s': %v", name, err)
		return false
	}
	c.logger.Printf("Plan started: %s", name)
	c.model.SetLastPlan(name)
	return true
}

// AdvancePlan skips to the next exercise of the running plan
func (c *UIController) AdvancePlan() {
	if err := c.sessionManager.AdvancePlan(); err != nil {
		c.logger.Printf("Cannot advance plan: %v", err)
	}
}

// RestartPlan starts the running plan over
func (c *UIController) RestartPlan() {
	if err := c.sessionManager.RestartPlan(); err != nil {
		c.logger.Printf("Cannot restart plan: %v", err)
		return
	}
	c.logger.Printf("Plan restarted")
}

// StopSession ends the running session
func (c *UIController) StopSession() {
	if err := c.sessionManager.StopSession(); err != nil {
		c.logger.Printf("Cannot stop session: %v", err)
		return
	}
	c.logger.Printf("Session stopped")
}

// Shutdown stops the session manager
func (c *UIController) Shutdown() {
	c.sessionManager.Shutdown()
}
