package trainer

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	// controller is used to handle keyboard events
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	// SetMode switches the UI to the specified mode
	SetMode(mode UIMode)

	// GetCurrentMode returns the currently active UI mode
	GetCurrentMode() UIMode

	// --- Log View (shared across modes) ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Exercise and Plan Selection Modes ---

	// SetExerciseList populates the exercise selection list
	SetExerciseList(exercises []UIExerciseModel)

	// SetPlanList populates the plan selection list
	SetPlanList(plans []UIPlanModel)

	// --- Coaching Dashboard Mode ---

	// UpdateSessionState updates the live coaching display
	UpdateSessionState(state SessionState)

	// ShowPlanTransition announces an exercise change or plan completion
	ShowPlanTransition(t PlanTransition)
}
