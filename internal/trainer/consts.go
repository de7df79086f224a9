package trainer

import (
	"time"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/analysis"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
)

// Default dwell times
const (
	DefaultStageDwell    = 3 * time.Second
	DefaultExerciseDwell = 30 * time.Second
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeExerciseSelection UIMode = iota // Pick a single exercise
	UIModePlanSelection                   // Pick a training plan
	UIModeCoachingDashboard               // Live feedback and score
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeExerciseSelection, DisplayName: "Exercises", KeyBinding: '1'},
	{Mode: UIModePlanSelection, DisplayName: "Training Plans", KeyBinding: '2'},
	{Mode: UIModeCoachingDashboard, DisplayName: "Coaching", KeyBinding: '3'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// PlanStatus is the lifecycle state of a training plan
type PlanStatus int

const (
	PlanNotStarted PlanStatus = iota
	PlanInProgress
	PlanCompleted
)

func (s PlanStatus) String() string {
	switch s {
	case PlanNotStarted:
		return "not started"
	case PlanInProgress:
		return "in progress"
	case PlanCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// TransitionKind says what a plan tick did
type TransitionKind int

const (
	TransitionNone TransitionKind = iota
	TransitionExerciseChanged
	TransitionPlanCompleted
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionExerciseChanged:
		return "exercise changed"
	case TransitionPlanCompleted:
		return "plan completed"
	default:
		return "none"
	}
}

// PlanTransition describes a change of exercise within a plan
type PlanTransition struct {
	Kind     TransitionKind
	PlanName string
	Previous catalog.ExerciseID
	Next     catalog.ExerciseID // empty when the plan completed
	At       time.Time
}

// SessionState is the value snapshot of a session published to readers
type SessionState struct {
	SessionID string

	ExerciseID   catalog.ExerciseID // empty when nothing is selected
	ExerciseName string
	Stage        int
	StageCount   int
	Instruction  string
	NextStageIn  time.Duration

	PlanName          string // empty when no plan is loaded
	PlanStatus        PlanStatus
	PlanIndex         int
	PlanLength        int
	PlanTimerStarted  bool
	ExerciseRemaining time.Duration
	NextExerciseID    catalog.ExerciseID

	LastResult     analysis.EvaluationResult
	LastTransition PlanTransition
	FramesSeen     uint64
}

// HasExercise reports whether an exercise is selected
func (s SessionState) HasExercise() bool {
	return s.ExerciseID != ""
}

// HasPlan reports whether a plan is loaded
func (s SessionState) HasPlan() bool {
	return s.PlanName != ""
}
