package analysis

import (
	"math"
	"strings"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// Severity classifies how far a joint is from its reference angle
type Severity int

const (
	SeverityOK       Severity = iota // Within tolerance
	SeverityModerate                 // Within twice the tolerance
	SeveritySevere                   // Beyond twice the tolerance
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	default:
		return "unknown"
	}
}

// ClassifyDeviation maps an absolute deviation to a severity tier
func ClassifyDeviation(deviation, tolerance float64) Severity {
	switch {
	case deviation <= tolerance:
		return SeverityOK
	case deviation <= 2*tolerance:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// Feedback is the coaching result for one joint. Text is empty when the
// joint is within tolerance.
type Feedback struct {
	Text      string
	Severity  Severity
	Tolerance float64
}

// Default messages used when no feedback rule of the exercise matches
const (
	DefaultBelowMessage = "{joint}: extend further"
	DefaultAboveMessage = "{joint}: bend further"
)

// ToleranceRules turns angle deviations into coaching messages using the
// tolerances and feedback rules of a catalog
type ToleranceRules struct {
	catalog *catalog.Catalog
}

func NewToleranceRules(c *catalog.Catalog) *ToleranceRules {
	if c == nil {
		panic("ToleranceRules: catalog cannot be nil")
	}
	return &ToleranceRules{catalog: c}
}

// Evaluate compares a measured angle against its reference. Below the
// tolerance band the first matching rule's below message is used, above it
// the above message. Rules are tried in catalog order.
func (r *ToleranceRules) Evaluate(joint pose.JointID, userAngle, referenceAngle float64, exerciseID catalog.ExerciseID, stageIndex int) (Feedback, error) {
	ex, err := r.catalog.Exercise(exerciseID)
	if err != nil {
		return Feedback{}, err
	}
	tol, _, err := r.catalog.Tolerance(exerciseID, joint)
	if err != nil {
		return Feedback{}, err
	}

	deviation := math.Abs(userAngle - referenceAngle)
	fb := Feedback{Severity: ClassifyDeviation(deviation, tol), Tolerance: tol}

	var below bool
	switch {
	case userAngle < referenceAngle-tol:
		below = true
	case userAngle > referenceAngle+tol:
		below = false
	default:
		return fb, nil
	}

	stage := catalog.WrapStage(stageIndex, len(ex.Stages))
	msg := ""
	for _, rule := range ex.FeedbackRules {
		if !rule.Matches(joint, stage) {
			continue
		}
		if below {
			msg = rule.Below
		} else {
			msg = rule.Above
		}
		if msg != "" {
			break
		}
	}
	if msg == "" {
		if below {
			msg = DefaultBelowMessage
		} else {
			msg = DefaultAboveMessage
		}
	}
	fb.Text = expandMessage(msg, joint)
	return fb, nil
}

func expandMessage(msg string, joint pose.JointID) string {
	return strings.ReplaceAll(msg, "{joint}", joint.DisplayName())
}
