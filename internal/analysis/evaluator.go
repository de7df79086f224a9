package analysis

import (
	"math"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// JointFeedback is the per-joint part of an evaluation
type JointFeedback struct {
	Joint          pose.JointID
	UserAngle      float64
	ReferenceAngle float64
	Deviation      float64
	Feedback
}

// EvaluationResult is everything computed for one frame
type EvaluationResult struct {
	ExerciseID  catalog.ExerciseID
	Stage       int
	Instruction string
	NoPose      bool

	Angles     pose.AngleMap
	Reference  pose.AngleMap
	Deviations map[pose.JointID]float64
	Joints     []JointFeedback // reference template order
	Skipped    map[pose.JointID]error

	Score int
	Band  ScoreBand
	Tips  []string
}

// Messages returns the non-empty feedback texts in template order
func (r EvaluationResult) Messages() []string {
	var out []string
	for _, jf := range r.Joints {
		if jf.Text != "" {
			out = append(out, jf.Text)
		}
	}
	return out
}

// Evaluator runs the per-frame evaluation pass against a catalog
type Evaluator struct {
	catalog *catalog.Catalog
	rules   *ToleranceRules
}

func NewEvaluator(c *catalog.Catalog) *Evaluator {
	if c == nil {
		panic("Evaluator: catalog cannot be nil")
	}
	return &Evaluator{catalog: c, rules: NewToleranceRules(c)}
}

// Evaluate measures the frame and compares it with the reference template of
// the given stage. A frame without a pose yields an empty result with NoPose
// set; it is not an error.
func (e *Evaluator) Evaluate(frame pose.Frame, exerciseID catalog.ExerciseID, stageIndex int) (EvaluationResult, error) {
	if !frame.HasPose() {
		return e.empty(exerciseID, stageIndex)
	}
	angles, skipped := pose.ComputeAngles(frame)
	res, err := e.EvaluateAngles(angles, exerciseID, stageIndex)
	if err != nil {
		return EvaluationResult{}, err
	}
	res.Skipped = skipped
	return res, nil
}

// EvaluateAngles is Evaluate for an already measured angle map
func (e *Evaluator) EvaluateAngles(angles pose.AngleMap, exerciseID catalog.ExerciseID, stageIndex int) (EvaluationResult, error) {
	tmpl, err := e.catalog.StageTemplate(exerciseID, stageIndex)
	if err != nil {
		return EvaluationResult{}, err
	}
	count, _ := e.catalog.StageCount(exerciseID)

	res := EvaluationResult{
		ExerciseID:  exerciseID,
		Stage:       catalog.WrapStage(stageIndex, count),
		Instruction: tmpl.Instruction,
		Angles:      angles,
		Reference:   tmpl.AngleMap(),
		Deviations:  make(map[pose.JointID]float64),
		Skipped:     make(map[pose.JointID]error),
	}

	for _, ja := range tmpl.Joints() {
		user, ok := angles[ja.Joint]
		if !ok {
			continue
		}
		fb, err := e.rules.Evaluate(ja.Joint, user, ja.Angle, exerciseID, res.Stage)
		if err != nil {
			return EvaluationResult{}, err
		}
		dev := math.Abs(user - ja.Angle)
		res.Deviations[ja.Joint] = dev
		res.Joints = append(res.Joints, JointFeedback{
			Joint:          ja.Joint,
			UserAngle:      user,
			ReferenceAngle: ja.Angle,
			Deviation:      dev,
			Feedback:       fb,
		})
	}

	res.Score = Score(angles, res.Reference)
	res.Band = BandForScore(res.Score)
	res.Tips = Tips(angles, tmpl)
	return res, nil
}

func (e *Evaluator) empty(exerciseID catalog.ExerciseID, stageIndex int) (EvaluationResult, error) {
	tmpl, err := e.catalog.StageTemplate(exerciseID, stageIndex)
	if err != nil {
		return EvaluationResult{}, err
	}
	count, _ := e.catalog.StageCount(exerciseID)
	return EvaluationResult{
		ExerciseID:  exerciseID,
		Stage:       catalog.WrapStage(stageIndex, count),
		Instruction: tmpl.Instruction,
		NoPose:      true,
		Angles:      pose.AngleMap{},
		Reference:   tmpl.AngleMap(),
		Deviations:  map[pose.JointID]float64{},
		Skipped:     map[pose.JointID]error{},
		Band:        ScoreBandPoor,
	}, nil
}
