package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// DefaultTolerance is the allowed deviation in degrees for joints without an
// explicit tolerance entry
const DefaultTolerance = 15.0

var (
	ErrUnknownExercise = errors.New("unknown exercise")
	ErrUnknownPlan     = errors.New("unknown plan")
)

// ValidationError aggregates every consistency problem found while loading a
// catalog
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid catalog: %s", strings.Join(e.Problems, "; "))
}

// ExerciseID identifies an exercise in a loaded catalog
type ExerciseID string

// JointAngle is one entry of a stage template
type JointAngle struct {
	Joint pose.JointID
	Angle float64
}

// StageTemplate is the ordered set of reference angles for one stage of an
// exercise. The order is the order the joints were declared in the data file.
type StageTemplate struct {
	Instruction string
	joints      []JointAngle
}

// NewStageTemplate builds a template from ordered joint angles
func NewStageTemplate(instruction string, joints ...JointAngle) StageTemplate {
	cp := make([]JointAngle, len(joints))
	copy(cp, joints)
	return StageTemplate{Instruction: instruction, joints: cp}
}

// Joints returns a copy of the template entries in declaration order
func (t StageTemplate) Joints() []JointAngle {
	cp := make([]JointAngle, len(t.joints))
	copy(cp, t.joints)
	return cp
}

// Len returns the number of joints in the template
func (t StageTemplate) Len() int {
	return len(t.joints)
}

// Angle returns the reference angle for a joint
func (t StageTemplate) Angle(joint pose.JointID) (float64, bool) {
	for _, ja := range t.joints {
		if ja.Joint == joint {
			return ja.Angle, true
		}
	}
	return 0, false
}

// AngleMap returns the template as a joint -> angle map
func (t StageTemplate) AngleMap() pose.AngleMap {
	m := make(pose.AngleMap, len(t.joints))
	for _, ja := range t.joints {
		m[ja.Joint] = ja.Angle
	}
	return m
}

// FeedbackRule maps a deviation direction to a coaching message. A rule with
// no stages applies to every stage.
type FeedbackRule struct {
	Joints []pose.JointID
	Stages []int
	Below  string
	Above  string
}

// Matches reports whether the rule applies to a joint at a stage
func (r FeedbackRule) Matches(joint pose.JointID, stage int) bool {
	jointMatch := false
	for _, j := range r.Joints {
		if j == joint {
			jointMatch = true
			break
		}
	}
	if !jointMatch {
		return false
	}
	if len(r.Stages) == 0 {
		return true
	}
	for _, s := range r.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Exercise is a staged exercise with its tolerances and feedback rules
type Exercise struct {
	ID            ExerciseID
	Name          string
	Stages        []StageTemplate
	Tolerances    map[pose.JointID]float64
	FeedbackRules []FeedbackRule
}

// Plan is a named, ordered list of exercises
type Plan struct {
	Name      string
	Exercises []ExerciseID
}

// Catalog is the immutable set of exercises and plans loaded from a data file
type Catalog struct {
	defaultTolerance float64
	exercises        []*Exercise
	exerciseByID     map[ExerciseID]*Exercise
	plans            []Plan
	planByName       map[string]Plan
}

func newCatalog(defaultTolerance float64, exercises []*Exercise, plans []Plan) *Catalog {
	c := &Catalog{
		defaultTolerance: defaultTolerance,
		exercises:        exercises,
		exerciseByID:     make(map[ExerciseID]*Exercise, len(exercises)),
		plans:            plans,
		planByName:       make(map[string]Plan, len(plans)),
	}
	for _, ex := range exercises {
		c.exerciseByID[ex.ID] = ex
	}
	for _, p := range plans {
		c.planByName[p.Name] = p
	}
	return c
}

// Exercise returns the exercise with the given ID
func (c *Catalog) Exercise(id ExerciseID) (*Exercise, error) {
	ex, ok := c.exerciseByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, id)
	}
	return ex, nil
}

// StageCount returns the number of stages of an exercise
func (c *Catalog) StageCount(id ExerciseID) (int, error) {
	ex, err := c.Exercise(id)
	if err != nil {
		return 0, err
	}
	return len(ex.Stages), nil
}

// StageTemplate returns the reference template for a stage. Indexes outside
// [0, count) wrap modulo the stage count.
func (c *Catalog) StageTemplate(id ExerciseID, stageIndex int) (StageTemplate, error) {
	ex, err := c.Exercise(id)
	if err != nil {
		return StageTemplate{}, err
	}
	return ex.Stages[WrapStage(stageIndex, len(ex.Stages))], nil
}

// WrapStage folds any index into [0, count)
func WrapStage(stageIndex, count int) int {
	if count <= 0 {
		return 0
	}
	idx := stageIndex % count
	if idx < 0 {
		idx += count
	}
	return idx
}

// Tolerance returns the allowed deviation for a joint of an exercise and
// whether the catalog default was applied
func (c *Catalog) Tolerance(id ExerciseID, joint pose.JointID) (float64, bool, error) {
	ex, err := c.Exercise(id)
	if err != nil {
		return 0, false, err
	}
	if tol, ok := ex.Tolerances[joint]; ok {
		return tol, false, nil
	}
	return c.defaultTolerance, true, nil
}

// DefaultTolerance returns the catalog wide fallback tolerance
func (c *Catalog) DefaultTolerance() float64 {
	return c.defaultTolerance
}

// Exercises returns all exercises in data file order
func (c *Catalog) Exercises() []*Exercise {
	cp := make([]*Exercise, len(c.exercises))
	copy(cp, c.exercises)
	return cp
}

// Plans returns all plans in data file order
func (c *Catalog) Plans() []Plan {
	cp := make([]Plan, len(c.plans))
	copy(cp, c.plans)
	return cp
}

// Plan returns the plan with the given name
func (c *Catalog) Plan(name string) (Plan, error) {
	p, ok := c.planByName[name]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
	}
	return p, nil
}
