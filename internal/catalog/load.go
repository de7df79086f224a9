package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

type fileCatalog struct {
	DefaultTolerance *float64       `yaml:"default_tolerance"`
	Exercises        []fileExercise `yaml:"exercises"`
	Plans            []filePlan     `yaml:"plans"`
}

type fileExercise struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Tolerances map[string]float64 `yaml:"tolerances"`
	Stages     []fileStage        `yaml:"stages"`
	Feedback   []fileRule         `yaml:"feedback"`
}

type fileStage struct {
	Instruction string        `yaml:"instruction"`
	Angles      orderedAngles `yaml:"angles"`
}

type fileRule struct {
	Joints []string `yaml:"joints"`
	Stages []int    `yaml:"stages"`
	Below  string   `yaml:"below"`
	Above  string   `yaml:"above"`
}

type filePlan struct {
	Name      string   `yaml:"name"`
	Exercises []string `yaml:"exercises"`
}

type rawAngle struct {
	joint string
	angle float64
	line  int
}

// orderedAngles keeps the mapping order of a stage's angle block
type orderedAngles []rawAngle

func (o *orderedAngles) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: stage angles must be a mapping", value.Line)
	}
	out := make(orderedAngles, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k := value.Content[i]
		v := value.Content[i+1]
		var angle float64
		if err := v.Decode(&angle); err != nil {
			return fmt.Errorf("line %d: angle for %q: %w", v.Line, k.Value, err)
		}
		out = append(out, rawAngle{joint: k.Value, angle: angle, line: k.Line})
	}
	*o = out
	return nil
}

// LoadDefault loads the catalog embedded in the binary
func LoadDefault() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load reads a catalog data file from disk. An empty path loads the embedded
// default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return LoadDefault()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var doc fileCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return build(doc)
}

func build(doc fileCatalog) (*Catalog, error) {
	var problems []string
	addProblem := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	defaultTolerance := DefaultTolerance
	if doc.DefaultTolerance != nil {
		defaultTolerance = *doc.DefaultTolerance
		if defaultTolerance < 0 {
			addProblem("default_tolerance must be >= 0, got %v", defaultTolerance)
		}
	}

	if len(doc.Exercises) == 0 {
		addProblem("catalog has no exercises")
	}

	exercises := make([]*Exercise, 0, len(doc.Exercises))
	seen := make(map[ExerciseID]bool)
	for i, fe := range doc.Exercises {
		ex, exProblems := buildExercise(i, fe)
		problems = append(problems, exProblems...)
		if ex == nil {
			continue
		}
		if seen[ex.ID] {
			addProblem("exercise %q declared more than once", ex.ID)
			continue
		}
		seen[ex.ID] = true
		exercises = append(exercises, ex)
	}

	plans := make([]Plan, 0, len(doc.Plans))
	seenPlans := make(map[string]bool)
	for i, fp := range doc.Plans {
		if fp.Name == "" {
			addProblem("plan #%d has no name", i)
			continue
		}
		if seenPlans[fp.Name] {
			addProblem("plan %q declared more than once", fp.Name)
			continue
		}
		seenPlans[fp.Name] = true
		if len(fp.Exercises) == 0 {
			addProblem("plan %q has no exercises", fp.Name)
		}
		plan := Plan{Name: fp.Name, Exercises: make([]ExerciseID, 0, len(fp.Exercises))}
		for _, id := range fp.Exercises {
			if !seen[ExerciseID(id)] {
				addProblem("plan %q references unknown exercise %q", fp.Name, id)
			}
			plan.Exercises = append(plan.Exercises, ExerciseID(id))
		}
		plans = append(plans, plan)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return newCatalog(defaultTolerance, exercises, plans), nil
}

func buildExercise(index int, fe fileExercise) (*Exercise, []string) {
	var problems []string
	addProblem := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if fe.ID == "" {
		addProblem("exercise #%d has no id", index)
		return nil, problems
	}
	ex := &Exercise{
		ID:         ExerciseID(fe.ID),
		Name:       fe.Name,
		Tolerances: make(map[pose.JointID]float64, len(fe.Tolerances)),
	}
	if ex.Name == "" {
		ex.Name = fe.ID
	}

	if len(fe.Stages) == 0 {
		addProblem("exercise %q has no stages", fe.ID)
	}
	for s, fs := range fe.Stages {
		if len(fs.Angles) == 0 {
			addProblem("exercise %q stage %d has no joints", fe.ID, s)
		}
		joints := make([]JointAngle, 0, len(fs.Angles))
		stageSeen := make(map[pose.JointID]bool)
		for _, ra := range fs.Angles {
			joint, err := pose.ParseJointID(ra.joint)
			if err != nil {
				addProblem("exercise %q stage %d line %d: %v", fe.ID, s, ra.line, err)
				continue
			}
			if stageSeen[joint] {
				addProblem("exercise %q stage %d: joint %s declared more than once", fe.ID, s, joint)
				continue
			}
			stageSeen[joint] = true
			if ra.angle < 0 || ra.angle > 180 {
				addProblem("exercise %q stage %d: %s angle %v outside [0,180]", fe.ID, s, joint, ra.angle)
			}
			joints = append(joints, JointAngle{Joint: joint, Angle: ra.angle})
		}
		ex.Stages = append(ex.Stages, NewStageTemplate(fs.Instruction, joints...))
	}

	inEveryStage := func(joint pose.JointID) bool {
		for _, st := range ex.Stages {
			if _, ok := st.Angle(joint); !ok {
				return false
			}
		}
		return true
	}

	for name, tol := range fe.Tolerances {
		joint, err := pose.ParseJointID(name)
		if err != nil {
			addProblem("exercise %q tolerance: %v", fe.ID, err)
			continue
		}
		if tol < 0 {
			addProblem("exercise %q tolerance for %s must be >= 0, got %v", fe.ID, joint, tol)
		}
		if !inEveryStage(joint) {
			addProblem("exercise %q has a tolerance for %s which is missing from a stage", fe.ID, joint)
		}
		ex.Tolerances[joint] = tol
	}

	for r, fr := range fe.Feedback {
		if len(fr.Joints) == 0 {
			addProblem("exercise %q feedback rule %d has no joints", fe.ID, r)
		}
		rule := FeedbackRule{Below: fr.Below, Above: fr.Above, Stages: fr.Stages}
		for _, name := range fr.Joints {
			joint, err := pose.ParseJointID(name)
			if err != nil {
				addProblem("exercise %q feedback rule %d: %v", fe.ID, r, err)
				continue
			}
			if !inEveryStage(joint) {
				addProblem("exercise %q feedback rule %d targets %s which is missing from a stage", fe.ID, r, joint)
			}
			rule.Joints = append(rule.Joints, joint)
		}
		for _, s := range fr.Stages {
			if s < 0 || s >= len(fe.Stages) {
				addProblem("exercise %q feedback rule %d: stage %d out of range", fe.ID, r, s)
			}
		}
		ex.FeedbackRules = append(ex.FeedbackRules, rule)
	}

	return ex, problems
}
