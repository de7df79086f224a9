package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadDefault()
	require.NoError(t, err)
	return c
}

func TestScore_Perfect(t *testing.T) {
	ref := pose.AngleMap{pose.JointHip: 170, pose.JointTorso: 0, pose.JointRightKnee: 90}
	user := pose.AngleMap{pose.JointHip: 170, pose.JointTorso: 0, pose.JointRightKnee: 90}
	assert.Equal(t, 100, Score(user, ref))
}

func TestScore_NoOverlap(t *testing.T) {
	ref := pose.AngleMap{pose.JointHip: 170}
	user := pose.AngleMap{pose.JointTorso: 10}
	assert.Equal(t, 0, Score(user, ref))
	assert.Equal(t, 0, Score(pose.AngleMap{}, ref))
	assert.Equal(t, 0, Score(user, pose.AngleMap{}))
}

func TestScore_Values(t *testing.T) {
	ref := pose.AngleMap{pose.JointHip: 100}
	assert.Equal(t, 80, Score(pose.AngleMap{pose.JointHip: 109}, ref))
	assert.Equal(t, 50, Score(pose.AngleMap{pose.JointHip: 77.5}, ref))
	assert.Equal(t, 0, Score(pose.AngleMap{pose.JointHip: 145}, ref))

	// two joints, deviations 0 and 45 average to 22.5
	ref2 := pose.AngleMap{pose.JointHip: 100, pose.JointTorso: 90}
	assert.Equal(t, 50, Score(pose.AngleMap{pose.JointHip: 100, pose.JointTorso: 45}, ref2))
}

func TestScore_HalfRoundsToEven(t *testing.T) {
	ref := pose.AngleMap{pose.JointHip: 100}
	assert.Equal(t, 62, Score(pose.AngleMap{pose.JointHip: 116.875}, ref))
}

func TestScore_IndependentOfMapOrder(t *testing.T) {
	ref := pose.AngleMap{
		pose.JointRightElbow:    91.37,
		pose.JointLeftElbow:     12.09,
		pose.JointRightKnee:     155.61,
		pose.JointLeftKnee:      44.83,
		pose.JointHip:           170.29,
		pose.JointTorso:         63.77,
		pose.JointRightShoulder: 120.41,
		pose.JointLeftShoulder:  8.53,
	}
	user := pose.AngleMap{
		pose.JointRightElbow:    101.13,
		pose.JointLeftElbow:     47.91,
		pose.JointRightKnee:     133.07,
		pose.JointLeftKnee:      80.39,
		pose.JointHip:           151.73,
		pose.JointTorso:         99.17,
		pose.JointRightShoulder: 95.59,
		pose.JointLeftShoulder:  29.03,
	}

	first := Score(user, ref)
	for i := 0; i < 200; i++ {
		require.Equal(t, first, Score(user, ref), "call %d", i)
	}
}

func TestScore_DeviationCapped(t *testing.T) {
	ref := pose.AngleMap{pose.JointHip: 90, pose.JointTorso: 90}
	at45 := Score(pose.AngleMap{pose.JointHip: 135, pose.JointTorso: 90}, ref)
	at90 := Score(pose.AngleMap{pose.JointHip: 180, pose.JointTorso: 90}, ref)
	assert.Equal(t, at45, at90)
	assert.Equal(t, 50, at90)
}

func TestScore_MonotonicInDeviation(t *testing.T) {
	ref := pose.AngleMap{pose.JointHip: 90, pose.JointTorso: 30}
	prev := 101
	for dev := 0.0; dev <= 60; dev += 0.5 {
		score := Score(pose.AngleMap{pose.JointHip: 90 + dev, pose.JointTorso: 30}, ref)
		assert.LessOrEqual(t, score, prev, "deviation %v", dev)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
		prev = score
	}
}

func TestBandForScore(t *testing.T) {
	assert.Equal(t, ScoreBandGood, BandForScore(100))
	assert.Equal(t, ScoreBandGood, BandForScore(70))
	assert.Equal(t, ScoreBandFair, BandForScore(69))
	assert.Equal(t, ScoreBandFair, BandForScore(40))
	assert.Equal(t, ScoreBandPoor, BandForScore(39))
	assert.Equal(t, "fair", ScoreBandFair.String())
}

func TestClassifyDeviation(t *testing.T) {
	assert.Equal(t, SeverityOK, ClassifyDeviation(10, 10))
	assert.Equal(t, SeverityModerate, ClassifyDeviation(10.5, 10))
	assert.Equal(t, SeverityModerate, ClassifyDeviation(20, 10))
	assert.Equal(t, SeveritySevere, ClassifyDeviation(20.01, 10))
	assert.Equal(t, SeverityOK, ClassifyDeviation(0, 0))
	assert.Equal(t, SeveritySevere, ClassifyDeviation(1, 0))
}

func TestToleranceRules_PushUpElbows(t *testing.T) {
	rules := NewToleranceRules(loadCatalog(t))

	tests := []struct {
		name     string
		user     float64
		ref      float64
		stage    int
		expected string
		severity Severity
	}{
		{name: "high position, arm bent", user: 140, ref: 160, stage: 0, expected: "Right Elbow: extend the arm more", severity: SeverityModerate},
		{name: "high position, over extended", user: 175, ref: 160, stage: 0, expected: "Right Elbow: keep your arms extended", severity: SeverityModerate},
		{name: "high position, within tolerance", user: 165, ref: 160, stage: 0, expected: "", severity: SeverityOK},
		{name: "low position, too high", user: 125, ref: 90, stage: 2, expected: "Right Elbow: hold the low position", severity: SeveritySevere},
		{name: "low position, too deep", user: 70, ref: 90, stage: 2, expected: "Right Elbow: go lower", severity: SeverityModerate},
		{name: "tolerance boundary", user: 100, ref: 90, stage: 2, expected: "", severity: SeverityOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := rules.Evaluate(pose.JointRightElbow, tt.user, tt.ref, "push_up", tt.stage)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fb.Text)
			assert.Equal(t, tt.severity, fb.Severity)
			assert.Equal(t, 10.0, fb.Tolerance)
		})
	}
}

func TestToleranceRules_PushUpTorsoAndHip(t *testing.T) {
	rules := NewToleranceRules(loadCatalog(t))

	fb, err := rules.Evaluate(pose.JointTorso, 20, 0, "push_up", 1)
	require.NoError(t, err)
	assert.Equal(t, "Keep your body straight", fb.Text)

	fb, err = rules.Evaluate(pose.JointHip, 150, 170, "push_up", 1)
	require.NoError(t, err)
	assert.Equal(t, "Don't let your hips drop", fb.Text)
}

func TestToleranceRules_DefaultMessages(t *testing.T) {
	rules := NewToleranceRules(loadCatalog(t))

	fb, err := rules.Evaluate(pose.JointRightKnee, 150, 175, "plank", 0)
	require.NoError(t, err)
	assert.Equal(t, "Right Knee: extend further", fb.Text)

	fb, err = rules.Evaluate(pose.JointLeftKnee, 180, 140, "deadlift", 1)
	require.NoError(t, err)
	assert.Equal(t, "Left Knee: bend further", fb.Text)
	assert.Equal(t, SeveritySevere, fb.Severity)
}

func TestToleranceRules_SeverityBoundaries(t *testing.T) {
	c := loadCatalog(t)
	rules := NewToleranceRules(c)
	tol := c.DefaultTolerance()

	tests := []struct {
		name      string
		deviation float64
		want      Severity
	}{
		{"at tolerance", tol, SeverityOK},
		{"just past tolerance", tol + 0.01, SeverityModerate},
		{"at twice tolerance", 2 * tol, SeverityModerate},
		{"past twice tolerance", 2*tol + 0.01, SeveritySevere},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := rules.Evaluate(pose.JointLeftKnee, 140+tt.deviation, 140, "deadlift", 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fb.Severity)
			assert.Equal(t, tt.want == SeverityOK, fb.Text == "")
		})
	}
}

func TestToleranceRules_StageIndexWraps(t *testing.T) {
	rules := NewToleranceRules(loadCatalog(t))

	// stage 3 of a three stage exercise is stage 0
	fb, err := rules.Evaluate(pose.JointLeftElbow, 140, 160, "push_up", 3)
	require.NoError(t, err)
	assert.Equal(t, "Left Elbow: extend the arm more", fb.Text)
}

func TestToleranceRules_UnknownExercise(t *testing.T) {
	rules := NewToleranceRules(loadCatalog(t))
	_, err := rules.Evaluate(pose.JointHip, 90, 90, "burpee", 0)
	assert.ErrorIs(t, err, catalog.ErrUnknownExercise)
}

func TestTips(t *testing.T) {
	c := loadCatalog(t)
	tmpl, err := c.StageTemplate("squat", 0)
	require.NoError(t, err)

	user := tmpl.AngleMap()
	user[pose.JointRightKnee] = 100
	user[pose.JointHip] = 140
	user[pose.JointTorso] = 115
	user[pose.JointLeftShoulder] = 130
	user[pose.JointLeftKnee] = 160

	tips := Tips(user, tmpl)
	assert.Equal(t, []string{
		"Right Knee: extend more",
		"Hip: extend more",
		"Torso: bend more",
	}, tips)

	assert.Empty(t, Tips(tmpl.AngleMap(), tmpl))
}

func TestEvaluator_NoPose(t *testing.T) {
	e := NewEvaluator(loadCatalog(t))

	res, err := e.Evaluate(pose.Frame{Width: 640, Height: 480}, "squat", 1)
	require.NoError(t, err)
	assert.True(t, res.NoPose)
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.Angles)
	assert.Empty(t, res.Messages())
	assert.Equal(t, "Bend your knees", res.Instruction)

	_, err = e.Evaluate(pose.Frame{}, "burpee", 0)
	assert.ErrorIs(t, err, catalog.ErrUnknownExercise)
}

func TestEvaluator_MatchingPoseScoresPerfect(t *testing.T) {
	c := loadCatalog(t)
	e := NewEvaluator(c)
	tmpl, err := c.StageTemplate("lunge", 1)
	require.NoError(t, err)

	res, err := e.EvaluateAngles(tmpl.AngleMap(), "lunge", 1)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, ScoreBandGood, res.Band)
	assert.Empty(t, res.Messages())
	assert.Empty(t, res.Tips)
	assert.Equal(t, "Right leg forward", res.Instruction)

	require.Len(t, res.Joints, tmpl.Len())
	for i, ja := range tmpl.Joints() {
		assert.Equal(t, ja.Joint, res.Joints[i].Joint)
		assert.Equal(t, SeverityOK, res.Joints[i].Severity)
	}
}

func TestEvaluator_FeedbackInTemplateOrder(t *testing.T) {
	e := NewEvaluator(loadCatalog(t))

	angles := pose.AngleMap{
		pose.JointHip:       140,
		pose.JointLeftElbow: 120,
		pose.JointTorso:     0,
	}
	res, err := e.EvaluateAngles(angles, "push_up", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Left Elbow: extend the arm more",
		"Don't let your hips drop",
	}, res.Messages())
	assert.Equal(t, 40.0, res.Deviations[pose.JointLeftElbow])
	assert.NotContains(t, res.Deviations, pose.JointRightElbow)
	// deviations 40, 30, 0
	assert.Equal(t, 48, res.Score)
}

func TestEvaluator_FrameWithSkippedJoint(t *testing.T) {
	e := NewEvaluator(loadCatalog(t))

	frame := pose.Frame{
		Landmarks: map[pose.LandmarkID]pose.Point{
			pose.LandmarkRightShoulder: {X: 0.5, Y: 0.25},
			pose.LandmarkRightElbow:    {X: 0.5, Y: 0.5},
			pose.LandmarkRightWrist:    {X: 0.75, Y: 0.5},
			pose.LandmarkLeftShoulder:  {X: 0.4, Y: 0.4},
			pose.LandmarkLeftElbow:     {X: 0.4, Y: 0.4},
			pose.LandmarkLeftWrist:     {X: 0.3, Y: 0.5},
		},
	}
	res, err := e.Evaluate(frame, "push_up", 2)
	require.NoError(t, err)
	assert.False(t, res.NoPose)
	assert.Equal(t, 90.0, res.Angles[pose.JointRightElbow])
	assert.Contains(t, res.Skipped, pose.JointLeftElbow)
	assert.Equal(t, 100, res.Score)
	require.Len(t, res.Joints, 1)
	assert.Equal(t, pose.JointRightElbow, res.Joints[0].Joint)
}
