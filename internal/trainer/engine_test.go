package trainer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadDefault()
	require.NoError(t, err)
	return c
}

// personFrame is a frame with the right arm bent at 90 degrees
func personFrame() pose.Frame {
	return pose.Frame{Landmarks: map[pose.LandmarkID]pose.Point{
		pose.LandmarkRightShoulder: {X: 0.5, Y: 0.25},
		pose.LandmarkRightElbow:    {X: 0.5, Y: 0.5},
		pose.LandmarkRightWrist:    {X: 0.75, Y: 0.5},
	}}
}

func TestStageClock_DwellSequence(t *testing.T) {
	clock := NewStageClock(testCatalog(t), 3*time.Second)
	require.NoError(t, clock.Select("push_up", at(0)))

	var stages []int
	for _, s := range []float64{0, 1, 2, 3.1} {
		clock.Tick(at(s))
		stages = append(stages, clock.State().Stage)
	}
	assert.Equal(t, []int{0, 0, 0, 1}, stages)
}

func TestStageClock_Wraparound(t *testing.T) {
	clock := NewStageClock(testCatalog(t), 3*time.Second)
	require.NoError(t, clock.Select("squat", at(0)))

	assert.True(t, clock.Tick(at(3)))
	assert.Equal(t, 1, clock.State().Stage)
	assert.False(t, clock.Tick(at(5)))
	assert.True(t, clock.Tick(at(6)))
	assert.Equal(t, 0, clock.State().Stage)
}

func TestStageClock_SingleStageStaysPut(t *testing.T) {
	clock := NewStageClock(testCatalog(t), time.Second)
	require.NoError(t, clock.Select("plank", at(0)))
	clock.Tick(at(1))
	clock.Tick(at(2))
	assert.Equal(t, 0, clock.State().Stage)
}

func TestStageClock_SelectResets(t *testing.T) {
	clock := NewStageClock(testCatalog(t), 3*time.Second)
	require.NoError(t, clock.Select("lunge", at(0)))
	clock.Tick(at(3))
	require.Equal(t, 1, clock.State().Stage)

	require.NoError(t, clock.Select("lunge", at(4)))
	assert.Equal(t, 0, clock.State().Stage)
	assert.Equal(t, at(4), clock.State().LastTransition)
	assert.Equal(t, 2*time.Second, clock.Remaining(at(5)))
	assert.Equal(t, time.Duration(0), clock.Remaining(at(10)))

	err := clock.Select("burpee", at(5))
	assert.ErrorIs(t, err, catalog.ErrUnknownExercise)
	assert.Equal(t, catalog.ExerciseID("lunge"), clock.State().ExerciseID)
}

func TestStageClock_NoExercise(t *testing.T) {
	clock := NewStageClock(testCatalog(t), 0)
	assert.Equal(t, DefaultStageDwell, clock.Dwell())
	assert.False(t, clock.Tick(at(100)))
	assert.Equal(t, time.Duration(0), clock.Remaining(at(0)))
}

func testPlan() catalog.Plan {
	return catalog.Plan{Name: "Upper Body", Exercises: []catalog.ExerciseID{"push_up", "plank", "shoulder_press"}}
}

func TestPlanSequencer_AdvanceToCompletion(t *testing.T) {
	seq := NewPlanSequencer(testPlan(), 30*time.Second)
	assert.Equal(t, PlanNotStarted, seq.Status())

	_, ok := seq.Advance()
	assert.False(t, ok, "advance before start is a no-op")

	require.True(t, seq.Start())
	assert.Equal(t, PlanInProgress, seq.Status())
	assert.Equal(t, 0, seq.Index())
	assert.False(t, seq.Start())

	id, ok := seq.Advance()
	require.True(t, ok)
	assert.Equal(t, catalog.ExerciseID("plank"), id)
	assert.Equal(t, 1, seq.Index())

	id, ok = seq.Advance()
	require.True(t, ok)
	assert.Equal(t, catalog.ExerciseID("shoulder_press"), id)
	assert.Equal(t, 2, seq.Index())

	_, ok = seq.Advance()
	assert.False(t, ok)
	assert.Equal(t, PlanCompleted, seq.Status())

	_, ok = seq.Advance()
	assert.False(t, ok)
	assert.Equal(t, PlanCompleted, seq.Status())
	assert.Equal(t, 2, seq.Index())
}

func TestPlanSequencer_RestartRoundTrip(t *testing.T) {
	seq := NewPlanSequencer(testPlan(), 30*time.Second)
	seq.Start()
	seq.Advance()
	seq.Advance()
	seq.Advance()
	require.Equal(t, PlanCompleted, seq.Status())

	seq.Restart(false)
	assert.Equal(t, PlanInProgress, seq.Status())
	assert.Equal(t, 0, seq.Index())
	id, ok := seq.Current()
	require.True(t, ok)
	assert.Equal(t, catalog.ExerciseID("push_up"), id)

	seq.Advance()
	seq.Restart(true)
	assert.Equal(t, PlanNotStarted, seq.Status())
	assert.Equal(t, 0, seq.Index())
	_, ok = seq.Current()
	assert.False(t, ok)
}

func TestPlanSequencer_EmptyPlanCompletesOnStart(t *testing.T) {
	seq := NewPlanSequencer(catalog.Plan{Name: "Empty"}, time.Second)
	require.True(t, seq.Start())
	assert.Equal(t, PlanCompleted, seq.Status())
}

func TestPlanSequencer_TimerStartsOnFirstPose(t *testing.T) {
	seq := NewPlanSequencer(testPlan(), 30*time.Second)
	seq.Start()

	assert.Equal(t, TransitionNone, seq.Tick(at(0), false).Kind)
	assert.Equal(t, TransitionNone, seq.Tick(at(60), false).Kind)
	assert.False(t, seq.TimerStarted())
	assert.Equal(t, 30*time.Second, seq.Remaining(at(60)))

	assert.Equal(t, TransitionNone, seq.Tick(at(100), true).Kind)
	assert.True(t, seq.TimerStarted())
	assert.Equal(t, 10*time.Second, seq.Remaining(at(120)))

	// the timer keeps running even if the person leaves the frame
	assert.Equal(t, TransitionNone, seq.Tick(at(129), false).Kind)
	tr := seq.Tick(at(130), false)
	assert.Equal(t, TransitionExerciseChanged, tr.Kind)
	assert.Equal(t, catalog.ExerciseID("push_up"), tr.Previous)
	assert.Equal(t, catalog.ExerciseID("plank"), tr.Next)
	assert.Equal(t, "Upper Body", tr.PlanName)
	assert.False(t, seq.TimerStarted())
}

func TestPlanSequencer_TickCompletesPlan(t *testing.T) {
	seq := NewPlanSequencer(catalog.Plan{Name: "Short", Exercises: []catalog.ExerciseID{"plank"}}, 10*time.Second)
	seq.Start()
	seq.Tick(at(0), true)
	tr := seq.Tick(at(10), true)
	assert.Equal(t, TransitionPlanCompleted, tr.Kind)
	assert.Equal(t, catalog.ExerciseID("plank"), tr.Previous)
	assert.Empty(t, tr.Next)
	assert.Equal(t, PlanCompleted, seq.Status())
	assert.Equal(t, TransitionNone, seq.Tick(at(20), true).Kind)
	assert.Equal(t, time.Duration(0), seq.Remaining(at(20)))
}

func TestSession_RequiresExercise(t *testing.T) {
	s := NewSession(testCatalog(t), SessionConfig{})
	_, err := s.ProcessFrame(personFrame(), at(0))
	assert.ErrorIs(t, err, ErrNoExerciseSelected)

	assert.ErrorIs(t, s.SelectExercise("burpee", at(0)), catalog.ErrUnknownExercise)
	assert.ErrorIs(t, s.StartPlan("Yoga", at(0)), catalog.ErrUnknownPlan)
	assert.ErrorIs(t, s.RestartPlan(at(0)), ErrNoPlan)
	_, err = s.AdvancePlan(at(0))
	assert.ErrorIs(t, err, ErrNoPlan)
}

func TestSession_EvaluatesBeforeAdvancingStage(t *testing.T) {
	s := NewSession(testCatalog(t), SessionConfig{StageDwell: 3 * time.Second})
	require.NoError(t, s.SelectExercise("push_up", at(0)))

	// push-up stage 2 expects 90 degree elbows; stage 0 expects 160
	res, err := s.ProcessFrame(personFrame(), at(3))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Evaluation.Stage)
	assert.True(t, res.StageChanged)
	assert.Equal(t, 0, res.Evaluation.Score)

	res, err = s.ProcessFrame(personFrame(), at(6))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluation.Stage)

	res, err = s.ProcessFrame(personFrame(), at(7))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Evaluation.Stage)
	assert.Equal(t, 100, res.Evaluation.Score)
	assert.False(t, res.StageChanged)
}

func TestSession_EmptyFrame(t *testing.T) {
	s := NewSession(testCatalog(t), SessionConfig{})
	require.NoError(t, s.SelectExercise("squat", at(0)))

	res, err := s.ProcessFrame(pose.Frame{}, at(0.1))
	require.NoError(t, err)
	assert.True(t, res.Evaluation.NoPose)
	assert.Equal(t, 0, res.Evaluation.Score)
	assert.Empty(t, res.Evaluation.Messages())
}

func TestSession_PlanProgression(t *testing.T) {
	s := NewSession(testCatalog(t), SessionConfig{StageDwell: 3 * time.Second, ExerciseDwell: 30 * time.Second})
	require.NoError(t, s.StartPlan("Upper Body", at(0)))

	id, stage := s.Stage()
	assert.Equal(t, catalog.ExerciseID("push_up"), id)
	assert.Equal(t, 0, stage)

	// nobody in view: the exercise timer does not run
	_, err := s.ProcessFrame(pose.Frame{}, at(40))
	require.NoError(t, err)
	id, _ = s.Stage()
	assert.Equal(t, catalog.ExerciseID("push_up"), id)

	_, err = s.ProcessFrame(personFrame(), at(50))
	require.NoError(t, err)

	res, err := s.ProcessFrame(personFrame(), at(80))
	require.NoError(t, err)
	assert.Equal(t, TransitionExerciseChanged, res.Transition.Kind)
	assert.Equal(t, catalog.ExerciseID("push_up"), res.Evaluation.ExerciseID, "frame is scored before the transition")

	id, stage = s.Stage()
	assert.Equal(t, catalog.ExerciseID("plank"), id)
	assert.Equal(t, 0, stage)

	snap := s.Snapshot(at(81))
	assert.Equal(t, "Upper Body", snap.PlanName)
	assert.Equal(t, PlanInProgress, snap.PlanStatus)
	assert.Equal(t, 1, snap.PlanIndex)
	assert.Equal(t, 3, snap.PlanLength)
	assert.Equal(t, catalog.ExerciseID("shoulder_press"), snap.NextExerciseID)
	assert.Equal(t, "Plank", snap.ExerciseName)
	assert.Equal(t, "Hold the position", snap.Instruction)
	assert.Equal(t, 30*time.Second, snap.ExerciseRemaining)
	assert.Equal(t, TransitionExerciseChanged, snap.LastTransition.Kind)
	assert.NotEmpty(t, snap.SessionID)
}

func TestSession_ManualAdvanceAndRestart(t *testing.T) {
	s := NewSession(testCatalog(t), SessionConfig{})
	require.NoError(t, s.StartPlan("Strength", at(0)))

	tr, err := s.AdvancePlan(at(1))
	require.NoError(t, err)
	assert.Equal(t, TransitionExerciseChanged, tr.Kind)
	assert.Equal(t, catalog.ExerciseID("squat"), tr.Next)

	tr, err = s.AdvancePlan(at(2))
	require.NoError(t, err)
	assert.Equal(t, catalog.ExerciseID("shoulder_press"), tr.Next)

	tr, err = s.AdvancePlan(at(3))
	require.NoError(t, err)
	assert.Equal(t, TransitionPlanCompleted, tr.Kind)

	tr, err = s.AdvancePlan(at(4))
	require.NoError(t, err)
	assert.Equal(t, TransitionNone, tr.Kind)

	status, err := s.PlanStatus()
	require.NoError(t, err)
	assert.Equal(t, PlanCompleted, status)

	require.NoError(t, s.RestartPlan(at(5)))
	status, _ = s.PlanStatus()
	assert.Equal(t, PlanInProgress, status)
	id, _ := s.Stage()
	assert.Equal(t, catalog.ExerciseID("push_up"), id)
}

func TestSession_SelectExerciseDropsPlan(t *testing.T) {
	s := NewSession(testCatalog(t), SessionConfig{})
	require.NoError(t, s.StartPlan("Cardio", at(0)))
	require.NoError(t, s.SelectExercise("deadlift", at(1)))

	_, err := s.PlanStatus()
	assert.ErrorIs(t, err, ErrNoPlan)
	assert.False(t, s.Snapshot(at(1)).HasPlan())
}

func TestSession_IndependentSessions(t *testing.T) {
	c := testCatalog(t)
	a := NewSession(c, SessionConfig{})
	b := NewSession(c, SessionConfig{})
	assert.NotEqual(t, a.ID, b.ID)

	require.NoError(t, a.SelectExercise("squat", at(0)))
	require.NoError(t, b.SelectExercise("lunge", at(0)))
	_, err := a.ProcessFrame(personFrame(), at(3))
	require.NoError(t, err)

	_, stageA := a.Stage()
	_, stageB := b.Stage()
	assert.Equal(t, 1, stageA)
	assert.Equal(t, 0, stageB)
}
