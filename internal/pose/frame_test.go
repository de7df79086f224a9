package pose

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// armFrame places the right arm with a right angle at the elbow
func armFrame() Frame {
	return Frame{
		Width:  640,
		Height: 480,
		Landmarks: map[LandmarkID]Point{
			LandmarkRightShoulder: {X: 0.5, Y: 0.25},
			LandmarkRightElbow:    {X: 0.5, Y: 0.5},
			LandmarkRightWrist:    {X: 0.75, Y: 0.5},
		},
	}
}

func TestComputeAngles_EmptyFrame(t *testing.T) {
	angles, skipped := ComputeAngles(Frame{Width: 640, Height: 480})
	assert.Empty(t, angles)
	assert.Empty(t, skipped)
}

func TestComputeAngles_OnlyCompleteJoints(t *testing.T) {
	angles, skipped := ComputeAngles(armFrame())
	require.Len(t, angles, 1)
	assert.Equal(t, 90.0, angles[JointRightElbow])
	assert.Empty(t, skipped)
}

func TestComputeAngles_ScalesByFrameSize(t *testing.T) {
	// 45 degrees in normalized space is not 45 degrees on a 640x480 image
	frame := Frame{
		Width:  640,
		Height: 480,
		Landmarks: map[LandmarkID]Point{
			LandmarkRightShoulder: {X: 0.6, Y: 0.5},
			LandmarkRightElbow:    {X: 0.5, Y: 0.5},
			LandmarkRightWrist:    {X: 0.6, Y: 0.6},
		},
	}
	angles, _ := ComputeAngles(frame)
	assert.Equal(t, 36.87, angles[JointRightElbow])

	frame.Width, frame.Height = 0, 0
	angles, _ = ComputeAngles(frame)
	assert.Equal(t, 45.0, angles[JointRightElbow])
}

func TestComputeAngles_InvalidJointDoesNotBlankFrame(t *testing.T) {
	frame := armFrame()
	frame.Landmarks[LandmarkLeftShoulder] = Point{X: 0.4, Y: 0.4}
	frame.Landmarks[LandmarkLeftElbow] = Point{X: 0.4, Y: 0.4}
	frame.Landmarks[LandmarkLeftWrist] = Point{X: 0.3, Y: 0.5}

	angles, skipped := ComputeAngles(frame)
	assert.Equal(t, 90.0, angles[JointRightElbow])
	assert.NotContains(t, angles, JointLeftElbow)
	require.Contains(t, skipped, JointLeftElbow)
	assert.ErrorIs(t, skipped[JointLeftElbow], ErrInvalidGeometry)
}

func TestFrame_JSON(t *testing.T) {
	raw := `{"width":640,"height":480,"landmarks":{"right_elbow":{"x":0.5,"y":0.5}}}`
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))
	assert.Equal(t, 640, frame.Width)
	assert.Equal(t, Point{X: 0.5, Y: 0.5}, frame.Landmarks[LandmarkRightElbow])

	encoded, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(encoded))

	err = json.Unmarshal([]byte(`{"landmarks":{"tail":{"x":0,"y":0}}}`), &frame)
	assert.Error(t, err)
}

func TestParseJointID(t *testing.T) {
	id, err := ParseJointID("left_knee")
	require.NoError(t, err)
	assert.Equal(t, JointLeftKnee, id)
	assert.Equal(t, "Left Knee", id.DisplayName())

	_, err = ParseJointID("Joelho Direito")
	assert.Error(t, err)
}

func TestLandmarkByIndex(t *testing.T) {
	id, ok := LandmarkByIndex(12)
	require.True(t, ok)
	assert.Equal(t, LandmarkRightShoulder, id)

	id, ok = LandmarkByIndex(28)
	require.True(t, ok)
	assert.Equal(t, LandmarkRightAnkle, id)

	_, ok = LandmarkByIndex(33)
	assert.False(t, ok)
}
