package pose

import (
	"encoding/json"
	"fmt"
)

// Frame is one pose estimation result. Landmarks are normalized to [0,1]
// relative to a Width x Height image. An empty landmark map means nobody
// was detected in the frame.
type Frame struct {
	Landmarks map[LandmarkID]Point
	Width     int
	Height    int
}

// HasPose reports whether the estimator found a person in the frame
func (f Frame) HasPose() bool {
	return len(f.Landmarks) > 0
}

// AngleMap holds the measured angle per joint for one frame
type AngleMap map[JointID]float64

// ComputeAngles measures every joint whose three landmarks are present.
// Joints with degenerate geometry are left out of the angle map and reported
// in the returned skipped map instead, so one bad joint does not blank the
// rest of the frame.
func ComputeAngles(frame Frame) (AngleMap, map[JointID]error) {
	angles := make(AngleMap)
	skipped := make(map[JointID]error)
	if !frame.HasPose() {
		return angles, skipped
	}

	scale := func(p Point) Point {
		if frame.Width <= 0 || frame.Height <= 0 {
			return p
		}
		return Point{X: p.X * float64(frame.Width), Y: p.Y * float64(frame.Height)}
	}

	for _, joint := range AllJoints {
		a, okA := frame.Landmarks[joint.A]
		b, okB := frame.Landmarks[joint.Vertex]
		c, okC := frame.Landmarks[joint.C]
		if !okA || !okB || !okC {
			continue
		}
		angle, err := Angle(scale(a), scale(b), scale(c))
		if err != nil {
			skipped[joint.ID] = fmt.Errorf("joint %s: %w", joint.ID, err)
			continue
		}
		angles[joint.ID] = angle
	}
	return angles, skipped
}

// frameJSON is the wire form used by pose sources: landmark names as keys
type frameJSON struct {
	Landmarks map[string]Point `json:"landmarks"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
}

// MarshalJSON encodes the frame with string landmark keys
func (f Frame) MarshalJSON() ([]byte, error) {
	out := frameJSON{Landmarks: make(map[string]Point, len(f.Landmarks)), Width: f.Width, Height: f.Height}
	for id, p := range f.Landmarks {
		out.Landmarks[string(id)] = p
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a frame and rejects unknown landmark names
func (f *Frame) UnmarshalJSON(data []byte) error {
	var in frameJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	landmarks := make(map[LandmarkID]Point, len(in.Landmarks))
	for name, p := range in.Landmarks {
		id, err := ParseLandmarkID(name)
		if err != nil {
			return err
		}
		landmarks[id] = p
	}
	f.Landmarks = landmarks
	f.Width = in.Width
	f.Height = in.Height
	return nil
}
