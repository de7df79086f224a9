package trainer

import (
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// PoseSource produces pose frames, one per camera frame. The frames channel
// is closed after Shutdown or when the source runs out of frames.
type PoseSource interface {
	Frames() <-chan pose.Frame
	Start() error
	Shutdown()
}

// DefaultSourceFPS is the frame rate used when a source is configured without one
const DefaultSourceFPS = 10

// withFrameSize gives a frame recorded without image dimensions the
// configured ones, so its landmarks are measured in the same aspect ratio
// whatever source produced it
func withFrameSize(frame pose.Frame, width, height int) pose.Frame {
	if frame.Width <= 0 || frame.Height <= 0 {
		frame.Width, frame.Height = width, height
	}
	return frame
}
