package trainer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/go_func_utils"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// ReplayPoseSource plays back frames recorded as JSON lines, one frame per
// line. Blank lines and lines starting with '#' are ignored.
type ReplayPoseSource struct {
	logger *log.Logger
	config ReplayPoseSourceConfig

	frames   chan pose.Frame
	doneChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	stopOnce sync.Once
}

// ReplayPoseSourceConfig holds configuration for creating a replay source
type ReplayPoseSourceConfig struct {
	Path string
	FPS  int
	Loop bool // start over at the end instead of closing the frames channel

	// Image size given to recorded frames that carry none
	Width  int
	Height int
}

func NewReplayPoseSource(logger *log.Logger, config ReplayPoseSourceConfig) *ReplayPoseSource {
	if logger == nil {
		panic("ReplayPoseSource: logger cannot be nil")
	}
	if config.FPS <= 0 {
		config.FPS = DefaultSourceFPS
	}
	return &ReplayPoseSource{
		logger:   logger,
		config:   config,
		frames:   make(chan pose.Frame, 1),
		doneChan: make(chan struct{}),
	}
}

func (r *ReplayPoseSource) Frames() <-chan pose.Frame {
	return r.frames
}

// Start reads the whole recording and begins playback
func (r *ReplayPoseSource) Start() error {
	data, err := os.ReadFile(r.config.Path)
	if err != nil {
		return fmt.Errorf("read replay file: %w", err)
	}
	recorded, err := ParseFrameLines(data)
	if err != nil {
		return fmt.Errorf("replay file %s: %w", r.config.Path, err)
	}
	for i := range recorded {
		recorded[i] = withFrameSize(recorded[i], r.config.Width, r.config.Height)
	}
	r.logger.Printf("ReplayPoseSource: Replaying %d frames from %s at %d fps", len(recorded), r.config.Path, r.config.FPS)

	r.started = true
	r.wg.Add(1)
	go_func_utils.SafeGo(r.logger, "ReplayPoseSource.play", func() {
		r.play(recorded)
	})
	return nil
}

// Shutdown stops playback. The frames channel is closed once playback ends.
func (r *ReplayPoseSource) Shutdown() {
	r.stopOnce.Do(func() {
		r.logger.Printf("ReplayPoseSource: Shutting down")
		close(r.doneChan)
		r.wg.Wait()
		if !r.started {
			close(r.frames)
		}
		r.logger.Printf("ReplayPoseSource: Shutdown complete")
	})
}

func (r *ReplayPoseSource) play(recorded []pose.Frame) {
	defer r.wg.Done()
	defer close(r.frames)

	if len(recorded) == 0 {
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(r.config.FPS))
	defer ticker.Stop()

	for i := 0; ; i++ {
		if i == len(recorded) {
			if !r.config.Loop {
				r.logger.Printf("ReplayPoseSource: End of recording")
				return
			}
			i = 0
		}
		select {
		case <-r.doneChan:
			return
		case <-ticker.C:
		}
		select {
		case r.frames <- recorded[i]:
		case <-r.doneChan:
			return
		}
	}
}

// ParseFrameLines decodes a JSON lines recording
func ParseFrameLines(data []byte) ([]pose.Frame, error) {
	var frames []pose.Frame
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		var frame pose.Frame
		if err := json.Unmarshal(text, &frame); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
