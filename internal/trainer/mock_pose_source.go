package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/go_func_utils"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// MockPoseSource stands in for a camera and pose estimator. The current pose
// is set through a small web page or its JSON API and re-emitted at a fixed
// frame rate until it is replaced or cleared.
type MockPoseSource struct {
	logger *log.Logger
	config MockPoseSourceConfig

	mu      sync.RWMutex
	current pose.Frame
	emitted uint64

	frames   chan pose.Frame
	server   *http.Server
	doneChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// MockPoseSourceConfig holds configuration for creating a mock source
type MockPoseSourceConfig struct {
	ServerPort int // 0 disables the control page
	FPS        int
	Width      int
	Height     int
}

// MockSourceState represents the current state for the web API
type MockSourceState struct {
	PersonInView bool       `json:"personInView"`
	Landmarks    int        `json:"landmarks"`
	Emitted      uint64     `json:"emitted"`
	FPS          int        `json:"fps"`
	Frame        pose.Frame `json:"frame"`
}

func NewMockPoseSource(logger *log.Logger, config MockPoseSourceConfig) *MockPoseSource {
	if logger == nil {
		panic("MockPoseSource: logger cannot be nil")
	}
	if config.FPS <= 0 {
		config.FPS = DefaultSourceFPS
	}

	return &MockPoseSource{
		logger:   logger,
		config:   config,
		current:  pose.Frame{Width: config.Width, Height: config.Height},
		frames:   make(chan pose.Frame, 1),
		doneChan: make(chan struct{}),
	}
}

func (m *MockPoseSource) Frames() <-chan pose.Frame {
	return m.frames
}

// Handler returns the control page and JSON API
func (m *MockPoseSource) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", m.handleIndex)
	mux.HandleFunc("/api/state", m.handleGetState)
	mux.HandleFunc("/api/frame", m.handleSetFrame)
	mux.HandleFunc("/api/clear", m.handleClear)
	return mux
}

// Start begins emitting frames and, if a port is configured, serves the control page
func (m *MockPoseSource) Start() error {
	m.logger.Printf("MockPoseSource: Starting at %d fps", m.config.FPS)

	if m.config.ServerPort > 0 {
		m.server = &http.Server{
			Addr:    fmt.Sprintf(":%d", m.config.ServerPort),
			Handler: m.Handler(),
		}

		m.wg.Add(1)
		go_func_utils.SafeGo(m.logger, "MockPoseSource.server", func() {
			defer m.wg.Done()
			m.logger.Printf("MockPoseSource: Web server starting on http://localhost:%d", m.config.ServerPort)
			if err := m.server.ListenAndServe(); err != http.ErrServerClosed {
				m.logger.Printf("MockPoseSource: Web server error: %v", err)
			}
		})
	}

	m.wg.Add(1)
	go_func_utils.SafeGo(m.logger, "MockPoseSource.emit", m.emitLoop)
	return nil
}

// Shutdown stops emitting, stops the web server and closes the frames channel
func (m *MockPoseSource) Shutdown() {
	m.stopOnce.Do(func() {
		m.logger.Printf("MockPoseSource: Shutting down")
		close(m.doneChan)

		if m.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.server.Shutdown(ctx); err != nil {
				m.logger.Printf("MockPoseSource: Error shutting down web server: %v", err)
			}
		}

		m.wg.Wait()
		close(m.frames)
		m.logger.Printf("MockPoseSource: Shutdown complete")
	})
}

// SetFrame replaces the pose being emitted
func (m *MockPoseSource) SetFrame(frame pose.Frame) {
	frame = withFrameSize(frame, m.config.Width, m.config.Height)
	m.mu.Lock()
	m.current = frame
	m.mu.Unlock()
}

// Clear emits empty frames, as if the person left the camera view
func (m *MockPoseSource) Clear() {
	m.SetFrame(pose.Frame{})
}

// State returns what the source is currently emitting
func (m *MockPoseSource) State() MockSourceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MockSourceState{
		PersonInView: m.current.HasPose(),
		Landmarks:    len(m.current.Landmarks),
		Emitted:      m.emitted,
		FPS:          m.config.FPS,
		Frame:        m.current,
	}
}

func (m *MockPoseSource) emitLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(m.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-m.doneChan:
			return
		case <-ticker.C:
			m.mu.Lock()
			frame := m.current
			m.emitted++
			m.mu.Unlock()

			select {
			case m.frames <- frame:
			case <-m.doneChan:
				return
			}
		}
	}
}

func (m *MockPoseSource) handleIndex(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Mock Pose Source</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
        .section { margin: 20px 0; padding: 15px; border: 1px solid #ccc; border-radius: 5px; }
        h2 { margin-top: 0; }
        textarea { width: 100%; height: 260px; font-family: monospace; font-size: 12px; }
        button { padding: 10px 20px; margin: 5px; cursor: pointer; }
        .status { padding: 10px; background: #e0e0e0; border-radius: 5px; margin: 10px 0; }
    </style>
</head>
<body>
    <h1>Mock Pose Source</h1>

    <div class="section">
        <h2>Current State</h2>
        <div id="state" class="status">Loading...</div>
        <button onclick="refreshState()">Refresh</button>
    </div>

    <div class="section">
        <h2>Pose</h2>
        <p>Landmarks are normalized image coordinates, e.g.
        {"landmarks": {"left_hip": {"x": 0.5, "y": 0.5}}}</p>
        <textarea id="frame"></textarea>
        <button onclick="sendFrame()">Send Pose</button>
        <button onclick="clearPose()">Leave View</button>
        <div id="error" style="color: #900"></div>
    </div>

    <script>
        function refreshState() {
            fetch('/api/state')
                .then(r => r.json())
                .then(data => {
                    document.getElementById('state').innerHTML =
                        'Person in view: ' + data.personInView + '<br>' +
                        'Landmarks: ' + data.landmarks + '<br>' +
                        'Frames emitted: ' + data.emitted + ' @ ' + data.fps + ' fps';
                    if (!document.getElementById('frame').value) {
                        document.getElementById('frame').value = JSON.stringify(data.frame, null, 2);
                    }
                });
        }

        function sendFrame() {
            fetch('/api/frame', {method: 'POST', body: document.getElementById('frame').value})
                .then(r => r.ok ? '' : r.text())
                .then(err => { document.getElementById('error').innerText = err; refreshState(); });
        }

        function clearPose() {
            fetch('/api/clear', {method: 'POST'})
                .then(() => refreshState());
        }

        refreshState();
        setInterval(refreshState, 2000);
    </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}

func (m *MockPoseSource) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.State())
}

func (m *MockPoseSource) handleSetFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var frame pose.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		http.Error(w, fmt.Sprintf("invalid frame: %v", err), http.StatusBadRequest)
		return
	}
	m.SetFrame(frame)
	m.logger.Printf("MockPoseSource: Pose set with %d landmarks", len(frame.Landmarks))
	w.WriteHeader(http.StatusOK)
}

func (m *MockPoseSource) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m.Clear()
	m.logger.Printf("MockPoseSource: Pose cleared")
	w.WriteHeader(http.StatusOK)
}
