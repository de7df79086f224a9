package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding flags,
// e.g. POSE_TRAINER_STAGE_DWELL=5s
const EnvPrefix = "POSE_TRAINER"

// Source kinds
const (
	SourceMock   = "mock"
	SourceReplay = "replay"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ConfigFile  string
	CatalogFile string

	StageDwell    time.Duration
	ExerciseDwell time.Duration

	LogFile     string
	LogToStdout bool
	MetricsAddr string // empty disables the metrics endpoint
	UIStateFile string

	Source      string
	ReplayFile  string
	ReplayFPS   int
	ReplayLoop  bool
	MockPort    int
	MockFPS     int
	FrameWidth  int
	FrameHeight int

	Headless bool
	Exercise string
	Plan     string
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("pose-trainer", pflag.ContinueOnError)
	fs.String("config", "", "optional config file (yaml, toml or json)")
	fs.String("catalog", "", "exercise catalog file; the built-in catalog is used when empty")
	fs.Duration("stage-dwell", 3*time.Second, "time spent in each exercise stage")
	fs.Duration("exercise-dwell", 30*time.Second, "time spent on each exercise of a training plan")
	fs.String("log-file", "pose-trainer.log", "log file, empty to disable")
	fs.Bool("log-stdout", false, "also log to stdout")
	fs.String("metrics-addr", "", "address of the prometheus metrics endpoint, e.g. :9090")
	fs.String("ui-state-file", "", "where the last selection is remembered (default ~/.pose-trainer/ui_state.json)")
	fs.String("source", SourceMock, "pose source: mock or replay")
	fs.String("replay-file", "", "JSON lines file of recorded frames for the replay source")
	fs.Int("replay-fps", 10, "replay frame rate")
	fs.Bool("replay-loop", false, "start the replay over when it ends")
	fs.Int("mock-port", 8081, "port of the mock source control page, 0 to disable")
	fs.Int("mock-fps", 10, "mock source frame rate")
	fs.Int("frame-width", 640, "camera frame width in pixels")
	fs.Int("frame-height", 480, "camera frame height in pixels")
	fs.Bool("headless", false, "run without the terminal UI")
	fs.String("exercise", "", "exercise to start with")
	fs.String("plan", "", "training plan to start with")
	return fs
}

// Load parses command line args, then the optional config file and the
// environment. Flags set explicitly win over the environment, which wins over
// the config file.
func Load(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		ConfigFile:    v.GetString("config"),
		CatalogFile:   v.GetString("catalog"),
		StageDwell:    v.GetDuration("stage-dwell"),
		ExerciseDwell: v.GetDuration("exercise-dwell"),
		LogFile:       v.GetString("log-file"),
		LogToStdout:   v.GetBool("log-stdout"),
		MetricsAddr:   v.GetString("metrics-addr"),
		UIStateFile:   v.GetString("ui-state-file"),
		Source:        v.GetString("source"),
		ReplayFile:    v.GetString("replay-file"),
		ReplayFPS:     v.GetInt("replay-fps"),
		ReplayLoop:    v.GetBool("replay-loop"),
		MockPort:      v.GetInt("mock-port"),
		MockFPS:       v.GetInt("mock-fps"),
		FrameWidth:    v.GetInt("frame-width"),
		FrameHeight:   v.GetInt("frame-height"),
		Headless:      v.GetBool("headless"),
		Exercise:      v.GetString("exercise"),
		Plan:          v.GetString("plan"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem of the config at once
func (c Config) Validate() error {
	var problems []string
	if c.StageDwell <= 0 {
		problems = append(problems, "stage-dwell must be positive")
	}
	if c.ExerciseDwell <= 0 {
		problems = append(problems, "exercise-dwell must be positive")
	}
	switch c.Source {
	case SourceMock:
		if c.MockFPS <= 0 {
			problems = append(problems, "mock-fps must be positive")
		}
		if c.MockPort < 0 || c.MockPort > 65535 {
			problems = append(problems, fmt.Sprintf("mock-port %d out of range", c.MockPort))
		}
	case SourceReplay:
		if c.ReplayFile == "" {
			problems = append(problems, "replay source needs replay-file")
		}
		if c.ReplayFPS <= 0 {
			problems = append(problems, "replay-fps must be positive")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown source %q", c.Source))
	}
	if c.FrameWidth < 0 || c.FrameHeight < 0 {
		problems = append(problems, "frame size cannot be negative")
	}
	if c.Exercise != "" && c.Plan != "" {
		problems = append(problems, "exercise and plan are mutually exclusive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
