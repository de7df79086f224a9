package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/config"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/logging"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/metrics"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/trainer"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pose-trainer: %v\n", err)
		os.Exit(2)
	}

	uiLogChan := make(chan string, 1000)
	logger, logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName: cfg.LogFile,
		LogToStdout: cfg.LogToStdout || cfg.Headless,
		UILogChan:   uiLogChan,
	})
	defer logCloser.Close()

	if err := run(cfg, logger, uiLogChan); err != nil {
		logger.Printf("Main: %v", err)
		fmt.Fprintf(os.Stderr, "pose-trainer: %v\n", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger, uiLogChan chan string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	logger.Printf("Main: Catalog loaded with %d exercises and %d plans", len(cat.Exercises()), len(cat.Plans()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metricsManager := metrics.NewManager("pose_trainer", "session", reg)
	if cfg.MetricsAddr != "" {
		metricsServer := metrics.NewServer(cfg.MetricsAddr, reg, logger)
		metricsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	source := newPoseSource(cfg, logger)
	if err := source.Start(); err != nil {
		return fmt.Errorf("start pose source: %w", err)
	}
	defer source.Shutdown()

	model := trainer.NewUIModel(cat, logger, uiLogChan, cfg.UIStateFile)
	defer model.Shutdown()

	sessionManager := trainer.NewSessionManager(trainer.SessionManagerArgs{
		Model:   model,
		Source:  source,
		Catalog: cat,
		Metrics: metricsManager,
		Config: trainer.SessionConfig{
			StageDwell:    cfg.StageDwell,
			ExerciseDwell: cfg.ExerciseDwell,
		},
		Logger: logger,
	})
	controller := trainer.NewUIController(model, sessionManager, logger)
	defer controller.Shutdown()

	started := startInitialSelection(cfg, controller)

	if cfg.Headless {
		runHeadless(ctx, model, logger)
		return nil
	}

	if started {
		model.SetMode(trainer.UIModeCoachingDashboard)
	}

	app := tview.NewApplication()
	view := trainer.NewBaseUIView(trainer.NewBaseUIViewArg{
		UIViewImpl:   trainer.NewCursesUIView(logger, app, model),
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})
	defer view.Shutdown()

	go func() {
		<-ctx.Done()
		model.RequestCloseApplication()
	}()

	return view.Run()
}

func newPoseSource(cfg config.Config, logger *log.Logger) trainer.PoseSource {
	if cfg.Source == config.SourceReplay {
		return trainer.NewReplayPoseSource(logger, trainer.ReplayPoseSourceConfig{
			Path:   cfg.ReplayFile,
			FPS:    cfg.ReplayFPS,
			Loop:   cfg.ReplayLoop,
			Width:  cfg.FrameWidth,
			Height: cfg.FrameHeight,
		})
	}
	return trainer.NewMockPoseSource(logger, trainer.MockPoseSourceConfig{
		ServerPort: cfg.MockPort,
		FPS:        cfg.MockFPS,
		Width:      cfg.FrameWidth,
		Height:     cfg.FrameHeight,
	})
}

// startInitialSelection applies --exercise or --plan, falling back to the
// selection of the previous run. Returns true if a session is running.
func startInitialSelection(cfg config.Config, controller *trainer.UIController) bool {
	switch {
	case cfg.Exercise != "":
		return controller.SelectExercise(catalog.ExerciseID(cfg.Exercise))
	case cfg.Plan != "":
		return controller.StartPlan(cfg.Plan)
	default:
		return controller.RestoreLastSelection()
	}
}

// runHeadless logs a summary of the session every few seconds until ctx is done
func runHeadless(ctx context.Context, model *trainer.UIModel, logger *log.Logger) {
	logger.Printf("Main: Running headless, press Ctrl+C to stop")

	closeChan := make(chan struct{}, 1)
	unregister := model.ListenToCloseApplication(closeChan)
	defer unregister()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closeChan:
			return
		case <-ticker.C:
			state := model.GetSessionState()
			if !state.HasExercise() {
				logger.Printf("Main: No exercise selected")
				continue
			}
			res := state.LastResult
			if res.NoPose {
				logger.Printf("Main: %s stage %d/%d, no person detected", state.ExerciseName, state.Stage+1, state.StageCount)
				continue
			}
			logger.Printf("Main: %s stage %d/%d, score %d (%s) %s", state.ExerciseName, state.Stage+1, state.StageCount,
				res.Score, res.Band, strings.Join(res.Messages(), "; "))
		}
	}
}
