package trainer

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
)

type uiModelPersistenceData struct {
	LastExercise catalog.ExerciseID `json:"last_exercise,omitempty"`
	LastPlan     string             `json:"last_plan,omitempty"`
}

type uiModelPersistence struct {
	filePath string
	data     uiModelPersistenceData
	logger   *log.Logger
}

// DefaultUIStatePath is where the last selection is kept between runs
func DefaultUIStatePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".pose-trainer", "ui_state.json")
}

func newUIModelPersistence(logger *log.Logger, filePath string) *uiModelPersistence {
	if filePath == "" {
		filePath = DefaultUIStatePath()
	}
	p := &uiModelPersistence{
		filePath: filePath,
		logger:   logger,
	}
	p.load()
	return p
}

func (p *uiModelPersistence) getLastSelection() LastSelection {
	return LastSelection{Exercise: p.data.LastExercise, Plan: p.data.LastPlan}
}

func (p *uiModelPersistence) setLastSelection(sel LastSelection) {
	p.logger.Printf("UIModelPersistence: setLastSelection exercise=%q plan=%q", sel.Exercise, sel.Plan)
	p.data.LastExercise = sel.Exercise
	p.data.LastPlan = sel.Plan
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		p.data = uiModelPersistenceData{}
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> exercise=%q plan=%q", p.filePath, p.data.LastExercise, p.data.LastPlan)
}

func (p *uiModelPersistence) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: save %s", p.filePath)
}
