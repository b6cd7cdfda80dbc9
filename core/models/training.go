package models

import "time"

// TrainingState is the single process-wide training session record
type TrainingState struct {
	IsTraining   bool               `json:"is_training"`
	Progress     int                `json:"progress"` // 0 - 100
	Metrics      map[string]float64 `json:"metrics"`
	TrainingData []Record           `json:"training_data"`
	StartedAt    *time.Time         `json:"started_at"`
	CompletedAt  *time.Time         `json:"completed_at"`
	StoppedAt    *time.Time         `json:"stopped_at"`
}

// TrainingPhase is the derived state-machine view of a TrainingState
type TrainingPhase string

const (
	TrainingPhaseIdle      TrainingPhase = "idle"
	TrainingPhaseTraining  TrainingPhase = "training"
	TrainingPhaseCompleted TrainingPhase = "completed"
	TrainingPhaseStopped   TrainingPhase = "stopped"
)

// Phase reports which lifecycle state the record currently represents.
// Completed and Stopped are distinguished by whichever happened last.
func (s TrainingState) Phase() TrainingPhase {
	switch {
	case s.IsTraining:
		return TrainingPhaseTraining
	case s.CompletedAt != nil && (s.StoppedAt == nil || !s.StoppedAt.After(*s.CompletedAt)):
		return TrainingPhaseCompleted
	case s.StoppedAt != nil:
		return TrainingPhaseStopped
	default:
		return TrainingPhaseIdle
	}
}
