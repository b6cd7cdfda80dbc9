package models

import "time"

// Outcome is the verdict of a single prediction
type Outcome string

const (
	OutcomePass Outcome = "Pass"
	OutcomeFail Outcome = "Fail"
)

// Prediction is one synthesized quality-control sample. Immutable once created.
type Prediction struct {
	Time            string  `json:"time"` // display label, e.g. "3:04 PM"
	SampleID        string  `json:"sample_id"`
	Outcome         Outcome `json:"prediction"`
	Confidence      int     `json:"confidence"`       // 0 - 100
	ComputationTime int     `json:"computation_time"` // milliseconds
	Threshold       int     `json:"threshold"`
	Correct         bool    `json:"correct"`
}

// SimulationStats aggregates the predictions of the current run
type SimulationStats struct {
	TotalPredictions int `json:"total_predictions"`
	OutOfRange       int `json:"out_of_range"`
	Accuracy         int `json:"accuracy"`
}

// SimulationState is the single process-wide simulation session record
type SimulationState struct {
	IsRunning   bool            `json:"is_running"`
	Predictions []Prediction    `json:"predictions"`
	Stats       SimulationStats `json:"stats"`
	StartedAt   *time.Time      `json:"started_at"`
	StoppedAt   *time.Time      `json:"stopped_at"`
}
