package models

import "time"

// Record is an open key/value record passed through without validation.
// Values are whatever encoding/json produces: float64, string, bool, nil,
// []interface{} and map[string]interface{}.
type Record map[string]interface{}

// DateRanges holds the last saved training/testing/simulation windows
type DateRanges struct {
	Training   Record    `json:"training"`
	Testing    Record    `json:"testing"`
	Simulation Record    `json:"simulation"`
	SavedAt    time.Time `json:"saved_at"`
}
