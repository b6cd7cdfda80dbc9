// Package simulation holds the simulation session and advances it one
// synthesized prediction per tick.
package simulation

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"miniml-backend/core/models"
)

// DefaultMaxPredictions bounds the retained prediction history
const DefaultMaxPredictions = 1000

// EventType distinguishes the two kinds of tick result
type EventType string

const (
	EventPrediction EventType = "prediction"
	EventStatus     EventType = "status"
)

// Event is the result of one tick. Prediction and Stats are set for
// EventPrediction; State is set for EventStatus.
type Event struct {
	Type       EventType
	Prediction *models.Prediction
	Stats      models.SimulationStats
	State      *models.SimulationState
}

// Engine owns the simulation state
type Engine struct {
	mu             sync.RWMutex
	running        bool
	predictions    []models.Prediction
	stats          models.SimulationStats
	correct        int
	startedAt      *time.Time
	stoppedAt      *time.Time
	maxPredictions int
	generator      Generator
	now            func() time.Time
}

// NewEngine creates a stopped engine. maxPredictions caps the retained
// history (0 keeps everything); stats always cover the whole run.
func NewEngine(generator Generator, maxPredictions int) *Engine {
	if generator == nil {
		generator = RandomGenerator{}
	}
	if maxPredictions < 0 {
		maxPredictions = 0
	}
	return &Engine{
		predictions:    []models.Prediction{},
		maxPredictions: maxPredictions,
		generator:      generator,
		now:            time.Now,
	}
}

// Start begins a fresh run, discarding previous predictions and stats
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC()
	e.running = true
	e.predictions = []models.Prediction{}
	e.stats = models.SimulationStats{}
	e.correct = 0
	e.startedAt = &now
}

// Stop halts the run; predictions and stats are retained
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC()
	e.running = false
	e.stoppedAt = &now
}

// Running reports whether a run is in progress
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Status returns a snapshot of the whole simulation state
func (e *Engine) Status() models.SimulationState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// Predictions returns the retained predictions, oldest first, and the stats.
// The stats count every prediction since the last Start, so once the history
// cap is reached they cover more than the returned slice.
func (e *Engine) Predictions() ([]models.Prediction, models.SimulationStats) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Prediction{}, e.predictions...), e.stats
}

// Stats returns the current aggregate stats
func (e *Engine) Stats() models.SimulationStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Tick advances the simulation by one step. While stopped it only reports
// the current state.
func (e *Engine) Tick(rng *rand.Rand) Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		state := e.snapshotLocked()
		return Event{Type: EventStatus, Stats: state.Stats, State: &state}
	}

	p := e.generator.Generate(e.now(), rng)
	e.predictions = append(e.predictions, p)
	if e.maxPredictions > 0 && len(e.predictions) > e.maxPredictions {
		trimmed := make([]models.Prediction, e.maxPredictions)
		copy(trimmed, e.predictions[len(e.predictions)-e.maxPredictions:])
		e.predictions = trimmed
	}

	e.stats.TotalPredictions++
	if p.Outcome == models.OutcomeFail {
		e.stats.OutOfRange++
	}
	if p.Correct {
		e.correct++
	}
	e.stats.Accuracy = accuracy(e.correct, e.stats.TotalPredictions)

	return Event{Type: EventPrediction, Prediction: &p, Stats: e.stats}
}

// accuracy is round(100*correct/total), half to even, or 0 with no samples
func accuracy(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(correct) / float64(total) * 100.0))
}

func (e *Engine) snapshotLocked() models.SimulationState {
	return models.SimulationState{
		IsRunning:   e.running,
		Predictions: append([]models.Prediction{}, e.predictions...),
		Stats:       e.stats,
		StartedAt:   e.startedAt,
		StoppedAt:   e.stoppedAt,
	}
}
