// Package training tracks the single training session and the saved
// date-range windows that feed it.
package training

import (
	"sync"
	"time"

	"miniml-backend/core/models"
)

// Session is the process-wide training state machine. Transitions are
// last-writer-wins; nothing is queued or rejected.
type Session struct {
	mu         sync.RWMutex
	state      models.TrainingState
	dateRanges *models.DateRanges
	now        func() time.Time
}

// NewSession creates an idle session
func NewSession() *Session {
	return &Session{
		state: models.TrainingState{TrainingData: []models.Record{}},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Start marks the session as training from progress 0. Previous metrics and
// training data are kept until the next completion.
func (s *Session) Start() models.TrainingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.state.IsTraining = true
	s.state.Progress = 0
	s.state.StartedAt = &now
	return s.snapshotLocked()
}

// Complete records the reported metrics and epoch data verbatim. It is
// accepted from any state.
func (s *Session) Complete(metrics map[string]float64, trainingData []models.Record) models.TrainingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trainingData == nil {
		trainingData = []models.Record{}
	}

	now := s.now()
	s.state.IsTraining = false
	s.state.Progress = 100
	s.state.Metrics = metrics
	s.state.TrainingData = trainingData
	s.state.CompletedAt = &now
	return s.snapshotLocked()
}

// Stop ends training without touching progress or metrics
func (s *Session) Stop() models.TrainingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.state.IsTraining = false
	s.state.StoppedAt = &now
	return s.snapshotLocked()
}

// Status returns a copy of the current record
func (s *Session) Status() models.TrainingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SaveDateRanges replaces the saved date ranges
func (s *Session) SaveDateRanges(training, testing, simulation models.Record) models.DateRanges {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dateRanges = &models.DateRanges{
		Training:   training,
		Testing:    testing,
		Simulation: simulation,
		SavedAt:    s.now(),
	}
	return *s.dateRanges
}

// DateRanges returns the last saved ranges, or false if none were saved
func (s *Session) DateRanges() (models.DateRanges, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dateRanges == nil {
		return models.DateRanges{}, false
	}
	return *s.dateRanges, true
}

func (s *Session) snapshotLocked() models.TrainingState {
	out := s.state
	if s.state.Metrics != nil {
		out.Metrics = make(map[string]float64, len(s.state.Metrics))
		for k, v := range s.state.Metrics {
			out.Metrics[k] = v
		}
	}
	out.TrainingData = append([]models.Record(nil), s.state.TrainingData...)
	if out.TrainingData == nil {
		out.TrainingData = []models.Record{}
	}
	return out
}
