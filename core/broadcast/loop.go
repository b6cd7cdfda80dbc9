package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"miniml-backend/core/models"
	"miniml-backend/core/simulation"
)

// DefaultPeriod is the interval between two ticks
const DefaultPeriod = 2 * time.Second

// Envelope is the message pushed to subscribers on every tick
type Envelope struct {
	Type  simulation.EventType    `json:"type"`
	Data  interface{}             `json:"data"`
	Stats *models.SimulationStats `json:"stats,omitempty"`
}

// NewEnvelope wraps a tick result
func NewEnvelope(ev simulation.Event) Envelope {
	if ev.Type == simulation.EventPrediction {
		stats := ev.Stats
		return Envelope{Type: ev.Type, Data: ev.Prediction, Stats: &stats}
	}
	return Envelope{Type: simulation.EventStatus, Data: ev.State}
}

// Loop ticks the simulation engine on a fixed period and broadcasts each
// result. Only one Loop should run per engine.
type Loop struct {
	engine   *simulation.Engine
	registry *Registry
	period   time.Duration
	rng      *rand.Rand
}

// NewLoop creates a broadcast loop. A non-positive period uses DefaultPeriod.
func NewLoop(engine *simulation.Engine, registry *Registry, period time.Duration, rng *rand.Rand) *Loop {
	if period <= 0 {
		period = DefaultPeriod
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Loop{
		engine:   engine,
		registry: registry,
		period:   period,
		rng:      rng,
	}
}

// Start runs until ctx is cancelled. Pending sends are abandoned on exit.
func (l *Loop) Start(ctx context.Context) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Step(ctx); err != nil {
				log.Printf("Broadcast tick failed: %v", err)
			}
		}
	}
}

// Step performs a single tick: advance, encode, broadcast
func (l *Loop) Step(ctx context.Context) error {
	ev := l.engine.Tick(l.rng)

	msg, err := json.Marshal(NewEnvelope(ev))
	if err != nil {
		return fmt.Errorf("failed to encode %s envelope: %w", ev.Type, err)
	}

	l.registry.Broadcast(ctx, msg)
	return nil
}
