package simulation

import (
	"fmt"
	"math/rand"
	"time"

	"miniml-backend/core/models"
)

// Generator produces one prediction per tick. It can be replaced by a real
// inference client without touching the engine.
type Generator interface {
	Generate(now time.Time, rng *rand.Rand) models.Prediction
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(now time.Time, rng *rand.Rand) models.Prediction

// Generate calls f
func (f GeneratorFunc) Generate(now time.Time, rng *rand.Rand) models.Prediction {
	return f(now, rng)
}

const (
	// PassProbability is the chance a synthesized sample passes
	PassProbability = 0.8
	// CorrectProbability is the chance a synthesized verdict is correct
	CorrectProbability = 0.9
	// Threshold is the fixed reference confidence reported with every sample
	Threshold = 85
)

// RandomGenerator synthesizes quality-control telemetry:
// Pass with p=0.8, confidence uniform in [80,100], computation time uniform
// in [50,150] ms, threshold 85 and correct with p=0.9.
type RandomGenerator struct{}

// Generate implements Generator
func (RandomGenerator) Generate(now time.Time, rng *rand.Rand) models.Prediction {
	outcome := models.OutcomeFail
	if rng.Float64() < PassProbability {
		outcome = models.OutcomePass
	}

	return models.Prediction{
		Time:            now.Format("3:04 PM"),
		SampleID:        fmt.Sprintf("SAMPLE-%d", 100+rng.Intn(899)),
		Outcome:         outcome,
		Confidence:      80 + rng.Intn(21),
		ComputationTime: 50 + rng.Intn(101),
		Threshold:       Threshold,
		Correct:         rng.Float64() < CorrectProbability,
	}
}
