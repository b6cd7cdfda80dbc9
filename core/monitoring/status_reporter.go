package monitoring

import (
	"fmt"
	"log"

	"miniml-backend/core/broadcast"
	"miniml-backend/core/catalog"
	"miniml-backend/core/simulation"
	"miniml-backend/core/training"

	"github.com/robfig/cron/v3"
)

// StatusReporter periodically logs a one-line summary of service state
type StatusReporter struct {
	catalog  *catalog.Catalog
	session  *training.Session
	engine   *simulation.Engine
	registry *broadcast.Registry
	cron     *cron.Cron
}

// NewStatusReporter creates a status reporter
func NewStatusReporter(
	catalog *catalog.Catalog,
	session *training.Session,
	engine *simulation.Engine,
	registry *broadcast.Registry,
) *StatusReporter {
	return &StatusReporter{
		catalog:  catalog,
		session:  session,
		engine:   engine,
		registry: registry,
	}
}

// Start schedules the report. schedule is a standard 5-field cron expression
// or a descriptor such as "@every 1m".
func (sr *StatusReporter) Start(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(schedule, func() { log.Println(sr.Summary()) }); err != nil {
		return fmt.Errorf("invalid status report schedule %q: %w", schedule, err)
	}

	sr.cron = c
	c.Start()
	log.Printf("Status report scheduled (cron: %s)", schedule)
	return nil
}

// Stop cancels future reports and waits for a running one to finish
func (sr *StatusReporter) Stop() {
	if sr.cron == nil {
		return
	}
	<-sr.cron.Stop().Done()
}

// Summary renders the current state as a single log line
func (sr *StatusReporter) Summary() string {
	stats := sr.engine.Stats()
	state := sr.session.Status()
	return fmt.Sprintf(
		"status: subscribers=%d datasets=%d simulation_running=%t predictions=%d out_of_range=%d accuracy=%d%% training=%s progress=%d%%",
		sr.registry.Len(),
		sr.catalog.Len(),
		sr.engine.Running(),
		stats.TotalPredictions,
		stats.OutOfRange,
		stats.Accuracy,
		state.Phase(),
		state.Progress,
	)
}
