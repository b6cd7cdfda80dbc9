package routes

import (
	"net/http"

	"miniml-backend/api/rest/handlers"
	"miniml-backend/core/broadcast"
	"miniml-backend/core/catalog"
	"miniml-backend/core/monitoring"
	"miniml-backend/core/simulation"
	"miniml-backend/core/training"

	"github.com/gorilla/mux"
)

// Dependencies are the long-lived components the API is served from
type Dependencies struct {
	Catalog        *catalog.Catalog
	Session        *training.Session
	Engine         *simulation.Engine
	Registry       *broadcast.Registry
	Metrics        *monitoring.MetricsExporter
	Archive        handlers.DatasetArchive // optional
	MaxUploadBytes int64
	AllowedOrigins []string
}

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, deps Dependencies) {
	systemHandler := handlers.NewSystemHandler(deps.Metrics)
	fileHandler := handlers.NewFileHandler(deps.Catalog, deps.Archive, deps.MaxUploadBytes)
	trainingHandler := handlers.NewTrainingHandler(deps.Session)
	simulationHandler := handlers.NewSimulationHandler(deps.Engine, deps.Registry, originChecker(deps.AllowedOrigins))

	r.HandleFunc("/", systemHandler.Root).Methods("GET")
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/metrics", systemHandler.Metrics).Methods("GET")

	// Dataset endpoints
	r.HandleFunc("/upload", fileHandler.Upload).Methods("POST")
	r.HandleFunc("/files", fileHandler.ListFiles).Methods("GET")
	r.HandleFunc("/files/{filename}", fileHandler.DeleteFile).Methods("DELETE")

	// Training endpoints
	r.HandleFunc("/date-ranges", trainingHandler.SaveDateRanges).Methods("POST")
	r.HandleFunc("/date-ranges", trainingHandler.GetDateRanges).Methods("GET")
	r.HandleFunc("/start-training", trainingHandler.StartTraining).Methods("POST")
	r.HandleFunc("/training-complete", trainingHandler.CompleteTraining).Methods("POST")
	r.HandleFunc("/stop-training", trainingHandler.StopTraining).Methods("POST")
	r.HandleFunc("/training-status", trainingHandler.GetTrainingStatus).Methods("GET")

	// Simulation endpoints
	sim := r.PathPrefix("/simulation").Subrouter()
	sim.HandleFunc("/start", simulationHandler.StartSimulation).Methods("POST")
	sim.HandleFunc("/stop", simulationHandler.StopSimulation).Methods("POST")
	sim.HandleFunc("/status", simulationHandler.GetSimulationStatus).Methods("GET")
	sim.HandleFunc("/predictions", simulationHandler.GetPredictions).Methods("GET")

	r.HandleFunc("/ws/simulation", simulationHandler.Stream)
}

// WithCORS answers preflight requests and sets CORS headers for the allowed
// origins. It wraps the whole router so OPTIONS requests never reach route
// method matching.
func WithCORS(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := originChecker(allowedOrigins)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed(r) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// originChecker accepts requests without an Origin header and requests from
// one of the listed origins. An empty list accepts everything.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}
