package handlers

import (
	"log"
	"net/http"

	"miniml-backend/core/broadcast"
	"miniml-backend/core/simulation"

	"github.com/gorilla/websocket"
)

// SimulationHandler handles simulation lifecycle and streaming requests
type SimulationHandler struct {
	engine   *simulation.Engine
	registry *broadcast.Registry
	upgrader websocket.Upgrader
}

// NewSimulationHandler creates a new simulation handler. checkOrigin decides
// which browser origins may open the stream; nil allows all.
func NewSimulationHandler(engine *simulation.Engine, registry *broadcast.Registry, checkOrigin func(r *http.Request) bool) *SimulationHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &SimulationHandler{
		engine:   engine,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin,
		},
	}
}

// StartSimulation handles POST /simulation/start
func (h *SimulationHandler) StartSimulation(w http.ResponseWriter, r *http.Request) {
	h.engine.Start()
	log.Println("Simulation started")
	writeSuccess(w, "Simulation started successfully", nil)
}

// StopSimulation handles POST /simulation/stop
func (h *SimulationHandler) StopSimulation(w http.ResponseWriter, r *http.Request) {
	h.engine.Stop()
	log.Println("Simulation stopped")
	writeSuccess(w, "Simulation stopped successfully", nil)
}

// GetSimulationStatus handles GET /simulation/status
func (h *SimulationHandler) GetSimulationStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "", h.engine.Status())
}

// GetPredictions handles GET /simulation/predictions
func (h *SimulationHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	predictions, stats := h.engine.Predictions()
	writeSuccess(w, "", map[string]interface{}{
		"predictions": predictions,
		"stats":       stats,
	})
}

// Stream handles GET /ws/simulation
func (h *SimulationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusBadRequest, "WebSocket upgrade required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	broadcast.ServeConn(h.registry, conn)
}
