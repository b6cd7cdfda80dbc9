package handlers

import (
	"encoding/json"
	"net/http"

	"miniml-backend/core/models"
	"miniml-backend/core/training"
)

// TrainingHandler handles training lifecycle and date-range requests
type TrainingHandler struct {
	session *training.Session
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(session *training.Session) *TrainingHandler {
	return &TrainingHandler{session: session}
}

// DateRangesRequest represents the request to save date ranges
type DateRangesRequest struct {
	Training   models.Record `json:"training"`
	Testing    models.Record `json:"testing"`
	Simulation models.Record `json:"simulation"`
}

// TrainingCompleteRequest represents a training completion report. Both
// training_data and trainingData are accepted.
type TrainingCompleteRequest struct {
	Metrics           map[string]float64 `json:"metrics"`
	TrainingData      []models.Record    `json:"training_data"`
	TrainingDataCamel []models.Record    `json:"trainingData"`
}

// SaveDateRanges handles POST /date-ranges
func (h *TrainingHandler) SaveDateRanges(w http.ResponseWriter, r *http.Request) {
	var req *DateRangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	if req == nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	saved := h.session.SaveDateRanges(orEmpty(req.Training), orEmpty(req.Testing), orEmpty(req.Simulation))
	writeSuccess(w, "Date ranges saved successfully", saved)
}

// orEmpty substitutes an empty record for an omitted one
func orEmpty(r models.Record) models.Record {
	if r == nil {
		return models.Record{}
	}
	return r
}

// GetDateRanges handles GET /date-ranges
func (h *TrainingHandler) GetDateRanges(w http.ResponseWriter, r *http.Request) {
	var data interface{} = map[string]interface{}{}
	if ranges, ok := h.session.DateRanges(); ok {
		data = ranges
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// StartTraining handles POST /start-training
func (h *TrainingHandler) StartTraining(w http.ResponseWriter, r *http.Request) {
	h.session.Start()
	writeSuccess(w, "Training started successfully", nil)
}

// CompleteTraining handles POST /training-complete
func (h *TrainingHandler) CompleteTraining(w http.ResponseWriter, r *http.Request) {
	var req *TrainingCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	if req == nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	trainingData := req.TrainingData
	if trainingData == nil {
		trainingData = req.TrainingDataCamel
	}

	state := h.session.Complete(req.Metrics, trainingData)
	writeSuccess(w, "Training completed successfully", map[string]interface{}{
		"metrics":       state.Metrics,
		"training_data": state.TrainingData,
	})
}

// StopTraining handles POST /stop-training
func (h *TrainingHandler) StopTraining(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()
	writeSuccess(w, "Training stopped successfully", nil)
}

// GetTrainingStatus handles GET /training-status
func (h *TrainingHandler) GetTrainingStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "", h.session.Status())
}
