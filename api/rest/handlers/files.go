package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"miniml-backend/core/catalog"
	"miniml-backend/core/ingest"
	"miniml-backend/core/models"

	"github.com/gorilla/mux"
)

// DatasetArchive stores a copy of raw uploads outside the process
type DatasetArchive interface {
	Put(ctx context.Context, filename string, content []byte) error
	Delete(ctx context.Context, filename string) error
}

// FileHandler handles dataset upload requests
type FileHandler struct {
	catalog        *catalog.Catalog
	archive        DatasetArchive
	maxUploadBytes int64
}

// NewFileHandler creates a new file handler. archive may be nil.
func NewFileHandler(catalog *catalog.Catalog, archive DatasetArchive, maxUploadBytes int64) *FileHandler {
	return &FileHandler{
		catalog:        catalog,
		archive:        archive,
		maxUploadBytes: maxUploadBytes,
	}
}

// Summarize converts a dataset to its wire form
func Summarize(ds *models.Dataset) models.DatasetSummary {
	return models.DatasetSummary{
		Filename:      ds.Filename,
		FileSize:      ds.FileSize,
		Rows:          ds.Rows,
		Columns:       ds.Columns,
		MissingValues: ingest.FormatPercentage(ds.MissingPercentage),
		UploadTime:    ds.UploadedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Upload handles POST /upload
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr), strings.Contains(err.Error(), "request body too large"):
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte limit", h.maxUploadBytes))
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "File is required")
		default:
			writeError(w, http.StatusBadRequest, "Invalid form data")
		}
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		writeError(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, "File is empty")
		return
	}

	stats, err := ingest.Parse(content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error processing file: "+err.Error())
		return
	}

	ds := &models.Dataset{
		Filename:          filename,
		FileSize:          int64(len(content)),
		Rows:              stats.Rows,
		Columns:           stats.Columns,
		MissingPercentage: stats.MissingPercentage,
		UploadedAt:        time.Now().UTC(),
		Content:           content,
	}

	if err := h.catalog.Store(r.Context(), ds); err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}

	if h.archive != nil {
		if err := h.archive.Put(r.Context(), ds.Filename, ds.Content); err != nil {
			log.Printf("Failed to archive dataset %s: %v", ds.Filename, err)
		}
	}

	log.Printf("Ingested %s: %d rows, %d columns, %s missing", ds.Filename, ds.Rows, ds.Columns, ingest.FormatPercentage(ds.MissingPercentage))
	writeSuccess(w, "File uploaded successfully", Summarize(ds))
}

// ListFiles handles GET /files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	datasets := h.catalog.List()

	files := make([]models.DatasetSummary, len(datasets))
	for i, ds := range datasets {
		files[i] = Summarize(ds)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
	})
}

// DeleteFile handles DELETE /files/{filename}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	found, err := h.catalog.Delete(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting file: "+err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	if h.archive != nil {
		if err := h.archive.Delete(r.Context(), filename); err != nil {
			log.Printf("Failed to delete archived dataset %s: %v", filename, err)
		}
	}

	writeSuccess(w, fmt.Sprintf("File %s deleted successfully", filename), nil)
}
