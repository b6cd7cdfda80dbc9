package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"miniml-backend/core/catalog"
	"miniml-backend/core/models"

	"github.com/gorilla/mux"
)

func TestSummarize(t *testing.T) {
	ds := &models.Dataset{
		Filename:          "a.csv",
		FileSize:          42,
		Rows:              10,
		Columns:           3,
		MissingPercentage: 200.0 / 30.0,
		UploadedAt:        time.Date(2024, 2, 3, 4, 5, 6, 700000000, time.UTC),
	}

	got := Summarize(ds)
	if got.MissingValues != "6.67%" {
		t.Fatalf("unexpected missing_values %q", got.MissingValues)
	}
	if got.UploadTime != "2024-02-03T04:05:06.7Z" {
		t.Fatalf("unexpected upload_time %q", got.UploadTime)
	}
}

func TestDeleteFileNotFound(t *testing.T) {
	c := catalog.New(nil)
	_ = c.Store(context.Background(), &models.Dataset{Filename: "keep.csv"})
	h := NewFileHandler(c, nil, 1024)

	req := httptest.NewRequest(http.MethodDelete, "/files/other.csv", nil)
	req = mux.SetURLVars(req, map[string]string{"filename": "other.csv"})
	rec := httptest.NewRecorder()
	h.DeleteFile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["detail"] != "File not found" {
		t.Fatalf("unexpected detail %q", body["detail"])
	}
	if c.Len() != 1 {
		t.Fatal("catalog must be unchanged")
	}
}
