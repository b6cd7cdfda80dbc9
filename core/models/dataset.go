package models

import "time"

// Dataset is the stored summary of one ingested CSV file plus its raw bytes
type Dataset struct {
	Filename          string
	FileSize          int64
	Rows              int
	Columns           int
	MissingPercentage float64
	UploadedAt        time.Time
	Content           []byte
}

// DatasetSummary is the wire form of a Dataset, without its content
type DatasetSummary struct {
	Filename      string `json:"filename"`
	FileSize      int64  `json:"file_size"`
	Rows          int    `json:"rows"`
	Columns       int    `json:"columns"`
	MissingValues string `json:"missing_values"` // e.g. "6.67%"
	UploadTime    string `json:"upload_time"`    // ISO-8601
}
