package model

import (
	"encoding/json"
	"time"
)

// Document is one imported source record.
// This is a pure domain model with no database-specific dependencies or tags.
// Metadata and RawJSON are kept verbatim for audit and are never interpreted after import.
type Document struct {
	ID          string          `json:"id"`
	FileName    *string         `json:"fileName"`
	FilePath    *string         `json:"filePath"`
	FileSize    *int64          `json:"fileSize"`
	FileType    *string         `json:"fileType"`
	Status      *string         `json:"status"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RawJSON     json.RawMessage `json:"rawJson,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	ProcessedAt *time.Time      `json:"processedAt"`
}
