package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is the relayed ingestion-pipeline state for one document. Jobs
// live in an in-memory registry keyed by document id; the database row
// remains the durable source of truth. OrgID scopes visibility and is
// never serialized.
type Job struct {
	DocumentID   int64          `json:"document_id"`
	OrgID        *uuid.UUID     `json:"-"`
	Name         string         `json:"name"`
	FilePath     string         `json:"file_path"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
