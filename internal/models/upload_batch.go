package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UploadBatch is one CSV upload as seen from this side: what was sent, what
// the backend made of it, and the rows it refused.
type UploadBatch struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Filename          string         `json:"filename"`
	Outcome           string         `gorm:"index" json:"outcome"`
	Message           string         `json:"message"`
	TransactionsSaved int            `json:"transactions_saved"`
	DuplicateCount    int            `json:"duplicate_count"`
	SchemaErrorCount  int            `json:"schema_error_count"`
	ErrorRows         datatypes.JSON `json:"-"`
	StartedAt         time.Time      `json:"started_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
}

func (b *UploadBatch) SetRecords(records []ErrorReportRecord) error {
	if len(records) == 0 {
		b.ErrorRows = nil
		return nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode error rows: %w", err)
	}
	b.ErrorRows = datatypes.JSON(data)
	return nil
}

func (b *UploadBatch) Records() ([]ErrorReportRecord, error) {
	if len(b.ErrorRows) == 0 {
		return nil, nil
	}
	var records []ErrorReportRecord
	if err := json.Unmarshal(b.ErrorRows, &records); err != nil {
		return nil, fmt.Errorf("decode error rows: %w", err)
	}
	return records, nil
}
