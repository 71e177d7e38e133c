package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riya-shete/csv-analyzer/internal/dataset"
)

// FollowUpAnswer is one question/answer pair attached to a report.
type FollowUpAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Report stores an uploaded CSV file along with its parsed data and AI
// insights. Parsed fields are serialized as JSON columns so the same
// model works on SQLite and PostgreSQL.
type Report struct {
	ID               string `json:"id" gorm:"type:varchar(36);primaryKey"`
	OriginalFilename string `json:"original_filename" gorm:"type:varchar(255);not null"`
	FilePath         string `json:"file" gorm:"type:varchar(512)"`

	// Parsed data
	Columns     []string                       `json:"columns" gorm:"serializer:json"`
	RowCount    int                            `json:"row_count" gorm:"default:0"`
	PreviewData []map[string]any               `json:"preview_data" gorm:"serializer:json"`
	ColumnStats map[string]dataset.ColumnStats `json:"column_stats" gorm:"serializer:json"`

	// AI-generated content
	Insights        string           `json:"insights" gorm:"type:text"`
	FollowUpAnswers []FollowUpAnswer `json:"follow_up_answers" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the Report model.
func (Report) TableName() string {
	return "csv_reports"
}

// BeforeCreate generates the report identifier.
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
