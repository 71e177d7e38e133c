package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/riya-shete/csv-analyzer/internal/dataset"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Report{}))
	return db
}

func TestReport_TableName(t *testing.T) {
	assert.Equal(t, "csv_reports", Report{}.TableName())
}

func TestReport_BeforeCreateGeneratesID(t *testing.T) {
	db := setupTestDB(t)

	report := &Report{OriginalFilename: "data.csv"}
	require.NoError(t, db.Create(report).Error)

	assert.Len(t, report.ID, 36)
	assert.False(t, report.CreatedAt.IsZero())
}

func TestReport_BeforeCreateKeepsExistingID(t *testing.T) {
	db := setupTestDB(t)

	report := &Report{ID: "preset-id", OriginalFilename: "data.csv"}
	require.NoError(t, db.Create(report).Error)
	assert.Equal(t, "preset-id", report.ID)
}

func TestReport_JSONColumnsRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	mean := 2.5
	unique := 2
	report := &Report{
		OriginalFilename: "data.csv",
		Columns:          []string{"n", "label"},
		RowCount:         2,
		PreviewData: []map[string]any{
			{"n": float64(1), "label": "a"},
			{"n": float64(4), "label": "b"},
		},
		ColumnStats: map[string]dataset.ColumnStats{
			"n": {DType: dataset.DTypeInt64, NonNullCount: 2, Mean: &mean},
			"label": {
				DType: dataset.DTypeObject, NonNullCount: 2,
				UniqueCount: &unique,
				TopValues: dataset.TopValues{
					{Value: "b", Count: 1},
					{Value: "a", Count: 1},
				},
			},
		},
		FollowUpAnswers: []FollowUpAnswer{
			{Question: "how many?", Answer: "two"},
		},
	}
	require.NoError(t, db.Create(report).Error)

	var loaded Report
	require.NoError(t, db.First(&loaded, "id = ?", report.ID).Error)

	assert.Equal(t, report.Columns, loaded.Columns)
	assert.Equal(t, report.PreviewData, loaded.PreviewData)
	assert.Equal(t, report.FollowUpAnswers, loaded.FollowUpAnswers)

	require.NotNil(t, loaded.ColumnStats["n"].Mean)
	assert.Equal(t, 2.5, *loaded.ColumnStats["n"].Mean)

	// Frequency ordering of top values survives the round trip.
	assert.Equal(t, report.ColumnStats["label"].TopValues, loaded.ColumnStats["label"].TopValues)
}
