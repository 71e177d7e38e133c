// Package services coordinates parsing, persistence, file storage and
// insight generation for CSV reports.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/riya-shete/csv-analyzer/internal/apperrors"
	"github.com/riya-shete/csv-analyzer/internal/dataset"
	"github.com/riya-shete/csv-analyzer/internal/llm"
	"github.com/riya-shete/csv-analyzer/internal/models"
	"github.com/riya-shete/csv-analyzer/internal/storage"
)

// listLimit is how many recent reports the list operation returns.
const listLimit = 5

// maxQuestionLength bounds follow-up questions.
const maxQuestionLength = 500

// Insighter is the capability the service needs from the insight
// generation layer. All methods follow the soft-failure contract: the
// returned string is stored as-is, whether it is model output or an
// explanatory failure message.
type Insighter interface {
	GenerateInsights(ctx context.Context, report *models.Report) string
	AnswerFollowUp(ctx context.Context, report *models.Report, question string) string
	CheckHealth(ctx context.Context) llm.Health
}

// SubsystemHealth is one subsystem's status in the health payload.
type SubsystemHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ReportService implements the report operation surface: upload,
// insight generation, follow-up, list, get, delete and health probes.
type ReportService struct {
	db            *gorm.DB
	store         *storage.Store
	parser        *dataset.Parser
	ai            Insighter
	maxUploadSize int64
	logger        *zap.Logger
}

// NewReportService creates a ReportService.
func NewReportService(db *gorm.DB, store *storage.Store, parser *dataset.Parser, ai Insighter, maxUploadSize int64, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		db:            db,
		store:         store,
		parser:        parser,
		ai:            ai,
		maxUploadSize: maxUploadSize,
		logger:        logger.Named("reports"),
	}
}

// Upload validates the uploaded file, parses it and persists a new
// report with the parser-derived fields attached. Validation and parse
// failures are returned before anything is persisted.
func (s *ReportService) Upload(ctx context.Context, filename string, size int64, file io.Reader) (*models.Report, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, apperrors.NewValidation("Invalid file type. Only CSV files are accepted.")
	}
	if size > s.maxUploadSize {
		return nil, apperrors.NewValidation("File too large. Maximum size is 10 MB.")
	}
	if size == 0 {
		return nil, apperrors.NewValidation("The uploaded file is empty.")
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	if int64(len(data)) > s.maxUploadSize {
		return nil, apperrors.NewValidation("File too large. Maximum size is 10 MB.")
	}

	result, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:               uuid.New().String(),
		OriginalFilename: filename,
		Columns:          result.Columns,
		RowCount:         result.RowCount,
		PreviewData:      result.PreviewData,
		ColumnStats:      result.ColumnStats,
		FollowUpAnswers:  []models.FollowUpAnswer{},
	}

	path, err := s.store.Save(report.ID, data)
	if err != nil {
		return nil, fmt.Errorf("store uploaded file: %w", err)
	}
	report.FilePath = path

	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		if removeErr := s.store.Remove(path); removeErr != nil {
			s.logger.Warn("could not clean up stored file after failed create",
				zap.String("path", path), zap.Error(removeErr))
		}
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.Info("report created",
		zap.String("report_id", report.ID),
		zap.String("filename", filename),
		zap.Int("rows", report.RowCount),
		zap.Int("columns", len(report.Columns)))

	return report, nil
}

// Get returns the full report.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	return &report, nil
}

// List returns the most recent reports, newest first, without preview
// data to keep the response small.
func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Select("id", "original_filename", "columns", "row_count", "created_at", "updated_at").
		Order("created_at DESC").
		Limit(listLimit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// GenerateInsights regenerates the insight text for a report,
// replacing any previous value.
func (s *ReportService) GenerateInsights(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report.Insights = s.ai.GenerateInsights(ctx, report)

	if err := s.db.WithContext(ctx).Model(report).Update("insights", report.Insights).Error; err != nil {
		return nil, fmt.Errorf("save insights: %w", err)
	}
	return report, nil
}

// AskFollowUp answers a question about the report's data and appends
// the question/answer pair to the report.
func (s *ReportService) AskFollowUp(ctx context.Context, id, question string) (*models.FollowUpAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.NewValidation("Question is required.")
	}
	if len(question) > maxQuestionLength {
		return nil, apperrors.NewValidation("Question is too long. Maximum length is 500 characters.")
	}

	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	answer := s.ai.AnswerFollowUp(ctx, report, question)
	pair := models.FollowUpAnswer{Question: question, Answer: answer}
	report.FollowUpAnswers = append(report.FollowUpAnswers, pair)

	if err := s.db.WithContext(ctx).Model(report).Update("follow_up_answers", report.FollowUpAnswers).Error; err != nil {
		return nil, fmt.Errorf("save follow-up answer: %w", err)
	}
	return &pair, nil
}

// Delete removes the stored raw file and the report record. A raw file
// that has already vanished does not block deletion.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Remove(report.FilePath); err != nil {
		s.logger.Warn("could not remove stored file",
			zap.String("report_id", id), zap.Error(err))
	}

	if err := s.db.WithContext(ctx).Delete(report).Error; err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.logger.Info("report deleted", zap.String("report_id", id))
	return nil
}

// DatabaseHealth probes the database with a trivial round trip and a
// report count.
func (s *ReportService) DatabaseHealth(ctx context.Context) SubsystemHealth {
	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return SubsystemHealth{Status: "error", Detail: fmt.Sprintf("Database error: %v", err)}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Count(&count).Error; err != nil {
		return SubsystemHealth{Status: "error", Detail: fmt.Sprintf("Database error: %v", err)}
	}

	return SubsystemHealth{
		Status: "healthy",
		Detail: fmt.Sprintf("Connected. %d reports stored.", count),
	}
}

// LLMHealth probes the insight provider.
func (s *ReportService) LLMHealth(ctx context.Context) SubsystemHealth {
	h := s.ai.CheckHealth(ctx)
	return SubsystemHealth{Status: h.Status, Detail: h.Detail}
}
