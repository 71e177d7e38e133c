package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/riya-shete/csv-analyzer/internal/config"
	"github.com/riya-shete/csv-analyzer/internal/dataset"
	"github.com/riya-shete/csv-analyzer/internal/models"
)

const insightsSystemMsg = "You are a helpful data analyst. Provide clear, actionable insights from CSV data."

const followUpSystemMsg = "You are a helpful data analyst. Answer questions about CSV data accurately and concisely."

const insightsPromptTemplate = `You are a data analyst. Analyze this CSV dataset and provide a concise insights report.

**Dataset:** %s
**Rows:** %d
**Columns:** %s

**Column Statistics:**
%s

Provide your analysis in this format:

## Data Overview
Brief summary of the dataset.

## Key Trends
- List 3-5 notable patterns or trends

## Outliers & Anomalies
- Any unusual values or patterns worth investigating

## What to Check Next
- 2-3 recommended follow-up analyses

## Quick Recommendations
- 2-3 actionable suggestions based on the data

Keep it concise and actionable. Use bullet points. Do not use any emojis.`

const followUpPromptTemplate = `You are a data analyst. A user uploaded a CSV file and has a follow-up question.

**Dataset:** %s
**Rows:** %d
**Columns:** %s

**Column Statistics:**
%s

**Previous Insights:**
%s

**User Question:** %s

Answer concisely and specifically based on the data available.`

// insightsContextLimit caps how much prior insight text is carried into
// a follow-up prompt.
const insightsContextLimit = 500

// Health is the result of probing the provider.
type Health struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// Generator builds prompts from report statistics and turns provider
// results or failures into the text stored on the report. Provider
// failures are soft: they become the content of the insights/answer
// field, never an error for the caller.
type Generator struct {
	completer Completer
	cfg       config.LLMConfig
	logger    *zap.Logger
}

// NewGenerator creates a Generator. When no API key is configured the
// generator is still usable and short-circuits every call with an
// advisory message.
func NewGenerator(cfg config.LLMConfig, logger *zap.Logger) (*Generator, error) {
	var completer Completer
	if cfg.APIKey != "" {
		client, err := NewClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		completer = client
	}
	return NewGeneratorWithCompleter(cfg, completer, logger), nil
}

// NewGeneratorWithCompleter creates a Generator around an explicit
// Completer. A nil completer means "no provider credential configured".
func NewGeneratorWithCompleter(cfg config.LLMConfig, completer Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		completer: completer,
		cfg:       cfg,
		logger:    logger.Named("insights"),
	}
}

// GenerateInsights produces the structured insight report text for a
// parsed dataset.
func (g *Generator) GenerateInsights(ctx context.Context, report *models.Report) string {
	if g.completer == nil {
		return "OpenRouter API key not configured. Please set OPENROUTER_API_KEY in your environment."
	}

	prompt := fmt.Sprintf(insightsPromptTemplate,
		report.OriginalFilename,
		report.RowCount,
		strings.Join(report.Columns, ", "),
		BuildDigest(report.Columns, report.ColumnStats))

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, insightsSystemMsg, prompt, insightsMaxTokens)
	switch {
	case err == nil:
		return text
	case errors.Is(err, ErrNoChoices):
		g.logger.Error("unexpected provider response", zap.String("report_id", report.ID))
		return "Failed to generate insights. Unexpected response from the AI model."
	case isTimeout(err):
		g.logger.Error("provider timeout", zap.String("report_id", report.ID))
		return "The AI service timed out. Please try again."
	default:
		g.logger.Error("provider error", zap.String("report_id", report.ID), zap.Error(err))
		return fmt.Sprintf("Failed to connect to AI service: %v", err)
	}
}

// AnswerFollowUp answers a free-text question about the dataset,
// grounded in the stats digest and any previously generated insights.
func (g *Generator) AnswerFollowUp(ctx context.Context, report *models.Report, question string) string {
	if g.completer == nil {
		return "OpenRouter API key not configured."
	}

	previous := "Not yet generated."
	if report.Insights != "" {
		previous = report.Insights
		if len(previous) > insightsContextLimit {
			previous = previous[:insightsContextLimit]
		}
	}

	prompt := fmt.Sprintf(followUpPromptTemplate,
		report.OriginalFilename,
		report.RowCount,
		strings.Join(report.Columns, ", "),
		BuildDigest(report.Columns, report.ColumnStats),
		previous,
		question)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, followUpSystemMsg, prompt, followUpMaxTokens)
	switch {
	case err == nil:
		return text
	case errors.Is(err, ErrNoChoices):
		return "Failed to generate answer."
	case isTimeout(err):
		g.logger.Error("provider timeout", zap.String("report_id", report.ID))
		return "The AI service timed out. Please try again."
	default:
		g.logger.Error("provider error", zap.String("report_id", report.ID), zap.Error(err))
		return fmt.Sprintf("AI service error: %v", err)
	}
}

// CheckHealth probes the provider with a minimal completion, using a
// short deadline so a slow provider cannot stall the health endpoint.
func (g *Generator) CheckHealth(ctx context.Context) Health {
	if g.completer == nil {
		return Health{Status: "error", Detail: "API key not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.HealthTimeout)
	defer cancel()

	_, err := g.completer.Complete(ctx, "", "ping", healthProbeMaxTokens)
	switch {
	case err == nil, errors.Is(err, ErrNoChoices):
		return Health{Status: "healthy", Detail: "Model: " + g.cfg.Model}
	case statusCode(err) == http.StatusUnauthorized:
		return Health{Status: "error", Detail: "Invalid API key"}
	case isTimeout(err):
		return Health{Status: "degraded", Detail: "Connection timeout"}
	case statusCode(err) > 0:
		return Health{Status: "degraded", Detail: fmt.Sprintf("HTTP %d", statusCode(err))}
	default:
		return Health{Status: "error", Detail: err.Error()}
	}
}

// BuildDigest renders one line per column with its null accounting and
// the numeric or string summary, in header order. The digest is the
// only dataset context the provider sees.
func BuildDigest(columns []string, stats map[string]dataset.ColumnStats) string {
	lines := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col] {
			continue
		}
		seen[col] = true
		cs, ok := stats[col]
		if !ok {
			continue
		}

		line := fmt.Sprintf("- **%s** (%s): %d values, %d nulls", col, cs.DType, cs.NonNullCount, cs.NullCount)
		switch {
		case cs.Mean != nil:
			line += fmt.Sprintf(" | mean=%s, std=%s, min=%s, max=%s",
				formatStat(*cs.Mean), formatStat(*cs.Std), formatStat(*cs.Min), formatStat(*cs.Max))
		case cs.UniqueCount != nil:
			line += fmt.Sprintf(" | %d unique values", *cs.UniqueCount)
			if len(cs.TopValues) > 0 {
				top := cs.TopValues
				if len(top) > 3 {
					top = top[:3]
				}
				parts := make([]string, len(top))
				for i, vc := range top {
					parts[i] = fmt.Sprintf("%s: %d", vc.Value, vc.Count)
				}
				line += " | top: " + strings.Join(parts, ", ")
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatStat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
