// Package dataset turns raw CSV bytes into a bounded preview plus
// per-column summary statistics.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/riya-shete/csv-analyzer/internal/apperrors"
)

// previewLimit bounds the number of rows kept for display.
const previewLimit = 100

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Result is everything the report layer needs from one parsed file.
// The full row set is only held transiently inside Parse.
type Result struct {
	Columns     []string
	RowCount    int
	PreviewData []map[string]any
	ColumnStats map[string]ColumnStats
}

// Parser decodes CSV content and derives report fields from it.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a Parser. A nil logger is replaced with a no-op one.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.Named("parser")}
}

// Parse reads the entire stream and produces columns, row count,
// preview rows and per-column stats. Content is decoded as UTF-8
// first; invalid byte sequences trigger a Latin-1 reinterpretation,
// which cannot fail on arbitrary bytes. All user-visible failures are
// *apperrors.ParseError.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewParse(fmt.Sprintf("Error processing file: %v", err), err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, apperrors.NewParse(fmt.Sprintf("Error processing file: %v", err), err)
		}
		p.logger.Debug("content is not valid UTF-8, reparsed as Latin-1")
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParse(fmt.Sprintf("Failed to parse CSV: %v", err), err)
	}

	if len(records) == 0 {
		return nil, apperrors.NewParse("The file is empty.", nil)
	}

	columns := records[0]
	if len(columns) == 0 {
		return nil, apperrors.NewParse("The CSV file has no columns.", nil)
	}

	rows, err := normalizeRows(columns, records[1:])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParse("The CSV file is empty or contains no valid data.", nil)
	}

	columnStats := make(map[string]ColumnStats, len(columns))
	dtypes := make([]string, len(columns))
	for i, name := range columns {
		cs := p.statsForColumn(name, columnCells(rows, i))
		// Duplicate header names resolve last-occurrence-wins here.
		columnStats[name] = cs
		dtypes[i] = cs.DType
	}

	return &Result{
		Columns:     columns,
		RowCount:    len(rows),
		PreviewData: buildPreview(columns, dtypes, rows),
		ColumnStats: columnStats,
	}, nil
}

// normalizeRows pads short rows with nulls so every row has exactly one
// cell per column. Rows wider than the header indicate a structurally
// broken file and are rejected.
func normalizeRows(columns []string, records [][]string) ([][]*string, error) {
	rows := make([][]*string, 0, len(records))
	for i, record := range records {
		if len(record) > len(columns) {
			return nil, apperrors.NewParse(fmt.Sprintf(
				"Failed to parse CSV: row %d has %d fields, expected %d", i+1, len(record), len(columns)), nil)
		}
		row := make([]*string, len(columns))
		for j := range record {
			if record[j] != "" {
				v := record[j]
				row[j] = &v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnCells(rows [][]*string, idx int) []*string {
	cells := make([]*string, len(rows))
	for i := range rows {
		cells[i] = rows[i][idx]
	}
	return cells
}

// statsForColumn computes full stats for one column with an isolation
// boundary: any error or panic is logged and the column falls back to
// the minimal dtype/non_null_count/null_count summary instead of
// aborting the whole parse.
func (p *Parser) statsForColumn(name string, cells []*string) ColumnStats {
	cs, err := func() (cs ColumnStats, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return computeColumnStats(cells)
	}()
	if err != nil {
		p.logger.Warn("could not compute stats for column",
			zap.String("column", name),
			zap.Error(err))
		return minimalStats(cells)
	}
	return cs
}

// minimalStats keeps only dtype and null accounting for a column whose
// full stats computation failed.
func minimalStats(cells []*string) ColumnStats {
	nonNull := 0
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if c != nil {
			nonNull++
			values = append(values, *c)
		}
	}
	return ColumnStats{
		DType:        inferDType(values),
		NonNullCount: nonNull,
		NullCount:    len(cells) - nonNull,
	}
}

// buildPreview renders the first min(100, rows) rows for display.
// Nulls and non-finite numerics become empty strings, numeric cells
// keep their numeric type, everything else passes through as a string.
func buildPreview(columns []string, dtypes []string, rows [][]*string) []map[string]any {
	limit := len(rows)
	if limit > previewLimit {
		limit = previewLimit
	}

	preview := make([]map[string]any, 0, limit)
	for _, row := range rows[:limit] {
		entry := make(map[string]any, len(columns))
		for j, name := range columns {
			entry[name] = previewCell(dtypes[j], row[j])
		}
		preview = append(preview, entry)
	}
	return preview
}

func previewCell(dtype string, cell *string) any {
	if cell == nil {
		return ""
	}
	switch dtype {
	case DTypeInt64:
		if n, err := strconv.ParseInt(*cell, 10, 64); err == nil {
			return n
		}
	case DTypeFloat64:
		if f, err := strconv.ParseFloat(*cell, 64); err == nil {
			if safeFloat(f) != f {
				return ""
			}
			return f
		}
	}
	return *cell
}
