package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riya-shete/csv-analyzer/internal/apperrors"
)

func parse(t *testing.T, content string) *Result {
	t.Helper()
	result, err := NewParser(nil).Parse(strings.NewReader(content))
	require.NoError(t, err)
	return result
}

func parseErr(t *testing.T, content string) *apperrors.ParseError {
	t.Helper()
	_, err := NewParser(nil).Parse(strings.NewReader(content))
	require.Error(t, err)
	var parseErr *apperrors.ParseError
	require.True(t, errors.As(err, &parseErr))
	return parseErr
}

func TestParse_Basic(t *testing.T) {
	result := parse(t, "name,age,score\nalice,30,9.5\nbob,25,7.25\n")

	assert.Equal(t, []string{"name", "age", "score"}, result.Columns)
	assert.Equal(t, 2, result.RowCount)
	require.Len(t, result.PreviewData, 2)

	first := result.PreviewData[0]
	assert.Equal(t, "alice", first["name"])
	assert.Equal(t, int64(30), first["age"])
	assert.Equal(t, 9.5, first["score"])

	require.Len(t, result.ColumnStats, 3)
	assert.Equal(t, DTypeObject, result.ColumnStats["name"].DType)
	assert.Equal(t, DTypeInt64, result.ColumnStats["age"].DType)
	assert.Equal(t, DTypeFloat64, result.ColumnStats["score"].DType)
}

func TestParse_EmptyFile(t *testing.T) {
	err := parseErr(t, "")
	assert.Equal(t, "The file is empty.", err.Message)
}

func TestParse_HeaderOnly(t *testing.T) {
	err := parseErr(t, "a,b,c\n")
	assert.Equal(t, "The CSV file is empty or contains no valid data.", err.Message)
}

func TestParse_RowWiderThanHeader(t *testing.T) {
	err := parseErr(t, "a,b\n1,2,3\n")
	assert.Contains(t, err.Message, "Failed to parse CSV")
	assert.Contains(t, err.Message, "row 1 has 3 fields, expected 2")
}

func TestParse_ShortRowsPaddedWithNulls(t *testing.T) {
	result := parse(t, "a,b,c\n1,2\n4\n")

	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, 1, result.ColumnStats["b"].NullCount)
	assert.Equal(t, 2, result.ColumnStats["c"].NullCount)

	// Missing cells render as empty strings in the preview.
	assert.Equal(t, "", result.PreviewData[0]["c"])
	assert.Equal(t, "", result.PreviewData[1]["b"])
}

func TestParse_EmptyCellIsNull(t *testing.T) {
	result := parse(t, "a,b\n1,\n2,x\n")

	assert.Equal(t, 1, result.ColumnStats["b"].NullCount)
	assert.Equal(t, 1, result.ColumnStats["b"].NonNullCount)
	assert.Equal(t, "", result.PreviewData[0]["b"])
}

func TestParse_AllNullColumn(t *testing.T) {
	result := parse(t, "a,b\n1,\n2,\n")

	cs := result.ColumnStats["b"]
	assert.Equal(t, DTypeOther, cs.DType)
	assert.Equal(t, 0, cs.NonNullCount)
	assert.Equal(t, 2, cs.NullCount)
	assert.Nil(t, cs.Mean)
	assert.Nil(t, cs.UniqueCount)
}

func TestParse_StripsUTF8BOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nalice\n")...)

	result, err := NewParser(nil).Parse(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, result.Columns)
}

func TestParse_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and an invalid UTF-8 sequence.
	content := []byte("name\ncaf\xe9\n")

	result, err := NewParser(nil).Parse(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "café", result.PreviewData[0]["name"])
}

func TestParse_PreviewCappedAt100Rows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}

	result := parse(t, sb.String())

	assert.Equal(t, 150, result.RowCount)
	assert.Len(t, result.PreviewData, 100)
	assert.Equal(t, 150, result.ColumnStats["n"].NonNullCount)
}

func TestParse_DuplicateHeadersLastWins(t *testing.T) {
	result := parse(t, "x,x\nfoo,1\nbar,2\n")

	assert.Equal(t, []string{"x", "x"}, result.Columns)
	require.Len(t, result.ColumnStats, 1)
	assert.Equal(t, DTypeInt64, result.ColumnStats["x"].DType)

	// Preview maps carry the last occurrence too.
	assert.Equal(t, int64(1), result.PreviewData[0]["x"])
}

func TestParse_QuotedFields(t *testing.T) {
	result := parse(t, "a,b\n\"hello, world\",\"line1\nline2\"\n")

	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, "hello, world", result.PreviewData[0]["a"])
	assert.Equal(t, "line1\nline2", result.PreviewData[0]["b"])
}

func TestParse_MixedColumnIsObject(t *testing.T) {
	result := parse(t, "v\n1\ntwo\n3\n")

	cs := result.ColumnStats["v"]
	assert.Equal(t, DTypeObject, cs.DType)
	require.NotNil(t, cs.UniqueCount)
	assert.Equal(t, 3, *cs.UniqueCount)
}

func TestParse_NumericPreviewTypes(t *testing.T) {
	result := parse(t, "i,f\n7,2.5\n-3,1e2\n")

	assert.Equal(t, int64(7), result.PreviewData[0]["i"])
	assert.Equal(t, int64(-3), result.PreviewData[1]["i"])
	assert.Equal(t, 2.5, result.PreviewData[0]["f"])
	assert.Equal(t, 100.0, result.PreviewData[1]["f"])
}

func TestParse_NonFiniteFloatPreviewIsEmptied(t *testing.T) {
	// ParseFloat accepts "Inf"; the preview must not leak non-finite
	// values into JSON.
	result := parse(t, "f\n1.5\nInf\n")

	cs := result.ColumnStats["f"]
	assert.Equal(t, DTypeFloat64, cs.DType)
	assert.Equal(t, "", result.PreviewData[1]["f"])
}
