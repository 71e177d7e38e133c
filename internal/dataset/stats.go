package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
)

// Column dtype classifications. Numeric columns are tagged int64 or
// float64 depending on whether every value is integral; textual
// columns are tagged object. Columns with no non-null values at all
// are neither numeric nor string-like and keep the minimal stats.
const (
	DTypeInt64   = "int64"
	DTypeFloat64 = "float64"
	DTypeObject  = "object"
	DTypeOther   = "other"
)

// topValuesLimit caps the number of entries kept in TopValues.
const topValuesLimit = 5

// ColumnStats summarizes a single column. Numeric fields are set for
// int64/float64 columns, UniqueCount/TopValues for object columns, and
// neither for columns that fell back to minimal stats.
type ColumnStats struct {
	DType        string    `json:"dtype"`
	NonNullCount int       `json:"non_null_count"`
	NullCount    int       `json:"null_count"`
	Mean         *float64  `json:"mean,omitempty"`
	Std          *float64  `json:"std,omitempty"`
	Min          *float64  `json:"min,omitempty"`
	Max          *float64  `json:"max,omitempty"`
	Median       *float64  `json:"median,omitempty"`
	UniqueCount  *int      `json:"unique_count,omitempty"`
	TopValues    TopValues `json:"top_values,omitempty"`
}

// IsNumeric reports whether the column was classified as numeric.
func (s ColumnStats) IsNumeric() bool {
	return s.DType == DTypeInt64 || s.DType == DTypeFloat64
}

// IsString reports whether the column was classified as string-like.
func (s ColumnStats) IsString() bool {
	return s.DType == DTypeObject
}

// ValueCount is one distinct value and its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// TopValues holds the most frequent distinct values of a column in
// descending frequency order. It serializes as a JSON object whose key
// order matches the slice order, and deserializes preserving the key
// order found in the document, so the stored ordering survives a
// database round trip.
type TopValues []ValueCount

// MarshalJSON emits an object with keys in slice order.
func (tv TopValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, vc := range tv {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(vc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(vc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object token by token so key order is kept.
func (tv *TopValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("top_values: expected object, got %v", tok)
	}

	out := TopValues{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("top_values: expected string key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("top_values: count for %q: %w", key, err)
		}
		out = append(out, ValueCount{Value: key, Count: count})
	}
	*tv = out
	return nil
}

// safeFloat normalizes non-finite values to 0 so every numeric leaving
// this package is JSON-safe. Applied at both stats computation and
// preview rendering.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// round2 rounds to two decimal places.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// inferDType classifies a column from its non-null cell values. A
// column is numeric only when every non-null value parses as a number;
// mixed columns deterministically classify as object.
func inferDType(values []string) string {
	if len(values) == 0 {
		return DTypeOther
	}

	allInt := true
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			allInt = false
			break
		}
	}
	if allInt {
		return DTypeInt64
	}

	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return DTypeObject
		}
	}
	return DTypeFloat64
}

// computeColumnStats classifies and summarizes one column. The minimal
// dtype/non_null_count/null_count triple is always present; the full
// numeric or string summary is added when the column supports it.
// An error means the caller should fall back to the minimal stats.
func computeColumnStats(cells []*string) (ColumnStats, error) {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if c != nil {
			values = append(values, *c)
		}
	}

	cs := ColumnStats{
		DType:        inferDType(values),
		NonNullCount: len(values),
		NullCount:    len(cells) - len(values),
	}

	switch {
	case cs.IsNumeric():
		if err := addNumericStats(&cs, values); err != nil {
			return cs, err
		}
	case cs.IsString():
		addStringStats(&cs, values)
	}
	return cs, nil
}

// addNumericStats fills mean/std/min/max/median over the non-null
// values, rounded to 2 decimals with non-finite results replaced by 0.
func addNumericStats(cs *ColumnStats, values []string) error {
	nums := make(stats.Float64Data, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %q: %w", v, err)
		}
		nums[i] = f
	}

	mean, err := stats.Mean(nums)
	if err != nil {
		return fmt.Errorf("mean: %w", err)
	}
	// Sample standard deviation: a single-value column yields NaN,
	// normalized to 0 below.
	std, err := stats.StandardDeviationSample(nums)
	if err != nil {
		return fmt.Errorf("std: %w", err)
	}
	minVal, err := stats.Min(nums)
	if err != nil {
		return fmt.Errorf("min: %w", err)
	}
	maxVal, err := stats.Max(nums)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}
	median, err := stats.Median(nums)
	if err != nil {
		return fmt.Errorf("median: %w", err)
	}

	cs.Mean = float64Ptr(round2(safeFloat(mean)))
	cs.Std = float64Ptr(round2(safeFloat(std)))
	cs.Min = float64Ptr(round2(safeFloat(minVal)))
	cs.Max = float64Ptr(round2(safeFloat(maxVal)))
	cs.Median = float64Ptr(round2(safeFloat(median)))
	return nil
}

// addStringStats fills unique_count and the top 5 values by descending
// frequency. Ties break by first appearance in the column, which keeps
// the ordering deterministic per run.
func addStringStats(cs *ColumnStats, values []string) {
	counts := make(map[string]int, len(values))
	firstSeen := make(map[string]int, len(values))
	order := make([]string, 0, len(values))
	for i, v := range values {
		if _, ok := counts[v]; !ok {
			firstSeen[v] = i
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	top := make(TopValues, 0, topValuesLimit)
	for _, v := range order {
		if len(top) == topValuesLimit {
			break
		}
		top = append(top, ValueCount{Value: v, Count: counts[v]})
	}

	unique := len(counts)
	cs.UniqueCount = &unique
	cs.TopValues = top
}

func float64Ptr(f float64) *float64 {
	return &f
}
