package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
)

// DefaultColumn is the value column read when none is configured
const DefaultColumn = "value"

// timestamp layouts accepted in the timestamp column
var layouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"}

// Table is one parsed series column
type Table struct {
	Series  contracts.HourlySeries
	Start   time.Time // zero when the file has no timestamp column
	Missing int
}

// ReadFile reads one column of the CSV file at path
func ReadFile(path, column string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := ReadSeries(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ReadSeries reads one numeric column of an hourly CSV.
// Rows are taken in file order, one per hour; empty, "NaN" and "NA" cells are missing
// readings. Any unparsable row fails the whole read, since dropping it would shift every
// later hour.
func ReadSeries(r io.Reader, column string) (*Table, error) {
	if column == "" {
		column = DefaultColumn
	}
	column = strings.ToLower(column)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headerMap := make(map[string]int)
	for i, h := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	valueIdx, ok := headerMap[column]
	if !ok {
		return nil, fmt.Errorf("missing required csv header: %s", column)
	}
	tsIdx, hasTS := headerMap["timestamp"]

	table := &Table{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read error at line %d: %w", line, err)
		}

		if hasTS && len(table.Series) == 0 && tsIdx < len(record) {
			if table.Start, err = parseTimestamp(record[tsIdx]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		cell := ""
		if valueIdx < len(record) {
			cell = strings.TrimSpace(record[valueIdx])
		}
		v, err := parseValue(cell)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if math.IsNaN(v) {
			table.Missing++
		}
		table.Series = append(table.Series, v)
	}
	return table, nil
}

func parseValue(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "nan", "na":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value format: %s", cell)
	}
	return v, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %s", s)
}

// WriteSeries writes series as CSV. With a non-zero start the first column holds hourly
// RFC3339 timestamps, otherwise the hour index. Missing readings are written as empty cells.
func WriteSeries(w io.Writer, series contracts.HourlySeries, start time.Time) error {
	cw := csv.NewWriter(w)

	first := "hour"
	if !start.IsZero() {
		first = "timestamp"
	}
	if err := cw.Write([]string{first, DefaultColumn}); err != nil {
		return err
	}

	row := make([]string, 2)
	for t, v := range series {
		if start.IsZero() {
			row[0] = strconv.Itoa(t)
		} else {
			row[0] = start.Add(time.Duration(t) * time.Hour).Format(time.RFC3339)
		}
		row[1] = ""
		if !math.IsNaN(v) {
			row[1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
