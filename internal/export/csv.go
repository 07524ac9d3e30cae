// Package export moves finished response records out of the service: as a
// CSV download, as an archived CSV object and as per-record forwards to an
// external endpoint.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"codesurvey/internal/survey"
)

// TimestampLayout is RFC 3339 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const Filename = "survey_results.csv"

var Header = []string{"Username", "Trial", "Color", "Distortion", "Time_sec", "Answer", "Timestamp", "Correct"}

func row(r survey.Record) []string {
	return []string{
		r.Username,
		strconv.Itoa(r.Trial),
		r.Color,
		r.Distortion,
		strconv.FormatFloat(r.TimeSec, 'f', 3, 64),
		r.Answer,
		r.Timestamp.Format(TimestampLayout),
		formatBool(r.Correct),
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteCSV writes the header and one row per record, in log order.
func WriteCSV(w io.Writer, records []survey.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Trial, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func CSV(records []survey.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
