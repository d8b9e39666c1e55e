package tsdb

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV renders records as CSV with a metric_name,timestamp,value header.
// Timestamps are RFC 3339 in UTC.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric_name", "timestamp", "value"}); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.MetricName,
			rec.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(rec.Value, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
