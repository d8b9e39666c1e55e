package tsdb

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog"
)

const measurement = "hostcarbon"

// InfluxStore implements Store on an InfluxDB 2.x bucket. Each record is one
// point in the hostcarbon measurement, the metric name as a tag and the
// scalar under the "value" field.
type InfluxStore struct {
	client influxdb2.Client
	org    string
	bucket string
	logger zerolog.Logger
}

// NewInfluxStore connects to the InfluxDB instance at url.
func NewInfluxStore(url, token, org, bucket string, logger zerolog.Logger) *InfluxStore {
	return &InfluxStore{
		client: influxdb2.NewClient(url, token),
		org:    org,
		bucket: bucket,
		logger: logger,
	}
}

// Insert implements Store using the blocking write API.
func (s *InfluxStore) Insert(ctx context.Context, rec Record) error {
	point := influxdb2.NewPoint(
		measurement,
		map[string]string{"metric_name": rec.MetricName},
		map[string]interface{}{"value": rec.Value},
		rec.Timestamp,
	)
	if err := s.client.WriteAPIBlocking(s.org, s.bucket).WritePoint(ctx, point); err != nil {
		return fmt.Errorf("writing %s to influx: %w", rec.MetricName, err)
	}
	s.logger.Debug().
		Str("metric_name", rec.MetricName).
		Time("timestamp", rec.Timestamp).
		Float64("value", rec.Value).
		Msg("metric persisted")
	return nil
}

// Select implements Store with a Flux range query.
func (s *InfluxStore) Select(ctx context.Context, name string, since, until time.Time) ([]Record, error) {
	// The range stop is exclusive in Flux; widen by a second to keep the
	// store's inclusive contract.
	flux := fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: %s, stop: %s)
		|> filter(fn: (r) => r["_measurement"] == %q)
		|> filter(fn: (r) => r["metric_name"] == %q)
		|> filter(fn: (r) => r["_field"] == "value")
		|> sort(columns: ["_time"])
	`, s.bucket, since.UTC().Format(time.RFC3339), until.UTC().Add(time.Second).Format(time.RFC3339), measurement, name)

	result, err := s.client.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("querying influx for %s: %w", name, err)
	}

	var out []Record
	for result.Next() {
		record := result.Record()
		value, ok := record.Value().(float64)
		if !ok {
			if iv, isInt := record.Value().(int64); isInt {
				value = float64(iv)
			} else {
				s.logger.Warn().
					Str("metric_name", name).
					Interface("value", record.Value()).
					Msg("skipping non-numeric influx value")
				continue
			}
		}
		out = append(out, Record{
			MetricName: name,
			Timestamp:  record.Time(),
			Value:      value,
		})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("iterating influx results for %s: %w", name, result.Err())
	}
	return out, nil
}

// Close implements Store.
func (s *InfluxStore) Close() error {
	s.client.Close()
	return nil
}
