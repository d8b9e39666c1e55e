// Package power aggregates host power-consumption samples written by the
// external power-sampling collector into a single average wattage figure.
package power

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

const (
	microwattsPerWatt = 1e6

	// subHourWindowSeconds is the window length below which the average
	// is flagged as an hourly extrapolation.
	subHourWindowSeconds = 3600
)

// LowConfidenceWarning is attached to measurements taken over a window
// shorter than one hour.
const LowConfidenceWarning = "The time window is lower than one hour, but the energy " +
	"consumption estimate is in Watt.Hour. So this is an extrapolation of the power " +
	"usage profile on one hour. Be careful with this data."

// Sample is one timestamped host power reading. Consumption is in microwatts.
type Sample struct {
	Host HostReading `json:"host"`
}

// HostReading carries the timestamp (seconds since epoch) and consumption of
// a single host-level sample.
type HostReading struct {
	Timestamp   float64 `json:"timestamp"`
	Consumption float64 `json:"consumption"`
}

// Measurement is the reduction of the samples inside a time window.
type Measurement struct {
	// HostAvgConsumption is the average power in watts. Zero when no
	// sample falls inside the window.
	HostAvgConsumption float64

	// Warning is non-empty when the window is shorter than one hour.
	Warning string

	// Samples holds the raw samples that were averaged, for verbose
	// reporting.
	Samples []Sample
}

// SampleAggregator reduces power samples in a window to one measurement.
type SampleAggregator interface {
	Average(start, end float64) (Measurement, error)
}

// FileAggregator implements SampleAggregator over the collector's JSON file.
type FileAggregator struct {
	filePath string
}

// NewFileAggregator creates a FileAggregator reading from filePath.
func NewFileAggregator(filePath string) *FileAggregator {
	return &FileAggregator{filePath: filePath}
}

// Average loads all samples, keeps those with start <= timestamp <= end
// (inclusive on both bounds) and averages their consumption, converted from
// microwatts to watts. A read or parse failure propagates without retry.
func (a *FileAggregator) Average(start, end float64) (Measurement, error) {
	data, err := os.ReadFile(a.filePath)
	if err != nil {
		return Measurement{}, fmt.Errorf("reading power samples: %w", err)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return Measurement{}, fmt.Errorf("parsing %s: %w", a.filePath, err)
	}

	var inWindow []Sample
	for _, s := range samples {
		if start <= s.Host.Timestamp && s.Host.Timestamp <= end {
			inWindow = append(inWindow, s)
		}
	}

	m := Measurement{
		HostAvgConsumption: AverageConsumption(inWindow),
		Samples:            inWindow,
	}
	if end-start < subHourWindowSeconds {
		m.Warning = LowConfidenceWarning
	}
	return m, nil
}

// AverageConsumption returns the mean consumption of the samples in watts.
// An empty slice averages to 0.0.
func AverageConsumption(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	total := 0.0
	for _, s := range samples {
		total += s.Host.Consumption
	}
	return total / float64(len(samples)) / microwattsPerWatt
}
