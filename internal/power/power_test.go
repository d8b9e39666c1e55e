package power

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSamples(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "power_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAverageConsumption(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    float64
	}{
		{
			name:    "empty is zero",
			samples: nil,
			want:    0.0,
		},
		{
			name: "microwatts to watts",
			samples: []Sample{
				{Host: HostReading{Consumption: 1_000_000}},
				{Host: HostReading{Consumption: 3_000_000}},
			},
			want: 2.0,
		},
		{
			name: "single sample",
			samples: []Sample{
				{Host: HostReading{Consumption: 500_000}},
			},
			want: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageConsumption(tt.samples))
		})
	}
}

func TestAverage_WindowFilterInclusive(t *testing.T) {
	path := writeSamples(t, `[
		{"host": {"timestamp": 999, "consumption": 9000000}},
		{"host": {"timestamp": 1000, "consumption": 1000000}},
		{"host": {"timestamp": 1500, "consumption": 2000000}},
		{"host": {"timestamp": 2000, "consumption": 3000000}},
		{"host": {"timestamp": 2001, "consumption": 9000000}}
	]`)
	a := NewFileAggregator(path)

	m, err := a.Average(1000, 2000)
	require.NoError(t, err)

	// Both bounds are inclusive; the out-of-window 9 W samples are dropped.
	assert.Equal(t, 2.0, m.HostAvgConsumption)
	assert.Len(t, m.Samples, 3)
}

func TestAverage_EmptyWindow(t *testing.T) {
	path := writeSamples(t, `[{"host": {"timestamp": 50, "consumption": 1000000}}]`)
	a := NewFileAggregator(path)

	m, err := a.Average(1000, 2000+3600)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.HostAvgConsumption)
	assert.Empty(t, m.Samples)
}

func TestAverage_SubHourWarning(t *testing.T) {
	path := writeSamples(t, `[]`)
	a := NewFileAggregator(path)

	tests := []struct {
		name        string
		start, end  float64
		wantWarning bool
	}{
		{"exactly one hour", 0, 3600, false},
		{"one second short", 0, 3599, true},
		{"well over an hour", 0, 7200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := a.Average(tt.start, tt.end)
			require.NoError(t, err)
			if tt.wantWarning {
				assert.Equal(t, LowConfidenceWarning, m.Warning)
			} else {
				assert.Empty(t, m.Warning)
			}
		})
	}
}

func TestAverage_ReadFailuresPropagate(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		a := NewFileAggregator(filepath.Join(t.TempDir(), "nope.json"))
		_, err := a.Average(0, 3600)
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		a := NewFileAggregator(writeSamples(t, `{not json`))
		_, err := a.Average(0, 3600)
		require.Error(t, err)
	})
}
