package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeParam(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		wantErr bool
	}{
		{"empty means unset", "", 0, false},
		{"integer epoch", "1700000000", 1700000000, false},
		{"fractional epoch", "1700000000.5", 1700000000.5, false},
		{"rfc3339", "2023-11-14T22:13:20Z", 1700000000, false},
		{"datetime without zone", "2023-11-14T22:13:20", 1700000000, false},
		{"datetime with space", "2023-11-14 22:13:20", 1700000000, false},
		{"bare date", "2023-11-14", 1699920000, false},
		{"garbage", "not-a-date", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimeParam(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoolParam(t *testing.T) {
	got, err := parseBoolParam("", true)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = parseBoolParam("false", true)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = parseBoolParam("1", false)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = parseBoolParam("maybe", false)
	require.Error(t, err)
}

func TestParseDateInfo(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		until     string
		wantStart time.Time
	}{
		{"days suffix", "7d", now.Add(-7 * 24 * time.Hour)},
		{"hours suffix", "24h", now.Add(-24 * time.Hour)},
		{"minutes suffix", "30m", now.Add(-30 * time.Minute)},
		{"unknown suffix keeps default", "5w", now.Add(-time.Hour)},
		{"non-numeric keeps default", "xxd", now.Add(-time.Hour)},
		{"empty keeps default", "", now.Add(-time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := parseDateInfo("now", tt.until, now)
			assert.Equal(t, now, end)
			assert.Equal(t, tt.wantStart, start)
		})
	}
}
