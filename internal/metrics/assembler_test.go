package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rshade/hostcarbon/internal/hardware"
	"github.com/rshade/hostcarbon/internal/impact"
	"github.com/rshade/hostcarbon/internal/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHardware struct {
	inv      *hardware.Inventory
	err      error
	gotFetch bool
}

func (s *stubHardware) Get(_ context.Context, fetch bool) (*hardware.Inventory, error) {
	s.gotFetch = fetch
	return s.inv, s.err
}

type stubPower struct {
	m                power.Measurement
	err              error
	gotStart, gotEnd float64
	called           bool
}

func (s *stubPower) Average(start, end float64) (power.Measurement, error) {
	s.called = true
	s.gotStart, s.gotEnd = start, end
	return s.m, s.err
}

type stubImpact struct {
	report   *impact.Report
	err      error
	gotCfg   impact.Configuration
	gotUsage impact.Usage
}

func (s *stubImpact) ServerImpactFromConfiguration(_ context.Context, cfg impact.Configuration, usage impact.Usage) (*impact.Report, error) {
	s.gotCfg = cfg
	s.gotUsage = usage
	return s.report, s.err
}

func (s *stubImpact) ServerImpactFromModel(_ context.Context, _ impact.Model, usage impact.Usage) (*impact.Report, error) {
	s.gotUsage = usage
	return s.report, s.err
}

const testNow = 1700000000.0

func impactReport(status string) *impact.Report {
	return &impact.Report{
		Impacts: impact.Impacts{
			GWP: impact.Phases{Manufacture: 1000.0, Use: 100.0},
			ADP: impact.Phases{Manufacture: 0.2, Use: 0.02},
			PE:  impact.Phases{Manufacture: 13000.0, Use: 1300.0},
		},
		Verbose: impact.Verbose{
			Usage: impact.UsageVerbose{
				GWPFactor:     impact.Factor{Value: 0.38},
				UsageLocation: impact.UsageLocation{Status: status},
			},
		},
		Raw: json.RawMessage(`{"impacts":{}}`),
	}
}

func testAssembler(hw *stubHardware, pw *stubPower, ic *stubImpact) *Assembler {
	return NewAssembler(hw, pw, ic, yearSeconds, 5.0, zerolog.Nop()).
		WithClock(func() time.Time {
			return time.Unix(int64(testNow), 0)
		})
}

func TestCompute_ZeroWindowDefaults(t *testing.T) {
	hw := &stubHardware{inv: &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}}
	ic := &stubImpact{report: impactReport("COMPLETED")}
	a := testAssembler(hw, &stubPower{}, ic)

	report, err := a.Compute(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, testNow-3600, report.StartTime.Value)
	assert.Equal(t, testNow, report.EndTime.Value)
	assert.Equal(t, Counter, report.StartTime.Type)
	assert.Equal(t, Counter, report.EndTime.Type)

	// Zero bounds mean ratio 1.0: embedded impact is unscaled.
	assert.Equal(t, 1000.0, report.EmbeddedEmissions.Value)
	assert.Equal(t, 1000.0+100.0, report.CalculatedEmissions.Value)
	assert.Equal(t, 0.2, report.EmbeddedADP.Value)
	assert.Equal(t, 13000.0, report.EmbeddedPE.Value)
}

func TestCompute_RatioScalesEmbeddedImpact(t *testing.T) {
	hw := &stubHardware{inv: &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}}
	ic := &stubImpact{report: impactReport("COMPLETED")}
	a := testAssembler(hw, &stubPower{}, ic)

	start := 1000.0
	end := start + yearSeconds/2
	report, err := a.Compute(context.Background(), Request{
		StartTime: start,
		EndTime:   end,
		Lifetime:  1.0,
	})
	require.NoError(t, err)

	ratio := (end - start) / (1.0 * yearSeconds)
	assert.Equal(t, 1000.0*ratio, report.EmbeddedEmissions.Value)
	assert.Equal(t, 1000.0*ratio+100.0, report.CalculatedEmissions.Value)
	assert.Equal(t, 0.2*ratio, report.EmbeddedADP.Value)
	assert.Equal(t, 13000.0*ratio, report.EmbeddedPE.Value)
}

func TestCompute_UsageRequest(t *testing.T) {
	hw := &stubHardware{inv: &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}}
	pw := &stubPower{m: power.Measurement{HostAvgConsumption: 120.0}}
	ic := &stubImpact{report: impactReport("COMPLETED")}
	a := testAssembler(hw, pw, ic)

	start := testNow - 7200
	end := testNow
	_, err := a.Compute(context.Background(), Request{
		StartTime:    start,
		EndTime:      end,
		Location:     "FRA",
		MeasurePower: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, ic.gotUsage.HoursUseTime)
	assert.Equal(t, "FRA", ic.gotUsage.UsageLocation)
	assert.Equal(t, 120.0, ic.gotUsage.HoursElectricalConsumption)
	assert.Equal(t, start, pw.gotStart)
	assert.Equal(t, end, pw.gotEnd)
}

func TestCompute_MeasurePowerFields(t *testing.T) {
	hw := &stubHardware{inv: &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}}

	t.Run("enabled", func(t *testing.T) {
		pw := &stubPower{m: power.Measurement{
			HostAvgConsumption: 42.0,
			Warning:            power.LowConfidenceWarning,
		}}
		ic := &stubImpact{report: impactReport("COMPLETED")}
		a := testAssembler(hw, pw, ic)

		report, err := a.Compute(context.Background(), Request{MeasurePower: true})
		require.NoError(t, err)

		require.NotNil(t, report.TotalOperationalEmissions)
		assert.Equal(t, 100.0, report.TotalOperationalEmissions.Value)
		require.NotNil(t, report.TotalOperationalADP)
		assert.Equal(t, 0.02, report.TotalOperationalADP.Value)
		require.NotNil(t, report.TotalOperationalPE)
		assert.Equal(t, 1300.0, report.TotalOperationalPE.Value)

		require.NotNil(t, report.CalculationData.AveragePowerMeasured.Value)
		assert.Equal(t, 42.0, *report.CalculationData.AveragePowerMeasured.Value)
		assert.Equal(t, power.LowConfidenceWarning, report.CalculationData.EnergyConsumptionWarning)
	})

	t.Run("disabled", func(t *testing.T) {
		pw := &stubPower{}
		ic := &stubImpact{report: impactReport("COMPLETED")}
		a := testAssembler(hw, pw, ic)

		report, err := a.Compute(context.Background(), Request{MeasurePower: false})
		require.NoError(t, err)

		assert.False(t, pw.called)
		assert.Nil(t, report.TotalOperationalEmissions)
		assert.Nil(t, report.TotalOperationalADP)
		assert.Nil(t, report.TotalOperationalPE)
		assert.Nil(t, report.CalculationData.AveragePowerMeasured.Value)
		assert.Empty(t, report.CalculationData.EnergyConsumptionWarning)
		assert.Zero(t, ic.gotUsage.HoursElectricalConsumption)
	})
}

func TestCompute_CarbonIntensityDescription(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		wantContains   string
		wantNoWarnings bool
	}{
		{
			name:         "MODIFY appends invalid-trigram warning",
			status:       "MODIFY",
			wantContains: "doesn't match any existing country",
		},
		{
			name:         "SET appends no-location warning",
			status:       "SET",
			wantContains: "no information was provided",
		},
		{
			name:           "other statuses append nothing",
			status:         "COMPLETED",
			wantNoWarnings: true,
		},
	}

	hw := &stubHardware{inv: &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := &stubImpact{report: impactReport(tt.status)}
			a := testAssembler(hw, &stubPower{}, ic)

			report, err := a.Compute(context.Background(), Request{Location: "ZZZ"})
			require.NoError(t, err)

			desc := report.CalculationData.ElectricityCarbonIntensity.Description
			if tt.wantNoWarnings {
				assert.NotContains(t, desc, "WARNING")
			} else {
				assert.Contains(t, desc, tt.wantContains)
			}
			assert.Contains(t, desc, "ZZZ")
			assert.Equal(t, 0.38, report.CalculationData.ElectricityCarbonIntensity.Value)
		})
	}
}

func TestCompute_VerboseRawData(t *testing.T) {
	inv := &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}
	hw := &stubHardware{inv: inv}
	ic := &stubImpact{report: impactReport("COMPLETED")}
	a := testAssembler(hw, &stubPower{}, ic)

	report, err := a.Compute(context.Background(), Request{Verbose: true})
	require.NoError(t, err)
	require.NotNil(t, report.CalculationData.RawData)
	assert.Equal(t, inv, report.CalculationData.RawData.HardwareData)
	assert.JSONEq(t, `{"impacts":{}}`, string(report.CalculationData.RawData.ImpactData))

	report, err = a.Compute(context.Background(), Request{Verbose: false})
	require.NoError(t, err)
	assert.Nil(t, report.CalculationData.RawData)
}

func TestCompute_CollaboratorFailuresPropagate(t *testing.T) {
	inv := &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}

	t.Run("hardware failure", func(t *testing.T) {
		hw := &stubHardware{err: errors.New("collector broken")}
		a := testAssembler(hw, &stubPower{}, &stubImpact{report: impactReport("COMPLETED")})

		_, err := a.Compute(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hardware inventory")
	})

	t.Run("power failure", func(t *testing.T) {
		pw := &stubPower{err: errors.New("no sample file")}
		a := testAssembler(&stubHardware{inv: inv}, pw, &stubImpact{report: impactReport("COMPLETED")})

		_, err := a.Compute(context.Background(), Request{MeasurePower: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "power samples")
	})

	t.Run("impact service failure", func(t *testing.T) {
		ic := &stubImpact{err: errors.New("upstream 500")}
		a := testAssembler(&stubHardware{inv: inv}, &stubPower{}, ic)

		_, err := a.Compute(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "impact service")
	})
}

func TestCompute_FetchHardwareFlagForwarded(t *testing.T) {
	hw := &stubHardware{inv: &hardware.Inventory{CPUs: []hardware.CPU{{CoreUnits: 4, Family: "x"}}}}
	a := testAssembler(hw, &stubPower{}, &stubImpact{report: impactReport("COMPLETED")})

	_, err := a.Compute(context.Background(), Request{FetchHardware: true})
	require.NoError(t, err)
	assert.True(t, hw.gotFetch)
}
