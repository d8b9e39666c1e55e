// Package metrics computes the environmental-impact report for a host over a
// time window. The assembler drives inventory collection, power aggregation,
// the impact-service query and the embedded-impact pro-ration, and maps the
// result into a flat typed report.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rshade/hostcarbon/internal/hardware"
	"github.com/rshade/hostcarbon/internal/impact"
	"github.com/rshade/hostcarbon/internal/power"
)

// Request carries the query parameters of one report computation. Zero
// StartTime/EndTime mean "default the bound"; zero Lifetime selects the
// configured default.
type Request struct {
	StartTime     float64
	EndTime       float64
	Verbose       bool
	Location      string
	MeasurePower  bool
	Lifetime      float64
	FetchHardware bool
}

// Assembler orchestrates the metrics-computation pipeline.
type Assembler struct {
	hardware         hardware.DataProvider
	power            power.SampleAggregator
	impact           impact.QueryClient
	secondsInOneYear float64
	defaultLifetime  float64
	logger           zerolog.Logger
	clock            func() time.Time
}

// NewAssembler wires the pipeline. secondsInOneYear and defaultLifetime come
// from configuration; the clock defaults to time.Now.
func NewAssembler(
	hw hardware.DataProvider,
	pw power.SampleAggregator,
	ic impact.QueryClient,
	secondsInOneYear, defaultLifetime float64,
	logger zerolog.Logger,
) *Assembler {
	return &Assembler{
		hardware:         hw,
		power:            pw,
		impact:           ic,
		secondsInOneYear: secondsInOneYear,
		defaultLifetime:  defaultLifetime,
		logger:           logger,
		clock:            time.Now,
	}
}

// WithClock overrides the assembler's clock. Tests only.
func (a *Assembler) WithClock(clock func() time.Time) *Assembler {
	a.clock = clock
	return a
}

// Compute runs the pipeline for one request. Any collaborator failure stops
// the request; there are no retries and no partial results.
func (a *Assembler) Compute(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()

	lifetime := req.Lifetime
	if lifetime == 0 {
		lifetime = a.defaultLifetime
	}
	now := float64(a.clock().UnixNano()) / float64(time.Second)
	w := ResolveWindow(req.StartTime, req.EndTime, lifetime, a.secondsInOneYear, now)

	inv, err := a.hardware.Get(ctx, req.FetchHardware)
	if err != nil {
		return nil, fmt.Errorf("obtaining hardware inventory: %w", err)
	}

	var measured *power.Measurement
	if req.MeasurePower {
		m, err := a.power.Average(w.Start, w.End)
		if err != nil {
			return nil, fmt.Errorf("aggregating power samples: %w", err)
		}
		measured = &m
	}

	usage := impact.Usage{
		HoursUseTime:  w.HoursUseTime(),
		UsageLocation: req.Location,
	}
	if measured != nil {
		usage.HoursElectricalConsumption = measured.HostAvgConsumption
	}

	impactReport, err := a.impact.ServerImpactFromConfiguration(ctx, BuildConfiguration(inv), usage)
	if err != nil {
		return nil, fmt.Errorf("querying impact service: %w", err)
	}

	report := a.assembleReport(w, req, inv, measured, impactReport)

	a.logger.Info().
		Float64("start_time", w.Start).
		Float64("end_time", w.End).
		Float64("ratio", w.Ratio).
		Bool("measure_power", req.MeasurePower).
		Dur("elapsed", time.Since(start)).
		Msg("metrics report computed")

	return report, nil
}

// assembleReport maps the collaborator outputs into the flat report.
// Embedded figures are the manufacturing-phase impacts scaled by the window
// ratio; calculated_emissions adds the unscaled usage-phase emissions on
// top.
func (a *Assembler) assembleReport(
	w Window,
	req Request,
	inv *hardware.Inventory,
	measured *power.Measurement,
	ir *impact.Report,
) *Report {
	report := &Report{
		CalculatedEmissions: Metric{
			Value:       ir.Impacts.GWP.Manufacture*w.Ratio + ir.Impacts.GWP.Use,
			Description: "Total Green House Gaz emissions calculated for manufacturing and usage phases, between start_time and end_time",
			Type:        Gauge,
			Unit:        "kg CO2eq",
			LongUnit:    "kilograms CO2 equivalent",
		},
		StartTime: Metric{
			Value:       w.Start,
			Description: "Start time for the evaluation, in timestamp format (seconds since 1970)",
			Type:        Counter,
			Unit:        "s",
			LongUnit:    "seconds",
		},
		EndTime: Metric{
			Value:       w.End,
			Description: "End time for the evaluation, in timestamp format (seconds since 1970)",
			Type:        Counter,
			Unit:        "s",
			LongUnit:    "seconds",
		},
		EmbeddedEmissions: Metric{
			Value:       ir.Impacts.GWP.Manufacture * w.Ratio,
			Description: "Embedded carbon emissions (manufacturing phase)",
			Type:        Gauge,
			Unit:        "kg CO2eq",
			LongUnit:    "kilograms CO2 equivalent",
		},
		EmbeddedADP: Metric{
			Value:       ir.Impacts.ADP.Manufacture * w.Ratio,
			Description: "Embedded abiotic resources consumed (manufacturing phase)",
			Type:        Gauge,
			Unit:        "kg Sbeq",
			LongUnit:    "kilograms ADP equivalent",
		},
		EmbeddedPE: Metric{
			Value:       ir.Impacts.PE.Manufacture * w.Ratio,
			Description: "Embedded primary energy consumed (manufacturing phase)",
			Type:        Gauge,
			Unit:        "MJ",
			LongUnit:    "Mega Joules",
		},
	}

	if req.MeasurePower {
		report.TotalOperationalEmissions = &Metric{
			Value:       ir.Impacts.GWP.Use,
			Description: "GHG emissions related to usage, from start_time to end_time.",
			Type:        Gauge,
			Unit:        "kg CO2eq",
			LongUnit:    "kilograms CO2 equivalent",
		}
		report.TotalOperationalADP = &Metric{
			Value:       ir.Impacts.ADP.Use,
			Description: "Abiotic Resources Depletion (minerals & metals, ADPe) due to the usage phase.",
			Type:        Gauge,
			Unit:        "kgSbeq",
			LongUnit:    "kilograms Antimony equivalent",
		}
		report.TotalOperationalPE = &Metric{
			Value:       ir.Impacts.PE.Use,
			Description: "Primary Energy consumed due to the usage phase.",
			Type:        Gauge,
			Unit:        "MJ",
			LongUnit:    "Mega Joules",
		}
	}

	report.CalculationData = CalculationData{
		AveragePowerMeasured: NullableMetric{
			Description: "Average power measured from start_time to end_time",
			Type:        Gauge,
			Unit:        "W",
			LongUnit:    "Watts",
		},
		ElectricityCarbonIntensity: Metric{
			Value:       ir.Verbose.Usage.GWPFactor.Value,
			Description: carbonIntensityDescription(req.Location, ir.Verbose.Usage.UsageLocation.Status),
			Type:        Gauge,
			Unit:        "kg CO2eq / kWh",
			LongUnit:    "Kilograms CO2 equivalent per KiloWattHour",
		},
	}
	if measured != nil {
		avg := measured.HostAvgConsumption
		report.CalculationData.AveragePowerMeasured.Value = &avg
		report.CalculationData.EnergyConsumptionWarning = measured.Warning
	}

	if req.Verbose {
		report.CalculationData.RawData = &RawData{
			HardwareData:  inv,
			ResourcesData: "not implemented yet",
			ImpactData:    ir.Raw,
		}
	}

	return report
}

// Warning sentences appended when the impact service could not apply the
// requested location. The service reports status MODIFY when the provided
// trigram matched no country, and SET when no location was provided at all.
const (
	invalidTrigramWarning = " WARNING : The provided trigram doesn't match any existing country. " +
		"So this result is based on average European electricity mix. Be careful with this data."
	noLocationWarning = "WARNING : As no information was provided about your location, " +
		"this result is based on average European electricity mix. Be careful with this data."
)

func carbonIntensityDescription(location, usageLocationStatus string) string {
	desc := fmt.Sprintf("Carbon intensity of the electricity mix. Mix considered : %s", location)
	switch usageLocationStatus {
	case "MODIFY":
		desc += invalidTrigramWarning
	case "SET":
		desc += noLocationWarning
	}
	return desc
}
