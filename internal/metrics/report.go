package metrics

import (
	json "github.com/goccy/go-json"
	"github.com/rshade/hostcarbon/internal/hardware"
)

// MetricType is the Prometheus series type of a report field.
type MetricType string

const (
	// Gauge marks a value that can go up and down.
	Gauge MetricType = "gauge"
	// Counter marks a monotonically increasing value.
	Counter MetricType = "counter"
)

// Metric is one report field: a scalar with descriptive metadata.
type Metric struct {
	Value       float64    `json:"value"`
	Description string     `json:"description"`
	Type        MetricType `json:"type"`
	Unit        string     `json:"unit"`
	LongUnit    string     `json:"long_unit"`
}

// NullableMetric is a Metric whose value may be absent, serialized as null.
// Used for average_power_measured when power was not measured.
type NullableMetric struct {
	Value       *float64   `json:"value"`
	Description string     `json:"description"`
	Type        MetricType `json:"type"`
	Unit        string     `json:"unit"`
	LongUnit    string     `json:"long_unit"`
}

// RawData carries the unprocessed inputs of a verbose report.
type RawData struct {
	HardwareData  *hardware.Inventory `json:"hardware_data"`
	ResourcesData string              `json:"resources_data"`
	ImpactData    json.RawMessage     `json:"impact_data"`
}

// CalculationData is the diagnostic sub-object of a report. It is always
// present; raw_data only when the query was verbose.
type CalculationData struct {
	AveragePowerMeasured       NullableMetric `json:"average_power_measured"`
	ElectricityCarbonIntensity Metric         `json:"electricity_carbon_intensity"`
	EnergyConsumptionWarning   string         `json:"energy_consumption_warning,omitempty"`
	RawData                    *RawData       `json:"raw_data,omitempty"`
}

// Report is the flat, typed metrics report returned by /query and rendered
// as exposition text by /metrics. The total_operational_* fields are present
// only when power was measured.
type Report struct {
	TotalOperationalEmissions *Metric `json:"total_operational_emissions,omitempty"`
	TotalOperationalADP       *Metric `json:"total_operational_abiotic_resources_depletion,omitempty"`
	TotalOperationalPE        *Metric `json:"total_operational_primary_energy_consumed,omitempty"`

	CalculatedEmissions Metric `json:"calculated_emissions"`
	StartTime           Metric `json:"start_time"`
	EndTime             Metric `json:"end_time"`
	EmbeddedEmissions   Metric `json:"embedded_emissions"`
	EmbeddedADP         Metric `json:"embedded_abiotic_resources_depletion"`
	EmbeddedPE          Metric `json:"embedded_primary_energy"`

	CalculationData CalculationData `json:"emissions_calculation_data"`
}
