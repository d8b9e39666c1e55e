package impact

import (
	json "github.com/goccy/go-json"
	"github.com/rshade/hostcarbon/internal/hardware"
)

// CPUConfig summarizes the CPU population for the impact service.
type CPUConfig struct {
	Units     int    `json:"units"`
	CoreUnits int    `json:"core_units"`
	Family    string `json:"family"`
}

// Configuration is the machine description sent to the impact service.
// It is derived per request and never persisted.
type Configuration struct {
	CPU         CPUConfig          `json:"cpu"`
	RAM         []hardware.RAM     `json:"ram"`
	Disk        []hardware.Disk    `json:"disk"`
	Motherboard hardware.Component `json:"motherboard"`
	PowerSupply hardware.Component `json:"power_supply"`
}

// Usage describes the usage phase of the queried window. Zero-valued
// optional fields are omitted from the request, mirroring how the service
// treats absent inputs.
type Usage struct {
	HoursUseTime               float64 `json:"hours_use_time"`
	UsageLocation              string  `json:"usage_location,omitempty"`
	HoursElectricalConsumption float64 `json:"hours_electrical_consumption,omitempty"`
}

// Model identifies a known server model, for the model-based endpoint
// variant.
type Model struct {
	Name      string `json:"name,omitempty"`
	Archetype string `json:"archetype,omitempty"`
}

// Phases carries one impact criterion split by lifecycle phase.
type Phases struct {
	Manufacture float64 `json:"manufacture"`
	Use         float64 `json:"use"`
	Unit        string  `json:"unit,omitempty"`
}

// Impacts is the service's impact breakdown: global warming potential,
// abiotic depletion potential and primary energy.
type Impacts struct {
	GWP Phases `json:"gwp"`
	ADP Phases `json:"adp"`
	PE  Phases `json:"pe"`
}

// Factor is a verbose diagnostic value, e.g. the electricity carbon
// intensity the service applied.
type Factor struct {
	Value  float64 `json:"value"`
	Status string  `json:"status,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	Source string  `json:"source,omitempty"`
}

// UsageLocation reports how the service resolved the requested location.
// Status is "MODIFY" when the provided trigram matched no country and "SET"
// when no location was provided at all; both mean the European average mix
// was used instead.
type UsageLocation struct {
	Value  string `json:"value,omitempty"`
	Status string `json:"status"`
	Unit   string `json:"unit,omitempty"`
}

// UsageVerbose is the usage-phase diagnostic block of a verbose response.
type UsageVerbose struct {
	GWPFactor     Factor        `json:"gwp_factor"`
	UsageLocation UsageLocation `json:"usage_location"`
}

// Verbose is the diagnostic section of the service response. Only the usage
// block is interpreted; the rest is preserved in Report.Raw.
type Verbose struct {
	Usage UsageVerbose `json:"USAGE"`
}

// Report is the impact service's response.
type Report struct {
	Impacts Impacts `json:"impacts"`
	Verbose Verbose `json:"verbose"`

	// Raw is the unmodified response body, kept for verbose passthrough
	// so diagnostic fields this client does not model survive intact.
	Raw json.RawMessage `json:"-"`
}

// ForecastPoint is one grid carbon-intensity forecast value.
type ForecastPoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}
