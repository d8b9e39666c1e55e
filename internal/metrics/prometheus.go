package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// PrometheusText renders the report as Prometheus exposition text: a HELP
// line, a TYPE line and one sample per leaf metric. Leaves nested under
// emissions_calculation_data are prefixed with that key. Metrics without a
// value (unmeasured power) are skipped.
func (r *Report) PrometheusText() string {
	var b strings.Builder

	writeOptional := func(name string, m *Metric) {
		if m != nil {
			writeSample(&b, name, m.Description, m.Type, m.Value)
		}
	}

	writeOptional("total_operational_emissions", r.TotalOperationalEmissions)
	writeOptional("total_operational_abiotic_resources_depletion", r.TotalOperationalADP)
	writeOptional("total_operational_primary_energy_consumed", r.TotalOperationalPE)

	writeSample(&b, "calculated_emissions", r.CalculatedEmissions.Description, r.CalculatedEmissions.Type, r.CalculatedEmissions.Value)
	writeSample(&b, "start_time", r.StartTime.Description, r.StartTime.Type, r.StartTime.Value)
	writeSample(&b, "end_time", r.EndTime.Description, r.EndTime.Type, r.EndTime.Value)
	writeSample(&b, "embedded_emissions", r.EmbeddedEmissions.Description, r.EmbeddedEmissions.Type, r.EmbeddedEmissions.Value)
	writeSample(&b, "embedded_abiotic_resources_depletion", r.EmbeddedADP.Description, r.EmbeddedADP.Type, r.EmbeddedADP.Value)
	writeSample(&b, "embedded_primary_energy", r.EmbeddedPE.Description, r.EmbeddedPE.Type, r.EmbeddedPE.Value)

	if apm := r.CalculationData.AveragePowerMeasured; apm.Value != nil {
		writeSample(&b, "emissions_calculation_data_average_power_measured", apm.Description, apm.Type, *apm.Value)
	}
	eci := r.CalculationData.ElectricityCarbonIntensity
	writeSample(&b, "emissions_calculation_data_electricity_carbon_intensity", eci.Description, eci.Type, eci.Value)

	return b.String()
}

// writeSample appends one metric in exposition format. Newlines in the help
// text would break the format, so they are flattened.
func writeSample(b *strings.Builder, name, description string, typ MetricType, value float64) {
	help := strings.ReplaceAll(description, "\n", " ")
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, typ)
	fmt.Fprintf(b, "%s %s\n", name, strconv.FormatFloat(value, 'g', -1, 64))
}
