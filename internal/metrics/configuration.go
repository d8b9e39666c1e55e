package metrics

import (
	"sort"

	"github.com/rshade/hostcarbon/internal/hardware"
	"github.com/rshade/hostcarbon/internal/impact"
)

// BuildConfiguration maps a hardware inventory into the machine description
// the impact service expects.
//
// The CPU block assumes a homogeneous CPU population: unit count is the
// length of the CPU list, but core_units and family come from the first
// record only. This is a known approximation carried over from the
// collector's contract, not something to generalize silently.
func BuildConfiguration(inv *hardware.Inventory) impact.Configuration {
	cfg := impact.Configuration{
		CPU: impact.CPUConfig{
			Units: len(inv.CPUs),
		},
		RAM:         sortRAM(inv.RAMs),
		Disk:        sortDisks(inv.Disks),
		Motherboard: hardware.Component{Units: 1},
		PowerSupply: hardware.Component{Units: 1},
	}

	if len(inv.CPUs) > 0 {
		cfg.CPU.CoreUnits = inv.CPUs[0].CoreUnits
		cfg.CPU.Family = inv.CPUs[0].Family
	}
	if inv.Motherboard != nil {
		cfg.Motherboard = *inv.Motherboard
	}
	if inv.PowerSupply != nil {
		cfg.PowerSupply = *inv.PowerSupply
	}
	return cfg
}

// sortRAM returns the modules in the stable capacity order the impact
// service expects. The input is not modified.
func sortRAM(rams []hardware.RAM) []hardware.RAM {
	out := make([]hardware.RAM, len(rams))
	copy(out, rams)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Capacity < out[j].Capacity
	})
	return out
}

// sortDisks returns the disks ordered by type, then capacity. The input is
// not modified.
func sortDisks(disks []hardware.Disk) []hardware.Disk {
	out := make([]hardware.Disk, len(disks))
	copy(out, disks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Capacity < out[j].Capacity
	})
	return out
}
