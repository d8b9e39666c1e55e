package hardware

// CPU describes one physical CPU package as reported by the collector.
// Field names follow the impact-estimation service's component schema.
type CPU struct {
	Units        int    `json:"units,omitempty"`
	CoreUnits    int    `json:"core_units"`
	Family       string `json:"family"`
	Name         string `json:"name,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// RAM describes one memory module. Capacity is in GB.
type RAM struct {
	Units        int    `json:"units,omitempty"`
	Capacity     int    `json:"capacity"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// Disk describes one storage device. Type is "ssd" or "hdd", capacity in GB.
type Disk struct {
	Units        int    `json:"units,omitempty"`
	Type         string `json:"type"`
	Capacity     int    `json:"capacity"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// Component is a bare component record carrying only a unit count, used for
// motherboard and power supply where the collector provides no more detail.
type Component struct {
	Units int `json:"units"`
}

// Inventory is the flat hardware snapshot produced by the collector.
// It carries no history; each collection overwrites the previous one.
type Inventory struct {
	CPUs        []CPU      `json:"cpus"`
	RAMs        []RAM      `json:"rams"`
	Disks       []Disk     `json:"disks"`
	Motherboard *Component `json:"mother_board,omitempty"`
	PowerSupply *Component `json:"power_supply,omitempty"`
}
