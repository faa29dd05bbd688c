// Package knowledge maps diagnosed fault types to the technician skills and
// spare parts a repair usually needs.
package knowledge

import (
	"sort"
	"strings"
)

// DefaultSkill is required when a fault type is not in the table.
const DefaultSkill = "general_maintenance"

type requirement struct {
	skills []string
	parts  []string
}

// Mapper is an immutable fault-type lookup table. The zero value knows no fault
// types and resolves everything to the defaults.
type Mapper struct {
	table map[string]requirement
}

var defaultMapper = newMapper(map[string]requirement{
	"curing_temperature_excessive": {
		skills: []string{"temperature_control", "instrumentation", "electrical_systems"},
		parts:  []string{"TCP-650", "HTR-1200", "TCM-220"},
	},
	"curing_pressure_low": {
		skills: []string{"hydraulic_systems", "pneumatic_systems"},
		parts:  []string{"HSK-210", "PRV-085", "BLD-400"},
	},
	"bladder_leak": {
		skills: []string{"curing_press_operation", "pneumatic_systems"},
		parts:  []string{"BLD-400", "BLD-SEAL-15"},
	},
	"mixer_motor_overload": {
		skills: []string{"electrical_systems", "motor_drives"},
		parts:  []string{"MTR-BRG-6312", "VFD-FUSE-80"},
	},
	"mixer_rotor_wear": {
		skills: []string{"mechanical_systems", "welding"},
		parts:  []string{"RTR-TIP-30", "DST-SEAL-44"},
	},
	"extruder_die_blockage": {
		skills: []string{"extrusion", "mechanical_systems"},
		parts:  []string{"DIE-PLT-120", "SCR-PCK-60"},
	},
	"extruder_screw_wear": {
		skills: []string{"extrusion", "precision_machining"},
		parts:  []string{"SCR-BRL-90", "THR-BRG-32"},
	},
	"calender_roll_misalignment": {
		skills: []string{"mechanical_systems", "laser_alignment"},
		parts:  []string{"ROL-BRG-22", "SHM-KIT-05"},
	},
	"conveyor_belt_misalignment": {
		skills: []string{"mechanical_systems", "conveyor_systems"},
		parts:  []string{"BLT-TRK-12", "IDL-ROL-08"},
	},
	"bearing_failure": {
		skills: []string{"vibration_analysis", "mechanical_systems"},
		parts:  []string{"MTR-BRG-6312", "GRS-EP2"},
	},
	"vibration_excessive": {
		skills: []string{"vibration_analysis", "mechanical_systems", "laser_alignment"},
		parts:  []string{"MTR-BRG-6312", "CPL-ELM-48"},
	},
	"hydraulic_leak": {
		skills: []string{"hydraulic_systems"},
		parts:  []string{"HSK-210", "HYD-HOSE-19", "HYD-OIL-46"},
	},
	"pneumatic_pressure_drop": {
		skills: []string{"pneumatic_systems"},
		parts:  []string{"PNV-SOL-24", "PNF-ELM-10"},
	},
	"sensor_malfunction": {
		skills: []string{"instrumentation", "electrical_systems"},
		parts:  []string{"TCP-650", "PRS-TRN-10"},
	},
	"plc_communication_failure": {
		skills: []string{"plc_programming", "industrial_networks"},
		parts:  []string{"ETH-SWT-08"},
	},
	"bead_wire_tension_fault": {
		skills: []string{"mechanical_systems", "tension_control"},
		parts:  []string{"TNS-CEL-05", "BRK-PAD-14"},
	},
})

// Default returns the built-in fault knowledge table.
func Default() *Mapper {
	return defaultMapper
}

func newMapper(entries map[string]requirement) *Mapper {
	table := make(map[string]requirement, len(entries))
	for faultType, req := range entries {
		table[normalize(faultType)] = requirement{
			skills: append([]string(nil), req.skills...),
			parts:  append([]string(nil), req.parts...),
		}
	}
	return &Mapper{table: table}
}

// RequiredSkills returns the skill tags needed to repair faultType. Unknown
// fault types need general_maintenance only.
func (m *Mapper) RequiredSkills(faultType string) []string {
	req, ok := m.lookup(faultType)
	if !ok {
		return []string{DefaultSkill}
	}
	return append([]string{}, req.skills...)
}

// RequiredParts returns the part numbers usually consumed when repairing
// faultType. Unknown fault types need no parts; the result is never nil.
func (m *Mapper) RequiredParts(faultType string) []string {
	req, ok := m.lookup(faultType)
	if !ok {
		return []string{}
	}
	return append([]string{}, req.parts...)
}

// FaultTypes lists the known fault types in sorted order.
func (m *Mapper) FaultTypes() []string {
	types := make([]string, 0, len(m.table))
	for faultType := range m.table {
		types = append(types, faultType)
	}
	sort.Strings(types)
	return types
}

func (m *Mapper) lookup(faultType string) (requirement, bool) {
	if m == nil || m.table == nil {
		return requirement{}, false
	}
	req, ok := m.table[normalize(faultType)]
	return req, ok
}

func normalize(faultType string) string {
	return strings.ToLower(strings.TrimSpace(faultType))
}
