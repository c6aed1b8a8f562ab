package planner

import (
	"math"

	"github.com/rescuemesh/engine/internal/domain/model"
)

// recommendedBuffer pads the recommended headcount over the minimum.
const recommendedBuffer = 1.2

// Role names used in the personnel breakdown.
const (
	RoleTeamLeader = "team_leader"
	RoleMedic      = "medic"
	RoleRescuer    = "rescuer"
)

// RoleCount is one role line of a personnel estimate.
type RoleCount struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// PersonnelEstimate breaks the headcount of a mission down by contributing
// factor and by role.
type PersonnelEstimate struct {
	Minimum     int         `json:"minimum_personnel"`
	Recommended int         `json:"recommended_personnel"`
	Base        int         `json:"base"`
	VictimRatio int         `json:"victim_ratio"`
	Severity    int         `json:"severity_bonus"`
	Operators   int         `json:"equipment_operators"`
	Roles       []RoleCount `json:"roles"`
}

// Personnel computes the full personnel estimate for a scenario, including
// operators for heavy equipment and a role distribution. heavyEquipment is
// the number of heavy equipment lines on the mission; one operator covers
// two pieces.
func Personnel(scenario model.ScenarioKind, victims int, severity model.SeverityTier, heavyEquipment int) PersonnelEstimate {
	if victims < 1 {
		victims = 1
	}
	if heavyEquipment < 0 {
		heavyEquipment = 0
	}

	tmpl, known := templates[scenario]
	if !known {
		tmpl = templates[model.ScenarioGeneral]
	}

	victimRatio := 0
	if victims > extraVictimFloor {
		victimRatio = (victims - extraVictimFloor) / extraVictimDivisor
	}

	severityBonus := 0
	switch severity {
	case model.SeverityCritical:
		severityBonus = severityBonusCritical
	case model.SeverityModerate:
		severityBonus = severityBonusModerate
	}

	operators := heavyEquipment / 2
	minimum := tmpl.personnelBase + victimRatio + severityBonus + operators

	return PersonnelEstimate{
		Minimum:     minimum,
		Recommended: int(math.Ceil(float64(minimum) * recommendedBuffer)),
		Base:        tmpl.personnelBase,
		VictimRatio: victimRatio,
		Severity:    severityBonus,
		Operators:   operators,
		Roles:       distributeRoles(minimum, victims),
	}
}

// distributeRoles splits a headcount into one team leader, one medic per
// three victims (at least one), and rescuers for the remainder. All three
// roles always appear in the breakdown, with count zero when no one fills
// them, so consumers see a fixed shape.
func distributeRoles(total, victims int) []RoleCount {
	remaining := total - 1

	medics := ceilDiv(victims, victimsPerFirstAidKit)
	if medics < 1 {
		medics = 1
	}
	if medics > remaining {
		medics = remaining
	}
	remaining -= medics

	return []RoleCount{
		{Role: RoleTeamLeader, Count: 1},
		{Role: RoleMedic, Count: medics},
		{Role: RoleRescuer, Count: remaining},
	}
}
