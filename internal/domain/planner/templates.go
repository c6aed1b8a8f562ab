package planner

import "github.com/rescuemesh/engine/internal/domain/model"

// template is the fixed equipment profile of one scenario kind.
type template struct {
	required      []string
	optional      []string
	personnelBase int
}

// templates is the closed scenario-to-equipment mapping. Keys outside this
// table fall back to the GENERAL template.
var templates = map[model.ScenarioKind]template{ //nolint:gochecknoglobals // fixed planning table
	model.ScenarioBuildingCollapse: {
		required:      []string{"stretcher", "first_aid_kit", "flashlight", "radio"},
		optional:      []string{"hydraulic_cutter", "concrete_saw", "airbag_lifter"},
		personnelBase: 4,
	},
	model.ScenarioFlood: {
		required:      []string{"life_jacket", "rope", "stretcher", "first_aid_kit"},
		optional:      []string{"inflatable_boat", "water_pump"},
		personnelBase: 3,
	},
	model.ScenarioFire: {
		required:      []string{"fire_extinguisher", "breathing_apparatus", "first_aid_kit"},
		optional:      []string{"thermal_camera", "ladder"},
		personnelBase: 4,
	},
	model.ScenarioMedical: {
		required:      []string{"stretcher", "first_aid_kit", "defibrillator"},
		optional:      []string{"oxygen_tank", "splints"},
		personnelBase: 2,
	},
	model.ScenarioGeneral: {
		required:      []string{"first_aid_kit", "flashlight", "radio", "stretcher"},
		optional:      []string{},
		personnelBase: 2,
	},
}

// ScenarioKinds returns the closed set of known scenario kinds.
func ScenarioKinds() []model.ScenarioKind {
	return []model.ScenarioKind{
		model.ScenarioBuildingCollapse,
		model.ScenarioFlood,
		model.ScenarioFire,
		model.ScenarioMedical,
		model.ScenarioGeneral,
	}
}
