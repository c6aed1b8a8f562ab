package inventory

// Provisioning is the provisioned stock of one equipment kind.
type Provisioning struct {
	Total     int
	Threshold int
}

// DefaultCatalog returns the provisioned totals and alert thresholds for the
// fixed 20-kind equipment catalog. Kind names are lower-snake and are part
// of the wire contract with the planner and the dashboard.
func DefaultCatalog() map[string]Provisioning {
	return map[string]Provisioning{
		"stretcher":            {Total: 15, Threshold: 5},
		"first_aid_kit":        {Total: 30, Threshold: 10},
		"defibrillator":        {Total: 5, Threshold: 2},
		"oxygen_tank":          {Total: 10, Threshold: 3},
		"splints":              {Total: 20, Threshold: 5},
		"pediatric_kit":        {Total: 5, Threshold: 2},
		"wheelchair_stretcher": {Total: 3, Threshold: 1},
		"hydraulic_cutter":     {Total: 4, Threshold: 2},
		"concrete_saw":         {Total: 3, Threshold: 1},
		"airbag_lifter":        {Total: 2, Threshold: 1},
		"flashlight":           {Total: 50, Threshold: 15},
		"radio":                {Total: 30, Threshold: 10},
		"rope":                 {Total: 20, Threshold: 5},
		"ladder":               {Total: 8, Threshold: 3},
		"fire_extinguisher":    {Total: 25, Threshold: 8},
		"breathing_apparatus":  {Total: 12, Threshold: 4},
		"thermal_camera":       {Total: 3, Threshold: 1},
		"life_jacket":          {Total: 40, Threshold: 15},
		"inflatable_boat":      {Total: 4, Threshold: 2},
		"water_pump":           {Total: 6, Threshold: 2},
	}
}
