// Package model contains domain models passed between layers.
//
// Enum values are upper-case strings and equipment kinds are lower-snake
// strings; both are part of the wire contract with the gateway and dashboard
// layers and must not be reformatted.
package model

import "time"

// SeverityTier is the incident-level classification supplied by intake.
// It is distinct from the derived PriorityTier.
type SeverityTier string

// Severity tiers.
const (
	SeverityCritical SeverityTier = "CRITICAL"
	SeverityModerate SeverityTier = "MODERATE"
	SeverityStable   SeverityTier = "STABLE"
)

// HazardCondition tags a hazard present at an incident site.
type HazardCondition string

// Hazard conditions that contribute to the priority score.
const (
	HazardFire     HazardCondition = "FIRE"
	HazardFlood    HazardCondition = "FLOOD"
	HazardCollapse HazardCondition = "COLLAPSE"
)

// SpecialCondition tags vulnerable groups among the victims.
type SpecialCondition string

// Special conditions recognized by the equipment planner.
const (
	ConditionElderly  SpecialCondition = "ELDERLY"
	ConditionDisabled SpecialCondition = "DISABLED"
	ConditionChildren SpecialCondition = "CHILDREN"
)

// ScenarioKind classifies the rescue scenario for equipment planning.
type ScenarioKind string

// Scenario kinds. Unknown kinds fall back to ScenarioGeneral.
const (
	ScenarioBuildingCollapse ScenarioKind = "BUILDING_COLLAPSE"
	ScenarioFlood            ScenarioKind = "FLOOD"
	ScenarioFire             ScenarioKind = "FIRE"
	ScenarioMedical          ScenarioKind = "MEDICAL"
	ScenarioGeneral          ScenarioKind = "GENERAL"
)

// PriorityTier is derived from the priority score.
type PriorityTier string

// Priority tiers.
const (
	PriorityCritical PriorityTier = "CRITICAL"
	PriorityHigh     PriorityTier = "HIGH"
	PriorityMedium   PriorityTier = "MEDIUM"
	PriorityLow      PriorityTier = "LOW"
)

// Necessity classifies an equipment line item.
type Necessity string

// Necessity values. Required lines are allocated before recommended ones.
const (
	NecessityRequired    Necessity = "REQUIRED"
	NecessityRecommended Necessity = "RECOMMENDED"
)

// VictimStatus tracks a queue entry through its lifecycle.
type VictimStatus string

// Victim statuses. The only legal transitions are
// PENDING -> IN_PROGRESS -> RESOLVED.
const (
	StatusPending    VictimStatus = "PENDING"
	StatusInProgress VictimStatus = "IN_PROGRESS"
	StatusResolved   VictimStatus = "RESOLVED"
)

// MissionState reflects the outcome of an allocation attempt.
type MissionState string

// Mission states.
const (
	MissionPending            MissionState = "PENDING"
	MissionAllocated          MissionState = "ALLOCATED"
	MissionPartiallyAllocated MissionState = "PARTIALLY_ALLOCATED"
	MissionRejected           MissionState = "REJECTED"
	MissionReleased           MissionState = "RELEASED"
)

// ShortfallReason explains why a requirement line could not be reserved.
type ShortfallReason string

// Shortfall reasons.
const (
	ReasonInsufficientStock ShortfallReason = "INSUFFICIENT_STOCK"
	ReasonUnknownKind       ShortfallReason = "UNKNOWN_KIND"
)

// Location is a lat/lng pair plus a free-text description.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
}

// IncidentReport is an incident as reported by intake. Immutable once
// created; status changes are tracked on the queue entry, never here.
type IncidentReport struct {
	ID          string            `json:"id"`
	Location    Location          `json:"location"`
	Severity    SeverityTier      `json:"severity_tier"`
	PeopleCount int               `json:"people_count"`
	HasInjuries bool              `json:"has_injuries"`
	Hazards     []HazardCondition `json:"hazard_conditions"`
	ReportedAt  time.Time         `json:"reported_at"`
}

// Contribution is one (factor, points) line of a priority score, kept for
// auditability.
type Contribution struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
}

// PriorityResult is the derived urgency of an incident. It is a pure
// function of the report and is recomputable at any time.
type PriorityResult struct {
	Score         int            `json:"score"`
	Tier          PriorityTier   `json:"tier"`
	Contributions []Contribution `json:"contributions"`
}

// RequirementLine is one equipment line of a requirement.
type RequirementLine struct {
	Kind      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	Necessity Necessity `json:"necessity"`
}

// EquipmentRequirement is the planner output for one mission.
type EquipmentRequirement struct {
	RequestID         string            `json:"request_id"`
	Scenario          ScenarioKind      `json:"scenario_type"`
	Lines             []RequirementLine `json:"equipment"`
	PersonnelRequired int               `json:"personnel_required"`
	// Fallback is set when the requested scenario kind was unknown and the
	// GENERAL template was used instead.
	Fallback bool `json:"fallback,omitempty"`
}

// AssignedItem records one reserved line of a mission.
type AssignedItem struct {
	Kind     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// ShortfallLine records one requirement line that could not be reserved.
type ShortfallLine struct {
	Kind     string          `json:"item"`
	Quantity int             `json:"quantity"`
	Reason   ShortfallReason `json:"reason"`
}

// Mission is the record of one allocation attempt. AssignedItems is a
// read-only snapshot of what was reserved on the mission's behalf; the
// inventory ledger remains the single source of truth for live counts.
type Mission struct {
	MissionID     string          `json:"mission_id"`
	RequestID     string          `json:"request_id"`
	VictimID      string          `json:"victim_id"`
	TeamID        string          `json:"team_id"`
	AssignedItems []AssignedItem  `json:"equipment_assigned"`
	Shortfall     []ShortfallLine `json:"shortfall"`
	State         MissionState    `json:"state"`
	AllocatedAt   time.Time       `json:"allocated_at"`
}

// QueueEntry is one victim waiting for dispatch.
type QueueEntry struct {
	VictimID   string         `json:"victim_id"`
	Report     IncidentReport `json:"report"`
	Priority   PriorityResult `json:"priority"`
	Status     VictimStatus   `json:"status"`
	AdmittedAt time.Time      `json:"admitted_at"`
}

// InventoryItemStatus is a point-in-time snapshot of one equipment kind.
type InventoryItemStatus struct {
	Kind      string      `json:"kind"`
	Available int         `json:"available"`
	Total     int         `json:"total"`
	Reserved  int         `json:"reserved"`
	Threshold int         `json:"threshold"`
	Status    StockStatus `json:"status"`
}

// StockStatus is the threshold-derived state of one equipment kind.
type StockStatus string

// Stock statuses, from healthy to exhausted.
const (
	StockOK       StockStatus = "OK"
	StockLow      StockStatus = "LOW"
	StockCritical StockStatus = "CRITICAL"
	StockOut      StockStatus = "OUT"
)

// StockAlert records one threshold alert raised by the inventory sweep.
type StockAlert struct {
	AlertID   string      `json:"alert_id"`
	Kind      string      `json:"kind"`
	Level     StockStatus `json:"level"`
	Message   string      `json:"message"`
	RaisedAt  time.Time   `json:"raised_at"`
	Available int         `json:"available"`
}
