// Package planner expands a rescue scenario into an equipment requirement.
//
// Planning is pure and total: every scenario, known or not, yields a usable
// requirement. An unknown scenario kind falls back to the GENERAL template
// and the fallback is flagged on the result.
package planner

import (
	"context"

	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/ids"
	"github.com/rescuemesh/engine/pkg/logger"
)

// Per-victim quantity rules.
const (
	victimsPerFirstAidKit = 3
	severityBonusCritical = 2
	severityBonusModerate = 1
	extraVictimDivisor    = 2
	extraVictimFloor      = 3
)

// Planner derives equipment requirements from scenario attributes.
type Planner interface {
	Plan(ctx context.Context, scenario model.ScenarioKind, victims int, severity model.SeverityTier, conditions []model.SpecialCondition) model.EquipmentRequirement
}

// Option applies a configuration option to the TemplatePlanner.
type Option func(*TemplatePlanner)

// WithLogger sets the logger used to flag template fallbacks.
func WithLogger(log logger.Logger) Option {
	return func(p *TemplatePlanner) {
		if log != nil {
			p.logger = log
		}
	}
}

// TemplatePlanner implements Planner over the fixed scenario templates.
type TemplatePlanner struct {
	logger logger.Logger
}

// NewTemplatePlanner creates a planner with configuration options.
func NewTemplatePlanner(opts ...Option) *TemplatePlanner {
	p := &TemplatePlanner{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("planner")
	}
	return p
}

// Plan builds the equipment requirement for a scenario.
//
// Required lines come first, in template order, followed by condition-driven
// additions and then recommended lines. The allocation engine relies on this
// order being stable.
func (p *TemplatePlanner) Plan(ctx context.Context, scenario model.ScenarioKind, victims int, severity model.SeverityTier, conditions []model.SpecialCondition) model.EquipmentRequirement {
	if victims < 1 {
		victims = 1
	}

	tmpl, known := templates[scenario]
	fallback := false
	if !known {
		p.logger.Warn(ctx, "unknown scenario kind, falling back to GENERAL template",
			logger.String("scenario", string(scenario)),
		)
		tmpl = templates[model.ScenarioGeneral]
		scenario = model.ScenarioGeneral
		fallback = true
	}

	lines := make([]model.RequirementLine, 0, len(tmpl.required)+len(tmpl.optional)+2)

	for _, kind := range tmpl.required {
		lines = append(lines, model.RequirementLine{
			Kind:      kind,
			Quantity:  quantityFor(kind, victims),
			Necessity: model.NecessityRequired,
		})
	}

	if hasCondition(conditions, model.ConditionElderly) || hasCondition(conditions, model.ConditionDisabled) {
		lines = append(lines, model.RequirementLine{
			Kind:      "wheelchair_stretcher",
			Quantity:  1,
			Necessity: model.NecessityRequired,
		})
	}
	if hasCondition(conditions, model.ConditionChildren) {
		lines = append(lines, model.RequirementLine{
			Kind:      "pediatric_kit",
			Quantity:  1,
			Necessity: model.NecessityRequired,
		})
	}

	// Recommended gear is only worth hauling out for the two worse tiers.
	if severity == model.SeverityCritical || severity == model.SeverityModerate {
		for _, kind := range tmpl.optional {
			lines = append(lines, model.RequirementLine{
				Kind:      kind,
				Quantity:  1,
				Necessity: model.NecessityRecommended,
			})
		}
	}

	return model.EquipmentRequirement{
		RequestID:         ids.NewRequestID(),
		Scenario:          scenario,
		Lines:             lines,
		PersonnelRequired: basePersonnel(tmpl.personnelBase, victims, severity),
		Fallback:          fallback,
	}
}

// quantityFor applies the per-kind quantity rules.
func quantityFor(kind string, victims int) int {
	switch kind {
	case "stretcher", "life_jacket":
		return victims
	case "first_aid_kit":
		return ceilDiv(victims, victimsPerFirstAidKit)
	default:
		return 1
	}
}

// basePersonnel applies the personnel estimate used on the requirement:
// template base, +1 per 2 victims over 3, +2 for CRITICAL or +1 for MODERATE.
func basePersonnel(base, victims int, severity model.SeverityTier) int {
	personnel := base
	if victims > extraVictimFloor {
		personnel += (victims - extraVictimFloor) / extraVictimDivisor
	}
	switch severity {
	case model.SeverityCritical:
		personnel += severityBonusCritical
	case model.SeverityModerate:
		personnel += severityBonusModerate
	}
	return personnel
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func hasCondition(conditions []model.SpecialCondition, want model.SpecialCondition) bool {
	for _, c := range conditions {
		if c == want {
			return true
		}
	}
	return false
}
