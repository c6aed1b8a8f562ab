// Package priority computes urgency scores for incident reports.
//
// Scoring is deterministic: the same report always yields the same score,
// tier and contribution list. The scorer performs no I/O.
package priority

import (
	"context"

	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/logger"
)

// Fixed point weights. The sum is capped at maxScore.
const (
	severityCriticalPoints = 50
	severityModeratePoints = 30
	severityStablePoints   = 10
	severityUnknownPoints  = 20

	pointsPerPerson  = 4
	peoplePointsCap  = 20
	injuryPoints     = 15
	hazardPoints     = 5
	maxScore         = 100
	tierCriticalFrom = 70
	tierHighFrom     = 40
	tierMediumFrom   = 20
)

// hazardOrder fixes the contribution order for hazard terms so the result
// does not depend on the order hazards appear in the report.
var hazardOrder = []model.HazardCondition{ //nolint:gochecknoglobals // fixed scoring table
	model.HazardFire,
	model.HazardFlood,
	model.HazardCollapse,
}

// Scorer computes a priority result from an incident report.
type Scorer interface {
	Score(ctx context.Context, report model.IncidentReport) (model.PriorityResult, error)
}

// Option applies a configuration option to the DeterministicScorer.
type Option func(*DeterministicScorer)

// WithLogger sets the logger used to flag anomalous inputs.
func WithLogger(log logger.Logger) Option {
	return func(s *DeterministicScorer) {
		if log != nil {
			s.logger = log
		}
	}
}

// DeterministicScorer implements Scorer with fixed point weights.
type DeterministicScorer struct {
	logger logger.Logger
}

// NewDeterministicScorer creates a scorer with configuration options.
func NewDeterministicScorer(opts ...Option) *DeterministicScorer {
	s := &DeterministicScorer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("priority")
	}
	return s
}

// Score computes the priority result for a report.
//
// A people count below one indicates a malformed upstream report and is
// rejected with ErrInvalidInput rather than clamped. An unrecognized
// severity tier is coerced to a defensive base of 20 points and logged as
// an anomaly, not treated as an error.
func (s *DeterministicScorer) Score(ctx context.Context, report model.IncidentReport) (model.PriorityResult, error) {
	if report.PeopleCount < 1 {
		return model.PriorityResult{}, ErrInvalidInput
	}

	contributions := make([]model.Contribution, 0, 6)
	score := 0

	severityPoints := severityBase(report.Severity)
	if severityPoints == severityUnknownPoints && !knownSeverity(report.Severity) {
		s.logger.Warn(ctx, "unknown severity tier, using defensive base",
			logger.String("severity", string(report.Severity)),
			logger.String("reportID", report.ID),
		)
	}
	score += severityPoints
	contributions = append(contributions, model.Contribution{Factor: "severity", Points: severityPoints})

	peoplePoints := report.PeopleCount * pointsPerPerson
	if peoplePoints > peoplePointsCap {
		peoplePoints = peoplePointsCap
	}
	score += peoplePoints
	contributions = append(contributions, model.Contribution{Factor: "people_count", Points: peoplePoints})

	if report.HasInjuries {
		score += injuryPoints
		contributions = append(contributions, model.Contribution{Factor: "injuries", Points: injuryPoints})
	}

	present := make(map[model.HazardCondition]bool, len(report.Hazards))
	for _, h := range report.Hazards {
		present[h] = true
	}
	// Each hazard counts once no matter how often it is reported.
	for _, h := range hazardOrder {
		if present[h] {
			score += hazardPoints
			contributions = append(contributions, model.Contribution{
				Factor: "hazard_" + string(h),
				Points: hazardPoints,
			})
		}
	}

	if score > maxScore {
		score = maxScore
	}

	return model.PriorityResult{
		Score:         score,
		Tier:          tierFor(score),
		Contributions: contributions,
	}, nil
}

func severityBase(tier model.SeverityTier) int {
	switch tier {
	case model.SeverityCritical:
		return severityCriticalPoints
	case model.SeverityModerate:
		return severityModeratePoints
	case model.SeverityStable:
		return severityStablePoints
	default:
		return severityUnknownPoints
	}
}

func knownSeverity(tier model.SeverityTier) bool {
	switch tier {
	case model.SeverityCritical, model.SeverityModerate, model.SeverityStable:
		return true
	default:
		return false
	}
}

func tierFor(score int) model.PriorityTier {
	switch {
	case score >= tierCriticalFrom:
		return model.PriorityCritical
	case score >= tierHighFrom:
		return model.PriorityHigh
	case score >= tierMediumFrom:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
