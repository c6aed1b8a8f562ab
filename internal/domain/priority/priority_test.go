package priority_test

import (
	"context"
	"testing"
	"time"

	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/internal/domain/priority"
	"github.com/rescuemesh/engine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func report(severity model.SeverityTier, people int, injuries bool, hazards ...model.HazardCondition) model.IncidentReport {
	return model.IncidentReport{
		ID:          "V-1704067500-abc",
		Severity:    severity,
		PeopleCount: people,
		HasInjuries: injuries,
		Hazards:     hazards,
		ReportedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDeterministicScorer_Score(t *testing.T) {
	Convey("Given a deterministic scorer", t, func() {
		scorer := priority.NewDeterministicScorer()
		ctx := context.Background()

		Convey("When scoring a critical incident with three people, injuries and a fire hazard", func() {
			result, err := scorer.Score(ctx, report(model.SeverityCritical, 3, true, model.HazardFire))

			Convey("Then the score is 50+12+15+5 = 82 and the tier is CRITICAL", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 82)
				So(result.Tier, ShouldEqual, model.PriorityCritical)
			})

			Convey("And the contributions add up to the score", func() {
				sum := 0
				for _, c := range result.Contributions {
					sum += c.Points
				}
				So(sum, ShouldEqual, result.Score)
			})
		})

		Convey("When scoring the same report repeatedly", func() {
			r := report(model.SeverityModerate, 4, true, model.HazardFlood)
			first, err := scorer.Score(ctx, r)
			So(err, ShouldBeNil)

			Convey("Then every run yields the identical result", func() {
				for i := 0; i < 50; i++ {
					again, err := scorer.Score(ctx, r)
					So(err, ShouldBeNil)
					So(again.Score, ShouldEqual, first.Score)
					So(again.Tier, ShouldEqual, first.Tier)
					So(again.Contributions, ShouldResemble, first.Contributions)
				}
			})
		})

		Convey("When the people count term would exceed its cap", func() {
			result, err := scorer.Score(ctx, report(model.SeverityCritical, 10, true))

			Convey("Then the people term is capped at 20", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 85) // 50+20+15
			})
		})

		Convey("When every factor is maxed out", func() {
			result, err := scorer.Score(ctx, report(model.SeverityCritical, 50, true,
				model.HazardFire, model.HazardFlood, model.HazardCollapse))

			Convey("Then the score is clamped to 100", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 100)
				So(result.Tier, ShouldEqual, model.PriorityCritical)
			})
		})

		Convey("When a hazard tag is duplicated", func() {
			result, err := scorer.Score(ctx, report(model.SeverityStable, 1, false,
				model.HazardFire, model.HazardFire, model.HazardFire))

			Convey("Then it is counted only once", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 19) // 10+4+5
				So(result.Tier, ShouldEqual, model.PriorityLow)
			})
		})

		Convey("When the severity tier is unrecognized", func() {
			result, err := scorer.Score(ctx, report(model.SeverityTier("SEVERE"), 1, false))

			Convey("Then the defensive base of 20 points is used", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 24) // 20+4
			})
		})

		Convey("When the people count is below one", func() {
			_, err := scorer.Score(ctx, report(model.SeverityCritical, 0, true))

			Convey("Then the report is rejected as invalid input", func() {
				So(err, ShouldEqual, priority.ErrInvalidInput)
			})
		})
	})
}

func TestTierBoundaries(t *testing.T) {
	Convey("Given reports that land exactly on the tier boundaries", t, func() {
		scorer := priority.NewDeterministicScorer()
		ctx := context.Background()

		cases := []struct {
			name   string
			report model.IncidentReport
			score  int
			tier   model.PriorityTier
		}{
			{
				// 30+20+15+5 = 70: first CRITICAL score
				name:   "score 70 is CRITICAL",
				report: report(model.SeverityModerate, 5, true, model.HazardFire),
				score:  70,
				tier:   model.PriorityCritical,
			},
			{
				// 50+4+15 = 69: last HIGH score
				name:   "score 69 is HIGH",
				report: report(model.SeverityCritical, 1, true),
				score:  69,
				tier:   model.PriorityHigh,
			},
			{
				// 10+20+5+5 = 40: first HIGH score
				name:   "score 40 is HIGH",
				report: report(model.SeverityStable, 5, false, model.HazardFire, model.HazardFlood),
				score:  40,
				tier:   model.PriorityHigh,
			},
			{
				// 10+4+15+5+5 = 39: last MEDIUM score
				name:   "score 39 is MEDIUM",
				report: report(model.SeverityStable, 1, true, model.HazardFire, model.HazardFlood),
				score:  39,
				tier:   model.PriorityMedium,
			},
			{
				// 10+4+5 = 19: last LOW score
				name:   "score 19 is LOW",
				report: report(model.SeverityStable, 1, false, model.HazardCollapse),
				score:  19,
				tier:   model.PriorityLow,
			},
		}

		for _, tc := range cases {
			Convey("When scoring the case where "+tc.name, func() {
				result, err := scorer.Score(ctx, tc.report)
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, tc.score)
				So(result.Tier, ShouldEqual, tc.tier)
			})
		}
	})
}
