package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/rescuemesh/engine/internal/app"
	"github.com/rescuemesh/engine/internal/domain/model"
	logging "github.com/rescuemesh/engine/pkg/logger"
)

func newStartedService(t *testing.T) *service.Service {
	t.Helper()
	_ = logging.Init()

	svc := service.New(
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
		service.WithDedupeSize(128),
		service.WithAlertSweepSpec("@every 1h"),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestReportPipeline(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		convey.Convey("When a report is submitted", func() {
			id, ok := svc.SubmitReport(ctx, model.IncidentReport{
				Severity:    model.SeverityCritical,
				PeopleCount: 3,
				HasInjuries: true,
				Hazards:     []model.HazardCondition{model.HazardFire},
				ReportedAt:  time.Now().UTC(),
			})

			convey.Convey("Then it surfaces in the victim queue, scored", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(id, convey.ShouldNotBeEmpty)

				admitted := waitFor(2*time.Second, func() bool {
					return svc.QueueLen(ctx) == 1
				})
				convey.So(admitted, convey.ShouldBeTrue)

				entry, found := svc.PeekQueue(ctx)
				convey.So(found, convey.ShouldBeTrue)
				convey.So(entry.VictimID, convey.ShouldEqual, id)
				convey.So(entry.Priority.Score, convey.ShouldEqual, 82)
				convey.So(entry.Priority.Tier, convey.ShouldEqual, model.PriorityCritical)
				convey.So(entry.Status, convey.ShouldEqual, model.StatusPending)
			})
		})

		convey.Convey("When the same report id is submitted twice", func() {
			report := model.IncidentReport{
				ID:          "V-dup",
				Severity:    model.SeverityStable,
				PeopleCount: 1,
				ReportedAt:  time.Now().UTC(),
			}
			_, first := svc.SubmitReport(ctx, report)
			_, second := svc.SubmitReport(ctx, report)

			convey.Convey("Then only one queue entry appears", func() {
				convey.So(first, convey.ShouldBeTrue)
				convey.So(second, convey.ShouldBeTrue)

				waitFor(time.Second, func() bool { return svc.QueueLen(ctx) >= 1 })
				time.Sleep(50 * time.Millisecond)
				convey.So(svc.QueueLen(ctx), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestPlanAndAllocate(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		convey.Convey("When a flood mission for four victims is planned and allocated", func() {
			req := svc.PlanEquipment(ctx, model.ScenarioFlood, 4, model.SeverityModerate, nil)
			mission := svc.Allocate(ctx, req, "", "V-42", "")

			convey.Convey("Then the mission holds its equipment and the ledger reflects it", func() {
				convey.So(req.RequestID, convey.ShouldStartWith, "REQ-")
				convey.So(mission.State, convey.ShouldEqual, model.MissionAllocated)
				convey.So(mission.VictimID, convey.ShouldEqual, "V-42")
				convey.So(mission.TeamID, convey.ShouldNotBeEmpty)
				convey.So(len(mission.AssignedItems), convey.ShouldEqual, len(req.Lines))

				status, err := svc.InventoryStatus(ctx, "life_jacket")
				convey.So(err, convey.ShouldBeNil)
				convey.So(status.Reserved, convey.ShouldEqual, 4)

				convey.Convey("And releasing the mission restores the pool", func() {
					svc.ReleaseMission(ctx, mission.MissionID)

					status, err := svc.InventoryStatus(ctx, "life_jacket")
					convey.So(err, convey.ShouldBeNil)
					convey.So(status.Reserved, convey.ShouldEqual, 0)

					stored, found := svc.Mission(ctx, mission.MissionID)
					convey.So(found, convey.ShouldBeTrue)
					convey.So(stored.State, convey.ShouldEqual, model.MissionReleased)
				})
			})
		})

		convey.Convey("When personnel are estimated for the same scenario", func() {
			estimate := svc.EstimatePersonnel(ctx, model.ScenarioFlood, 4, model.SeverityModerate, 1)

			convey.Convey("Then the breakdown is consistent", func() {
				convey.So(estimate.Minimum, convey.ShouldBeGreaterThan, 0)
				convey.So(estimate.Recommended, convey.ShouldBeGreaterThanOrEqualTo, estimate.Minimum)
				total := 0
				for _, role := range estimate.Roles {
					total += role.Count
				}
				convey.So(total, convey.ShouldEqual, estimate.Minimum)
			})
		})
	})
}

func TestInventoryOverrides(t *testing.T) {
	convey.Convey("Given a service with an inventory override", t, func() {
		_ = logging.Init()
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithAlertSweepSpec("@every 1h"),
			service.WithInventoryOverrides(map[string]int{"stretcher": 30}),
		)
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()
		ctx := context.Background()

		convey.Convey("When the overridden kind is inspected", func() {
			status, err := svc.InventoryStatus(ctx, "stretcher")

			convey.Convey("Then the provisioned total reflects the override", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(status.Total, convey.ShouldEqual, 30)
				convey.So(status.Threshold, convey.ShouldEqual, 5)
			})
		})
	})
}

func TestVictimLifecycle(t *testing.T) {
	convey.Convey("Given a started service with an admitted victim", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		entry, err := svc.AdmitReport(ctx, model.IncidentReport{
			ID:          "V-7",
			Severity:    model.SeverityModerate,
			PeopleCount: 2,
			ReportedAt:  time.Now().UTC(),
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the rescue progresses", func() {
			inProgress, err := svc.UpdateVictimStatus(ctx, entry.VictimID, model.StatusInProgress)
			convey.So(err, convey.ShouldBeNil)
			convey.So(inProgress.Status, convey.ShouldEqual, model.StatusInProgress)

			resolved, err := svc.UpdateVictimStatus(ctx, entry.VictimID, model.StatusResolved)
			convey.So(err, convey.ShouldBeNil)
			convey.So(resolved.Status, convey.ShouldEqual, model.StatusResolved)

			convey.Convey("Then the resolved victim no longer surfaces on peek", func() {
				_, found := svc.PeekQueue(ctx)
				convey.So(found, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the queue is listed", func() {
			entries, err := svc.ListQueue(ctx, 10)

			convey.Convey("Then the victim appears", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 1)
				convey.So(entries[0].VictimID, convey.ShouldEqual, "V-7")
			})
		})
	})
}
