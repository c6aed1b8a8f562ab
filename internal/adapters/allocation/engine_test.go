package allocation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rescuemesh/engine/internal/adapters/allocation"
	"github.com/rescuemesh/engine/internal/adapters/inventory"
	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func requirement(lines ...model.RequirementLine) model.EquipmentRequirement {
	return model.EquipmentRequirement{
		RequestID: "REQ-1704067500-ab12",
		Scenario:  model.ScenarioGeneral,
		Lines:     lines,
	}
}

func required(kind string, qty int) model.RequirementLine {
	return model.RequirementLine{Kind: kind, Quantity: qty, Necessity: model.NecessityRequired}
}

func recommended(kind string, qty int) model.RequirementLine {
	return model.RequirementLine{Kind: kind, Quantity: qty, Necessity: model.NecessityRecommended}
}

func TestEngine_Allocate(t *testing.T) {
	Convey("Given an engine over a fresh ledger", t, func() {
		ledger := inventory.NewInMemoryLedger()
		engine := allocation.NewEngine(ledger)
		ctx := context.Background()

		Convey("When every line can be reserved", func() {
			mission := engine.Allocate(ctx,
				requirement(required("stretcher", 3), required("first_aid_kit", 1), recommended("hydraulic_cutter", 1)),
				"M-1", "V-1", "")

			Convey("Then the mission is fully allocated", func() {
				So(mission.State, ShouldEqual, model.MissionAllocated)
				So(len(mission.AssignedItems), ShouldEqual, 3)
				So(mission.Shortfall, ShouldBeEmpty)
			})

			Convey("And the ledger reflects the reservations", func() {
				status, err := ledger.Status(ctx, "stretcher")
				So(err, ShouldBeNil)
				So(status.Reserved, ShouldEqual, 3)
			})

			Convey("And a team was auto-assigned from the rotation", func() {
				So(mission.TeamID, ShouldEqual, "T-Alpha")
			})

			Convey("And the mission carries the request and victim ids", func() {
				So(mission.RequestID, ShouldEqual, "REQ-1704067500-ab12")
				So(mission.VictimID, ShouldEqual, "V-1")
			})
		})

		Convey("When one line exceeds the available stock", func() {
			// airbag_lifter has only two provisioned.
			mission := engine.Allocate(ctx,
				requirement(required("airbag_lifter", 5), required("flashlight", 2)),
				"M-2", "V-2", "")

			Convey("Then the mission is partially allocated", func() {
				So(mission.State, ShouldEqual, model.MissionPartiallyAllocated)
			})

			Convey("And the scarce line sits whole in the shortfall", func() {
				So(len(mission.Shortfall), ShouldEqual, 1)
				So(mission.Shortfall[0].Kind, ShouldEqual, "airbag_lifter")
				So(mission.Shortfall[0].Quantity, ShouldEqual, 5)
				So(mission.Shortfall[0].Reason, ShouldEqual, model.ReasonInsufficientStock)
			})

			Convey("And the satisfiable line was still reserved", func() {
				So(len(mission.AssignedItems), ShouldEqual, 1)
				So(mission.AssignedItems[0].Kind, ShouldEqual, "flashlight")

				status, err := ledger.Status(ctx, "airbag_lifter")
				So(err, ShouldBeNil)
				So(status.Reserved, ShouldEqual, 0) // nothing partially taken
			})
		})

		Convey("When a line names a kind outside the catalog", func() {
			mission := engine.Allocate(ctx,
				requirement(required("jetpack", 1), required("radio", 2)),
				"M-3", "V-3", "")

			Convey("Then the unknown line is shortfall with UNKNOWN_KIND", func() {
				So(mission.State, ShouldEqual, model.MissionPartiallyAllocated)
				So(mission.Shortfall[0].Kind, ShouldEqual, "jetpack")
				So(mission.Shortfall[0].Reason, ShouldEqual, model.ReasonUnknownKind)
			})
		})

		Convey("When the requirement is empty", func() {
			mission := engine.Allocate(ctx, requirement(), "M-4", "V-4", "")

			Convey("Then the mission is rejected, not an error", func() {
				So(mission.State, ShouldEqual, model.MissionRejected)
			})
		})

		Convey("When nothing can be reserved", func() {
			mission := engine.Allocate(ctx,
				requirement(required("airbag_lifter", 99)),
				"M-5", "V-5", "")

			Convey("Then the mission is rejected with full shortfall detail", func() {
				So(mission.State, ShouldEqual, model.MissionRejected)
				So(len(mission.Shortfall), ShouldEqual, 1)
			})
		})

		Convey("When required and recommended lines compete for scarce stock", func() {
			// thermal_camera has three provisioned; the recommended line is
			// listed first but the required line must be served first.
			mission := engine.Allocate(ctx,
				requirement(recommended("thermal_camera", 2), required("thermal_camera", 3)),
				"M-6", "V-6", "")

			Convey("Then the required line wins the stock", func() {
				So(len(mission.AssignedItems), ShouldEqual, 1)
				So(mission.AssignedItems[0].Quantity, ShouldEqual, 3)
				So(len(mission.Shortfall), ShouldEqual, 1)
				So(mission.Shortfall[0].Quantity, ShouldEqual, 2)
			})
		})

		Convey("When a caller supplies a team id", func() {
			mission := engine.Allocate(ctx,
				requirement(required("radio", 1)),
				"M-7", "V-7", "T-Special")

			Convey("Then it is kept verbatim", func() {
				So(mission.TeamID, ShouldEqual, "T-Special")
			})
		})

		Convey("When two missions are auto-assigned teams", func() {
			first := engine.Allocate(ctx, requirement(required("radio", 1)), "M-8", "V-8", "")
			second := engine.Allocate(ctx, requirement(required("radio", 1)), "M-9", "V-9", "")

			Convey("Then the rotation advances", func() {
				So(first.TeamID, ShouldEqual, "T-Alpha")
				So(second.TeamID, ShouldEqual, "T-Bravo")
			})
		})
	})
}

func TestEngine_Idempotence(t *testing.T) {
	Convey("Given a mission that is already allocated", t, func() {
		ledger := inventory.NewInMemoryLedger()
		engine := allocation.NewEngine(ledger)
		ctx := context.Background()

		first := engine.Allocate(ctx, requirement(required("stretcher", 4)), "M-1", "V-1", "")
		So(first.State, ShouldEqual, model.MissionAllocated)

		Convey("When Allocate is called again with the same mission id", func() {
			second := engine.Allocate(ctx, requirement(required("stretcher", 4)), "M-1", "V-1", "")

			Convey("Then the stored mission is returned unchanged", func() {
				So(second.MissionID, ShouldEqual, first.MissionID)
				So(second.State, ShouldEqual, first.State)
				So(second.AssignedItems, ShouldResemble, first.AssignedItems)
			})

			Convey("And nothing was double-reserved", func() {
				status, err := ledger.Status(ctx, "stretcher")
				So(err, ShouldBeNil)
				So(status.Reserved, ShouldEqual, 4)
			})
		})
	})
}

func TestEngine_Release(t *testing.T) {
	Convey("Given a fully allocated mission", t, func() {
		ledger := inventory.NewInMemoryLedger()
		engine := allocation.NewEngine(ledger)
		ctx := context.Background()

		before := ledger.Snapshot(ctx)
		mission := engine.Allocate(ctx,
			requirement(required("stretcher", 3), required("rope", 2)),
			"M-1", "V-1", "")
		So(mission.State, ShouldEqual, model.MissionAllocated)

		Convey("When the mission is released", func() {
			engine.ReleaseMission(ctx, "M-1")

			Convey("Then the ledger is restored to its pre-allocation snapshot", func() {
				So(ledger.Snapshot(ctx), ShouldResemble, before)
			})

			Convey("And the mission record survives as RELEASED", func() {
				stored, ok := engine.Mission(ctx, "M-1")
				So(ok, ShouldBeTrue)
				So(stored.State, ShouldEqual, model.MissionReleased)
				So(len(stored.AssignedItems), ShouldEqual, 2)
			})

			Convey("And a second release is a no-op", func() {
				engine.ReleaseMission(ctx, "M-1")
				So(ledger.Snapshot(ctx), ShouldResemble, before)
			})

			Convey("And it no longer counts as active", func() {
				So(engine.ActiveMissions(ctx), ShouldBeEmpty)
			})
		})

		Convey("When releasing an unknown mission id", func() {
			engine.ReleaseMission(ctx, "M-does-not-exist")

			Convey("Then nothing changes", func() {
				status, err := ledger.Status(ctx, "stretcher")
				So(err, ShouldBeNil)
				So(status.Reserved, ShouldEqual, 3)
			})
		})
	})
}

// gatingLedger parks TryReserve until the gate opens, so a test can land a
// release while an allocation is mid-walk.
type gatingLedger struct {
	inventory.Ledger
	gate    chan struct{}
	reached chan struct{}
	once    sync.Once
}

func (g *gatingLedger) TryReserve(ctx context.Context, kind string, quantity int) (bool, error) {
	g.once.Do(func() { close(g.reached) })
	<-g.gate
	return g.Ledger.TryReserve(ctx, kind, quantity)
}

func TestEngine_ReleaseDuringAllocation(t *testing.T) {
	Convey("Given an allocation parked mid-reservation", t, func() {
		ledger := inventory.NewInMemoryLedger()
		gated := &gatingLedger{
			Ledger:  ledger,
			gate:    make(chan struct{}),
			reached: make(chan struct{}),
		}
		engine := allocation.NewEngine(gated)
		ctx := context.Background()

		result := make(chan model.Mission, 1)
		go func() {
			result <- engine.Allocate(ctx,
				requirement(required("stretcher", 2)),
				"M-race", "V-race", "")
		}()
		<-gated.reached

		Convey("When the mission is released before the reservations finish", func() {
			engine.ReleaseMission(ctx, "M-race")
			close(gated.gate)
			mission := <-result

			Convey("Then the mission stays released", func() {
				So(mission.State, ShouldEqual, model.MissionReleased)

				stored, found := engine.Mission(ctx, "M-race")
				So(found, ShouldBeTrue)
				So(stored.State, ShouldEqual, model.MissionReleased)
			})

			Convey("And the reserved quantities went back to the pool", func() {
				status, err := ledger.Status(ctx, "stretcher")
				So(err, ShouldBeNil)
				So(status.Reserved, ShouldEqual, 0)
			})

			Convey("And a later duplicate release stays a no-op", func() {
				engine.ReleaseMission(ctx, "M-race")

				status, err := ledger.Status(ctx, "stretcher")
				So(err, ShouldBeNil)
				So(status.Reserved, ShouldEqual, 0)
			})
		})
	})
}
