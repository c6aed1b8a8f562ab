// Package allocation commits equipment requirements against the inventory
// ledger and tracks the resulting missions.
//
// Scarcity is never an error here: lines that cannot be reserved are
// reported as shortfall on the returned mission. Successful line
// reservations are kept even when later lines fail; there is no rollback of
// a partially satisfied requirement.
package allocation

import (
	"context"
	"sync"
	"time"

	"github.com/rescuemesh/engine/internal/adapters/inventory"
	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/logger"
	"github.com/rescuemesh/engine/pkg/metrics"
)

// teamNames is the rotation used for auto-assigned team ids.
var teamNames = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"} //nolint:gochecknoglobals // fixed rotation table

// Engine allocates and releases mission resources.
type Engine struct {
	ledger inventory.Ledger
	logger logger.Logger
	now    func() time.Time

	mu           sync.Mutex
	missions     map[string]*model.Mission
	nextTeamSlot int
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an allocation engine backed by the given ledger.
func NewEngine(ledger inventory.Ledger, opts ...Option) *Engine {
	e := &Engine{
		ledger:   ledger,
		missions: make(map[string]*model.Mission),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("allocator")
	}
	return e
}

// Allocate attempts to reserve every line of the requirement for a mission.
//
// Lines are processed REQUIRED before RECOMMENDED, keeping the planner's
// order within each necessity tier. Each line is reserved whole or not at
// all; failures land in the mission's shortfall with a reason.
//
// Allocate is idempotent per mission id: a repeated call with a known id
// returns the stored mission unchanged and reserves nothing. An empty team
// id is auto-assigned from the team rotation.
func (e *Engine) Allocate(ctx context.Context, req model.EquipmentRequirement, missionID, victimID, teamID string) model.Mission {
	e.mu.Lock()

	if existing, ok := e.missions[missionID]; ok {
		m := copyMission(existing)
		e.mu.Unlock()
		e.logger.Debug(ctx, "duplicate allocate call, returning stored mission",
			logger.String("missionID", missionID),
			logger.String("state", string(m.State)),
		)
		return m
	}
	if teamID == "" {
		teamID = "T-" + teamNames[e.nextTeamSlot%len(teamNames)]
		e.nextTeamSlot++
	}

	// Reserve a pending record under the lock so concurrent duplicate calls
	// cannot both walk the ledger, then do the per-line reservations outside
	// it; the ledger has its own lock.
	mission := &model.Mission{
		MissionID:   missionID,
		RequestID:   req.RequestID,
		VictimID:    victimID,
		TeamID:      teamID,
		State:       model.MissionPending,
		AllocatedAt: e.now().UTC(),
	}
	e.missions[missionID] = mission
	e.mu.Unlock()

	assigned := make([]model.AssignedItem, 0, len(req.Lines))
	var shortfall []model.ShortfallLine

	for _, line := range orderLines(req.Lines) {
		ok, err := e.ledger.TryReserve(ctx, line.Kind, line.Quantity)
		switch {
		case err != nil:
			// The planner named a kind the ledger does not carry. That is a
			// catalog mismatch worth surfacing, but it must not sink the
			// rest of the requirement.
			e.logger.Warn(ctx, "requirement line rejected by ledger",
				logger.String("missionID", missionID),
				logger.String("kind", line.Kind),
				logger.Error(err),
			)
			shortfall = append(shortfall, model.ShortfallLine{
				Kind:     line.Kind,
				Quantity: line.Quantity,
				Reason:   model.ReasonUnknownKind,
			})
			metrics.RecordShortfall(string(model.ReasonUnknownKind))
		case !ok:
			shortfall = append(shortfall, model.ShortfallLine{
				Kind:     line.Kind,
				Quantity: line.Quantity,
				Reason:   model.ReasonInsufficientStock,
			})
			metrics.RecordShortfall(string(model.ReasonInsufficientStock))
		default:
			assigned = append(assigned, model.AssignedItem{Kind: line.Kind, Quantity: line.Quantity})
		}
	}

	state := stateFor(len(req.Lines), len(assigned), len(shortfall))

	e.mu.Lock()
	if mission.State == model.MissionReleased {
		// A completion notification landed while the lines were still being
		// reserved. That release walked an empty item list, so the
		// reservations made above are returned here and the mission stays
		// RELEASED.
		mission.AssignedItems = assigned
		mission.Shortfall = shortfall
		result := copyMission(mission)
		e.mu.Unlock()

		e.releaseItems(ctx, missionID, assigned)
		metrics.RecordMissionAllocated(string(model.MissionReleased))
		e.logger.Info(ctx, "mission released during allocation, returning reserved items",
			logger.String("missionID", missionID),
			logger.Int("assigned", len(assigned)),
		)
		return result
	}
	mission.AssignedItems = assigned
	mission.Shortfall = shortfall
	mission.State = state
	result := copyMission(mission)
	e.mu.Unlock()

	metrics.RecordMissionAllocated(string(state))
	e.logger.Info(ctx, "mission allocation finished",
		logger.String("missionID", missionID),
		logger.String("teamID", teamID),
		logger.String("state", string(state)),
		logger.Int("assigned", len(assigned)),
		logger.Int("shortfall", len(shortfall)),
	)
	return result
}

// ReleaseMission returns a mission's reserved quantities to the ledger and
// marks it RELEASED. Unknown and already-released mission ids are no-ops;
// completion notifications may race or duplicate.
func (e *Engine) ReleaseMission(ctx context.Context, missionID string) {
	e.mu.Lock()
	mission, ok := e.missions[missionID]
	if !ok || mission.State == model.MissionReleased {
		e.mu.Unlock()
		e.logger.Debug(ctx, "release for unknown or already released mission ignored",
			logger.String("missionID", missionID),
		)
		return
	}
	// Flip the state under the lock so a concurrent duplicate release
	// cannot return the same items twice.
	mission.State = model.MissionReleased
	items := make([]model.AssignedItem, len(mission.AssignedItems))
	copy(items, mission.AssignedItems)
	e.mu.Unlock()

	e.releaseItems(ctx, missionID, items)

	metrics.RecordMissionReleased()
	e.logger.Info(ctx, "mission released",
		logger.String("missionID", missionID),
		logger.Int("items", len(items)),
	)
}

// releaseItems returns reserved quantities to the ledger.
func (e *Engine) releaseItems(ctx context.Context, missionID string, items []model.AssignedItem) {
	for _, item := range items {
		if err := e.ledger.Release(ctx, item.Kind, item.Quantity); err != nil {
			// Should never happen: the engine releases exactly what it
			// reserved. Surface loudly, never swallow.
			e.logger.Error(ctx, "ledger rejected mission release",
				logger.String("missionID", missionID),
				logger.String("kind", item.Kind),
				logger.Int("quantity", item.Quantity),
				logger.Error(err),
			)
			metrics.RecordErrorByComponent("allocator", "release_failed")
		}
	}
}

// Mission returns the stored record for a mission id.
func (e *Engine) Mission(ctx context.Context, missionID string) (model.Mission, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mission, ok := e.missions[missionID]
	if !ok {
		return model.Mission{}, false
	}
	return copyMission(mission), true
}

// ActiveMissions returns every mission still holding reservations.
func (e *Engine) ActiveMissions(ctx context.Context) []model.Mission {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Mission, 0, len(e.missions))
	for _, mission := range e.missions {
		if mission.State == model.MissionReleased {
			continue
		}
		out = append(out, copyMission(mission))
	}
	return out
}

// orderLines partitions lines REQUIRED-first while keeping the planner's
// order inside each tier.
func orderLines(lines []model.RequirementLine) []model.RequirementLine {
	ordered := make([]model.RequirementLine, 0, len(lines))
	for _, l := range lines {
		if l.Necessity == model.NecessityRequired {
			ordered = append(ordered, l)
		}
	}
	for _, l := range lines {
		if l.Necessity != model.NecessityRequired {
			ordered = append(ordered, l)
		}
	}
	return ordered
}

func stateFor(requested, assigned, short int) model.MissionState {
	switch {
	case requested == 0 || assigned == 0:
		return model.MissionRejected
	case short > 0:
		return model.MissionPartiallyAllocated
	default:
		return model.MissionAllocated
	}
}

func copyMission(m *model.Mission) model.Mission {
	out := *m
	out.AssignedItems = make([]model.AssignedItem, len(m.AssignedItems))
	copy(out.AssignedItems, m.AssignedItems)
	out.Shortfall = make([]model.ShortfallLine, len(m.Shortfall))
	copy(out.Shortfall, m.Shortfall)
	return out
}
