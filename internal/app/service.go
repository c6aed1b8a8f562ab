// Package service provides the core business service that wires the
// triage pipeline, the equipment planner, the inventory ledger and the
// allocation engine together behind one facade.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/rescuemesh/engine/internal/adapters/allocation"
	"github.com/rescuemesh/engine/internal/adapters/inventory"
	reportqueue "github.com/rescuemesh/engine/internal/adapters/mq/queue"
	workerpool "github.com/rescuemesh/engine/internal/adapters/mq/worker"
	"github.com/rescuemesh/engine/internal/adapters/repository"
	"github.com/rescuemesh/engine/internal/domain/dedupe"
	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/internal/domain/planner"
	"github.com/rescuemesh/engine/internal/domain/priority"
	"github.com/rescuemesh/engine/pkg/ids"
	"github.com/rescuemesh/engine/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize      = 10_000
	defaultDedupeSize     = 50_000
	defaultAlertSweepSpec = "@every 30s"
	defaultMaxListLimit   = 100
)

// Service implements the resource allocation engine behind one facade.
type Service struct {
	mu sync.RWMutex

	// Core components
	scorer    priority.Scorer
	planner   planner.Planner
	ledger    inventory.Ledger
	allocator *allocation.Engine
	victims   repository.VictimQueue
	deduper   dedupe.Deduper
	intake    reportqueue.Queue
	pool      *workerpool.Pool
	sweeper   *cron.Cron

	// Configuration
	workerCount        int
	queueSize          int
	dedupeSize         int
	alertSweepSpec     string
	maxListLimit       int
	inventoryOverrides map[string]int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of triage workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the report intake queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the duplicate-report window.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithAlertSweepSpec sets the cron schedule for stock alert sweeps.
func WithAlertSweepSpec(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.alertSweepSpec = spec
		}
	}
}

// WithMaxListLimit caps victim queue listing requests.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxListLimit = limit
		}
	}
}

// WithInventoryOverrides adjusts provisioned totals per equipment kind.
func WithInventoryOverrides(overrides map[string]int) Option {
	return func(s *Service) {
		s.inventoryOverrides = overrides
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 4,
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		alertSweepSpec: defaultAlertSweepSpec,
		maxListLimit:   defaultMaxListLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting allocation engine...")

	s.scorer = priority.NewDeterministicScorer(
		priority.WithLogger(s.logger.Named("priority")),
	)
	s.planner = planner.NewTemplatePlanner(
		planner.WithLogger(s.logger.Named("planner")),
	)

	ledgerOpts := []inventory.Option{}
	catalog := inventory.DefaultCatalog()
	for kind, total := range s.inventoryOverrides {
		p := inventory.Provisioning{Total: total, Threshold: total / 4}
		if def, ok := catalog[kind]; ok {
			p.Threshold = def.Threshold
		}
		ledgerOpts = append(ledgerOpts, inventory.WithProvisioning(kind, p))
	}
	s.ledger = inventory.NewInMemoryLedger(ledgerOpts...)

	s.allocator = allocation.NewEngine(s.ledger,
		allocation.WithLogger(s.logger.Named("allocation")),
	)
	s.victims = repository.NewTreapQueue()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.intake = reportqueue.NewInMemoryQueue(
		reportqueue.WithCapacity(s.queueSize),
		reportqueue.WithBufferSize(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.intake, s.scorer, s.victims)
	s.pool.Start(ctx)

	s.sweeper = cron.New()
	if _, err := s.sweeper.AddFunc(s.alertSweepSpec, func() {
		s.sweepAlerts(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid alert sweep schedule %q: %w", s.alertSweepSpec, err)
	}
	s.sweeper.Start()

	s.started = true
	s.logger.Info(ctx, "allocation engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("alertSweep", s.alertSweepSpec),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping allocation engine...")

	if s.sweeper != nil {
		<-s.sweeper.Stop().Done()
	}

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "allocation engine stopped")
}

// sweepAlerts runs one stock alert scan and logs anything newly raised.
func (s *Service) sweepAlerts(ctx context.Context) {
	for _, alert := range s.ledger.ScanAlerts(ctx) {
		s.logger.Warn(ctx, "stock alert",
			logger.String("alert_id", alert.AlertID),
			logger.String("kind", alert.Kind),
			logger.String("level", string(alert.Level)),
			logger.Int("available", alert.Available),
			logger.String("message", alert.Message),
		)
	}
}

// SubmitReport deduplicates a raw incident report and queues it for triage.
// A report without an id is assigned one. Returns the id the report was
// filed under and whether it was accepted; duplicates are accepted without
// being requeued.
func (s *Service) SubmitReport(ctx context.Context, report model.IncidentReport) (string, bool) {
	if report.ID == "" {
		report.ID = ids.NewVictimID()
	}

	if s.deduper.SeenAndRecord(ctx, report.ID) {
		s.logger.Debug(ctx, "duplicate report skipped", logger.String("victim_id", report.ID))
		return report.ID, true
	}

	if !s.intake.Enqueue(ctx, report) {
		// Let the reporter retry once the queue drains.
		s.deduper.Unrecord(ctx, report.ID)
		s.logger.Warn(ctx, "intake queue rejected report", logger.String("victim_id", report.ID))
		return report.ID, false
	}
	return report.ID, true
}

// ScorePriority computes the priority of a report without queueing it.
func (s *Service) ScorePriority(ctx context.Context, report model.IncidentReport) (model.PriorityResult, error) {
	return s.scorer.Score(ctx, report)
}

// AdmitReport scores a report and places it in the victim queue, bypassing
// the asynchronous intake pipeline.
func (s *Service) AdmitReport(ctx context.Context, report model.IncidentReport) (model.QueueEntry, error) {
	if report.ID == "" {
		report.ID = ids.NewVictimID()
	}
	result, err := s.scorer.Score(ctx, report)
	if err != nil {
		return model.QueueEntry{}, err
	}
	return s.victims.Admit(ctx, report, result)
}

// PlanEquipment produces the equipment requirement for a rescue scenario.
func (s *Service) PlanEquipment(ctx context.Context, scenario model.ScenarioKind, victims int, severity model.SeverityTier, conditions []model.SpecialCondition) model.EquipmentRequirement {
	return s.planner.Plan(ctx, scenario, victims, severity, conditions)
}

// EstimatePersonnel computes the personnel breakdown for a scenario.
func (s *Service) EstimatePersonnel(_ context.Context, scenario model.ScenarioKind, victims int, severity model.SeverityTier, heavyEquipment int) planner.PersonnelEstimate {
	return planner.Personnel(scenario, victims, severity, heavyEquipment)
}

// InventorySnapshot returns the point-in-time status of every equipment kind.
func (s *Service) InventorySnapshot(ctx context.Context) []model.InventoryItemStatus {
	return s.ledger.Snapshot(ctx)
}

// InventoryStatus returns the status of a single equipment kind.
func (s *Service) InventoryStatus(ctx context.Context, kind string) (model.InventoryItemStatus, error) {
	return s.ledger.Status(ctx, kind)
}

// StockAlerts returns every stock alert raised so far, oldest first.
func (s *Service) StockAlerts(ctx context.Context) []model.StockAlert {
	return s.ledger.Alerts(ctx)
}

// Allocate reserves equipment for a requirement and records the mission.
// A missionID may be supplied for idempotent retries; when empty a fresh id
// is minted. An empty teamID assigns the next team in rotation.
func (s *Service) Allocate(ctx context.Context, req model.EquipmentRequirement, missionID, victimID, teamID string) model.Mission {
	if missionID == "" {
		missionID = ids.NewMissionID()
	}
	return s.allocator.Allocate(ctx, req, missionID, victimID, teamID)
}

// ReleaseMission returns a mission's reserved equipment to the pool.
// Unknown or already released missions are a no-op.
func (s *Service) ReleaseMission(ctx context.Context, missionID string) {
	s.allocator.ReleaseMission(ctx, missionID)
}

// Mission returns a mission record by id.
func (s *Service) Mission(ctx context.Context, missionID string) (model.Mission, bool) {
	return s.allocator.Mission(ctx, missionID)
}

// ActiveMissions returns every mission that still holds equipment.
func (s *Service) ActiveMissions(ctx context.Context) []model.Mission {
	return s.allocator.ActiveMissions(ctx)
}

// PeekQueue returns the highest-priority unresolved victim without
// removing it.
func (s *Service) PeekQueue(ctx context.Context) (model.QueueEntry, bool) {
	return s.victims.PeekHighestPriority(ctx)
}

// ListQueue returns up to limit victims in priority order. The limit is
// capped by the configured maximum.
func (s *Service) ListQueue(ctx context.Context, limit int) ([]model.QueueEntry, error) {
	if limit > s.maxListLimit {
		limit = s.maxListLimit
	}
	return s.victims.List(ctx, limit)
}

// UpdateVictimStatus advances a victim's rescue status.
func (s *Service) UpdateVictimStatus(ctx context.Context, victimID string, status model.VictimStatus) (model.QueueEntry, error) {
	return s.victims.UpdateStatus(ctx, victimID, status)
}

// QueueLen returns the number of victims in the queue.
func (s *Service) QueueLen(ctx context.Context) int {
	return s.victims.Len(ctx)
}
