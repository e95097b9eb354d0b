// Package orchestrator is the only component that talks to all four
// optimization tiers simultaneously: it spawns actors on demand, routes
// apienvelope.SystemMessage requests to the right one, and
// performs bulk operations like export by loading a consistent published
// snapshot. Its actor-respawn monitor is grounded in the teacher's
// pkg/worker/health_monitor.go ticker-plus-cancel-map pattern, generalized
// from "is this node still heartbeating" to "is this actor's goroutine
// still running".
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oceanridge/ordinator/internal/actor"
	"github.com/oceanridge/ordinator/internal/apienvelope"
	"github.com/oceanridge/ordinator/internal/archive"
	"github.com/oceanridge/ordinator/internal/config"
	"github.com/oceanridge/ordinator/internal/events"
	"github.com/oceanridge/ordinator/internal/exportio"
	"github.com/oceanridge/ordinator/internal/operational"
	"github.com/oceanridge/ordinator/internal/schedenv"
	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/internal/strategic"
	"github.com/oceanridge/ordinator/internal/supervisor"
	"github.com/oceanridge/ordinator/internal/tactical"
	"github.com/oceanridge/ordinator/pkg/log"
	"github.com/oceanridge/ordinator/pkg/metrics"
)

// managedActor wraps one actor.Runner with the stopped flag the respawn
// monitor uses to distinguish an intentional Stop() from a crash.
type managedActor struct {
	tier    string
	asset   string
	id      string
	mu      sync.Mutex
	runner  *actor.Runner
	stopped atomic.Bool
	rebuild func() (actor.Algorithm, actor.MessageHandler, time.Duration)
}

func (m *managedActor) send(ctx context.Context, payload any) (any, error) {
	m.mu.Lock()
	r := m.runner
	m.mu.Unlock()
	return r.Send(ctx, payload)
}

func (m *managedActor) stop() {
	m.stopped.Store(true)
	m.mu.Lock()
	r := m.runner
	m.mu.Unlock()
	r.Stop()
}

// assetBundle is one asset's full set of spawned actors plus its
// published snapshot and archive.
type assetBundle struct {
	env         *schedenv.Environment
	publisher   *snapshot.Publisher
	strategic   *managedActor
	tactical    *managedActor
	supervisors map[string]*managedActor
	operational map[string]*managedActor
	archiver    *archive.Archiver
	cancel      context.CancelFunc
}

// Orchestrator owns every spawned asset's actors.
type Orchestrator struct {
	mu      sync.RWMutex
	assets  map[string]*assetBundle
	cfg     *config.SystemConfigurations
	dataDir string
	broker  *events.Broker
	errSink chan *actor.IterationError
}

// New constructs an Orchestrator. cfg supplies per-tier options and
// per-asset actor specifications; dataDir is where each asset's archive
// database is created.
func New(cfg *config.SystemConfigurations, dataDir string, broker *events.Broker) *Orchestrator {
	o := &Orchestrator{
		assets:  make(map[string]*assetBundle),
		cfg:     cfg,
		dataDir: dataDir,
		broker:  broker,
		errSink: make(chan *actor.IterationError, 256),
	}
	go o.drainErrSink()
	return o
}

func (o *Orchestrator) drainErrSink() {
	for ie := range o.errSink {
		log.Logger.Error().
			Str("actor_id", ie.ActorID).
			Uint64("iteration", ie.Iteration).
			Str("site", ie.Site).
			Err(ie.Err).
			Msg("actor iteration error")
		metrics.ActorErrorsTotal.WithLabelValues(tierFromActorID(ie.ActorID), ie.Site).Inc()
	}
}

// tierFromActorID extracts the leading "<tier>:" component conventionally
// used as every actor id's prefix (see buildActorID).
func tierFromActorID(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			return id[:i]
		}
	}
	return id
}

func buildActorID(tier, asset, instance string) string {
	if instance == "" {
		return fmt.Sprintf("%s:%s", tier, asset)
	}
	return fmt.Sprintf("%s:%s:%s", tier, asset, instance)
}

// SpawnAsset builds the strategic, tactical, supervisor and operational
// actors for asset from env and the loaded actor specification, and
// starts them all running plus the asset's archiver.
func (o *Orchestrator) SpawnAsset(ctx context.Context, asset string, env *schedenv.Environment) error {
	o.mu.Lock()
	if _, exists := o.assets[asset]; exists {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator: asset %s already spawned", asset)
	}
	o.mu.Unlock()

	spec, ok := o.cfg.ActorSpecifications[asset]
	if !ok {
		return fmt.Errorf("orchestrator: %w: %s", apienvelope.ErrUnknownAsset, asset)
	}

	publisher := snapshot.NewPublisher()
	weightFn := buildWeightFn(o.cfg.WorkOrderWeightParameters)
	runCtx, cancel := context.WithCancel(ctx)

	bundle := &assetBundle{
		env:         env,
		publisher:   publisher,
		supervisors: make(map[string]*managedActor),
		operational: make(map[string]*managedActor),
		cancel:      cancel,
	}

	strategicThrottle := throttleFor(o.cfg, buildActorID("strategic", asset, ""))
	strategicParams, err := strategic.NewParameters(env, strategicOptionsFrom(o.cfg.ActorOptions.Strategic), weightFn, latestAllowedPeriod)
	if err != nil {
		cancel()
		return fmt.Errorf("orchestrator: build strategic parameters for %s: %w", asset, err)
	}
	strategicAlg := strategic.NewAlgorithm(asset, strategicParams, publisher)
	bundle.strategic = o.spawnManaged(runCtx, "strategic", asset, "", strategicAlg, strategicAlg, strategicThrottle)

	days := env.Days()
	periods := env.Periods()
	tacticalParams := tactical.NewParameters(env, strategic.PublishedSlice{}, days, periods, weightFn, tacticalOptionsFrom(o.cfg.ActorOptions.Tactical))
	tacticalAlg := tactical.NewAlgorithm(asset, env, tacticalParams, publisher, weightFn)
	bundle.tactical = o.spawnManaged(runCtx, "tactical", asset, "", tacticalAlg, tacticalAlg, throttleFor(o.cfg, buildActorID("tactical", asset, "")))

	periodWindow := make([]int, 0, len(periods))
	for _, p := range periods {
		periodWindow = append(periodWindow, p.ID())
	}
	for _, supSpec := range spec.Supervisors {
		supParams := supervisor.NewParameters(periodWindow, supervisorOptionsFrom(o.cfg.ActorOptions.Supervisor))
		supAlg := supervisor.NewAlgorithm(asset, env, supParams, publisher)
		bundle.supervisors[supSpec.ID] = o.spawnManaged(runCtx, "supervisor", asset, supSpec.ID, supAlg, supAlg, throttleFor(o.cfg, buildActorID("supervisor", asset, supSpec.ID)))
	}

	var dayZero, dayEnd time.Time
	if len(days) > 0 {
		dayZero = days[0].Date
		dayEnd = days[len(days)-1].Date.AddDate(0, 0, 1).Add(-time.Second)
	}
	for _, tech := range env.Technicians(asset) {
		opParams := operational.NewParameters(tech, dayZero, dayEnd, operationalOptionsFrom(o.cfg.ActorOptions.Operational))
		opAlg := operational.NewAlgorithm(asset, env, opParams, publisher)
		bundle.operational[string(tech.ID)] = o.spawnManaged(runCtx, "operational", asset, string(tech.ID), opAlg, opAlg, throttleFor(o.cfg, buildActorID("operational", asset, string(tech.ID))))
	}

	archiver, err := archive.Open(o.dataDir, asset, publisher, archive.DefaultOptions())
	if err != nil {
		log.WithAsset(asset).Error().Err(err).Msg("failed to open archive, continuing without one")
		metrics.UpdateComponent("archive", false, err.Error())
	} else {
		bundle.archiver = archiver
		go archiver.Run()
		metrics.UpdateComponent("archive", true, "")
	}

	o.mu.Lock()
	o.assets[asset] = bundle
	o.mu.Unlock()

	metrics.UpdateComponent("environment", true, "")
	o.publish(asset, events.EventActorStarted, "asset spawned")
	return nil
}

// spawnManaged starts one actor.Runner wrapped in a managedActor and
// launches its respawn-monitor goroutine.
func (o *Orchestrator) spawnManaged(ctx context.Context, tier, asset, instance string, alg actor.Algorithm, handler actor.MessageHandler, throttle time.Duration) *managedActor {
	id := buildActorID(tier, asset, instance)
	runner := actor.NewRunner(id, alg, handler, throttle, o.errSink)
	m := &managedActor{tier: tier, asset: asset, id: id, runner: runner}
	go o.runManaged(ctx, m, alg, handler, throttle)
	return m
}

// runManaged runs a managed actor and, on an unrequested exit (a panic
// recovered inside Runner.Run, which returns rather than re-panicking),
// respawns a fresh Runner around the same Algorithm instance so state
// accumulated up to the last published checkpoint survives.
func (o *Orchestrator) runManaged(ctx context.Context, m *managedActor, alg actor.Algorithm, handler actor.MessageHandler, throttle time.Duration) {
	for {
		m.mu.Lock()
		r := m.runner
		m.mu.Unlock()

		r.Run(ctx)

		if m.stopped.Load() || ctx.Err() != nil {
			return
		}

		metrics.ActorRespawnsTotal.WithLabelValues(m.tier, m.asset).Inc()
		log.WithAsset(m.asset).Warn().Str("actor_id", m.id).Msg("actor exited unexpectedly, respawning")
		o.publish(m.asset, events.EventActorRespawned, m.id)

		newRunner := actor.NewRunner(m.id, alg, handler, throttle, o.errSink)
		m.mu.Lock()
		m.runner = newRunner
		m.mu.Unlock()
	}
}

func (o *Orchestrator) publish(asset string, eventType events.EventType, message string) {
	if o.broker == nil {
		return
	}
	o.broker.Publish(&events.Event{Type: eventType, Asset: asset, Message: message})
}

// DespawnAsset stops every actor and the archiver for asset.
func (o *Orchestrator) DespawnAsset(asset string) error {
	o.mu.Lock()
	bundle, ok := o.assets[asset]
	if ok {
		delete(o.assets, asset)
	}
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("orchestrator: %w: %s", apienvelope.ErrUnknownAsset, asset)
	}

	bundle.strategic.stop()
	bundle.tactical.stop()
	for _, m := range bundle.supervisors {
		m.stop()
	}
	for _, m := range bundle.operational {
		m.stop()
	}
	bundle.cancel()
	if bundle.archiver != nil {
		if err := bundle.archiver.Close(); err != nil {
			log.WithAsset(asset).Error().Err(err).Msg("failed to close archive cleanly")
		}
	}
	o.publish(asset, events.EventActorStopped, "asset despawned")
	return nil
}

func (o *Orchestrator) bundle(asset string) (*assetBundle, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.assets[asset]
	if !ok {
		return nil, fmt.Errorf("orchestrator: %w: %s", apienvelope.ErrUnknownAsset, asset)
	}
	return b, nil
}

// Handle routes one SystemMessage to the tier/asset/actor it names and
// returns the actor's response wrapped in a SystemResponse.
func (o *Orchestrator) Handle(ctx context.Context, msg apienvelope.SystemMessage) (apienvelope.SystemResponse, error) {
	switch msg.Kind {
	case apienvelope.KindOrchestrator:
		return o.handleOrchestrator(ctx, msg.Orchestrator)
	case apienvelope.KindStrategic:
		return o.handleStrategic(ctx, msg.Strategic)
	case apienvelope.KindTactical:
		return o.handleTactical(ctx, msg.Tactical)
	case apienvelope.KindSupervisor:
		return o.handleSupervisor(ctx, msg.Supervisor)
	case apienvelope.KindOperational:
		return o.handleOperational(ctx, msg.Operational)
	default:
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: unknown message kind %q", msg.Kind)
	}
}

func (o *Orchestrator) handleOrchestrator(ctx context.Context, req *apienvelope.OrchestratorRequest) (apienvelope.SystemResponse, error) {
	if req == nil {
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: nil orchestrator request")
	}
	switch req.Op {
	case apienvelope.OpExport:
		data, err := o.Export(req.Asset)
		if err != nil {
			return apienvelope.SystemResponse{}, err
		}
		return apienvelope.SystemResponse{Kind: apienvelope.KindOrchestrator, Asset: req.Asset, Value: data}, nil
	default:
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: unsupported orchestrator op %q", req.Op)
	}
}

func (o *Orchestrator) handleStrategic(ctx context.Context, req *apienvelope.StrategicRequest) (apienvelope.SystemResponse, error) {
	if req == nil {
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: nil strategic request")
	}
	bundle, err := o.bundle(req.Asset)
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}
	value, err := bundle.strategic.send(ctx, strategic.Request{Kind: string(req.Msg)})
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}
	return apienvelope.SystemResponse{Kind: apienvelope.KindStrategic, Asset: req.Asset, Value: value}, nil
}

func (o *Orchestrator) handleTactical(ctx context.Context, req *apienvelope.TacticalRequest) (apienvelope.SystemResponse, error) {
	if req == nil {
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: nil tactical request")
	}
	bundle, err := o.bundle(req.Asset)
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}
	value, err := bundle.tactical.send(ctx, tactical.Request{Kind: string(req.Msg), WorkOrder: schedenv.WorkOrderNumber(req.UpdateWorkOrder)})
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}
	return apienvelope.SystemResponse{Kind: apienvelope.KindTactical, Asset: req.Asset, Value: value}, nil
}

func (o *Orchestrator) handleSupervisor(ctx context.Context, req *apienvelope.SupervisorRequest) (apienvelope.SystemResponse, error) {
	if req == nil {
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: nil supervisor request")
	}
	bundle, err := o.bundle(req.Asset)
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}
	m, ok := bundle.supervisors[req.ID]
	if !ok {
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: %w: supervisor %s on asset %s", apienvelope.ErrUnknownActor, req.ID, req.Asset)
	}
	value, err := m.send(ctx, supervisor.Request{Kind: string(req.Msg)})
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}
	return apienvelope.SystemResponse{Kind: apienvelope.KindSupervisor, Asset: req.Asset, Value: value}, nil
}

func (o *Orchestrator) handleOperational(ctx context.Context, req *apienvelope.OperationalRequest) (apienvelope.SystemResponse, error) {
	if req == nil {
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: nil operational request")
	}
	bundle, err := o.bundle(req.Asset)
	if err != nil {
		return apienvelope.SystemResponse{}, err
	}

	switch req.Kind {
	case apienvelope.OperationalGetIDs:
		ids := make([]string, 0, len(bundle.operational))
		for id := range bundle.operational {
			ids = append(ids, id)
		}
		return apienvelope.SystemResponse{Kind: apienvelope.KindOperational, Asset: req.Asset, Value: ids}, nil
	case apienvelope.OperationalForAgent:
		m, ok := bundle.operational[req.ID]
		if !ok {
			return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: %w: technician %s on asset %s", apienvelope.ErrUnknownActor, req.ID, req.Asset)
		}
		value, err := m.send(ctx, operational.Request{Kind: req.Msg})
		if err != nil {
			return apienvelope.SystemResponse{}, err
		}
		return apienvelope.SystemResponse{Kind: apienvelope.KindOperational, Asset: req.Asset, Value: value}, nil
	case apienvelope.OperationalAllStatus:
		statuses := make(map[string]any, len(bundle.operational))
		for id, m := range bundle.operational {
			value, err := m.send(ctx, operational.Request{Kind: "status"})
			if err != nil {
				statuses[id] = err.Error()
				continue
			}
			statuses[id] = value
		}
		return apienvelope.SystemResponse{Kind: apienvelope.KindOperational, Asset: req.Asset, Value: statuses}, nil
	default:
		return apienvelope.SystemResponse{}, fmt.Errorf("orchestrator: unknown operational request kind %q", req.Kind)
	}
}

// Export loads the asset's currently published snapshot and renders it as
// a CSV byte stream.
func (o *Orchestrator) Export(asset string) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ExportDuration)

	bundle, err := o.bundle(asset)
	if err != nil {
		return nil, err
	}
	composite := bundle.publisher.Load()
	rows, err := exportio.RowsFromComposite(composite)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: export %s: %w", asset, err)
	}
	var buf bytes.Buffer
	if err := exportio.WriteAssignments(&buf, rows); err != nil {
		return nil, fmt.Errorf("orchestrator: export %s: %w", asset, err)
	}
	return buf.Bytes(), nil
}

func throttleFor(cfg *config.SystemConfigurations, actorID string) time.Duration {
	if ms, ok := cfg.ThrottleTable[actorID]; ok {
		return time.Duration(ms) * time.Millisecond
	}
	return 200 * time.Millisecond
}

// latestAllowedPeriod resolves the period index a work order's
// LatestAllowedFinish falls in, or the horizon's last period if it falls
// beyond every configured period (a work order that must finish further
// out than the system currently plans for is still schedulable anywhere
// in the horizon, not rejected).
func latestAllowedPeriod(wo *schedenv.WorkOrder, periods []schedenv.Period) int {
	for _, p := range periods {
		if p.ContainsDate(wo.LatestAllowedFinish) {
			return p.ID()
		}
	}
	if len(periods) == 0 {
		return 0
	}
	return periods[len(periods)-1].ID()
}

// strategicOptionsFrom overlays the loaded config onto strategic's
// defaults; ClusterLevelWeights has no config-file representation of its
// own, so it always comes from the default.
func strategicOptionsFrom(cfg config.StrategicOptions) strategic.Options {
	opts := strategic.DefaultOptions()
	if cfg.NumberOfRemovedWorkOrders > 0 {
		opts.NumberOfRemovedWorkOrders = cfg.NumberOfRemovedWorkOrders
	}
	if cfg.UrgencyWeight != 0 {
		opts.UrgencyWeight = cfg.UrgencyWeight
	}
	if cfg.ResourcePenaltyWeight != 0 {
		opts.ResourcePenaltyWeight = cfg.ResourcePenaltyWeight
	}
	if cfg.ClusteringWeight != 0 {
		opts.ClusteringWeight = cfg.ClusteringWeight
	}
	return opts
}

func tacticalOptionsFrom(cfg config.TacticalOptions) tactical.Options {
	opts := tactical.DefaultOptions()
	if cfg.NumberOfRemovedWorkOrders > 0 {
		opts.NumberOfRemovedWorkOrders = cfg.NumberOfRemovedWorkOrders
	}
	if cfg.UrgencyWeight != 0 {
		opts.UrgencyWeight = cfg.UrgencyWeight
	}
	if cfg.ResourcePenaltyWeight != 0 {
		opts.ResourcePenaltyWeight = cfg.ResourcePenaltyWeight
	}
	return opts
}

func supervisorOptionsFrom(cfg config.SupervisorOptions) supervisor.Options {
	opts := supervisor.DefaultOptions()
	if cfg.NumberOfRemovedWorkOrders > 0 {
		opts.NumberOfRemovedWorkOrders = cfg.NumberOfRemovedWorkOrders
	}
	return opts
}

// operationalOptionsFrom maps the config file's
// number_of_removed_work_orders knob onto operational's differently-named
// NumberOfRemovedAssignments field — the operational tier destroys
// individual assignments, not whole work orders, but the config surface
// is shared across all four tiers' options files.
func operationalOptionsFrom(cfg config.OperationalOptions) operational.Options {
	opts := operational.DefaultOptions()
	if cfg.NumberOfRemovedWorkOrders > 0 {
		opts.NumberOfRemovedAssignments = cfg.NumberOfRemovedWorkOrders
	}
	return opts
}

// buildWeightFn derives a work order's strategic/tactical urgency weight
// from the configured urgency weight, per-priority multipliers and
// per-status multipliers loaded from work_order_weight_parameters.json.
func buildWeightFn(params config.WorkOrderWeightParameters) func(*schedenv.WorkOrder) float64 {
	return func(wo *schedenv.WorkOrder) float64 {
		weight := params.UrgencyWeight
		if weight == 0 {
			weight = 1.0
		}
		if mult, ok := params.PriorityWeights[wo.Priority]; ok {
			weight *= mult
		}
		for code := range wo.UserStatus {
			if mult, ok := params.StatusMultipliers[code]; ok {
				weight *= mult
			}
		}
		for code := range wo.SystemStatus {
			if mult, ok := params.StatusMultipliers[code]; ok {
				weight *= mult
			}
		}
		return weight
	}
}
