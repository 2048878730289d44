package cutover

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/cutover/pkg/fleet"
	"github.com/cuemby/cutover/pkg/healthwait"
	"github.com/cuemby/cutover/pkg/log"
	"github.com/cuemby/cutover/pkg/metrics"
	"github.com/cuemby/cutover/pkg/stringset"
	"github.com/cuemby/cutover/pkg/types"
)

// DefaultHealthTimeout bounds each health gate unless overridden
const DefaultHealthTimeout = 300 * time.Second

// Phase names, used in errors, logs and metrics
const (
	PhaseValidate   = "validate"
	PhasePrepare    = "prepare-new-fleet"
	PhaseNewHealth  = "new-fleet-health"
	PhaseCutover    = "cutover-old-fleet"
	PhaseDeregister = "deregistration"
	PhaseStandby    = "standby-health"
)

var (
	// ErrSameFleet indicates the live and candidate names are identical
	ErrSameFleet = errors.New("live and candidate fleet names must differ")

	// ErrNoEndpoints indicates a fleet has no attached endpoints of the
	// requested kind, so there is nothing to cut over
	ErrNoEndpoints = errors.New("fleet has no attached endpoints of the requested kind")

	// ErrBaselineUnhealthy indicates the candidate fleet had members that
	// were not in-service and healthy before the cutover started
	ErrBaselineUnhealthy = errors.New("candidate fleet members must be healthy and in service")
)

// EndpointIDResolver translates operator-supplied endpoint names into
// attachment identifiers. cloud.API satisfies it.
type EndpointIDResolver interface {
	ResolveEndpointIDs(ctx context.Context, kind types.EndpointKind, names []string) ([]string, error)
}

// Options parameterize a cutover run
type Options struct {
	LiveFleet           string
	CandidateFleet      string
	Kind                types.EndpointKind
	StandbyEndpoints    []string // default: candidate's original endpoints
	VerifyStandbyHealth bool
	RollbackOnTimeout   bool
	HealthTimeout       time.Duration
}

// DefaultOptions returns Options with the default policy: swap endpoints,
// roll back on timeout, 300s per health gate, classic load balancers.
func DefaultOptions(live, candidate string) Options {
	return Options{
		LiveFleet:         live,
		CandidateFleet:    candidate,
		Kind:              types.EndpointKindLoadBalancer,
		RollbackOnTimeout: true,
		HealthTimeout:     DefaultHealthTimeout,
	}
}

// Orchestrator sequences resolver, mutator and poller calls through the
// cutover protocol. All collaborators are injected; it holds no ambient
// state and is safe to discard after a run.
type Orchestrator struct {
	resolver  *fleet.Resolver
	mutator   *fleet.Mutator
	poller    *healthwait.Poller
	endpoints EndpointIDResolver
}

// New creates an orchestrator from its collaborators
func New(resolver *fleet.Resolver, mutator *fleet.Mutator, poller *healthwait.Poller, endpoints EndpointIDResolver) *Orchestrator {
	return &Orchestrator{
		resolver:  resolver,
		mutator:   mutator,
		poller:    poller,
		endpoints: endpoints,
	}
}

// Run executes the full cutover protocol and returns the assembled result,
// or a single terminal error naming the phase that failed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (types.Result, error) {
	result, err := o.run(ctx, opts)
	if err != nil {
		metrics.CutoversTotal.WithLabelValues("failure").Inc()
		return types.Result{}, err
	}
	metrics.CutoversTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, opts Options) (types.Result, error) {
	if opts.Kind == "" {
		opts.Kind = types.EndpointKindLoadBalancer
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}

	runID := uuid.New().String()
	startedAt := time.Now()
	logger := log.WithRunID(runID)
	logger.Info().
		Str("live", opts.LiveFleet).
		Str("candidate", opts.CandidateFleet).
		Str("kind", string(opts.Kind)).
		Msg("starting cutover")

	// Phase 1: validate and snapshot
	phaseStart := time.Now()
	state, err := o.validate(ctx, opts)
	observePhase(PhaseValidate, phaseStart)
	if err != nil {
		return types.Result{}, err
	}

	// Phase 2: prepare the candidate fleet on the destination endpoints
	phaseStart = time.Now()
	if err := o.prepareCandidate(ctx, state); err != nil {
		observePhase(PhasePrepare, phaseStart)
		return types.Result{}, err
	}
	observePhase(PhasePrepare, phaseStart)

	// Phase 3: gate on candidate health, roll back on timeout per policy
	phaseStart = time.Now()
	err = o.poller.AwaitHealthy(ctx, PhaseNewHealth, opts.Kind, state.destEndpoints, state.candidateInScope, opts.HealthTimeout)
	observePhase(PhaseNewHealth, phaseStart)
	if err != nil {
		return types.Result{}, o.failNewFleetGate(ctx, state, opts, err, logger)
	}

	// Phase 4: move the live fleet onto the standby endpoints
	phaseStart = time.Now()
	if err := o.cutoverLive(ctx, state); err != nil {
		observePhase(PhaseCutover, phaseStart)
		return types.Result{}, err
	}
	observePhase(PhaseCutover, phaseStart)

	// Phase 5: gate on deregistration of the old members. Only endpoints
	// the live fleet actually left are watched; an endpoint kept via the
	// standby set legitimately retains its registrations.
	leftEndpoints := stringset.Difference(state.destEndpoints, state.standbyEndpoints)
	phaseStart = time.Now()
	err = o.poller.AwaitDeregistered(ctx, PhaseDeregister, opts.Kind, leftEndpoints, state.live.MemberIDs(), opts.HealthTimeout)
	observePhase(PhaseDeregister, phaseStart)
	if err != nil {
		return types.Result{}, o.failDeregisterGate(ctx, state, opts, err, logger)
	}

	// Phase 6: optional advisory check of the decommissioned fleet's new
	// home; a timeout is reported but nothing is undone
	if opts.VerifyStandbyHealth {
		phaseStart = time.Now()
		err = o.poller.AwaitHealthy(ctx, PhaseStandby, opts.Kind, state.standbyEndpoints, state.liveInScope, opts.HealthTimeout)
		observePhase(PhaseStandby, phaseStart)
		if err != nil {
			return types.Result{}, fmt.Errorf("phase %s: standby endpoints never reported old fleet healthy: %w", PhaseStandby, err)
		}
	}

	result := types.Result{
		RunID:      runID,
		Kind:       opts.Kind,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		NewFleet: types.FleetReport{
			Name:      state.candidate.Name,
			Endpoints: state.destEndpoints,
			MemberIDs: state.candidate.MemberIDs(),
			Baseline:  state.candidateBaseline,
		},
		OldFleet: types.FleetReport{
			Name:      state.live.Name,
			Endpoints: state.standbyEndpoints,
			MemberIDs: state.live.MemberIDs(),
			Baseline:  state.liveBaseline,
		},
	}

	logger.Info().
		Str("new_fleet", result.NewFleet.Name).
		Strs("new_endpoints", result.NewFleet.Endpoints).
		Str("old_fleet", result.OldFleet.Name).
		Strs("old_endpoints", result.OldFleet.Endpoints).
		Msg("cutover complete")
	return result, nil
}

// runState carries the resolved fleets, baseline snapshots and computed
// endpoint deltas between phases
type runState struct {
	kind      types.EndpointKind
	live      types.Fleet
	candidate types.Fleet

	sourceEndpoints  []string // candidate's original endpoints
	destEndpoints    []string // live fleet's endpoints, moving to candidate
	standbyEndpoints []string // old fleet's new home

	liveBaseline      map[string]types.MemberStatus
	candidateBaseline map[string]types.MemberStatus
	liveInScope       []string
	candidateInScope  []string
}

func (o *Orchestrator) validate(ctx context.Context, opts Options) (*runState, error) {
	if opts.LiveFleet == "" || opts.CandidateFleet == "" {
		return nil, fmt.Errorf("phase %s: live and candidate fleet names are required", PhaseValidate)
	}
	if opts.LiveFleet == opts.CandidateFleet {
		return nil, fmt.Errorf("phase %s: %w", PhaseValidate, ErrSameFleet)
	}

	live, err := o.resolver.Resolve(ctx, opts.LiveFleet)
	if err != nil {
		return nil, fmt.Errorf("phase %s: %w", PhaseValidate, err)
	}
	candidate, err := o.resolver.Resolve(ctx, opts.CandidateFleet)
	if err != nil {
		return nil, fmt.Errorf("phase %s: %w", PhaseValidate, err)
	}

	dest := live.Endpoints(opts.Kind)
	if len(dest) == 0 {
		return nil, fmt.Errorf("phase %s: %w: %q", PhaseValidate, ErrNoEndpoints, live.Name)
	}
	source := candidate.Endpoints(opts.Kind)
	if len(source) == 0 {
		return nil, fmt.Errorf("phase %s: %w: %q", PhaseValidate, ErrNoEndpoints, candidate.Name)
	}

	standby := opts.StandbyEndpoints
	if len(standby) == 0 {
		standby = source
	} else if o.endpoints != nil {
		standby, err = o.endpoints.ResolveEndpointIDs(ctx, opts.Kind, standby)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", PhaseValidate, err)
		}
	}

	// The baseline snapshots taken here define which members every later
	// health gate waits on
	candidateBaseline := candidate.Snapshot()
	liveBaseline := live.Snapshot()

	for id, status := range candidateBaseline {
		if status.Lifecycle != types.LifecycleInService || status.Health != types.HealthHealthy {
			return nil, fmt.Errorf("phase %s: %w: member %s is %s/%s",
				PhaseValidate, ErrBaselineUnhealthy, id, status.Lifecycle, status.Health)
		}
	}

	return &runState{
		kind:              opts.Kind,
		live:              live,
		candidate:         candidate,
		sourceEndpoints:   stringset.Unique(source),
		destEndpoints:     stringset.Unique(dest),
		standbyEndpoints:  stringset.Unique(standby),
		liveBaseline:      liveBaseline,
		candidateBaseline: candidateBaseline,
		liveInScope:       inScopeMembers(liveBaseline, live.HealthCheckMode),
		candidateInScope:  inScopeMembers(candidateBaseline, candidate.HealthCheckMode),
	}, nil
}

// prepareCandidate swaps the candidate fleet from its source endpoints onto
// the destination endpoints. Only unique deltas are mutated so endpoints
// present in both sets are never detached.
func (o *Orchestrator) prepareCandidate(ctx context.Context, s *runState) error {
	detach := stringset.Difference(s.sourceEndpoints, s.destEndpoints)
	attach := stringset.Difference(s.destEndpoints, s.sourceEndpoints)

	if err := o.mutator.Detach(ctx, s.candidate, s.kind, detach); err != nil {
		return fmt.Errorf("phase %s: %w", PhasePrepare, err)
	}
	if err := o.mutator.Attach(ctx, s.candidate, s.kind, attach); err != nil {
		return fmt.Errorf("phase %s: %w", PhasePrepare, err)
	}
	if err := o.mutator.RestoreHealthCheck(ctx, s.candidate); err != nil {
		return fmt.Errorf("phase %s: %w", PhasePrepare, err)
	}
	return nil
}

// cutoverLive moves the live fleet from the destination endpoints onto the
// standby endpoints
func (o *Orchestrator) cutoverLive(ctx context.Context, s *runState) error {
	detach := stringset.Difference(s.destEndpoints, s.standbyEndpoints)
	attach := stringset.Difference(s.standbyEndpoints, s.destEndpoints)

	if err := o.mutator.Detach(ctx, s.live, s.kind, detach); err != nil {
		return fmt.Errorf("phase %s: %w", PhaseCutover, err)
	}
	if err := o.mutator.Attach(ctx, s.live, s.kind, attach); err != nil {
		return fmt.Errorf("phase %s: %w", PhaseCutover, err)
	}
	if err := o.mutator.RestoreHealthCheck(ctx, s.live); err != nil {
		return fmt.Errorf("phase %s: %w", PhaseCutover, err)
	}
	return nil
}

// failNewFleetGate handles a phase 3 timeout: per policy, reverse the
// candidate preparation so it ends attached to its original endpoints.
func (o *Orchestrator) failNewFleetGate(ctx context.Context, s *runState, opts Options, cause error, logger zerolog.Logger) error {
	if !opts.RollbackOnTimeout {
		return fmt.Errorf("phase %s: destination endpoints never reported candidate healthy, no rollback attempted: %w", PhaseNewHealth, cause)
	}

	logger.Warn().Msg("candidate health gate timed out, rolling back")
	metrics.RollbacksTotal.Inc()
	if err := o.revertCandidate(ctx, s); err != nil {
		return fmt.Errorf("phase %s: rollback failed after health gate timeout: %w", PhaseNewHealth, err)
	}
	return fmt.Errorf("phase %s: destination endpoints never reported candidate healthy, deployment rolled back: %w", PhaseNewHealth, cause)
}

// failDeregisterGate handles a phase 5 timeout: per policy, reverse the
// live fleet cutover first, then the candidate preparation, so the fleet
// with confirmed-healthy members keeps an attachment throughout.
func (o *Orchestrator) failDeregisterGate(ctx context.Context, s *runState, opts Options, cause error, logger zerolog.Logger) error {
	if !opts.RollbackOnTimeout {
		return fmt.Errorf("phase %s: old members never deregistered from destination endpoints, no rollback attempted: %w", PhaseDeregister, cause)
	}

	logger.Warn().Msg("deregistration gate timed out, rolling back both fleets")
	metrics.RollbacksTotal.Inc()
	if err := o.revertLive(ctx, s); err != nil {
		return fmt.Errorf("phase %s: rollback failed after deregistration timeout: %w", PhaseDeregister, err)
	}
	if err := o.revertCandidate(ctx, s); err != nil {
		return fmt.Errorf("phase %s: rollback failed after deregistration timeout: %w", PhaseDeregister, err)
	}
	return fmt.Errorf("phase %s: old members never deregistered from destination endpoints, deployment rolled back: %w", PhaseDeregister, cause)
}

func (o *Orchestrator) revertCandidate(ctx context.Context, s *runState) error {
	detach := stringset.Difference(s.destEndpoints, s.sourceEndpoints)
	attach := stringset.Difference(s.sourceEndpoints, s.destEndpoints)

	if err := o.mutator.Detach(ctx, s.candidate, s.kind, detach); err != nil {
		return err
	}
	if err := o.mutator.Attach(ctx, s.candidate, s.kind, attach); err != nil {
		return err
	}
	return o.mutator.RestoreHealthCheck(ctx, s.candidate)
}

func (o *Orchestrator) revertLive(ctx context.Context, s *runState) error {
	detach := stringset.Difference(s.standbyEndpoints, s.destEndpoints)
	attach := stringset.Difference(s.destEndpoints, s.standbyEndpoints)

	if err := o.mutator.Detach(ctx, s.live, s.kind, detach); err != nil {
		return err
	}
	if err := o.mutator.Attach(ctx, s.live, s.kind, attach); err != nil {
		return err
	}
	return o.mutator.RestoreHealthCheck(ctx, s.live)
}

// inScopeMembers returns the members a health gate waits on: those that
// were in-service at baseline and, for endpoint-managed fleets, already
// passing health checks. Transient members never block a gate.
func inScopeMembers(baseline map[string]types.MemberStatus, mode types.HealthCheckMode) []string {
	var ids []string
	for id, status := range baseline {
		if status.Lifecycle != types.LifecycleInService {
			continue
		}
		if status.Health != types.HealthHealthy && mode == types.HealthCheckEndpointManaged {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func observePhase(phase string, start time.Time) {
	metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
