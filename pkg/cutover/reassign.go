package cutover

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/cutover/pkg/log"
	"github.com/cuemby/cutover/pkg/metrics"
	"github.com/cuemby/cutover/pkg/stringset"
	"github.com/cuemby/cutover/pkg/types"
)

// Phase name for the reassign health gate
const PhaseReassign = "reassign-health"

// ReassignOptions parameterize a single-fleet endpoint reassignment
type ReassignOptions struct {
	Fleet             string
	Endpoints         []string // desired endpoint set, by operator name
	Kind              types.EndpointKind
	RollbackOnTimeout bool
	HealthTimeout     time.Duration
}

// ReassignResult is the record produced by a successful reassignment
type ReassignResult struct {
	RunID      string             `json:"run_id"`
	Kind       types.EndpointKind `json:"kind"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Fleet      types.FleetReport  `json:"fleet"`
}

// Record converts the result into the journal's run record shape. The
// old-fleet report is left empty; a reassignment has no outgoing fleet.
func (r ReassignResult) Record() types.Result {
	return types.Result{
		RunID:      r.RunID,
		Kind:       r.Kind,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		NewFleet:   r.Fleet,
	}
}

// Reassign sets a fleet's attached endpoint set to the desired endpoints:
// attach the missing ones, wait for the fleet's members to report healthy
// on the full desired set, then detach the endpoints no longer wanted.
// On a health gate timeout only the newly attached delta is rolled back,
// so endpoints that were already attached at the start are never touched.
func (o *Orchestrator) Reassign(ctx context.Context, opts ReassignOptions) (ReassignResult, error) {
	if opts.Kind == "" {
		opts.Kind = types.EndpointKindLoadBalancer
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if opts.Fleet == "" {
		return ReassignResult{}, fmt.Errorf("phase %s: fleet name is required", PhaseValidate)
	}
	if len(opts.Endpoints) == 0 {
		return ReassignResult{}, fmt.Errorf("phase %s: %w: no endpoints requested", PhaseValidate, ErrNoEndpoints)
	}

	runID := uuid.New().String()
	startedAt := time.Now()
	logger := log.WithRunID(runID)
	logger.Info().
		Str("fleet", opts.Fleet).
		Str("kind", string(opts.Kind)).
		Strs("endpoints", opts.Endpoints).
		Msg("starting endpoint reassignment")

	target, err := o.resolver.Resolve(ctx, opts.Fleet)
	if err != nil {
		return ReassignResult{}, fmt.Errorf("phase %s: %w", PhaseValidate, err)
	}

	desired := opts.Endpoints
	if o.endpoints != nil {
		desired, err = o.endpoints.ResolveEndpointIDs(ctx, opts.Kind, desired)
		if err != nil {
			return ReassignResult{}, fmt.Errorf("phase %s: %w", PhaseValidate, err)
		}
	}
	desired = stringset.Unique(desired)
	current := stringset.Unique(target.Endpoints(opts.Kind))

	baseline := target.Snapshot()
	for id, status := range baseline {
		if status.Lifecycle != types.LifecycleInService || status.Health != types.HealthHealthy {
			return ReassignResult{}, fmt.Errorf("phase %s: %w: member %s is %s/%s",
				PhaseValidate, ErrBaselineUnhealthy, id, status.Lifecycle, status.Health)
		}
	}

	uniqueNew := stringset.Difference(desired, current)
	uniqueOld := stringset.Difference(current, desired)

	if err := o.mutator.Attach(ctx, target, opts.Kind, uniqueNew); err != nil {
		return ReassignResult{}, fmt.Errorf("phase %s: %w", PhaseReassign, err)
	}

	inScope := inScopeMembers(baseline, target.HealthCheckMode)
	phaseStart := time.Now()
	err = o.poller.AwaitHealthy(ctx, PhaseReassign, opts.Kind, desired, inScope, opts.HealthTimeout)
	observePhase(PhaseReassign, phaseStart)
	if err != nil {
		if !opts.RollbackOnTimeout {
			return ReassignResult{}, fmt.Errorf("phase %s: desired endpoints never reported members healthy, no rollback attempted: %w", PhaseReassign, err)
		}
		logger.Warn().Msg("reassign health gate timed out, detaching newly attached endpoints")
		metrics.RollbacksTotal.Inc()
		if detachErr := o.mutator.Detach(ctx, target, opts.Kind, uniqueNew); detachErr != nil {
			return ReassignResult{}, fmt.Errorf("phase %s: rollback failed after health gate timeout: %w", PhaseReassign, detachErr)
		}
		if restoreErr := o.mutator.RestoreHealthCheck(ctx, target); restoreErr != nil {
			return ReassignResult{}, fmt.Errorf("phase %s: rollback failed after health gate timeout: %w", PhaseReassign, restoreErr)
		}
		return ReassignResult{}, fmt.Errorf("phase %s: desired endpoints never reported members healthy, attachment rolled back: %w", PhaseReassign, err)
	}

	if err := o.mutator.Detach(ctx, target, opts.Kind, uniqueOld); err != nil {
		return ReassignResult{}, fmt.Errorf("phase %s: %w", PhaseReassign, err)
	}
	if err := o.mutator.RestoreHealthCheck(ctx, target); err != nil {
		return ReassignResult{}, fmt.Errorf("phase %s: %w", PhaseReassign, err)
	}

	result := ReassignResult{
		RunID:      runID,
		Kind:       opts.Kind,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Fleet: types.FleetReport{
			Name:      target.Name,
			Endpoints: desired,
			MemberIDs: target.MemberIDs(),
			Baseline:  baseline,
		},
	}
	logger.Info().
		Str("fleet", result.Fleet.Name).
		Strs("endpoints", result.Fleet.Endpoints).
		Msg("endpoint reassignment complete")
	return result, nil
}
