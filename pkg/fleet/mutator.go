package fleet

import (
	"context"
	"fmt"

	"github.com/cuemby/cutover/pkg/cloud"
	"github.com/cuemby/cutover/pkg/log"
	"github.com/cuemby/cutover/pkg/types"
)

// Mutator performs attachment changes against a fleet. Callers are expected
// to pass unique deltas only (see pkg/stringset); the mutator itself does
// not dedupe or diff.
type Mutator struct {
	api cloud.API
}

// NewMutator creates a mutator backed by the given control plane
func NewMutator(api cloud.API) *Mutator {
	return &Mutator{api: api}
}

// Attach attaches the given endpoints to the fleet
func (m *Mutator) Attach(ctx context.Context, fleet types.Fleet, kind types.EndpointKind, endpointIDs []string) error {
	if len(endpointIDs) == 0 {
		return nil
	}
	logger := log.WithFleet(fleet.Name)
	logger.Info().
		Str("kind", string(kind)).
		Strs("endpoints", endpointIDs).
		Msg("attaching endpoints")

	if err := m.api.AttachEndpoints(ctx, fleet.Name, kind, endpointIDs); err != nil {
		return fmt.Errorf("failed to attach endpoints to fleet %q: %w", fleet.Name, err)
	}
	return nil
}

// Detach detaches the given endpoints from the fleet
func (m *Mutator) Detach(ctx context.Context, fleet types.Fleet, kind types.EndpointKind, endpointIDs []string) error {
	if len(endpointIDs) == 0 {
		return nil
	}
	logger := log.WithFleet(fleet.Name)
	logger.Info().
		Str("kind", string(kind)).
		Strs("endpoints", endpointIDs).
		Msg("detaching endpoints")

	if err := m.api.DetachEndpoints(ctx, fleet.Name, kind, endpointIDs); err != nil {
		return fmt.Errorf("failed to detach endpoints from fleet %q: %w", fleet.Name, err)
	}
	return nil
}

// RestoreHealthCheck re-submits the fleet's health check configuration so
// endpoint-managed gating re-engages after an attachment change. Fleets
// with self-managed checks are left alone.
func (m *Mutator) RestoreHealthCheck(ctx context.Context, fleet types.Fleet) error {
	if fleet.HealthCheckMode != types.HealthCheckEndpointManaged {
		return nil
	}
	logger := log.WithFleet(fleet.Name)
	logger.Debug().
		Dur("grace_period", fleet.GracePeriod).
		Msg("restoring endpoint-managed health check config")

	if err := m.api.UpdateHealthCheckConfig(ctx, fleet.Name, fleet.HealthCheckMode, fleet.GracePeriod); err != nil {
		return fmt.Errorf("failed to restore health check config for fleet %q: %w", fleet.Name, err)
	}
	return nil
}
