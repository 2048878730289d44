// Package cloud defines the abstract control-plane interface the cutover
// core drives. The production implementation lives in pkg/cloud/aws; tests
// substitute an in-memory fake.
package cloud

import (
	"context"
	"time"

	"github.com/cuemby/cutover/pkg/types"
)

// API is the contract against the fleet/endpoint control plane. All calls
// are synchronous remote operations; implementations must not retry
// internally, the callers own retry and rollback policy.
type API interface {
	// DescribeFleets looks up fleets by exact name. Zero or multiple
	// matches are returned as-is; disambiguation is the caller's concern.
	DescribeFleets(ctx context.Context, name string) ([]types.Fleet, error)

	// AttachEndpoints attaches the given endpoints of the given kind to
	// the named fleet. Attaching an already-attached endpoint is a no-op.
	AttachEndpoints(ctx context.Context, fleetName string, kind types.EndpointKind, endpointIDs []string) error

	// DetachEndpoints detaches the given endpoints of the given kind from
	// the named fleet.
	DetachEndpoints(ctx context.Context, fleetName string, kind types.EndpointKind, endpointIDs []string) error

	// UpdateHealthCheckConfig re-submits the fleet's health check mode and
	// grace period, re-engaging endpoint-managed health gating after an
	// attachment change.
	UpdateHealthCheckConfig(ctx context.Context, fleetName string, mode types.HealthCheckMode, gracePeriod time.Duration) error

	// DescribeEndpointHealth reports member registration state as seen by
	// one endpoint. When memberIDs is empty the full registration list is
	// returned; otherwise only the named members are queried.
	DescribeEndpointHealth(ctx context.Context, kind types.EndpointKind, endpointID string, memberIDs []string) ([]types.EndpointHealth, error)

	// ResolveEndpointIDs translates operator-supplied endpoint names into
	// the identifiers used for attachment. Load balancer names pass
	// through unchanged; target group names resolve to ARNs.
	ResolveEndpointIDs(ctx context.Context, kind types.EndpointKind, names []string) ([]string, error)
}
