package types

import (
	"time"
)

// EndpointKind selects which routing attachment a cutover operates on
type EndpointKind string

const (
	EndpointKindLoadBalancer EndpointKind = "load-balancer"
	EndpointKindTargetGroup  EndpointKind = "target-group"
)

// LifecycleState is a member's position in the fleet lifecycle
type LifecycleState string

const (
	LifecycleInService   LifecycleState = "in-service"
	LifecyclePending     LifecycleState = "pending"
	LifecycleTerminating LifecycleState = "terminating"
	LifecycleDetached    LifecycleState = "detached"
	LifecycleStandby     LifecycleState = "standby"
	LifecycleUnknown     LifecycleState = "unknown"
)

// HealthState is a member's self-reported health within its fleet
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
	HealthUnknown   HealthState = "unknown"
)

// HealthCheckMode describes how a fleet decides member health
type HealthCheckMode string

const (
	// HealthCheckSelfManaged means the fleet trusts its own instance checks
	HealthCheckSelfManaged HealthCheckMode = "self-managed"
	// HealthCheckEndpointManaged means the fleet defers to the routing
	// layer's health checks
	HealthCheckEndpointManaged HealthCheckMode = "endpoint-managed"
)

// RegistrationState is a member's status as seen by a routing endpoint
type RegistrationState string

const (
	RegisteredHealthy   RegistrationState = "registered-healthy"
	RegisteredUnhealthy RegistrationState = "registered-unhealthy"
	NotRegistered       RegistrationState = "not-registered"
)

// Member is a single compute instance within a fleet
type Member struct {
	ID        string
	Lifecycle LifecycleState
	Health    HealthState
}

// MemberStatus is the (lifecycle, health) pair captured in a baseline
// snapshot before any mutation
type MemberStatus struct {
	Lifecycle LifecycleState `json:"lifecycle"`
	Health    HealthState    `json:"health"`
}

// Fleet is a named auto-scaling group with its routing attachments
type Fleet struct {
	Name            string
	LoadBalancers   []string // classic load balancer names
	TargetGroups    []string // target group ARNs
	HealthCheckMode HealthCheckMode
	GracePeriod     time.Duration
	Members         []Member
}

// Endpoints returns the fleet's attached endpoint identifiers of the
// given kind
func (f Fleet) Endpoints(kind EndpointKind) []string {
	if kind == EndpointKindTargetGroup {
		return f.TargetGroups
	}
	return f.LoadBalancers
}

// MemberIDs returns the fleet's member identifiers in membership order
func (f Fleet) MemberIDs() []string {
	ids := make([]string, 0, len(f.Members))
	for _, m := range f.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Snapshot captures the fleet's per-member status as a baseline. Only
// members present in the snapshot are considered by later health gates.
func (f Fleet) Snapshot() map[string]MemberStatus {
	snap := make(map[string]MemberStatus, len(f.Members))
	for _, m := range f.Members {
		snap[m.ID] = MemberStatus{Lifecycle: m.Lifecycle, Health: m.Health}
	}
	return snap
}

// EndpointHealth is one (member, state) record reported by an endpoint
type EndpointHealth struct {
	MemberID string
	State    RegistrationState
}

// FleetReport describes one fleet's final position in a cutover result
type FleetReport struct {
	Name      string                  `json:"name"`
	Endpoints []string                `json:"endpoints"`
	MemberIDs []string                `json:"member_ids"`
	Baseline  map[string]MemberStatus `json:"baseline"`
}

// Result is the immutable record produced by a successful cutover
type Result struct {
	RunID      string       `json:"run_id"`
	Kind       EndpointKind `json:"kind"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	NewFleet   FleetReport  `json:"new_fleet"`
	OldFleet   FleetReport  `json:"old_fleet"`
}
