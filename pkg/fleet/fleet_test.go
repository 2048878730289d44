package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cutover/pkg/log"
	"github.com/cuemby/cutover/pkg/types"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

type stubAPI struct {
	fleets      []types.Fleet
	describeErr error
	calls       []string
}

func (s *stubAPI) DescribeFleets(ctx context.Context, name string) ([]types.Fleet, error) {
	if s.describeErr != nil {
		return nil, s.describeErr
	}
	var out []types.Fleet
	for _, f := range s.fleets {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubAPI) AttachEndpoints(ctx context.Context, fleetName string, kind types.EndpointKind, endpointIDs []string) error {
	s.calls = append(s.calls, "attach")
	return nil
}

func (s *stubAPI) DetachEndpoints(ctx context.Context, fleetName string, kind types.EndpointKind, endpointIDs []string) error {
	s.calls = append(s.calls, "detach")
	return nil
}

func (s *stubAPI) UpdateHealthCheckConfig(ctx context.Context, fleetName string, mode types.HealthCheckMode, gracePeriod time.Duration) error {
	s.calls = append(s.calls, "update-health-check")
	return nil
}

func (s *stubAPI) DescribeEndpointHealth(ctx context.Context, kind types.EndpointKind, endpointID string, memberIDs []string) ([]types.EndpointHealth, error) {
	return nil, nil
}

func (s *stubAPI) ResolveEndpointIDs(ctx context.Context, kind types.EndpointKind, names []string) ([]string, error) {
	return names, nil
}

func TestResolverReturnsSingleMatch(t *testing.T) {
	api := &stubAPI{fleets: []types.Fleet{{Name: "web-blue", LoadBalancers: []string{"lb-1"}}}}
	resolver := NewResolver(api)

	fleet, err := resolver.Resolve(context.Background(), "web-blue")
	assert.NoError(t, err)
	assert.Equal(t, "web-blue", fleet.Name)
	assert.Equal(t, []string{"lb-1"}, fleet.LoadBalancers)
}

func TestResolverNotFound(t *testing.T) {
	api := &stubAPI{}
	resolver := NewResolver(api)

	_, err := resolver.Resolve(context.Background(), "web-missing")
	assert.ErrorIs(t, err, ErrFleetNotFound)
	assert.Contains(t, err.Error(), "web-missing")
}

func TestResolverAmbiguous(t *testing.T) {
	api := &stubAPI{fleets: []types.Fleet{{Name: "web-blue"}, {Name: "web-blue"}}}
	resolver := NewResolver(api)

	_, err := resolver.Resolve(context.Background(), "web-blue")
	assert.ErrorIs(t, err, ErrFleetAmbiguous)
}

func TestResolverWrapsLookupFailure(t *testing.T) {
	lookupErr := errors.New("control plane unavailable")
	api := &stubAPI{describeErr: lookupErr}
	resolver := NewResolver(api)

	_, err := resolver.Resolve(context.Background(), "web-blue")
	assert.ErrorIs(t, err, lookupErr)
}

func TestMutatorSkipsEmptyDeltas(t *testing.T) {
	api := &stubAPI{}
	mutator := NewMutator(api)
	fleet := types.Fleet{Name: "web-blue"}

	assert.NoError(t, mutator.Attach(context.Background(), fleet, types.EndpointKindLoadBalancer, nil))
	assert.NoError(t, mutator.Detach(context.Background(), fleet, types.EndpointKindLoadBalancer, nil))
	assert.Empty(t, api.calls, "empty deltas must not reach the control plane")
}

func TestMutatorRestoreHealthCheck(t *testing.T) {
	tests := []struct {
		name     string
		mode     types.HealthCheckMode
		expected []string
	}{
		{
			name:     "endpoint-managed re-submits config",
			mode:     types.HealthCheckEndpointManaged,
			expected: []string{"update-health-check"},
		},
		{
			name:     "self-managed is a no-op",
			mode:     types.HealthCheckSelfManaged,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{}
			mutator := NewMutator(api)
			fleet := types.Fleet{Name: "web-blue", HealthCheckMode: tt.mode, GracePeriod: time.Minute}

			assert.NoError(t, mutator.RestoreHealthCheck(context.Background(), fleet))
			assert.Equal(t, tt.expected, api.calls)
		})
	}
}
