package aws

import (
	"testing"

	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cutover/pkg/types"
)

func TestLifecycleFromProvider(t *testing.T) {
	tests := []struct {
		provider string
		expected types.LifecycleState
	}{
		{"InService", types.LifecycleInService},
		{"Pending", types.LifecyclePending},
		{"Pending:Wait", types.LifecyclePending},
		{"Pending:Proceed", types.LifecyclePending},
		{"Terminating", types.LifecycleTerminating},
		{"Terminating:Wait", types.LifecycleTerminating},
		{"Terminated", types.LifecycleTerminating},
		{"Standby", types.LifecycleStandby},
		{"EnteringStandby", types.LifecycleStandby},
		{"Detaching", types.LifecycleDetached},
		{"Detached", types.LifecycleDetached},
		{"Quarantined", types.LifecycleUnknown},
		{"", types.LifecycleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.expected, lifecycleFromProvider(tt.provider))
		})
	}
}

func TestHealthFromProvider(t *testing.T) {
	assert.Equal(t, types.HealthHealthy, healthFromProvider("Healthy"))
	assert.Equal(t, types.HealthUnhealthy, healthFromProvider("Unhealthy"))
	assert.Equal(t, types.HealthUnknown, healthFromProvider(""))
	assert.Equal(t, types.HealthUnknown, healthFromProvider("healthy"), "provider strings are case sensitive")
}

func TestHealthCheckModeRoundTrip(t *testing.T) {
	assert.Equal(t, types.HealthCheckEndpointManaged, modeFromProvider("ELB"))
	assert.Equal(t, types.HealthCheckSelfManaged, modeFromProvider("EC2"))
	assert.Equal(t, "ELB", modeToProvider(types.HealthCheckEndpointManaged))
	assert.Equal(t, "EC2", modeToProvider(types.HealthCheckSelfManaged))
}

func TestInstanceStateToRegistration(t *testing.T) {
	assert.Equal(t, types.RegisteredHealthy, instanceStateToRegistration("InService"))
	assert.Equal(t, types.RegisteredUnhealthy, instanceStateToRegistration("OutOfService"))
	assert.Equal(t, types.RegisteredUnhealthy, instanceStateToRegistration("Unknown"))
}

func TestTargetHealthToRegistration(t *testing.T) {
	tests := []struct {
		name     string
		state    elbv2types.TargetHealthStateEnum
		reason   elbv2types.TargetHealthReasonEnum
		expected types.RegistrationState
	}{
		{
			name:     "healthy",
			state:    elbv2types.TargetHealthStateEnumHealthy,
			expected: types.RegisteredHealthy,
		},
		{
			name:     "unhealthy",
			state:    elbv2types.TargetHealthStateEnumUnhealthy,
			expected: types.RegisteredUnhealthy,
		},
		{
			name:     "draining is still registered",
			state:    elbv2types.TargetHealthStateEnumDraining,
			expected: types.RegisteredUnhealthy,
		},
		{
			name:     "initial is not yet healthy",
			state:    elbv2types.TargetHealthStateEnumInitial,
			expected: types.RegisteredUnhealthy,
		},
		{
			name:     "unused and not registered is terminal deregistration",
			state:    elbv2types.TargetHealthStateEnumUnused,
			reason:   elbv2types.TargetHealthReasonEnumNotRegistered,
			expected: types.NotRegistered,
		},
		{
			name:     "unused for another reason is conservative",
			state:    elbv2types.TargetHealthStateEnumUnused,
			reason:   elbv2types.TargetHealthReasonEnumNotInUse,
			expected: types.RegisteredUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, targetHealthToRegistration(tt.state, tt.reason))
		})
	}
}
