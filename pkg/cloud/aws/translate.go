package aws

import (
	"strings"

	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/cuemby/cutover/pkg/types"
)

// Provider vocabulary is translated to the closed enums in pkg/types here,
// at the boundary. Anything unrecognized maps to the conservative value so
// a new provider state can never satisfy a health gate by accident.

func lifecycleFromProvider(state string) types.LifecycleState {
	switch {
	case state == "InService":
		return types.LifecycleInService
	case strings.HasPrefix(state, "Pending"):
		return types.LifecyclePending
	case strings.HasPrefix(state, "Terminating") || state == "Terminated":
		return types.LifecycleTerminating
	case state == "Standby" || state == "EnteringStandby":
		return types.LifecycleStandby
	case strings.HasPrefix(state, "Detach"):
		return types.LifecycleDetached
	default:
		return types.LifecycleUnknown
	}
}

func healthFromProvider(status string) types.HealthState {
	switch status {
	case "Healthy":
		return types.HealthHealthy
	case "Unhealthy":
		return types.HealthUnhealthy
	default:
		return types.HealthUnknown
	}
}

func modeFromProvider(healthCheckType string) types.HealthCheckMode {
	if healthCheckType == "ELB" {
		return types.HealthCheckEndpointManaged
	}
	return types.HealthCheckSelfManaged
}

func modeToProvider(mode types.HealthCheckMode) string {
	if mode == types.HealthCheckEndpointManaged {
		return "ELB"
	}
	return "EC2"
}

// instanceStateToRegistration maps a classic load balancer instance state.
// Classic ELBs drop deregistered instances from the listing entirely, so
// only OutOfService/Unknown need mapping here; absence is handled by the
// caller.
func instanceStateToRegistration(state string) types.RegistrationState {
	if state == "InService" {
		return types.RegisteredHealthy
	}
	return types.RegisteredUnhealthy
}

// targetHealthToRegistration maps a target group health description.
// A target reported unused with reason Target.NotRegistered is terminal
// deregistration, equivalent to absence.
func targetHealthToRegistration(state elbv2types.TargetHealthStateEnum, reason elbv2types.TargetHealthReasonEnum) types.RegistrationState {
	switch state {
	case elbv2types.TargetHealthStateEnumHealthy:
		return types.RegisteredHealthy
	case elbv2types.TargetHealthStateEnumUnused:
		if reason == elbv2types.TargetHealthReasonEnumNotRegistered {
			return types.NotRegistered
		}
		return types.RegisteredUnhealthy
	default:
		return types.RegisteredUnhealthy
	}
}
