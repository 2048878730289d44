// Package aws implements cloud.API against the AWS control plane: auto
// scaling groups as fleets, classic ELBs and target groups as endpoints.
package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/cuemby/cutover/pkg/types"
)

// Client implements cloud.API using the AWS SDK
type Client struct {
	autoscaling *autoscaling.Client
	elb         *elasticloadbalancing.Client
	elbv2       *elasticloadbalancingv2.Client
}

// NewClient creates an AWS-backed control plane client from a resolved
// SDK configuration
func NewClient(cfg awssdk.Config) *Client {
	return &Client{
		autoscaling: autoscaling.NewFromConfig(cfg),
		elb:         elasticloadbalancing.NewFromConfig(cfg),
		elbv2:       elasticloadbalancingv2.NewFromConfig(cfg),
	}
}

// DescribeFleets looks up auto scaling groups by exact name
func (c *Client) DescribeFleets(ctx context.Context, name string) ([]types.Fleet, error) {
	out, err := c.autoscaling.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: []string{name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe auto scaling group %q: %w", name, err)
	}

	fleets := make([]types.Fleet, 0, len(out.AutoScalingGroups))
	for _, group := range out.AutoScalingGroups {
		fleet := types.Fleet{
			Name:            awssdk.ToString(group.AutoScalingGroupName),
			LoadBalancers:   group.LoadBalancerNames,
			TargetGroups:    group.TargetGroupARNs,
			HealthCheckMode: modeFromProvider(awssdk.ToString(group.HealthCheckType)),
			GracePeriod:     time.Duration(awssdk.ToInt32(group.HealthCheckGracePeriod)) * time.Second,
		}
		for _, inst := range group.Instances {
			fleet.Members = append(fleet.Members, types.Member{
				ID:        awssdk.ToString(inst.InstanceId),
				Lifecycle: lifecycleFromProvider(string(inst.LifecycleState)),
				Health:    healthFromProvider(awssdk.ToString(inst.HealthStatus)),
			})
		}
		fleets = append(fleets, fleet)
	}
	return fleets, nil
}

// AttachEndpoints attaches load balancers or target groups to a group
func (c *Client) AttachEndpoints(ctx context.Context, fleetName string, kind types.EndpointKind, endpointIDs []string) error {
	if len(endpointIDs) == 0 {
		return nil
	}
	var err error
	if kind == types.EndpointKindTargetGroup {
		_, err = c.autoscaling.AttachLoadBalancerTargetGroups(ctx, &autoscaling.AttachLoadBalancerTargetGroupsInput{
			AutoScalingGroupName: awssdk.String(fleetName),
			TargetGroupARNs:      endpointIDs,
		})
	} else {
		_, err = c.autoscaling.AttachLoadBalancers(ctx, &autoscaling.AttachLoadBalancersInput{
			AutoScalingGroupName: awssdk.String(fleetName),
			LoadBalancerNames:    endpointIDs,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to attach %s endpoints to %q: %w", kind, fleetName, err)
	}
	return nil
}

// DetachEndpoints detaches load balancers or target groups from a group
func (c *Client) DetachEndpoints(ctx context.Context, fleetName string, kind types.EndpointKind, endpointIDs []string) error {
	if len(endpointIDs) == 0 {
		return nil
	}
	var err error
	if kind == types.EndpointKindTargetGroup {
		_, err = c.autoscaling.DetachLoadBalancerTargetGroups(ctx, &autoscaling.DetachLoadBalancerTargetGroupsInput{
			AutoScalingGroupName: awssdk.String(fleetName),
			TargetGroupARNs:      endpointIDs,
		})
	} else {
		_, err = c.autoscaling.DetachLoadBalancers(ctx, &autoscaling.DetachLoadBalancersInput{
			AutoScalingGroupName: awssdk.String(fleetName),
			LoadBalancerNames:    endpointIDs,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to detach %s endpoints from %q: %w", kind, fleetName, err)
	}
	return nil
}

// UpdateHealthCheckConfig re-submits the group's health check type and
// grace period
func (c *Client) UpdateHealthCheckConfig(ctx context.Context, fleetName string, mode types.HealthCheckMode, gracePeriod time.Duration) error {
	_, err := c.autoscaling.UpdateAutoScalingGroup(ctx, &autoscaling.UpdateAutoScalingGroupInput{
		AutoScalingGroupName:   awssdk.String(fleetName),
		HealthCheckType:        awssdk.String(modeToProvider(mode)),
		HealthCheckGracePeriod: awssdk.Int32(int32(gracePeriod / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("failed to update health check config for %q: %w", fleetName, err)
	}
	return nil
}

// DescribeEndpointHealth reports member registration state as seen by one
// load balancer or target group
func (c *Client) DescribeEndpointHealth(ctx context.Context, kind types.EndpointKind, endpointID string, memberIDs []string) ([]types.EndpointHealth, error) {
	if kind == types.EndpointKindTargetGroup {
		return c.describeTargetHealth(ctx, endpointID, memberIDs)
	}
	return c.describeInstanceHealth(ctx, endpointID, memberIDs)
}

func (c *Client) describeInstanceHealth(ctx context.Context, loadBalancer string, memberIDs []string) ([]types.EndpointHealth, error) {
	input := &elasticloadbalancing.DescribeInstanceHealthInput{
		LoadBalancerName: awssdk.String(loadBalancer),
	}
	for _, id := range memberIDs {
		input.Instances = append(input.Instances, elbtypes.Instance{InstanceId: awssdk.String(id)})
	}
	out, err := c.elb.DescribeInstanceHealth(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance health for %q: %w", loadBalancer, err)
	}

	records := make([]types.EndpointHealth, 0, len(out.InstanceStates))
	for _, state := range out.InstanceStates {
		records = append(records, types.EndpointHealth{
			MemberID: awssdk.ToString(state.InstanceId),
			State:    instanceStateToRegistration(awssdk.ToString(state.State)),
		})
	}
	return records, nil
}

func (c *Client) describeTargetHealth(ctx context.Context, targetGroupARN string, memberIDs []string) ([]types.EndpointHealth, error) {
	input := &elasticloadbalancingv2.DescribeTargetHealthInput{
		TargetGroupArn: awssdk.String(targetGroupARN),
	}
	for _, id := range memberIDs {
		input.Targets = append(input.Targets, elbv2types.TargetDescription{Id: awssdk.String(id)})
	}
	out, err := c.elbv2.DescribeTargetHealth(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to describe target health for %q: %w", targetGroupARN, err)
	}

	records := make([]types.EndpointHealth, 0, len(out.TargetHealthDescriptions))
	for _, desc := range out.TargetHealthDescriptions {
		if desc.Target == nil || desc.TargetHealth == nil {
			continue
		}
		records = append(records, types.EndpointHealth{
			MemberID: awssdk.ToString(desc.Target.Id),
			State:    targetHealthToRegistration(desc.TargetHealth.State, desc.TargetHealth.Reason),
		})
	}
	return records, nil
}

// ResolveEndpointIDs resolves operator-supplied endpoint names to the
// identifiers used for attachment. Classic load balancers attach by name;
// target groups attach by ARN and are resolved through the ELBv2 API.
func (c *Client) ResolveEndpointIDs(ctx context.Context, kind types.EndpointKind, names []string) ([]string, error) {
	if kind != types.EndpointKindTargetGroup || len(names) == 0 {
		return names, nil
	}
	out, err := c.elbv2.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
		Names: names,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe target groups: %w", err)
	}
	if len(out.TargetGroups) < len(names) {
		return nil, fmt.Errorf("only %d of %d target groups found", len(out.TargetGroups), len(names))
	}
	arns := make([]string, 0, len(out.TargetGroups))
	for _, tg := range out.TargetGroups {
		arns = append(arns, awssdk.ToString(tg.TargetGroupArn))
	}
	return arns, nil
}
