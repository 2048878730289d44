package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/cutover/pkg/cutover"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a cutover plan file",
	Long: `Apply a cutover plan from a YAML file.

Examples:
  # Run the cutover described in a plan
  cutover apply -f promote-green.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML plan to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// Plan is a declarative description of one cutover or endpoint assignment
type Plan struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   PlanMetadata `yaml:"metadata"`
	Spec       PlanSpec     `yaml:"spec"`
}

type PlanMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

type PlanSpec struct {
	// Cutover fields
	LiveFleet           string   `yaml:"liveFleet,omitempty"`
	CandidateFleet      string   `yaml:"candidateFleet,omitempty"`
	StandbyEndpoints    []string `yaml:"standbyEndpoints,omitempty"`
	VerifyStandbyHealth bool     `yaml:"verifyStandbyHealth,omitempty"`

	// EndpointAssignment fields
	Fleet     string   `yaml:"fleet,omitempty"`
	Endpoints []string `yaml:"endpoints,omitempty"`

	// Shared
	EndpointKind         string `yaml:"endpointKind,omitempty"`
	RollbackOnTimeout    *bool  `yaml:"rollbackOnTimeout,omitempty"`
	HealthTimeoutSeconds int    `yaml:"healthTimeoutSeconds,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename := mustString(cmd, "file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("failed to parse plan: %w", err)
	}

	kind, err := parseKind(valueOr(plan.Spec.EndpointKind, "load-balancer"))
	if err != nil {
		return err
	}
	rollback := true
	if plan.Spec.RollbackOnTimeout != nil {
		rollback = *plan.Spec.RollbackOnTimeout
	}
	timeout := time.Duration(plan.Spec.HealthTimeoutSeconds) * time.Second

	api, err := newCloudAPI(cmd.Context(), mustString(cmd, "region"))
	if err != nil {
		return err
	}
	orch := newOrchestrator(api)

	switch plan.Kind {
	case "Cutover":
		result, err := orch.Run(cmd.Context(), cutover.Options{
			LiveFleet:           plan.Spec.LiveFleet,
			CandidateFleet:      plan.Spec.CandidateFleet,
			Kind:                kind,
			StandbyEndpoints:    plan.Spec.StandbyEndpoints,
			VerifyStandbyHealth: plan.Spec.VerifyStandbyHealth,
			RollbackOnTimeout:   rollback,
			HealthTimeout:       timeout,
		})
		if err != nil {
			return err
		}
		recordRun(cmd, result)
		return printJSON(result)

	case "EndpointAssignment":
		result, err := orch.Reassign(cmd.Context(), cutover.ReassignOptions{
			Fleet:             plan.Spec.Fleet,
			Endpoints:         plan.Spec.Endpoints,
			Kind:              kind,
			RollbackOnTimeout: rollback,
			HealthTimeout:     timeout,
		})
		if err != nil {
			return err
		}
		recordRun(cmd, result.Record())
		return printJSON(result)

	default:
		return fmt.Errorf("unsupported plan kind: %s", plan.Kind)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
