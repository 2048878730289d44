package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/cuemby/cutover/pkg/cloud"
	cloudaws "github.com/cuemby/cutover/pkg/cloud/aws"
	"github.com/cuemby/cutover/pkg/cutover"
	"github.com/cuemby/cutover/pkg/fleet"
	"github.com/cuemby/cutover/pkg/healthwait"
	"github.com/cuemby/cutover/pkg/journal"
	"github.com/cuemby/cutover/pkg/log"
	"github.com/cuemby/cutover/pkg/metrics"
	"github.com/cuemby/cutover/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cutover",
	Short: "Cutover - zero-downtime blue/green endpoint cutover for auto scaling fleets",
	Long: `Cutover moves traffic-serving endpoints (classic load balancers or
target groups) between two auto scaling fleets without downtime.

The candidate fleet takes over the live fleet's endpoints only after its
members pass health checks on them; the live fleet is then parked on a
standby set, with best-effort rollback if any health gate times out.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			go serveMetrics(addr)
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Cutover version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs instead of console output")
	rootCmd.PersistentFlags().String("region", "", "Cloud region (defaults to the SDK's resolution)")
	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Directory for the run journal")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Optional address to serve Prometheus metrics during the run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(endpointsCmd)
	rootCmd.AddCommand(historyCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Cut traffic over from the live fleet to the candidate fleet",
	Long: `Run a blue/green cutover between two fleets.

The candidate fleet's endpoints are swapped for the live fleet's: the
candidate ends up serving on the live fleet's endpoints, and the live fleet
is parked on the standby endpoints (by default, the candidate's original
ones).

Examples:
  # Swap endpoints between the blue and green fleets
  cutover run --live web-blue --candidate web-green

  # Promote web-18 and park web-17 on a post-production load balancer
  cutover run --live web-17 --candidate web-18 --standby web-post-production`,
	RunE: runCutover,
}

func init() {
	runCmd.Flags().String("live", "", "Name of the fleet currently serving traffic (required)")
	runCmd.Flags().String("candidate", "", "Name of the fleet to promote (required)")
	runCmd.Flags().String("kind", "load-balancer", "Endpoint kind: load-balancer or target-group")
	runCmd.Flags().StringSlice("standby", nil, "Endpoints to attach to the outgoing fleet (default: candidate's original endpoints)")
	runCmd.Flags().Bool("verify-standby", false, "Wait for the outgoing fleet to pass health checks on the standby endpoints")
	runCmd.Flags().Bool("no-rollback", false, "Do not roll back on a health gate timeout")
	runCmd.Flags().Int("timeout", 300, "Seconds to wait on each health gate")
	_ = runCmd.MarkFlagRequired("live")
	_ = runCmd.MarkFlagRequired("candidate")
}

func runCutover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kind, err := parseKind(mustString(cmd, "kind"))
	if err != nil {
		return err
	}

	api, err := newCloudAPI(ctx, mustString(cmd, "region"))
	if err != nil {
		return err
	}
	orch := newOrchestrator(api)

	noRollback, _ := cmd.Flags().GetBool("no-rollback")
	verifyStandby, _ := cmd.Flags().GetBool("verify-standby")
	standby, _ := cmd.Flags().GetStringSlice("standby")
	timeout, _ := cmd.Flags().GetInt("timeout")

	result, err := orch.Run(ctx, cutover.Options{
		LiveFleet:           mustString(cmd, "live"),
		CandidateFleet:      mustString(cmd, "candidate"),
		Kind:                kind,
		StandbyEndpoints:    standby,
		VerifyStandbyHealth: verifyStandby,
		RollbackOnTimeout:   !noRollback,
		HealthTimeout:       time.Duration(timeout) * time.Second,
	})
	if err != nil {
		return err
	}

	recordRun(cmd, result)
	return printJSON(result)
}

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Manage a single fleet's endpoint attachments",
}

var endpointsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a fleet's attached endpoints to the given set",
	Long: `Set the endpoints attached to one fleet.

Missing endpoints are attached first; once the fleet's members report
healthy on the full desired set, endpoints not in the set are detached.
Endpoints that were already attached are never detached by a rollback.

Examples:
  cutover endpoints set --fleet web-production --endpoint web-prod-blue`,
	RunE: runEndpointsSet,
}

func init() {
	endpointsSetCmd.Flags().String("fleet", "", "Name of the fleet (required)")
	endpointsSetCmd.Flags().StringSlice("endpoint", nil, "Desired endpoint, repeatable (required)")
	endpointsSetCmd.Flags().String("kind", "load-balancer", "Endpoint kind: load-balancer or target-group")
	endpointsSetCmd.Flags().Bool("no-rollback", false, "Do not roll back on a health gate timeout")
	endpointsSetCmd.Flags().Int("timeout", 300, "Seconds to wait on the health gate")
	_ = endpointsSetCmd.MarkFlagRequired("fleet")
	_ = endpointsSetCmd.MarkFlagRequired("endpoint")

	endpointsCmd.AddCommand(endpointsSetCmd)
}

func runEndpointsSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kind, err := parseKind(mustString(cmd, "kind"))
	if err != nil {
		return err
	}

	api, err := newCloudAPI(ctx, mustString(cmd, "region"))
	if err != nil {
		return err
	}
	orch := newOrchestrator(api)

	endpoints, _ := cmd.Flags().GetStringSlice("endpoint")
	noRollback, _ := cmd.Flags().GetBool("no-rollback")
	timeout, _ := cmd.Flags().GetInt("timeout")

	result, err := orch.Reassign(ctx, cutover.ReassignOptions{
		Fleet:             mustString(cmd, "fleet"),
		Endpoints:         endpoints,
		Kind:              kind,
		RollbackOnTimeout: !noRollback,
		HealthTimeout:     time.Duration(timeout) * time.Second,
	})
	if err != nil {
		return err
	}

	recordRun(cmd, result.Record())
	return printJSON(result)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded cutover runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := mustString(cmd, "data-dir")
		j, err := journal.Open(dataDir)
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.List()
		if err != nil {
			return err
		}
		for _, run := range runs {
			// Reassignments have no outgoing fleet
			if run.OldFleet.Name == "" {
				fmt.Printf("%s  %s  %s  (%s)\n",
					run.StartedAt.Format(time.RFC3339),
					run.RunID,
					run.NewFleet.Name,
					run.Kind,
				)
				continue
			}
			fmt.Printf("%s  %s  %s -> %s  (%s)\n",
				run.StartedAt.Format(time.RFC3339),
				run.RunID,
				run.OldFleet.Name,
				run.NewFleet.Name,
				run.Kind,
			)
		}
		return nil
	},
}

func newCloudAPI(ctx context.Context, region string) (cloud.API, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load cloud credentials: %w", err)
	}
	return cloudaws.NewClient(cfg), nil
}

func newOrchestrator(api cloud.API) *cutover.Orchestrator {
	return cutover.New(
		fleet.NewResolver(api),
		fleet.NewMutator(api),
		healthwait.NewPoller(api, nil),
		api,
	)
}

func parseKind(s string) (types.EndpointKind, error) {
	switch strings.ToLower(s) {
	case "load-balancer", "elb", "lb":
		return types.EndpointKindLoadBalancer, nil
	case "target-group", "tg":
		return types.EndpointKindTargetGroup, nil
	default:
		return "", fmt.Errorf("unknown endpoint kind %q (want load-balancer or target-group)", s)
	}
}

// recordRun appends the result to the journal. History is best effort; a
// journaling failure never fails a completed cutover.
func recordRun(cmd *cobra.Command, result types.Result) {
	dataDir := mustString(cmd, "data-dir")
	j, err := journal.Open(dataDir)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("failed to open run journal")
		return
	}
	defer j.Close()
	if err := j.Record(result); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to record run in journal")
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.cutover"
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Logger.Warn().Err(err).Msg("metrics listener stopped")
	}
}
