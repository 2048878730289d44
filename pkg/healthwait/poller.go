package healthwait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/cutover/pkg/log"
	"github.com/cuemby/cutover/pkg/metrics"
	"github.com/cuemby/cutover/pkg/types"
)

// PollInterval is the fixed cadence between health poll iterations
const PollInterval = 5 * time.Second

var (
	// ErrHealthTimeout indicates members did not all become healthy on the
	// watched endpoints before the deadline
	ErrHealthTimeout = errors.New("timed out waiting for members to become healthy")

	// ErrDeregisterTimeout indicates members still held active
	// registrations on the watched endpoints at the deadline
	ErrDeregisterTimeout = errors.New("timed out waiting for members to deregister")
)

// HealthSource is the single read-only query the poller needs from the
// control plane. cloud.API satisfies it.
type HealthSource interface {
	DescribeEndpointHealth(ctx context.Context, kind types.EndpointKind, endpointID string, memberIDs []string) ([]types.EndpointHealth, error)
}

// Poller repeatedly queries endpoint health until an aggregate predicate is
// satisfied or a deadline elapses
type Poller struct {
	source HealthSource
	clock  Clock
}

// NewPoller creates a poller against the given health source. A nil clock
// means real time.
func NewPoller(source HealthSource, clock Clock) *Poller {
	if clock == nil {
		clock = realClock{}
	}
	return &Poller{source: source, clock: clock}
}

// AwaitHealthy polls until every given member is reported healthy on every
// given endpoint, or the timeout elapses. The gate name labels logs and
// metrics only.
func (p *Poller) AwaitHealthy(ctx context.Context, gate string, kind types.EndpointKind, endpointIDs, memberIDs []string, timeout time.Duration) error {
	logger := log.WithComponent("healthwait")
	deadline := p.clock.Now().Add(timeout)

	for {
		healthy := p.allHealthy(ctx, kind, endpointIDs, memberIDs)
		metrics.PollIterations.WithLabelValues(gate).Inc()
		if healthy {
			logger.Info().
				Str("gate", gate).
				Strs("endpoints", endpointIDs).
				Msg("all members healthy")
			return nil
		}
		if !p.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: gate %s", ErrHealthTimeout, gate)
		}
		logger.Debug().Str("gate", gate).Msg("members not yet healthy, retrying")
		p.clock.Sleep(PollInterval)
	}
}

func (p *Poller) allHealthy(ctx context.Context, kind types.EndpointKind, endpointIDs, memberIDs []string) bool {
	healthy := true
	for _, endpoint := range endpointIDs {
		records, err := p.source.DescribeEndpointHealth(ctx, kind, endpoint, memberIDs)
		if err != nil {
			// A failed query is indistinguishable from "not converged
			// yet"; the next iteration retries it.
			metrics.HealthQueryErrors.Inc()
			healthy = false
			continue
		}
		states := make(map[string]types.RegistrationState, len(records))
		for _, rec := range records {
			states[rec.MemberID] = rec.State
		}
		for _, id := range memberIDs {
			if states[id] != types.RegisteredHealthy {
				healthy = false
			}
		}
	}
	return healthy
}

// AwaitDeregistered polls until none of the given members hold an active
// registration on any of the given endpoints, or the timeout elapses. An
// explicit not-registered record is equivalent to absence.
func (p *Poller) AwaitDeregistered(ctx context.Context, gate string, kind types.EndpointKind, endpointIDs, memberIDs []string, timeout time.Duration) error {
	logger := log.WithComponent("healthwait")
	deadline := p.clock.Now().Add(timeout)

	for {
		deregistered := p.allDeregistered(ctx, kind, endpointIDs, memberIDs)
		metrics.PollIterations.WithLabelValues(gate).Inc()
		if deregistered {
			logger.Info().
				Str("gate", gate).
				Strs("endpoints", endpointIDs).
				Msg("all members deregistered")
			return nil
		}
		if !p.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: gate %s", ErrDeregisterTimeout, gate)
		}
		logger.Debug().Str("gate", gate).Msg("members still registered, retrying")
		p.clock.Sleep(PollInterval)
	}
}

func (p *Poller) allDeregistered(ctx context.Context, kind types.EndpointKind, endpointIDs, memberIDs []string) bool {
	deregistered := true
	for _, endpoint := range endpointIDs {
		records, err := p.source.DescribeEndpointHealth(ctx, kind, endpoint, nil)
		if err != nil {
			metrics.HealthQueryErrors.Inc()
			deregistered = false
			continue
		}
		for _, rec := range records {
			if rec.State == types.NotRegistered {
				continue
			}
			for _, id := range memberIDs {
				if rec.MemberID == id {
					deregistered = false
				}
			}
		}
	}
	return deregistered
}
