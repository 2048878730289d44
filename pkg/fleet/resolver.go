// Package fleet provides fleet lookup and attachment mutation on top of the
// abstract control plane. A Resolver turns a name into a Fleet snapshot; a
// Mutator performs attach/detach deltas and re-engages endpoint-managed
// health checks afterward.
package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/cutover/pkg/cloud"
	"github.com/cuemby/cutover/pkg/types"
)

var (
	// ErrFleetNotFound indicates the named fleet does not exist
	ErrFleetNotFound = errors.New("fleet not found")

	// ErrFleetAmbiguous indicates more than one fleet matched an exact
	// name lookup, which means the deployment target is misconfigured
	ErrFleetAmbiguous = errors.New("fleet name is ambiguous")
)

// Resolver looks up fleets by exact name
type Resolver struct {
	api cloud.API
}

// NewResolver creates a resolver backed by the given control plane
func NewResolver(api cloud.API) *Resolver {
	return &Resolver{api: api}
}

// Resolve returns the fleet with the given name. Lookup failures are hard
// stops: no retries, no disambiguation.
func (r *Resolver) Resolve(ctx context.Context, name string) (types.Fleet, error) {
	fleets, err := r.api.DescribeFleets(ctx, name)
	if err != nil {
		return types.Fleet{}, fmt.Errorf("failed to resolve fleet %q: %w", name, err)
	}
	if len(fleets) == 0 {
		return types.Fleet{}, fmt.Errorf("%w: %q", ErrFleetNotFound, name)
	}
	if len(fleets) > 1 {
		return types.Fleet{}, fmt.Errorf("%w: %q matched %d fleets", ErrFleetAmbiguous, name, len(fleets))
	}
	return fleets[0], nil
}
