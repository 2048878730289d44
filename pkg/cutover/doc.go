/*
Package cutover implements the blue/green cutover state machine that moves
traffic-serving endpoints between two fleets, and the single-fleet endpoint
reassignment built from the same pieces.

# Cutover protocol

A run moves through strictly ordered phases; the only backward transition
is rollback:

	validate
	   │  resolve both fleets, check preconditions,
	   │  capture baseline member snapshots
	   ▼
	prepare-new-fleet
	   │  detach candidate's source endpoints,
	   │  attach live fleet's destination endpoints
	   ▼
	new-fleet-health ──timeout──▶ rollback (policy) ──▶ FAIL
	   │  every baseline in-scope candidate member healthy
	   │  on every destination endpoint
	   ▼
	cutover-old-fleet
	   │  detach destination from live fleet,
	   │  attach standby endpoints
	   ▼
	deregistration ──timeout──▶ symmetric rollback (policy) ──▶ FAIL
	   │  no original live member still registered on a
	   │  destination endpoint
	   ▼
	standby-health (optional, advisory, never rolls back)
	   ▼
	done: assemble Result

Each phase's deadline restarts at phase entry; all waits poll on the fixed
cadence in pkg/healthwait.

The baseline snapshots taken during validation, not any later re-query,
decide which members gate each health check: a member that was pending or
unhealthy before the first mutation can never block the cutover.

Collaborators (resolver, mutator, poller, endpoint resolver) are injected,
never ambient, so tests drive the whole protocol against fakes.
*/
package cutover
