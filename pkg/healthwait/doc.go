/*
Package healthwait implements the deadline-bounded polling that bridges the
gap between an attachment change taking effect and the routing layer's own
health checks converging.

Two complementary waits are provided:

  - AwaitHealthy blocks until every given member is reported healthy on
    every given endpoint.
  - AwaitDeregistered blocks until none of the given members hold an active
    registration on any of the given endpoints.

Both poll on a fixed 5 second cadence until the timeout elapses. A failed or
absent health record inside one iteration is the expected transient state
right after an attachment change, so it never surfaces as an error; the loop
simply tries again. The Clock interface lets tests drive the loop with fake
time.
*/
package healthwait
