/*
Package domain contains the core models of the VaultGuard simulation engine.

It defines the result contracts produced by the engine and the session state
that hosts mutate when applying them. This package is kept pure and free of
I/O, randomness and timers, following Hexagonal Architecture principles.

# Key Entities

  - ActionResult: The outcome of resolving a named action (message, severity, metric deltas, follow-up).
  - ChatTurn: The canned reply to a free-text message plus an optional action to trigger.
  - Alert: An unsolicited warning emitted by the proactive monitor.
  - Metrics: Session-scoped vault metrics, mutated only by applying MetricDeltas.
  - Session: The full snapshot of one dashboard session (status, step, metrics, audit trail).
*/
package domain
