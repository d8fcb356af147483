/*
Package observability turns session lifecycle events into Prometheus metrics
and structured log lines.

Both are delivered as domain.LifecycleHooks, so they compose with any other
hooks through LifecycleHooks.Merge.
*/
package observability
