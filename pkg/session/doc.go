/*
Package session implements session orchestration for the VaultGuard engine.

A Manager owns every mutation of a domain.Session: it serializes actions per
session (a local reference-counted mutex plus an optional distributed lock),
applies resolved results, raises proactive alerts and runs the cancellable
auto-action countdowns. Changes are published to subscribers as session diffs.
*/
package session
