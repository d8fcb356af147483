package domain

import "errors"

// ErrInvalidRequest is returned by boundary wrappers when required fields are missing or mistyped.
// It is distinct from an ActionResult carrying SeverityError.
var ErrInvalidRequest = errors.New("invalid request")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrActionInFlight is returned when a session already has an action being resolved.
var ErrActionInFlight = errors.New("action already in flight")

// ErrInvalidResult is returned when an ActionResult breaks its invariants.
var ErrInvalidResult = errors.New("invalid action result")

// ErrNoPendingAction is returned when cancelling an auto-action that is not pending.
var ErrNoPendingAction = errors.New("no pending auto-action")
