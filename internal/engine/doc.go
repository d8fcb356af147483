// Package engine implements the VaultGuard simulation core: the action
// resolver, the intent classifier, the proactive alert monitor and the
// auto-action countdown.
//
// Every component draws randomness from a ports.RandomSource and suspends
// through a ports.Waiter, so tests force branches and skip delays. None of
// them owns session state; callers apply the returned values.
package engine
