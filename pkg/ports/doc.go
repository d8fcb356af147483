/*
Package ports defines the driven ports (interfaces) for the VaultGuard engine.

These interfaces decouple the simulation logic from its sources of
nondeterminism and from storage, so tests can force every branch and run
without real delays.

# Key Interfaces

  - RandomSource: Uniform [0,1) draws used for weighted branch selection.
  - Waiter: The single suspension primitive standing in for network latency.
  - SessionStore: Responsible for keeping session snapshots (memory or Redis).
  - DistributedLocker: Provides distributed locking for serializing actions across replicas.
*/
package ports
