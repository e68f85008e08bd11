// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Executor: Opaque statement execution (query/insert/update/delete)
//   - Store: An Executor that can also run an atomic unit
//   - SequenceAllocator: Per-owner monotonically increasing numbers
//   - StoreLifecycle: Schema status and destructive reset
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
