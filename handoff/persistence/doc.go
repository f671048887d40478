// Package persistence provides durable mirrors for the handoff
// coordinator's in-memory state. The core treats its state as disposable;
// these stores exist so a restarted process can rebuild history and the
// outcome ledger via Service.Restore. Writes are best-effort by contract:
// the coordinator logs and swallows mirror failures.
//
// Two implementations are provided: RedisStore for distributed
// deployments and GormStore (SQLite or any GORM dialect) for single-node
// setups.
package persistence
