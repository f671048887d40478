/*
Package handoff implements the cross-bot handoff coordinator for the Jorge
real-estate bot platform: the decision engine that transfers a conversation
between the lead, buyer, and seller personas.

The coordinator combines a small state machine over the three personas,
rate-limited admission control, per-contact mutual exclusion, and an online
feedback loop that adapts route thresholds from observed outcomes.

# Core types

  - Service: the coordinator. Owns all mutable state (history, outcomes,
    locks, analytics) behind synchronized accessors and exposes the two
    entry points EvaluateHandoff and ExecuteHandoff.
  - Decision: an immutable proposed transfer with typed evidence context.
  - ExecutionResult: either an action list to apply, or a "not executed"
    result carrying the specific guard that rejected it.
  - IntentExtractor: pure pattern scanner producing bounded per-direction
    confidence scores.
  - Learner: per-route outcome ledger and threshold adjustment.
  - LockManager: advisory per-contact mutex map with a stale-lock TTL.
  - Analytics: process-wide counters with read-time derived summaries.

# Safety invariants

A contact never executes two handoffs concurrently, never repeats the same
route within the circular window, and never exceeds the hourly or daily
rate limits. Rejections are normal results, never errors, and never mutate
history or the success/failure counters.

State lives in memory and is disposable; an optional Store mirror allows
rebuilding it at startup via Service.Restore.
*/
package handoff
