// Package engine implements the adaptive persistence core: mode-aware
// routing of list CRUD between the local and remote stores, dataset
// reconciliation on authentication changes, and the coordinators tracking
// operation state and classified errors.
//
// # Core Components
//
//  1. [ModeController] : holds the current persistence mode and user identity
//     - Initial mode computed from the authentication signal at construction
//     - Transitions are mutually exclusive with each other and with CRUD
//     - Sign-in runs a migration before the mode flips to cloud-first
//     - Sign-out snapshots the remote dataset locally before flipping back
//
//  2. [Migrator] : reconciles the two datasets during a transition
//     - ReplaceLocalWithCloud, ReplaceCloudWithLocal, IntelligentMerge
//     - Individual entity failures are collected, not fatal; the run fails
//       only when remote is unreachable or a majority of writes fail
//     - IntelligentMerge is idempotent: a second run with no intervening
//       changes performs zero writes
//
//  3. [Orchestrator] : the caller-facing façade
//     - Writes land on the local store first and synchronously; the remote
//       write is best-effort and a miss marks the row pending-sync
//     - Reads prefer remote in cloud-first mode with transparent local
//       fallback; a caller never sees a read fail while local data exists
//     - Owns the in-memory snapshot; callers receive copies
//
// # Progress Reporting
//
// Long-running operations (migrations, refresh) emit [ProgressUpdate] values
// over an optional channel using select with default, so reporting never
// blocks execution.
//
// # Operation Tracking
//
// The [OpTracker] records a bounded history of operations with their final
// state (succeeded, fallen back, failed) and classified errors, consumed by
// the status surface.
package engine
