// Package models defines domain entities for the listsync adaptive persistence core.
//
// The package contains three categories of types:
//
// 1. Persistent Entities: rows stored in both backends with full lifecycle management
//   - [List] : A named, owner-scoped collection of items with soft delete
//   - [ListItem] : A unit of work within a list with priority and completion state
//
// 2. Persistence Control: enumerations driving the orchestrator
//   - [PersistenceMode] : LocalFirst or CloudFirst routing
//   - [MigrationStrategy] : reconciliation policy applied during mode transitions
//
// 3. Import Variants: a closed set of dump shapes accepted by the import path
//   - [LegacyDump] : flat rows produced by the old on-device export
//   - [APIDump] : the remote backend's native wire shape
//   - [GenericDump] : loosely-typed records from third-party tools
//
// All persistent entities implement the Model interface providing identity,
// last-modified ordering for merge decisions, and validation.
package models
