package models

import (
	"fmt"

	"github.com/castock/listsync/internal/shared"
)

// PersistenceMode determines which backend is authoritative for reads and
// which backends receive writes.
type PersistenceMode int

const (
	// LocalFirst routes every read and write to the local store only.
	LocalFirst PersistenceMode = iota
	// CloudFirst writes local-then-remote and prefers remote for reads,
	// falling back to local when the remote store is unreachable.
	CloudFirst
)

func (m PersistenceMode) String() string {
	switch m {
	case LocalFirst:
		return "local-first"
	case CloudFirst:
		return "cloud-first"
	default:
		return "unknown"
	}
}

// MigrationStrategy selects the reconciliation algorithm applied when the
// persistence mode changes.
type MigrationStrategy int

const (
	// IntelligentMerge copies one-sided entities to the other store and
	// resolves two-sided conflicts by later update timestamp, ties to remote.
	IntelligentMerge MigrationStrategy = iota
	// ReplaceLocalWithCloud clears the local store and repopulates it from remote.
	ReplaceLocalWithCloud
	// ReplaceCloudWithLocal upserts every local entity to the remote store.
	ReplaceCloudWithLocal
)

func (s MigrationStrategy) String() string {
	switch s {
	case IntelligentMerge:
		return "merge"
	case ReplaceLocalWithCloud:
		return "replace-local"
	case ReplaceCloudWithLocal:
		return "replace-cloud"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a CLI flag value to a MigrationStrategy.
// An empty value selects IntelligentMerge.
func ParseStrategy(value string) (MigrationStrategy, error) {
	switch value {
	case "", "merge", "intelligent":
		return IntelligentMerge, nil
	case "replace-local":
		return ReplaceLocalWithCloud, nil
	case "replace-cloud":
		return ReplaceCloudWithLocal, nil
	default:
		return IntelligentMerge, fmt.Errorf("%w: unknown migration strategy %q", shared.ErrInvalidFlag, value)
	}
}
