package engine

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ScanLocal Phase = iota
	ScanRemote
	PullLocal
	PushRemote
	MergeEntities
	Repush
)

func (p Phase) String() string {
	switch p {
	case ScanLocal:
		return "scan_local"
	case ScanRemote:
		return "scan_remote"
	case PullLocal:
		return "pull_local"
	case PushRemote:
		return "push_remote"
	case MergeEntities:
		return "merge"
	case Repush:
		return "repush"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func scanLocalUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLocal,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Scanned %d local lists...", count),
	}
}

func scanRemoteUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanRemote,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Scanned %d remote lists...", count),
	}
}

func pullLocalUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PullLocal,
		Step:    step,
		Total:   total,
		Message: "Copying remote entities into the local store...",
	}
}

func pushRemoteUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PushRemote,
		Step:    step,
		Total:   total,
		Message: "Pushing local entities to the remote store...",
	}
}

func mergeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeEntities,
		Step:    step,
		Total:   total,
		Message: "Reconciling entities present in both stores...",
	}
}

func repushUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Repush,
		Step:    step,
		Total:   total,
		Message: "Re-pushing pending writes...",
	}
}
