package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	FilterReplays
	WriteExport
	PrefetchMetadata
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case FilterReplays:
		return "filter_replays"
	case WriteExport:
		return "write_export"
	case PrefetchMetadata:
		return "prefetch_metadata"
	default:
		return ""
	}
}

func fetchPageUpdate(step, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    step,
		Message: fmt.Sprintf("Fetching page %d (%d replays on server)...", step, count),
	}
}

func filterUpdate(kept, seen int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FilterReplays,
		Step:    kept,
		Total:   seen,
		Message: fmt.Sprintf("%d of %d replays match the filters", kept, seen),
	}
}

func writeExportUpdate(path string, n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %d replays to %s", n, path),
		Data:    path,
	}
}

func prefetchStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PrefetchMetadata,
		Total:   total,
		Message: fmt.Sprintf("Prefetching metadata for %d builds...", total),
	}
}

func prefetchResultUpdate(step, total int, res PrefetchResult) ProgressUpdate {
	var msg string
	switch {
	case res.Error != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Build, res.Error)
	case res.Cached:
		msg = fmt.Sprintf("[%d/%d] %s already cached", step, total, res.Build)
	default:
		msg = fmt.Sprintf("[%d/%d] ✓ %s (%d bytes)", step, total, res.Build, res.Bytes)
	}
	return ProgressUpdate{Phase: PrefetchMetadata, Step: step, Total: total, Message: msg, Data: res}
}
