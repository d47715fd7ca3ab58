package domain

import "github.com/cockroachdb/errors"

// Error kinds surfaced by a sync cycle. Results mark their Err with one of
// these so callers can branch with errors.Is.
var (
	// ErrServiceUnavailable: the stats service failed its liveness probe.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrItemFetch: fetching one item's links failed; the item is skipped.
	ErrItemFetch = errors.New("item fetch failed")
	// ErrPersistence: the item store or the cursor store rejected a write or read.
	ErrPersistence = errors.New("persistence failure")
	// ErrItemNotFound is returned by stores for unknown IDs.
	ErrItemNotFound = errors.New("item not found")
	// ErrCycleRunning is returned when a cycle is triggered while another one runs.
	ErrCycleRunning = errors.New("sync cycle already running")
)
