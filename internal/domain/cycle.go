package domain

import "time"

// ItemFailure records why one eligible item was skipped during a cycle.
type ItemFailure struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
	Err    error  `json:"-"`
}

// CycleResult is the outcome of one sync cycle. It is always returned as data;
// Err carries the kind (ErrServiceUnavailable, ErrPersistence, ...) when
// Success is false.
type CycleResult struct {
	CycleID  string        `json:"cycle_id,omitempty"`
	Success  bool          `json:"success"`
	Skipped  bool          `json:"skipped,omitempty"`
	Updated  int           `json:"updated"`
	Eligible int           `json:"eligible"`
	Error    string        `json:"error,omitempty"`
	Err      error         `json:"-"`
	Failures []ItemFailure `json:"failures,omitempty"`
	// Warnings lists links the service reported as failed inside an otherwise
	// successful batch; their item was still updated with the batch totals.
	Warnings   []ItemFailure `json:"warnings,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
