package domain

import "fmt"

// BulkEntry is one source/destination pair of a bulk move or copy
type BulkEntry struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Target      string `json:"target,omitempty"`
}

// BulkFailure records why an entry was skipped
type BulkFailure struct {
	BulkEntry
	Reason string `json:"reason"`
}

// BulkResult reports the per-entry outcome of a bulk operation
type BulkResult struct {
	Operation string        `json:"operation"`
	Succeeded []BulkEntry   `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// NewBulkResult creates an empty result for the named operation ("move", "copy")
func NewBulkResult(operation string) *BulkResult {
	return &BulkResult{
		Operation: operation,
		Succeeded: make([]BulkEntry, 0),
		Failed:    make([]BulkFailure, 0),
	}
}

// Succeed records a staged entry
func (r *BulkResult) Succeed(entry BulkEntry) {
	r.Succeeded = append(r.Succeeded, entry)
}

// Fail records a skipped entry
func (r *BulkResult) Fail(entry BulkEntry, reason string) {
	r.Failed = append(r.Failed, BulkFailure{BulkEntry: entry, Reason: reason})
}

// SucceededCount returns the number of staged entries
func (r *BulkResult) SucceededCount() int { return len(r.Succeeded) }

// FailedCount returns the number of skipped entries
func (r *BulkResult) FailedCount() int { return len(r.Failed) }

// Summary renders the counts the way older clients expect them
func (r *BulkResult) Summary() string {
	s := fmt.Sprintf("Successfully %s %d nodes", pastTense(r.Operation), r.SucceededCount())
	if r.FailedCount() > 0 {
		s += fmt.Sprintf(", failed to %s %d nodes", r.Operation, r.FailedCount())
	}
	return s
}

// Err returns a PartialFailure error when at least one entry failed
func (r *BulkResult) Err() error {
	if r.FailedCount() == 0 {
		return nil
	}
	return &Error{
		Kind:    ErrPartialFailure,
		Op:      "bulk " + r.Operation,
		Message: r.Summary(),
	}
}

func pastTense(op string) string {
	switch op {
	case "move":
		return "moved"
	case "copy":
		return "copied"
	}
	return op + "ed"
}
