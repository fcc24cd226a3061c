package progress

import "strings"

// Policy defaults.
const (
	DefaultThreshold      = 0.90
	DefaultCompleteStatus = "complete"
)

// Policy decides when a book counts as read.
type Policy struct {
	// Threshold is the minimum fraction read (0.0-1.0).
	Threshold float64
	// CompleteStatus is the status token marking a book as finished.
	CompleteStatus string
	// FoldCase compares the status case-insensitively.
	FoldCase bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, CompleteStatus: DefaultCompleteStatus}
}

// IsFinished reports whether d describes a finished book.
// Without sidecar data a book is never finished, whatever the other fields say.
func (p Policy) IsFinished(d Data) bool {
	if !d.HasData {
		return false
	}
	if d.PercentFinished != nil && *d.PercentFinished >= p.Threshold {
		return true
	}
	if d.Status == nil {
		return false
	}
	if p.FoldCase {
		return strings.EqualFold(*d.Status, p.CompleteStatus)
	}
	return *d.Status == p.CompleteStatus
}

// IsFinished applies the default policy.
func IsFinished(d Data) bool {
	return DefaultPolicy().IsFinished(d)
}
