package models

import "time"

// SourceKind identifies the remote system an Item came from.
type SourceKind int

const (
	// SourceTaskTracker items can be completed and snoozed from here.
	SourceTaskTracker SourceKind = iota
	// SourceIssueTracker items are read-only; their lifecycle lives upstream.
	SourceIssueTracker
)

// String returns the config/log name of the source.
func (k SourceKind) String() string {
	switch k {
	case SourceTaskTracker:
		return "todoist"
	case SourceIssueTracker:
		return "linear"
	default:
		return "unknown"
	}
}

// Item is a task or issue normalized from any source.
//
// The IsOverdue/IsToday/IsTomorrow flags are computed once against the clock
// at fetch time and never recomputed; a snapshot may go stale between
// refreshes, bounded by the refresh interval.
type Item struct {
	ID          string
	Content     string
	Source      SourceKind
	Actionable  bool
	Due         *time.Time // UTC
	IsOverdue   bool
	IsToday     bool
	IsTomorrow  bool
	DisplayTime string
}
