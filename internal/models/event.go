package models

import "time"

// CalendarEvent is a calendar entry that overlaps the local day.
// This is an internal representation, independent of any specific calendar provider.
type CalendarEvent struct {
	ID          string
	Title       string
	StartAt     *time.Time // UTC
	EndAt       *time.Time // UTC
	DisplayTime string     // "All day" or "HH:MM-HH:MM" in local time
	OpenURL     string     // joinable meeting link when present, else event URL
}

// EventSection groups one feed's events under its display name.
type EventSection struct {
	AccountName string
	Events      []CalendarEvent
}
