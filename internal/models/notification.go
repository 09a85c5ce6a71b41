package models

import "time"

// Notification is an unread code-review notification thread.
type Notification struct {
	ThreadID    string
	Title       string
	Repository  string // owner/name
	Reason      string // humanized, e.g. "Review_requested" -> "Review requested"
	WebURL      string
	UpdatedAt   *time.Time // UTC
	DisplayTime string     // relative, e.g. "2h ago"
}

// NotificationSection groups one account's notifications under its name.
type NotificationSection struct {
	AccountName   string
	Notifications []Notification
}
