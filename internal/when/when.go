// Package when normalizes heterogeneous source date strings to UTC instants
// and classifies them against the local calendar day.
package when

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutNaive    = "2006-01-02T15:04:05"
	layoutUTC      = "2006-01-02T15:04:05Z"
	layoutClock    = "15:04"
	layoutDueWrite = "2006-01-02T15:04:05Z"
)

// ParseDue converts a due-date string from a deadline source into a UTC
// instant. Three shapes are accepted:
//
//	"2006-01-02"          local calendar date, mapped to 23:59:59 local time
//	"2006-01-02T15:04:05" naive local wall-clock time
//	"2006-01-02T15:04:05Z" UTC
func ParseDue(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasSuffix(raw, "Z"):
		t, err := time.Parse(layoutUTC, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse due datetime %q: %w", raw, err)
		}
		return t, nil
	case strings.Contains(raw, "T"):
		t, err := time.ParseInLocation(layoutNaive, raw, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse due datetime %q: %w", raw, err)
		}
		return t.UTC(), nil
	default:
		d, err := time.ParseInLocation(layoutDate, raw, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse due date %q: %w", raw, err)
		}
		eod := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
		return eod.UTC(), nil
	}
}

// FormatDue renders a UTC instant the way the task tracker's update endpoint
// expects it.
func FormatDue(t time.Time) string {
	return t.UTC().Format(layoutDueWrite)
}

// Flags classifies a due instant against now. The three results are derived
// once at normalization time and stored on the item, never recomputed.
func Flags(due time.Time, now time.Time, loc *time.Location) (overdue, today, tomorrow bool) {
	overdue = due.Before(now)
	dueDay := due.In(loc)
	nowDay := now.In(loc)
	today = sameDate(dueDay, nowDay)
	tomorrow = sameDate(dueDay, nowDay.AddDate(0, 0, 1))
	return overdue, today, tomorrow
}

// DayWindow returns the half-open local-day interval [midnight today,
// midnight tomorrow) containing now.
func DayWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// FormatClock renders an instant as a local 24-hour clock time.
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(layoutClock)
}

// FormatRange renders a timed event interval, e.g. "09:00-09:30".
func FormatRange(start, end time.Time, loc *time.Location) string {
	if !end.After(start) {
		return FormatClock(start, loc)
	}
	return FormatClock(start, loc) + "-" + FormatClock(end, loc)
}

// FormatDueDisplay renders an item's due instant for the menu: how far
// overdue, or the local clock time, or a placeholder without a due date.
func FormatDueDisplay(due *time.Time, overdue bool, now time.Time, loc *time.Location) string {
	if due == nil {
		return "no due date"
	}
	if overdue {
		diff := now.Sub(*due)
		switch {
		case diff >= 24*time.Hour:
			return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
		case diff >= time.Hour:
			return fmt.Sprintf("%dh ago", int(diff.Hours()))
		default:
			return "overdue"
		}
	}
	return FormatClock(*due, loc)
}

// FormatRelative renders how long ago an instant was: "2d ago", "2h ago",
// "5m ago", or the local clock time for anything under a minute.
func FormatRelative(t *time.Time, now time.Time, loc *time.Location) string {
	if t == nil {
		return "recent"
	}
	diff := now.Sub(*t)
	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff >= time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff >= time.Minute:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	default:
		return FormatClock(*t, loc)
	}
}

// ParseSnooze resolves a duration label like "30m", "2h" or "1d".
func ParseSnooze(label string) (time.Duration, error) {
	v := strings.ToLower(strings.TrimSpace(label))
	if len(v) < 2 {
		return 0, fmt.Errorf("invalid snooze duration %q", label)
	}
	amount, err := strconv.Atoi(v[:len(v)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid snooze duration %q", label)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("snooze duration must be positive: %q", label)
	}
	switch v[len(v)-1] {
	case 'm':
		return time.Duration(amount) * time.Minute, nil
	case 'h':
		return time.Duration(amount) * time.Hour, nil
	case 'd':
		return time.Duration(amount) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported snooze duration unit in %q, use m, h, or d", label)
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
