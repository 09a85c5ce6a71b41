// Package agg merges normalized source items into the unified bucketed view.
package agg

import (
	"sort"

	"traybrief/internal/models"
)

// Group sorts items and assigns them to the four buckets. Task-tracker items
// land in overdue/today/tomorrow by their precomputed flags; issue-tracker
// items always land in in-progress regardless of due date. Items matching no
// bucket are dropped.
func Group(items []models.Item) models.TaskList {
	sorted := append([]models.Item(nil), items...)
	SortItems(sorted)

	var list models.TaskList
	for _, item := range sorted {
		switch {
		case item.Source == models.SourceIssueTracker:
			list.InProgress = append(list.InProgress, item)
		case item.IsOverdue:
			list.Overdue = append(list.Overdue, item)
		case item.IsToday:
			list.Today = append(list.Today, item)
		case item.IsTomorrow:
			list.Tomorrow = append(list.Tomorrow, item)
		}
	}
	return list
}

// SortItems orders items overdue-first, then by due instant ascending; items
// with a due instant sort before items without one. The sort is stable.
func SortItems(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsOverdue != b.IsOverdue {
			return a.IsOverdue
		}
		switch {
		case a.Due != nil && b.Due != nil:
			return a.Due.Before(*b.Due)
		case a.Due != nil:
			return true
		default:
			return false
		}
	})
}

// MergeNotificationSection replaces one account's section in place: the
// existing section is removed and the updated one reinserted at its prior
// position when non-empty, else omitted. Unaffected accounts keep their
// display order.
func MergeNotificationSection(existing []models.NotificationSection, updated models.NotificationSection) []models.NotificationSection {
	index := -1
	out := make([]models.NotificationSection, 0, len(existing)+1)
	for i, sec := range existing {
		if sec.AccountName == updated.AccountName {
			if index == -1 {
				index = i
			}
			continue
		}
		out = append(out, sec)
	}
	if len(updated.Notifications) == 0 {
		return out
	}
	if index == -1 || index > len(out) {
		index = len(out)
	}
	out = append(out[:index], append([]models.NotificationSection{updated}, out[index:]...)...)
	return out
}

// MergeEventSection is MergeNotificationSection for calendar sections.
func MergeEventSection(existing []models.EventSection, updated models.EventSection) []models.EventSection {
	index := -1
	out := make([]models.EventSection, 0, len(existing)+1)
	for i, sec := range existing {
		if sec.AccountName == updated.AccountName {
			if index == -1 {
				index = i
			}
			continue
		}
		out = append(out, sec)
	}
	if len(updated.Events) == 0 {
		return out
	}
	if index == -1 || index > len(out) {
		index = len(out)
	}
	out = append(out[:index], append([]models.EventSection{updated}, out[index:]...)...)
	return out
}
