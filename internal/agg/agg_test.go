package agg

import (
	"reflect"
	"testing"
	"time"

	"traybrief/internal/models"
)

func at(t time.Time) *time.Time { return &t }

var base = time.Date(2026, 2, 24, 9, 0, 0, 0, time.UTC)

func task(id string, due *time.Time, overdue, today, tomorrow bool) models.Item {
	return models.Item{
		ID: id, Content: id,
		Source: models.SourceTaskTracker, Actionable: true,
		Due: due, IsOverdue: overdue, IsToday: today, IsTomorrow: tomorrow,
	}
}

func issue(id string, due *time.Time) models.Item {
	return models.Item{
		ID: id, Content: id,
		Source: models.SourceIssueTracker,
		Due:    due,
	}
}

func ids(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestGroupBuckets(t *testing.T) {
	list := Group([]models.Item{
		task("today", at(base.Add(6*time.Hour)), false, true, false),
		task("overdue", at(base.Add(-time.Hour)), true, false, false),
		task("tomorrow", at(base.Add(30*time.Hour)), false, false, true),
		task("next-week", at(base.Add(7*24*time.Hour)), false, false, false),
		issue("eng-1", nil),
	})

	if got := ids(list.Overdue); !reflect.DeepEqual(got, []string{"overdue"}) {
		t.Errorf("overdue bucket: %v", got)
	}
	if got := ids(list.Today); !reflect.DeepEqual(got, []string{"today"}) {
		t.Errorf("today bucket: %v", got)
	}
	if got := ids(list.Tomorrow); !reflect.DeepEqual(got, []string{"tomorrow"}) {
		t.Errorf("tomorrow bucket: %v", got)
	}
	if got := ids(list.InProgress); !reflect.DeepEqual(got, []string{"eng-1"}) {
		t.Errorf("in-progress bucket: %v", got)
	}
}

func TestIssueWithDueDateStaysInProgress(t *testing.T) {
	// Even an overdue-looking issue lands in in-progress: only the task
	// tracker feeds the date buckets.
	it := issue("eng-2", at(base.Add(-time.Hour)))
	it.IsOverdue = true
	list := Group([]models.Item{it})
	if len(list.Overdue) != 0 || len(list.InProgress) != 1 {
		t.Errorf("expected issue in in-progress only, got overdue=%d in-progress=%d",
			len(list.Overdue), len(list.InProgress))
	}
}

func TestSortItemsOverdueFirstThenDueAscending(t *testing.T) {
	items := []models.Item{
		task("b", at(base.Add(2*time.Hour)), false, true, false),
		task("d", nil, false, false, false),
		task("a", at(base.Add(time.Hour)), false, true, false),
		task("y", at(base.Add(-time.Hour)), true, false, false),
		task("x", at(base.Add(-2*time.Hour)), true, false, false),
	}
	SortItems(items)
	want := []string{"x", "y", "a", "b", "d"}
	if got := ids(items); !reflect.DeepEqual(got, want) {
		t.Errorf("sort order %v, want %v", got, want)
	}
}

func TestSortItemsStableForEqualKeys(t *testing.T) {
	due := at(base)
	items := []models.Item{
		task("first", due, false, true, false),
		task("second", due, false, true, false),
	}
	SortItems(items)
	if got := ids(items); !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Errorf("equal-key order not preserved: %v", got)
	}
}

func sections(names ...string) []models.NotificationSection {
	out := make([]models.NotificationSection, len(names))
	for i, n := range names {
		out[i] = models.NotificationSection{
			AccountName:   n,
			Notifications: []models.Notification{{ThreadID: n + "-1"}},
		}
	}
	return out
}

func sectionNames(secs []models.NotificationSection) []string {
	out := make([]string, len(secs))
	for i, s := range secs {
		out[i] = s.AccountName
	}
	return out
}

func TestMergeNotificationSectionKeepsPosition(t *testing.T) {
	existing := sections("work", "personal", "oss")
	updated := models.NotificationSection{
		AccountName:   "personal",
		Notifications: []models.Notification{{ThreadID: "new"}},
	}

	merged := MergeNotificationSection(existing, updated)
	if got := sectionNames(merged); !reflect.DeepEqual(got, []string{"work", "personal", "oss"}) {
		t.Errorf("unexpected order %v", got)
	}
	if merged[1].Notifications[0].ThreadID != "new" {
		t.Error("updated section content not applied")
	}
}

func TestMergeNotificationSectionDropsEmpty(t *testing.T) {
	existing := sections("work", "personal")
	merged := MergeNotificationSection(existing, models.NotificationSection{AccountName: "work"})
	if got := sectionNames(merged); !reflect.DeepEqual(got, []string{"personal"}) {
		t.Errorf("unexpected sections %v", got)
	}
}

func TestMergeNotificationSectionAppendsNewAccount(t *testing.T) {
	merged := MergeNotificationSection(sections("work"), sections("oss")[0])
	if got := sectionNames(merged); !reflect.DeepEqual(got, []string{"work", "oss"}) {
		t.Errorf("unexpected sections %v", got)
	}
}

func TestMergeNotificationSectionIdempotent(t *testing.T) {
	existing := sections("work", "personal", "oss")
	updated := sections("personal")[0]

	once := MergeNotificationSection(existing, updated)
	twice := MergeNotificationSection(once, updated)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent: %v vs %v", once, twice)
	}
}

func TestMergeEventSection(t *testing.T) {
	existing := []models.EventSection{
		{AccountName: "Work", Events: []models.CalendarEvent{{ID: "1"}}},
		{AccountName: "Home", Events: []models.CalendarEvent{{ID: "2"}}},
	}
	updated := models.EventSection{AccountName: "Work", Events: []models.CalendarEvent{{ID: "3"}}}

	merged := MergeEventSection(existing, updated)
	if len(merged) != 2 || merged[0].AccountName != "Work" || merged[0].Events[0].ID != "3" {
		t.Errorf("unexpected merge result %+v", merged)
	}
}
