package todoist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token", time.UTC)
	c.baseURL = srv.URL
	c.now = func() time.Time { return time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestGetTasksFollowsCursor(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "today | overdue | tomorrow" {
			t.Errorf("unexpected filter query %q", got)
		}
		switch r.URL.Query().Get("cursor") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"results":     []map[string]any{{"id": "1", "content": "first"}},
				"next_cursor": "abc",
			})
		case "abc":
			json.NewEncoder(w).Encode(map[string]any{
				"results":     []map[string]any{{"id": "2", "content": "second"}},
				"next_cursor": nil,
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))

	items, err := c.GetTasks(context.Background())
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "1" || items[1].ID != "2" {
		t.Errorf("unexpected item order: %q, %q", items[0].ID, items[1].ID)
	}
	if !items[0].Actionable {
		t.Error("todoist items must be actionable")
	}
}

func TestGetTasksSurfacesStatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	if _, err := c.GetTasks(context.Background()); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestConvertDateOnlyDue(t *testing.T) {
	c := NewClient("tok", time.UTC)
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)

	item := c.convert(rawTask{ID: "1", Content: "x", Due: &rawDue{Date: "2026-02-24"}}, now)
	want := time.Date(2026, 2, 24, 23, 59, 59, 0, time.UTC)
	if item.Due == nil || !item.Due.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, item.Due)
	}
	if !item.IsOverdue {
		t.Error("a date-only due before now must be overdue")
	}
	if item.IsToday || item.IsTomorrow {
		t.Error("overdue item must not also be today/tomorrow")
	}
}

func TestConvertNoDue(t *testing.T) {
	c := NewClient("tok", time.UTC)
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)

	item := c.convert(rawTask{ID: "1", Content: "x"}, now)
	if item.Due != nil {
		t.Fatalf("expected nil due, got %v", item.Due)
	}
	if item.IsOverdue || item.IsToday || item.IsTomorrow {
		t.Error("item without due instant must have all flags false")
	}
	if item.DisplayTime != "no due date" {
		t.Errorf("unexpected display time %q", item.DisplayTime)
	}
}

func TestUpdateDueDateBody(t *testing.T) {
	var gotBody map[string]string
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))

	due := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	if err := c.UpdateDueDate(context.Background(), "42", due); err != nil {
		t.Fatalf("UpdateDueDate failed: %v", err)
	}
	if gotPath != "/tasks/42" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotBody["due_datetime"] != "2026-02-25T09:00:00Z" {
		t.Errorf("unexpected due_datetime %q", gotBody["due_datetime"])
	}
}

func TestCompleteTaskPath(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	if err := c.CompleteTask(context.Background(), "42"); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/tasks/42/close" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
}
