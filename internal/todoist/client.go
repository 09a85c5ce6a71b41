// Package todoist is the task-tracker source adapter.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"traybrief/internal/fetch"
	"traybrief/internal/models"
	"traybrief/internal/when"
)

const (
	defaultBaseURL = "https://api.todoist.com/api/v1"
	filterQuery    = "today | overdue | tomorrow"
	pageLimit      = "100"
)

// Client talks to the Todoist REST API for one account.
type Client struct {
	hc      *http.Client
	baseURL string
	loc     *time.Location
	now     func() time.Time
}

// NewClient builds a client with bearer auth and the standard timeout.
func NewClient(apiToken string, loc *time.Location) *Client {
	return &Client{
		hc: fetch.NewClient(map[string]string{
			"Authorization": "Bearer " + apiToken,
		}),
		baseURL: defaultBaseURL,
		loc:     loc,
		now:     time.Now,
	}
}

type rawTask struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Due     *rawDue `json:"due"`
}

type rawDue struct {
	// Either "YYYY-MM-DD", "YYYY-MM-DDTHH:MM:SS" or "...Z".
	Date string `json:"date"`
}

type filterResponse struct {
	Results    []rawTask `json:"results"`
	NextCursor *string   `json:"next_cursor"`
}

// GetTasks fetches every page of today/overdue/tomorrow tasks and converts
// them to actionable items.
func (c *Client) GetTasks(ctx context.Context) ([]models.Item, error) {
	now := c.now()
	var items []models.Item
	cursor := ""

	for {
		q := url.Values{}
		q.Set("query", filterQuery)
		q.Set("limit", pageLimit)
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/filter?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("build todoist request: %w", err)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("connect to todoist: %w", err)
		}
		if err := fetch.CheckStatus(resp, "todoist"); err != nil {
			resp.Body.Close()
			return nil, err
		}

		var page filterResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parse todoist response: %w", err)
		}

		for _, raw := range page.Results {
			items = append(items, c.convert(raw, now))
		}

		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = *page.NextCursor
	}

	return items, nil
}

// CompleteTask closes a task in Todoist.
func (c *Client) CompleteTask(ctx context.Context, taskID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks/"+taskID+"/close", nil)
	if err != nil {
		return fmt.Errorf("build todoist request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("connect to todoist: %w", err)
	}
	defer resp.Body.Close()
	return fetch.CheckStatus(resp, "todoist")
}

// UpdateDueDate moves a task's due instant.
func (c *Client) UpdateDueDate(ctx context.Context, taskID string, due time.Time) error {
	payload, err := json.Marshal(map[string]string{"due_datetime": when.FormatDue(due)})
	if err != nil {
		return fmt.Errorf("encode todoist update: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks/"+taskID, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build todoist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("connect to todoist: %w", err)
	}
	defer resp.Body.Close()
	return fetch.CheckStatus(resp, "todoist")
}

func (c *Client) convert(raw rawTask, now time.Time) models.Item {
	item := models.Item{
		ID:         raw.ID,
		Content:    raw.Content,
		Source:     models.SourceTaskTracker,
		Actionable: true,
	}
	if raw.Due != nil {
		if due, err := when.ParseDue(raw.Due.Date, c.loc); err == nil {
			item.Due = &due
			item.IsOverdue, item.IsToday, item.IsTomorrow = when.Flags(due, now, c.loc)
		}
	}
	item.DisplayTime = when.FormatDueDisplay(item.Due, item.IsOverdue, now, c.loc)
	return item
}
