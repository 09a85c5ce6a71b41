// Package linear is the issue-tracker source adapter.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"traybrief/internal/fetch"
	"traybrief/internal/models"
	"traybrief/internal/when"
)

const defaultEndpoint = "https://api.linear.app/graphql"

const assignedIssuesQuery = `
query AssignedIssues($after: String) {
  viewer {
    assignedIssues(first: 50, after: $after) {
      nodes {
        id
        identifier
        title
        dueDate
        state {
          name
          type
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

// Client talks to the Linear GraphQL API.
type Client struct {
	hc       *http.Client
	endpoint string
	loc      *time.Location
	now      func() time.Time
}

// NewClient builds a client. Linear expects the raw API key in the
// Authorization header, without a Bearer prefix.
func NewClient(apiToken string, loc *time.Location) *Client {
	return &Client{
		hc: fetch.NewClient(map[string]string{
			"Authorization": apiToken,
			"Content-Type":  "application/json",
		}),
		endpoint: defaultEndpoint,
		loc:      loc,
		now:      time.Now,
	}
}

type gqlRequest struct {
	Query     string       `json:"query"`
	Variables gqlVariables `json:"variables"`
}

type gqlVariables struct {
	After *string `json:"after"`
}

type gqlResponse struct {
	Data   *gqlData   `json:"data"`
	Errors []gqlError `json:"errors"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlData struct {
	Viewer struct {
		AssignedIssues issueConnection `json:"assignedIssues"`
	} `json:"viewer"`
}

type issueConnection struct {
	Nodes    []issueNode `json:"nodes"`
	PageInfo pageInfo    `json:"pageInfo"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type issueNode struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	DueDate    string `json:"dueDate"`
	State      struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"state"`
}

// GetInProgressIssues pages through the viewer's assigned issues and keeps
// the ones in a started workflow state. Items are read-only here; completing
// them happens in Linear itself.
func (c *Client) GetInProgressIssues(ctx context.Context) ([]models.Item, error) {
	now := c.now()
	var items []models.Item
	var after *string

	for {
		body, err := json.Marshal(gqlRequest{Query: assignedIssuesQuery, Variables: gqlVariables{After: after}})
		if err != nil {
			return nil, fmt.Errorf("encode linear query: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build linear request: %w", err)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("connect to linear: %w", err)
		}
		if err := fetch.CheckStatus(resp, "linear"); err != nil {
			resp.Body.Close()
			return nil, err
		}

		var out gqlResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parse linear response: %w", err)
		}
		if len(out.Errors) > 0 {
			msgs := make([]string, len(out.Errors))
			for i, e := range out.Errors {
				msgs[i] = e.Message
			}
			return nil, fmt.Errorf("linear graphql error: %s", strings.Join(msgs, "; "))
		}
		if out.Data == nil {
			return nil, fmt.Errorf("linear response was missing data payload")
		}

		conn := out.Data.Viewer.AssignedIssues
		for _, node := range conn.Nodes {
			if !isInProgress(node) {
				continue
			}
			items = append(items, c.convert(node, now))
		}

		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == nil {
			break
		}
		after = conn.PageInfo.EndCursor
	}

	return items, nil
}

// convert normalizes one issue node. The due date carries through so
// in-progress items order by due instant, but the items stay read-only.
func (c *Client) convert(node issueNode, now time.Time) models.Item {
	item := models.Item{
		ID:          node.ID,
		Content:     node.Identifier + ": " + node.Title,
		Source:      models.SourceIssueTracker,
		Actionable:  false,
		DisplayTime: "in progress",
	}
	if node.DueDate != "" {
		if due, err := when.ParseDue(node.DueDate, c.loc); err == nil {
			item.Due = &due
			item.IsOverdue, item.IsToday, item.IsTomorrow = when.Flags(due, now, c.loc)
			item.DisplayTime = when.FormatDueDisplay(item.Due, item.IsOverdue, now, c.loc)
		}
	}
	return item
}

// isInProgress matches either the workflow state type or the human state
// name, to tolerate API naming drift.
func isInProgress(node issueNode) bool {
	return strings.EqualFold(node.State.Type, "started") ||
		strings.EqualFold(node.State.Name, "in progress")
}
