// Package github is the code-review notification source adapter.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"traybrief/internal/fetch"
	"traybrief/internal/models"
	"traybrief/internal/when"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	userAgent      = "traybrief"

	pageSize = 50
	// Bounds the pagination loop against a misbehaving or very busy account.
	maxPages = 10
)

// Client talks to the GitHub notifications API for one configured account.
type Client struct {
	hc          *http.Client
	baseURL     string
	webBaseURL  string
	accountName string
	loc         *time.Location
	now         func() time.Time
}

// NewClient builds a client for one account.
func NewClient(accountName, apiToken string, loc *time.Location) *Client {
	return &Client{
		hc: fetch.NewClient(map[string]string{
			"Authorization":        "Bearer " + apiToken,
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": apiVersion,
			"User-Agent":           userAgent,
		}),
		baseURL:     defaultBaseURL,
		webBaseURL:  "https://github.com",
		accountName: accountName,
		loc:         loc,
		now:         time.Now,
	}
}

// AccountName returns the configured display name for this account.
func (c *Client) AccountName() string { return c.accountName }

type rawThread struct {
	ID        string `json:"id"`
	Unread    bool   `json:"unread"`
	Reason    string `json:"reason"`
	UpdatedAt string `json:"updated_at"`
	Subject   struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"subject"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// GetNotifications fetches unread notification threads for this account,
// paging until a short page or the page ceiling.
func (c *Client) GetNotifications(ctx context.Context) (models.NotificationSection, error) {
	section := models.NotificationSection{AccountName: c.accountName}
	now := c.now()

	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("all", "false")
		q.Set("participating", "false")
		q.Set("per_page", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/notifications?"+q.Encode(), nil)
		if err != nil {
			return section, fmt.Errorf("build github request: %w", err)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return section, fmt.Errorf("connect to github for account %q: %w", c.accountName, err)
		}
		if err := fetch.CheckStatus(resp, "github/"+c.accountName); err != nil {
			resp.Body.Close()
			return section, err
		}

		var threads []rawThread
		err = json.NewDecoder(resp.Body).Decode(&threads)
		resp.Body.Close()
		if err != nil {
			return section, fmt.Errorf("parse github notifications for account %q: %w", c.accountName, err)
		}

		for _, thread := range threads {
			if !thread.Unread {
				continue
			}
			section.Notifications = append(section.Notifications, c.convert(thread, now))
		}

		if len(threads) < pageSize {
			break
		}
	}

	return section, nil
}

// MarkRead resolves one notification thread.
func (c *Client) MarkRead(ctx context.Context, threadID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/notifications/threads/"+threadID, nil)
	if err != nil {
		return fmt.Errorf("build github request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("connect to github for account %q: %w", c.accountName, err)
	}
	defer resp.Body.Close()
	return fetch.CheckStatus(resp, "github/"+c.accountName)
}

func (c *Client) convert(thread rawThread, now time.Time) models.Notification {
	var updated *time.Time
	if t, err := time.Parse(time.RFC3339, thread.UpdatedAt); err == nil {
		t = t.UTC()
		updated = &t
	}

	webURL := c.subjectWebURL(thread.Subject.URL)
	if webURL == "" {
		webURL = c.webBaseURL + "/notifications?query=thread%3A" + thread.ID
	}

	return models.Notification{
		ThreadID:    thread.ID,
		Title:       thread.Subject.Title,
		Repository:  thread.Repository.FullName,
		Reason:      humanizeReason(thread.Reason),
		WebURL:      webURL,
		UpdatedAt:   updated,
		DisplayTime: when.FormatRelative(updated, now, c.loc),
	}
}

// subjectWebURL decodes an API subject resource URL into its public web
// equivalent for the resource kinds we know. Unknown kinds return "" so the
// caller falls back to the inbox thread deep link.
func (c *Client) subjectWebURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return ""
	}
	// Expect /repos/{owner}/{repo}/{kind}/{number}.
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "repos" {
		return ""
	}
	owner, repo := parts[1], parts[2]
	kind := parts[3]

	switch kind {
	case "issues":
		if len(parts) < 5 {
			return ""
		}
		return fmt.Sprintf("%s/%s/%s/issues/%s", c.webBaseURL, owner, repo, parts[4])
	case "pulls":
		if len(parts) < 5 {
			return ""
		}
		return fmt.Sprintf("%s/%s/%s/pull/%s", c.webBaseURL, owner, repo, parts[4])
	case "releases":
		return fmt.Sprintf("%s/%s/%s/releases", c.webBaseURL, owner, repo)
	default:
		return ""
	}
}

func humanizeReason(reason string) string {
	if reason == "" {
		return "notification"
	}
	reason = strings.ReplaceAll(reason, "_", " ")
	return strings.ToUpper(reason[:1]) + reason[1:]
}
