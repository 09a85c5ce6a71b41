// Package calendar is the iCalendar-feed source adapter.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/emersion/go-ical"

	"traybrief/internal/fetch"
	"traybrief/internal/models"
)

// Client fetches one pre-authorized ICS feed URL.
type Client struct {
	hc       *http.Client
	feedName string
	icalURL  string
	loc      *time.Location
	now      func() time.Time
}

// NewClient builds a feed client. The URL itself is the only credential.
func NewClient(feedName, icalURL string, loc *time.Location) *Client {
	return &Client{
		hc:       fetch.NewClient(nil),
		feedName: feedName,
		icalURL:  icalURL,
		loc:      loc,
		now:      time.Now,
	}
}

// FeedName returns the configured display name for this feed.
func (c *Client) FeedName() string { return c.feedName }

// GetTodayEvents fetches the feed and returns the events overlapping the
// local day. The section is named after the feed's X-WR-CALNAME when it
// declares one, else the configured feed name.
func (c *Client) GetTodayEvents(ctx context.Context) (models.EventSection, error) {
	section := models.EventSection{AccountName: c.feedName}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.icalURL, nil)
	if err != nil {
		return section, fmt.Errorf("build calendar request for feed %q: %w", c.feedName, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return section, fmt.Errorf("connect to calendar feed %q: %w", c.feedName, err)
	}
	defer resp.Body.Close()
	if err := fetch.CheckStatus(resp, "calendar/"+c.feedName); err != nil {
		return section, err
	}

	cal, err := ical.NewDecoder(resp.Body).Decode()
	if err != nil {
		return section, fmt.Errorf("parse calendar feed %q: %w", c.feedName, err)
	}

	if name := calendarName(cal); name != "" {
		section.AccountName = name
	}
	section.Events = EventsForDay(cal, c.now(), c.loc)
	return section, nil
}
