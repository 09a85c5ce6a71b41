// Package caldav is the CalDAV calendar feed adapter.
package caldav

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/emersion/go-webdav/caldav"

	"traybrief/internal/calendar"
	"traybrief/internal/fetch"
	"traybrief/internal/models"
	"traybrief/internal/when"
)

const defaultEndpoint = "https://caldav.icloud.com/"

// Client reads today's events from one calendar on a CalDAV server.
type Client struct {
	client       *caldav.Client
	feedName     string
	calendarPath string
	loc          *time.Location
	now          func() time.Time
}

// NewClient discovers the named calendar on the server and returns a client
// bound to it.
func NewClient(ctx context.Context, feedName, endpoint, username, password, calendarName string, loc *time.Location) (*Client, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	basic := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	hc := fetch.NewClient(map[string]string{
		"Authorization": "Basic " + basic,
		"User-Agent":    "traybrief/1.0",
	})

	client, err := caldav.NewClient(hc, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	c := &Client{
		client:   client,
		feedName: feedName,
		loc:      loc,
		now:      time.Now,
	}
	path, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("find caldav calendar %q: %w", calendarName, err)
	}
	c.calendarPath = path
	return c, nil
}

// FeedName returns the configured display name for this feed.
func (c *Client) FeedName() string { return c.feedName }

// GetTodayEvents runs a time-range VEVENT query over the local day.
func (c *Client) GetTodayEvents(ctx context.Context) (models.EventSection, error) {
	section := models.EventSection{AccountName: c.feedName}
	now := c.now()

	dayStart, dayEnd := when.DayWindow(now, c.loc)
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{Name: "VEVENT", AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: dayStart.UTC(),
				End:   dayEnd.UTC(),
			}},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return section, fmt.Errorf("query caldav feed %q: %w", c.feedName, err)
	}

	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		section.Events = append(section.Events, calendar.EventsForDay(obj.Data, now, c.loc)...)
	}
	return section, nil
}

// findCalendar walks principal -> home set -> calendars and picks the one
// with the matching display name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principal, err := c.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("find principal path: %w", err)
	}

	homeSet, err := c.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("find calendar home set: %w", err)
	}

	calendars, err := c.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar named %q", name)
}
