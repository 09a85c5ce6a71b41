// Package gcal is the Google Calendar API feed adapter, for calendars that
// expose no private ICS URL.
package gcal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"traybrief/internal/models"
	"traybrief/internal/when"
)

// Client reads one account's calendar through the Google Calendar API.
type Client struct {
	service    *calendar.Service
	feedName   string
	calendarID string
	loc        *time.Location
	now        func() time.Time
}

// NewClient builds a client for one named account. The account must have a
// token file saved by the auth command.
func NewClient(ctx context.Context, clientID, clientSecret, account, feedName, calendarID string, loc *time.Location) (*Client, error) {
	config, err := oauthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("get oauth config: %w", err)
	}

	token, err := tokenFromFile(tokenFile(account))
	if err != nil {
		return nil, fmt.Errorf("load token for account %q: %w (run the auth command first)", account, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		service:    service,
		feedName:   feedName,
		calendarID: calendarID,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// FeedName returns the configured display name for this feed.
func (c *Client) FeedName() string { return c.feedName }

// GetTodayEvents fetches the events overlapping the local day.
func (c *Client) GetTodayEvents(ctx context.Context) (models.EventSection, error) {
	section := models.EventSection{AccountName: c.feedName}
	now := c.now()
	dayStart, dayEnd := when.DayWindow(now, c.loc)

	events, err := c.service.Events.List(c.calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(dayStart.Format(time.RFC3339)).
		TimeMax(dayEnd.Format(time.RFC3339)).
		OrderBy("startTime").
		Do()
	if err != nil {
		return section, fmt.Errorf("list events for feed %q: %w", c.feedName, err)
	}

	for _, item := range events.Items {
		converted, ok := c.convert(item, dayStart, dayEnd)
		if !ok {
			continue
		}
		section.Events = append(section.Events, converted)
	}
	sort.SliceStable(section.Events, func(i, j int) bool {
		a, b := section.Events[i], section.Events[j]
		if a.StartAt == nil || b.StartAt == nil {
			return b.StartAt == nil && a.StartAt != nil
		}
		return a.StartAt.Before(*b.StartAt)
	})
	return section, nil
}

func (c *Client) convert(item *calendar.Event, dayStart, dayEnd time.Time) (models.CalendarEvent, bool) {
	if item.Start == nil {
		return models.CalendarEvent{}, false
	}

	out := models.CalendarEvent{
		ID:      item.Id,
		Title:   item.Summary,
		OpenURL: openURL(item),
	}
	if out.Title == "" {
		out.Title = "(Untitled event)"
	}

	if item.Start.Date != "" {
		startDay, err := time.ParseInLocation("2006-01-02", item.Start.Date, c.loc)
		if err != nil {
			return models.CalendarEvent{}, false
		}
		endDay := startDay.AddDate(0, 0, 1)
		if item.End != nil && item.End.Date != "" {
			if d, err := time.ParseInLocation("2006-01-02", item.End.Date, c.loc); err == nil {
				endDay = d
			}
		}
		if dayStart.Before(startDay) || !dayStart.Before(endDay) {
			return models.CalendarEvent{}, false
		}
		startUTC, endUTC := startDay.UTC(), endDay.UTC()
		out.StartAt, out.EndAt = &startUTC, &endUTC
		out.DisplayTime = "All day"
		return out, true
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return models.CalendarEvent{}, false
	}
	startLocal := start.In(c.loc)
	endLocal := startLocal.Add(time.Hour)
	if item.End != nil && item.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			endLocal = t.In(c.loc)
		}
	}
	if !startLocal.Before(dayEnd) || !endLocal.After(dayStart) {
		return models.CalendarEvent{}, false
	}

	startUTC, endUTC := startLocal.UTC(), endLocal.UTC()
	out.StartAt, out.EndAt = &startUTC, &endUTC
	out.DisplayTime = when.FormatRange(startLocal, endLocal, c.loc)
	return out, true
}

// openURL prefers a joinable conference link, falling back to the event's
// web page; http(s) only.
func openURL(item *calendar.Event) string {
	if item.ConferenceData != nil {
		for _, ep := range item.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && isHTTP(ep.Uri) {
				return ep.Uri
			}
		}
	}
	if isHTTP(item.HangoutLink) {
		return item.HangoutLink
	}
	if isHTTP(item.HtmlLink) {
		return item.HtmlLink
	}
	return ""
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
