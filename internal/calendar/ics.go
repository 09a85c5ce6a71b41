package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"traybrief/internal/models"
	"traybrief/internal/when"
)

// calendarName returns the feed's self-declared display name, if any.
func calendarName(cal *ical.Calendar) string {
	p := cal.Props.Get("X-WR-CALNAME")
	if p == nil {
		return ""
	}
	name, err := p.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// EventsForDay converts a parsed calendar's VEVENTs into the unified event
// model, keeping only entries that overlap the local day containing now. An
// all-day event belongs to today when start_date <= today < end_date; a
// timed event when its interval intersects [local midnight, local midnight
// tomorrow). Events without a start are dropped.
func EventsForDay(cal *ical.Calendar, now time.Time, loc *time.Location) []models.CalendarEvent {
	dayStart, dayEnd := when.DayWindow(now, loc)

	var events []models.CalendarEvent
	for _, ev := range cal.Events() {
		converted, ok := convertEvent(ev, dayStart, dayEnd, loc)
		if !ok {
			continue
		}
		events = append(events, converted)
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.StartAt != nil && b.StartAt != nil && !a.StartAt.Equal(*b.StartAt):
			return a.StartAt.Before(*b.StartAt)
		case a.StartAt != nil && b.StartAt == nil:
			return true
		case a.StartAt == nil && b.StartAt != nil:
			return false
		default:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	})
	return events
}

func convertEvent(ev ical.Event, dayStart, dayEnd time.Time, loc *time.Location) (models.CalendarEvent, bool) {
	startProp := ev.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return models.CalendarEvent{}, false
	}

	out := models.CalendarEvent{
		Title:   propText(ev.Props, ical.PropSummary),
		OpenURL: openURL(ev.Props),
	}
	if out.Title == "" {
		out.Title = "(Untitled event)"
	}
	if p := ev.Props.Get(ical.PropUID); p != nil && p.Value != "" {
		out.ID = p.Value
	} else {
		out.ID = uuid.NewString()
	}

	if isDateValue(startProp) {
		startDay, err := dateMidnight(startProp, loc)
		if err != nil {
			return models.CalendarEvent{}, false
		}
		endDay := startDay.AddDate(0, 0, 1)
		if p := ev.Props.Get(ical.PropDateTimeEnd); p != nil {
			if isDateValue(p) {
				if d, err := dateMidnight(p, loc); err == nil {
					endDay = d
				}
			} else if t, err := p.DateTime(loc); err == nil {
				local := t.In(loc)
				endDay = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			}
		}
		// The end date is exclusive.
		if dayStart.Before(startDay) || !dayStart.Before(endDay) {
			return models.CalendarEvent{}, false
		}
		startUTC, endUTC := startDay.UTC(), endDay.UTC()
		out.StartAt, out.EndAt = &startUTC, &endUTC
		out.DisplayTime = "All day"
		return out, true
	}

	start, err := startProp.DateTime(loc)
	if err != nil {
		return models.CalendarEvent{}, false
	}
	startLocal := start.In(loc)
	endLocal := startLocal.Add(time.Hour)
	if p := ev.Props.Get(ical.PropDateTimeEnd); p != nil {
		if isDateValue(p) {
			if d, err := dateMidnight(p, loc); err == nil {
				endLocal = d
			}
		} else if t, err := p.DateTime(loc); err == nil {
			endLocal = t.In(loc)
		}
	}
	if !startLocal.Before(dayEnd) || !endLocal.After(dayStart) {
		return models.CalendarEvent{}, false
	}

	startUTC, endUTC := startLocal.UTC(), endLocal.UTC()
	out.StartAt, out.EndAt = &startUTC, &endUTC
	out.DisplayTime = when.FormatRange(startLocal, endLocal, loc)
	return out, true
}

// openURL prefers the vendor conferencing link over the event URL, and only
// accepts http(s) schemes.
func openURL(props ical.Props) string {
	if p := props.Get("X-GOOGLE-CONFERENCE"); p != nil {
		if u := normalizeURL(p.Value); u != "" {
			return u
		}
	}
	if p := props.Get(ical.PropURL); p != nil {
		return normalizeURL(p.Value)
	}
	return ""
}

func normalizeURL(value string) string {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v
	}
	return ""
}

func propText(props ical.Props, name string) string {
	p := props.Get(name)
	if p == nil {
		return ""
	}
	text, err := p.Text()
	if err != nil {
		return p.Value
	}
	return text
}

func isDateValue(p *ical.Prop) bool {
	if p.ValueType() == ical.ValueDate {
		return true
	}
	// Some feeds omit VALUE=DATE on bare dates.
	v := p.Value
	if len(v) != 8 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dateMidnight(p *ical.Prop, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("20060102", p.Value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}
