package models

// TaskList holds the four unified task buckets, each sorted overdue-first
// then by due instant ascending. Rebuilt wholesale on every full refresh.
type TaskList struct {
	Overdue    []Item
	Today      []Item
	Tomorrow   []Item
	InProgress []Item
}

// AppState is the snapshot handed to the presentation layer. The engine owns
// the only live copy; everything given out is a Clone.
type AppState struct {
	OverdueCount      int
	TodayCount        int
	TomorrowCount     int
	InProgressCount   int
	NotificationCount int
	EventCount        int
	Tasks             TaskList
	Notifications     []NotificationSection
	Calendars         []EventSection
	SnoozeDurations   []string
	IsLoading         bool
	ErrorMessage      string
	AutostartEnabled  bool
}

// Clone returns a deep copy safe to hand outside the engine's lock.
func (s AppState) Clone() AppState {
	out := s
	out.Tasks = TaskList{
		Overdue:    cloneItems(s.Tasks.Overdue),
		Today:      cloneItems(s.Tasks.Today),
		Tomorrow:   cloneItems(s.Tasks.Tomorrow),
		InProgress: cloneItems(s.Tasks.InProgress),
	}
	out.Notifications = make([]NotificationSection, len(s.Notifications))
	for i, sec := range s.Notifications {
		out.Notifications[i] = NotificationSection{
			AccountName:   sec.AccountName,
			Notifications: append([]Notification(nil), sec.Notifications...),
		}
	}
	out.Calendars = make([]EventSection, len(s.Calendars))
	for i, sec := range s.Calendars {
		out.Calendars[i] = EventSection{
			AccountName: sec.AccountName,
			Events:      append([]CalendarEvent(nil), sec.Events...),
		}
	}
	out.SnoozeDurations = append([]string(nil), s.SnoozeDurations...)
	return out
}

// AllItems iterates every bucket in display order.
func (l TaskList) AllItems() []Item {
	out := make([]Item, 0, len(l.Overdue)+len(l.Today)+len(l.Tomorrow)+len(l.InProgress))
	out = append(out, l.Overdue...)
	out = append(out, l.Today...)
	out = append(out, l.Tomorrow...)
	out = append(out, l.InProgress...)
	return out
}

func cloneItems(items []Item) []Item {
	return append([]Item(nil), items...)
}
