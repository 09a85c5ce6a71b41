// Package engine owns the shared snapshot and drives scheduled and
// on-demand refreshes across all source adapters.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"traybrief/internal/agg"
	"traybrief/internal/models"
	"traybrief/internal/when"
)

// DefaultInterval is the scheduled full-refresh period.
const DefaultInterval = 5 * time.Minute

// TaskSource is the actionable task tracker.
type TaskSource interface {
	GetTasks(ctx context.Context) ([]models.Item, error)
	CompleteTask(ctx context.Context, taskID string) error
	UpdateDueDate(ctx context.Context, taskID string, due time.Time) error
}

// IssueSource is the read-only issue tracker.
type IssueSource interface {
	GetInProgressIssues(ctx context.Context) ([]models.Item, error)
}

// NotificationSource is one configured notification account.
type NotificationSource interface {
	AccountName() string
	GetNotifications(ctx context.Context) (models.NotificationSection, error)
	MarkRead(ctx context.Context, threadID string) error
}

// EventSource is one configured calendar feed of any kind.
type EventSource interface {
	FeedName() string
	GetTodayEvents(ctx context.Context) (models.EventSection, error)
}

// Autostart is the OS login-item registration collaborator.
type Autostart interface {
	Enabled() bool
	Enable() error
	Disable() error
}

// Observer receives state updates. Implementations must not block: they are
// called outside the engine's lock and may re-enter the engine.
type Observer interface {
	OnStateChanged(state models.AppState)
	OnTaskCompleted(taskName string)
	OnError(message string)
}

// SnoozeDuration pairs a configured label with its resolved delta.
type SnoozeDuration struct {
	Label string
	Delta time.Duration
}

// Options configures a new Engine.
type Options struct {
	Tasks         TaskSource
	Issues        IssueSource // optional
	Notifications []NotificationSource
	Calendars     []EventSource
	SnoozeLabels  []string
	Interval      time.Duration
	Autostart     Autostart
	Observer      Observer
	Logger        *slog.Logger
}

// Engine is the single per-process refresh/command engine. The snapshot is
// its only shared mutable state; the lock is held just long enough to apply
// computed results, never across network I/O.
type Engine struct {
	mu    sync.Mutex
	state models.AppState

	tasks     TaskSource
	issues    IssueSource
	notifs    []NotificationSource
	cals      []EventSource
	snoozes   []SnoozeDuration
	autostart Autostart
	obs       Observer
	log       *slog.Logger
	interval  time.Duration
}

// New validates the options and builds an engine with a loading snapshot.
func New(opts Options) (*Engine, error) {
	if opts.Tasks == nil {
		return nil, fmt.Errorf("engine: a task source is required")
	}

	snoozes := make([]SnoozeDuration, 0, len(opts.SnoozeLabels))
	labels := make([]string, 0, len(opts.SnoozeLabels))
	for _, raw := range opts.SnoozeLabels {
		delta, err := when.ParseSnooze(raw)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		snoozes = append(snoozes, SnoozeDuration{Label: raw, Delta: delta})
		labels = append(labels, raw)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		tasks:     opts.Tasks,
		issues:    opts.Issues,
		notifs:    opts.Notifications,
		cals:      opts.Calendars,
		snoozes:   snoozes,
		autostart: opts.Autostart,
		obs:       opts.Observer,
		log:       logger,
		interval:  interval,
	}
	e.state = models.AppState{
		SnoozeDurations: labels,
		IsLoading:       true,
	}
	if opts.Autostart != nil {
		e.state.AutostartEnabled = opts.Autostart.Enabled()
	}
	return e, nil
}

// Run performs an initial refresh and then refreshes on the configured
// interval until ctx is cancelled. Scheduled failures never clear cached
// data; they are logged and stamped on the snapshot.
func (e *Engine) Run(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil {
		e.log.Error("Initial refresh failed", "error", err)
		e.recordError(err)
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				e.log.Error("Scheduled refresh failed", "error", err)
				e.recordError(err)
			}
		}
	}
}

// Refresh fetches every source concurrently and replaces the snapshot in a
// single commit. Any fetch failure aborts the commit and leaves the
// previous snapshot untouched.
func (e *Engine) Refresh(ctx context.Context) error {
	var (
		taskItems  []models.Item
		issueItems []models.Item
	)
	notifSections := make([]models.NotificationSection, len(e.notifs))
	calSections := make([]models.EventSection, len(e.cals))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.tasks.GetTasks(gctx)
		if err != nil {
			return fmt.Errorf("fetch tasks: %w", err)
		}
		taskItems = items
		return nil
	})
	if e.issues != nil {
		g.Go(func() error {
			items, err := e.issues.GetInProgressIssues(gctx)
			if err != nil {
				return fmt.Errorf("fetch issues: %w", err)
			}
			issueItems = items
			return nil
		})
	}
	for i, client := range e.notifs {
		g.Go(func() error {
			section, err := client.GetNotifications(gctx)
			if err != nil {
				return fmt.Errorf("fetch notifications: %w", err)
			}
			notifSections[i] = section
			return nil
		})
	}
	for i, feed := range e.cals {
		g.Go(func() error {
			section, err := feed.GetTodayEvents(gctx)
			if err != nil {
				return fmt.Errorf("fetch calendar: %w", err)
			}
			calSections[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	grouped := agg.Group(append(taskItems, issueItems...))
	notifs := compactNotificationSections(notifSections)
	cals := compactEventSections(calSections)

	e.mu.Lock()
	applyTasks(&e.state, grouped)
	e.state.Notifications = notifs
	e.state.Calendars = cals
	e.state.NotificationCount = countNotifications(notifs)
	e.state.EventCount = countEvents(cals)
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.notifyState(snapshot)
	return nil
}

// State returns a copy of the current snapshot.
func (e *Engine) State() models.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// SnoozeDurations lists the configured duration labels in order.
func (e *Engine) SnoozeDurations() []SnoozeDuration {
	return append([]SnoozeDuration(nil), e.snoozes...)
}

// refreshTasksNarrow re-fetches only the task tracker and regroups it with
// the currently cached in-progress issues; other sources keep their cached
// sections until the next scheduled refresh.
func (e *Engine) refreshTasksNarrow(ctx context.Context) error {
	items, err := e.tasks.GetTasks(ctx)
	if err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}

	e.mu.Lock()
	combined := append(items, e.state.Tasks.InProgress...)
	applyTasks(&e.state, agg.Group(combined))
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.notifyState(snapshot)
	return nil
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	e.state.ErrorMessage = err.Error()
	e.state.IsLoading = false
	snapshot := e.state.Clone()
	e.mu.Unlock()

	if e.obs != nil {
		e.obs.OnError(err.Error())
	}
	e.notifyState(snapshot)
}

func (e *Engine) notifyState(snapshot models.AppState) {
	if e.obs != nil {
		e.obs.OnStateChanged(snapshot)
	}
}

func applyTasks(state *models.AppState, grouped models.TaskList) {
	state.Tasks = grouped
	state.OverdueCount = len(grouped.Overdue)
	state.TodayCount = len(grouped.Today)
	state.TomorrowCount = len(grouped.Tomorrow)
	state.InProgressCount = len(grouped.InProgress)
	state.IsLoading = false
	state.ErrorMessage = ""
}

func compactNotificationSections(sections []models.NotificationSection) []models.NotificationSection {
	out := make([]models.NotificationSection, 0, len(sections))
	for _, sec := range sections {
		if len(sec.Notifications) > 0 {
			out = append(out, sec)
		}
	}
	return out
}

func compactEventSections(sections []models.EventSection) []models.EventSection {
	out := make([]models.EventSection, 0, len(sections))
	for _, sec := range sections {
		if len(sec.Events) > 0 {
			out = append(out, sec)
		}
	}
	return out
}

func countNotifications(sections []models.NotificationSection) int {
	var n int
	for _, sec := range sections {
		n += len(sec.Notifications)
	}
	return n
}

func countEvents(sections []models.EventSection) int {
	var n int
	for _, sec := range sections {
		n += len(sec.Events)
	}
	return n
}
