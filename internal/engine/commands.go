package engine

import (
	"context"
	"fmt"

	"traybrief/internal/agg"
	"traybrief/internal/models"
)

// Complete closes an item in its origin system and narrow-refreshes the
// task buckets. Read-only items are rejected before any network call.
func (e *Engine) Complete(ctx context.Context, itemID string) error {
	e.mu.Lock()
	var found *models.Item
	for _, item := range e.state.Tasks.AllItems() {
		if item.ID == itemID {
			found = &item
			break
		}
	}
	e.mu.Unlock()

	if found == nil {
		return fmt.Errorf("%w: task %s", ErrNotFound, itemID)
	}
	if !found.Actionable {
		return ErrReadOnly
	}

	if err := e.tasks.CompleteTask(ctx, itemID); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}

	if e.obs != nil {
		e.obs.OnTaskCompleted(found.Content)
	}
	return e.refreshTasksNarrow(ctx)
}

// Snooze shifts an item's due instant by a configured duration label and
// narrow-refreshes the task buckets.
func (e *Engine) Snooze(ctx context.Context, itemID, durationLabel string) error {
	var delta SnoozeDuration
	var ok bool
	for _, entry := range e.snoozes {
		if entry.Label == durationLabel {
			delta, ok = entry, true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSnooze, durationLabel)
	}

	e.mu.Lock()
	var found *models.Item
	for _, item := range e.state.Tasks.AllItems() {
		if item.ID == itemID && item.Source == models.SourceTaskTracker {
			found = &item
			break
		}
	}
	e.mu.Unlock()

	if found == nil {
		return fmt.Errorf("%w: snoozable task %s", ErrNotFound, itemID)
	}
	if found.Due == nil {
		return ErrNoDueDate
	}

	newDue := found.Due.Add(delta.Delta)
	if err := e.tasks.UpdateDueDate(ctx, itemID, newDue); err != nil {
		return fmt.Errorf("snooze task: %w", err)
	}
	return e.refreshTasksNarrow(ctx)
}

// ResolveNotification marks one thread read and refreshes that account's
// section only, leaving every other account's cached section in place.
func (e *Engine) ResolveNotification(ctx context.Context, accountName, threadID string) error {
	var client NotificationSource
	for _, c := range e.notifs {
		if c.AccountName() == accountName {
			client = c
			break
		}
	}
	if client == nil {
		return fmt.Errorf("%w: notification account %q", ErrNotFound, accountName)
	}

	if err := client.MarkRead(ctx, threadID); err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}

	section, err := client.GetNotifications(ctx)
	if err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}

	e.mu.Lock()
	e.state.Notifications = agg.MergeNotificationSection(e.state.Notifications, section)
	e.state.NotificationCount = countNotifications(e.state.Notifications)
	e.state.IsLoading = false
	e.state.ErrorMessage = ""
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.notifyState(snapshot)
	return nil
}

// ToggleAutostart flips login-item registration and reports the new value.
func (e *Engine) ToggleAutostart() (bool, error) {
	if e.autostart == nil {
		return false, fmt.Errorf("autostart is not available")
	}

	var enabled bool
	var err error
	if e.autostart.Enabled() {
		err = e.autostart.Disable()
		enabled = false
	} else {
		err = e.autostart.Enable()
		enabled = true
	}
	if err != nil {
		return e.autostart.Enabled(), fmt.Errorf("toggle autostart: %w", err)
	}

	e.mu.Lock()
	e.state.AutostartEnabled = enabled
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.notifyState(snapshot)
	return enabled, nil
}
