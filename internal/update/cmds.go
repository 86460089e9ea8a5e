package update

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/reminder"
)

// syncCmd runs a full engine sync off the update loop and reports back
// with either the fresh snapshot or the error.
func (m Model) syncCmd() tea.Cmd {
	if m.Engine == nil {
		return nil
	}
	eng := m.Engine
	now := m.now()
	return func() tea.Msg {
		snapshot, err := eng.Sync(context.Background(), now)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return SyncedMsg{Snapshot: snapshot}
	}
}

// timelineCmd loads the day's events, blocks and free slots.
func (m Model) timelineCmd(day time.Time) tea.Cmd {
	if m.Engine == nil {
		return nil
	}
	eng := m.Engine
	now := m.now()
	return func() tea.Msg {
		ctx := context.Background()
		events, err := eng.DayEvents(ctx, day)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		blocks, err := eng.DayBlocks(ctx, day)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		slots, err := eng.SuggestSlots(ctx, day, now)
		if err != nil {
			return AppErrorMsg{Err: err}
		}

		entries := make([]TimelineEntry, 0, len(events)+len(blocks))
		for _, ev := range events {
			entries = append(entries, TimelineEntry{ID: ev.ID, Title: ev.Title, Kind: "event", StartAt: ev.StartAt, EndAt: ev.EndAt})
		}
		for _, b := range blocks {
			entries = append(entries, TimelineEntry{ID: b.ID, Title: b.Title, Kind: "block", StartAt: b.StartAt, EndAt: b.EndAt})
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartAt.Before(entries[j].StartAt) })

		return TimelineLoadedMsg{Day: day, Entries: entries, Slots: slots}
	}
}

func focusTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return FocusTickMsg{} })
}

func waitForAlertCmd(ch <-chan reminder.Alert) tea.Cmd {
	return func() tea.Msg {
		alert, ok := <-ch
		if !ok {
			return nil
		}
		return AlertDueMsg{Alert: alert}
	}
}

// scheduleDayAlerts queues block-start and task-due alerts. Duplicate
// submissions are absorbed by the reminder engine.
func (m *Model) scheduleDayAlerts() {
	if m.Reminders == nil {
		return
	}
	now := m.now()
	for _, entry := range m.Timeline.Entries {
		if entry.Kind != "block" || !entry.StartAt.After(now) {
			continue
		}
		_ = m.Reminders.Schedule(reminder.Alert{
			ID:        "block-start:" + entry.ID,
			Kind:      reminder.KindBlockStarting,
			Subject:   entry.ID,
			Title:     entry.Title,
			TriggerAt: entry.StartAt.Add(-5 * time.Minute),
		})
	}
	for _, ranked := range m.Snapshot.Items {
		alert, ok := reminder.ForTaskDue(ranked.Task)
		if !ok || !alert.TriggerAt.After(now) {
			continue
		}
		_ = m.Reminders.Schedule(alert)
	}
}
