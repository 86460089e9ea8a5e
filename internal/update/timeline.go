package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/views"
)

func (m Model) handleTimelineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := len(m.Timeline.Entries) + len(m.Timeline.Slots)
	switch msg.String() {
	case "h", "left":
		day := m.Timeline.Day.AddDate(0, 0, -1)
		return m, m.timelineCmd(day)
	case "l", "right":
		day := m.Timeline.Day.AddDate(0, 0, 1)
		return m, m.timelineCmd(day)
	case "t":
		return m, m.timelineCmd(startOfDay(m.now()))
	case "j", "down":
		if m.Timeline.Cursor < total-1 {
			m.Timeline.Cursor++
		}
		return m, nil
	case "k", "up":
		if m.Timeline.Cursor > 0 {
			m.Timeline.Cursor--
		}
		return m, nil
	case "b":
		slot, ok := m.selectedSlot()
		if !ok || m.Engine == nil {
			m.Status = StatusBar{Text: "select a free slot first", IsError: true}
			return m, nil
		}
		title := fmt.Sprintf("Focus %s", clock(slot.StartAt))
		if _, err := m.Engine.CreateBlock(context.Background(), title, slot); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("focus block created %s-%s", clock(slot.StartAt), clock(slot.EndAt)), IsError: false}
		return m, m.timelineCmd(m.Timeline.Day)
	case "X":
		entry, ok := m.selectedEntry()
		if !ok || entry.Kind != "block" || m.Engine == nil {
			m.Status = StatusBar{Text: "select a focus block to delete", IsError: true}
			return m, nil
		}
		if err := m.Engine.DeleteBlock(context.Background(), entry.ID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "focus block deleted; tasks back in the backlog", IsError: false}
		return m, tea.Batch(m.syncCmd(), m.timelineCmd(m.Timeline.Day))
	case "enter":
		entry, ok := m.selectedEntry()
		if !ok || entry.Kind != "block" || m.Engine == nil {
			return m, nil
		}
		b, err := m.Engine.Block(context.Background(), entry.ID)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.CurrentView = ViewFocus
		next := m.applyFocusBlock(b)
		return next, focusTickCmd()
	}
	return m, nil
}

func (m Model) selectedEntry() (TimelineEntry, bool) {
	if m.Timeline.Cursor < 0 || m.Timeline.Cursor >= len(m.Timeline.Entries) {
		return TimelineEntry{}, false
	}
	return m.Timeline.Entries[m.Timeline.Cursor], true
}

func (m Model) selectedSlot() (model.TimeSlot, bool) {
	idx := m.Timeline.Cursor - len(m.Timeline.Entries)
	if idx < 0 || idx >= len(m.Timeline.Slots) {
		return model.TimeSlot{}, false
	}
	return m.Timeline.Slots[idx], true
}

func (m Model) renderTimelineView() string {
	data := views.TimelinePanelData{
		Day:        m.Timeline.Day.Format("Mon Jan 2"),
		TableView:  m.timelineTable.View(),
		MostlyFree: m.Timeline.MostlyFree,
	}
	for _, entry := range m.Timeline.Entries {
		data.Entries = append(data.Entries, views.TimelineEntryData{
			ID:    entry.ID,
			Title: entry.Title,
			Start: clock(entry.StartAt),
			End:   clock(entry.EndAt),
			Kind:  entry.Kind,
		})
	}
	for i, slot := range m.Timeline.Slots {
		data.Slots = append(data.Slots, views.TimelineEntryData{
			ID:    fmt.Sprintf("slot-%d", i),
			Start: clock(slot.StartAt),
			End:   clock(slot.EndAt),
			Kind:  "slot",
		})
	}
	if entry, ok := m.selectedEntry(); ok {
		data.Selected = &views.TimelineEntryData{ID: entry.ID, Title: entry.Title, Start: clock(entry.StartAt), End: clock(entry.EndAt), Kind: entry.Kind}
	} else if idx := m.Timeline.Cursor - len(m.Timeline.Entries); idx >= 0 && idx < len(data.Slots) {
		selected := data.Slots[idx]
		data.Selected = &selected
	}
	return views.RenderTimelinePanel(data)
}
