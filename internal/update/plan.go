package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/views"
)

func (m Model) handlePlanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.visiblePlanItems()
	switch msg.String() {
	case "j", "down":
		if m.Plan.Cursor < len(items)-1 {
			m.Plan.Cursor++
		}
		m.syncSelectedTask()
		return m, nil
	case "k", "up":
		if m.Plan.Cursor > 0 {
			m.Plan.Cursor--
		}
		m.syncSelectedTask()
		return m, nil
	case "o":
		m.quickAddActive = true
		m.quickAddInput.Focus()
		m.quickAddInput.SetValue("")
		m.Status = StatusBar{Text: "quick add: title [#30min] [!high] [!urgent] [@tag] [due:...] [every:...]", IsError: false}
		return m, nil
	case "e":
		if ranked, ok := m.selectedPlanItem(); ok {
			m.notesActive = true
			m.notesArea.SetValue(ranked.Task.Description)
			m.notesArea.Focus()
			m.Status = StatusBar{Text: "editing notes (esc saves)", IsError: false}
		}
		return m, nil
	case "enter":
		ranked, ok := m.selectedPlanItem()
		if !ok || m.Engine == nil {
			return m, nil
		}
		if err := m.Engine.CompleteTask(context.Background(), ranked.Task.ID, m.now()); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("completed: %s", ranked.Task.Title), IsError: false}
		return m, m.syncCmd()
	case "n":
		ranked, ok := m.selectedPlanItem()
		if !ok || m.Engine == nil {
			return m, nil
		}
		if err := m.Engine.SetNextUp(context.Background(), ranked.Task.ID, !ranked.Task.IsNextUp); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		return m, m.syncCmd()
	case "a":
		ranked, ok := m.selectedPlanItem()
		if !ok || m.Engine == nil {
			return m, nil
		}
		blockID := m.firstBlockOfDay()
		if blockID == "" {
			m.Status = StatusBar{Text: "no focus block on the timeline day; create one first", IsError: true}
			return m, nil
		}
		if err := m.Engine.AssignToBlock(context.Background(), ranked.Task.ID, blockID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("assigned %s to block", ranked.Task.Title), IsError: false}
		return m, tea.Batch(m.syncCmd(), m.timelineCmd(m.Timeline.Day))
	case "x":
		ranked, ok := m.selectedPlanItem()
		if !ok || m.Engine == nil {
			return m, nil
		}
		if err := m.Engine.DeleteTask(context.Background(), ranked.Task.ID); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", ranked.Task.Title), IsError: false}
		return m, m.syncCmd()
	}
	return m, nil
}

func (m Model) handleQuickAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quickAddActive = false
		m.quickAddInput.Blur()
		m.quickAddInput.SetValue("")
		m.Status = StatusBar{Text: "quick add cancelled", IsError: false}
		return m, nil
	case "enter":
		line := m.quickAddInput.Value()
		m.quickAddActive = false
		m.quickAddInput.Blur()
		m.quickAddInput.SetValue("")
		return m.submitQuickAdd(line)
	default:
		var cmd tea.Cmd
		m.quickAddInput, cmd = m.quickAddInput.Update(msg)
		return m, cmd
	}
}

func (m Model) handleNotesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.notesActive = false
		m.notesArea.Blur()
		if m.Engine != nil && m.SelectedTaskID != "" {
			if err := m.Engine.UpdateDescription(context.Background(), m.SelectedTaskID, m.notesArea.Value()); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				return m, nil
			}
			m.Status = StatusBar{Text: "notes saved", IsError: false}
			return m, m.syncCmd()
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.notesArea, cmd = m.notesArea.Update(msg)
		return m, cmd
	}
}

// firstBlockOfDay picks the keyboard-assignment target: the earliest
// focus block on the timeline day.
func (m Model) firstBlockOfDay() string {
	for _, entry := range m.Timeline.Entries {
		if entry.Kind == "block" {
			return entry.ID
		}
	}
	return ""
}

func (m Model) renderPlanView() string {
	items := m.visiblePlanItems()
	data := views.PlanPanelData{
		ListView:   m.planList.View(),
		SelectedID: m.SelectedTaskID,
		TagFilter:  m.TagFilter,
	}
	for _, ranked := range items {
		minutes, _ := ranked.Task.EffectiveDurationWith(m.DefaultTaskMinutes)
		due := ""
		if ranked.Task.DueAt != nil {
			due = ranked.Task.DueAt.Format("Jan 2")
		}
		data.Items = append(data.Items, views.PlanItemData{
			ID:       ranked.Task.ID,
			Title:    ranked.Task.Title,
			Tier:     ranked.Result.Tier.String(),
			Score:    ranked.Result.Score,
			Overdue:  ranked.Result.Overdue,
			NextUp:   ranked.Task.IsNextUp,
			Assigned: ranked.Task.AssignedBlockID != "",
			Due:      due,
			Minutes:  minutes,
			Tags:     ranked.Task.Tags,
		})
	}
	out := views.RenderPlanPanel(data)
	if m.quickAddActive {
		out += "\n" + m.quickAddInput.View()
	}
	return out
}

func (m Model) renderTaskDetailPane() string {
	ranked, ok := m.selectedPlanItem()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{})
	}
	minutes, source := ranked.Task.EffectiveDurationWith(m.DefaultTaskMinutes)
	due := ""
	if ranked.Task.DueAt != nil {
		due = ranked.Task.DueAt.Format("2006-01-02")
	}
	recurrence := ""
	if ranked.Task.IsRecurring() {
		recurrence = string(ranked.Task.Recurrence.Kind)
	}
	detail := views.TaskDetailData{
		SelectedID:  ranked.Task.ID,
		Tier:        ranked.Result.Tier.String(),
		Score:       ranked.Result.Score,
		Due:         due,
		Minutes:     minutes,
		Source:      string(source),
		Reschedules: ranked.Task.RescheduleCount,
		Tags:        ranked.Task.Tags,
		Recurrence:  recurrence,
		Markdown:    m.detailViewport.View(),
	}
	if m.notesActive {
		detail.Markdown = m.notesArea.View()
	}
	return views.RenderTaskDetail(detail)
}
