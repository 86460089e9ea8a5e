package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/charmbracelet/bubbles/help"

	"github.com/fbecker/blockplan/internal/views"
)

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

func (m *Model) initBubbleComponents() {
	m.planList = list.New([]list.Item{}, list.NewDefaultDelegate(), 58, 14)
	m.planList.Title = "Plan (ranked)"
	m.planList.SetShowHelp(false)
	m.planList.SetFilteringEnabled(false)

	cols := []table.Column{
		{Title: "Start", Width: 7},
		{Title: "End", Width: 7},
		{Title: "Kind", Width: 7},
		{Title: "Title", Width: 28},
	}
	m.timelineTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.notesArea = textarea.New()
	m.notesArea.SetWidth(50)
	m.notesArea.SetHeight(8)
	m.notesArea.ShowLineNumbers = false
	m.notesArea.Placeholder = "Task notes (markdown)"

	m.focusProgress = progress.New(progress.WithDefaultGradient())

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(50, 12)
}

func (m *Model) syncBubbleData() {
	planItems := make([]list.Item, 0, len(m.Snapshot.Items))
	for _, ranked := range m.visiblePlanItems() {
		desc := fmt.Sprintf("%s | score %d", ranked.Result.Tier, ranked.Result.Score)
		planItems = append(planItems, listItem{title: ranked.Task.Title, description: desc})
	}
	m.planList.SetItems(planItems)
	if len(planItems) > 0 && m.Plan.Cursor < len(planItems) {
		m.planList.Select(m.Plan.Cursor)
	}

	rows := make([]table.Row, 0, len(m.Timeline.Entries)+len(m.Timeline.Slots))
	for _, entry := range m.Timeline.Entries {
		rows = append(rows, table.Row{clock(entry.StartAt), clock(entry.EndAt), strings.ToUpper(entry.Kind), entry.Title})
	}
	for _, slot := range m.Timeline.Slots {
		rows = append(rows, table.Row{clock(slot.StartAt), clock(slot.EndAt), "SLOT", "(free)"})
	}
	m.timelineTable.SetRows(rows)
	if len(rows) > 0 && m.Timeline.Cursor < len(rows) {
		m.timelineTable.SetCursor(m.Timeline.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}
	if m.quickAddActive {
		m.quickAddInput.Focus()
	}

	if ranked, ok := m.selectedPlanItem(); ok && !m.notesActive {
		md := ranked.Task.Description
		if strings.TrimSpace(md) == "" {
			md = "_No notes_"
		}
		m.notesArea.SetValue(md)
		m.detailViewport.SetContent(views.RenderMarkdown(md))
	}

	m.syncFocusProgress()
}

func (m *Model) syncFocusProgress() {
	pct := 0.0
	if m.Focus.CurrentTaskID != "" && m.Focus.StartedAt != nil {
		minutes := m.taskMinutes(m.Focus.CurrentTaskID)
		pr := taskProgressAt(*m.Focus.StartedAt, m.now(), minutes)
		pct = pr
	}
	_ = m.focusProgress.SetPercent(pct)
}
