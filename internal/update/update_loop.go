package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/reminder"
	"github.com/fbecker/blockplan/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if cmd := m.syncCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := m.timelineCmd(m.Timeline.Day); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.Reminders != nil {
		cmds = append(cmds, waitForAlertCmd(m.Reminders.C()))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.syncBubbleData()

	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}
		if m.quickAddActive {
			return m.handleQuickAddKey(typed)
		}
		if m.notesActive {
			return m.handleNotesKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Plan:
			m.CurrentView = ViewPlan
			return m, nil
		case m.Keys.Timeline:
			m.CurrentView = ViewTimeline
			return m, m.timelineCmd(m.Timeline.Day)
		case m.Keys.Focus:
			m.CurrentView = ViewFocus
			return m, nil
		case m.Keys.Review:
			m.CurrentView = ViewReview
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "S":
			if !m.spinnerActive {
				m.spinnerActive = true
				m.Status = StatusBar{Text: "sync started", IsError: false}
				return m, tea.Batch(m.syncSpinner.Tick, m.syncCmd())
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewPlan:
			return m.handlePlanKey(typed)
		case ViewTimeline:
			return m.handleTimelineKey(typed)
		case ViewFocus:
			return m.handleFocusKey(typed)
		case ViewReview:
			return m.handleReviewKey(typed)
		}
	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
			if typed.View == ViewTimeline {
				return m, m.timelineCmd(m.Timeline.Day)
			}
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		m.spinnerActive = false
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case SyncedMsg:
		m.Snapshot = typed.Snapshot
		m.spinnerActive = false
		if m.Plan.Cursor >= len(m.visiblePlanItems()) {
			m.Plan.Cursor = 0
		}
		m.syncSelectedTask()
		m.scheduleDayAlerts()
		return m, nil
	case TimelineLoadedMsg:
		m.Timeline.Day = typed.Day
		m.Timeline.Entries = typed.Entries
		m.Timeline.Slots = typed.Slots.Slots
		m.Timeline.MostlyFree = typed.Slots.MostlyFree
		if m.Timeline.Cursor >= len(typed.Entries)+len(typed.Slots.Slots) {
			m.Timeline.Cursor = 0
		}
		m.scheduleDayAlerts()
		return m, nil
	case FocusLoadedMsg:
		return m.applyFocusBlock(typed.Block), nil
	case FocusTickMsg:
		return m.onFocusTick()
	case AlertDueMsg:
		m.AlertLog = append(m.AlertLog, typed.Alert)
		if len(m.AlertLog) > 20 {
			m.AlertLog = m.AlertLog[len(m.AlertLog)-20:]
		}
		m.Status = StatusBar{Text: alertText(typed.Alert), IsError: false}
		m.notify("Reminder", m.Status.Text, "info")
		if m.Reminders != nil {
			return m, waitForAlertCmd(m.Reminders.C())
		}
		return m, nil
	case AcknowledgeAlertMsg:
		if typed.ID != "" {
			m.AlertAck[typed.ID] = true
			m.Status = StatusBar{Text: fmt.Sprintf("reminder acknowledged: %s", typed.ID), IsError: false}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewPlan:
		leftPane = m.renderPlanView()
		rightPane = m.renderTaskDetailPane() + m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewTimeline:
		leftPane = m.renderTimelineView()
		rightPane = m.renderCommandPalette() + m.renderHelpIfVisible()
	case ViewFocus:
		leftPane = m.renderFocusView()
		rightPane = m.renderHelpIfVisible()
	case ViewReview:
		leftPane = m.renderReviewView()
		rightPane = m.renderHelpIfVisible()
	}

	notificationView := ""
	if len(m.AlertLog) > 0 {
		last := m.AlertLog[len(m.AlertLog)-1]
		notificationView = fmt.Sprintf("last-reminder: %s @ %s", last.ID, last.TriggerAt.Format("15:04:05"))
	}
	if m.spinnerActive {
		spin := m.syncSpinner.View()
		notificationView = strings.TrimSpace(strings.Join([]string{notificationView, "sync: " + spin + " running"}, "\n"))
	}
	notificationView = strings.TrimSpace(strings.Join([]string{
		notificationView,
		strings.TrimSpace(m.renderNotificationsView()),
	}, "\n"))

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("blockplan | view: %s | selected: %s", m.CurrentView, m.SelectedTaskID),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		StatusIsErr:  m.Status.IsError,
		Notification: notificationView,
		Footer:       fmt.Sprintf("keys: %s plan | %s timeline | %s focus | %s review | / cmd | %s help | %s quit", m.Keys.Plan, m.Keys.Timeline, m.Keys.Focus, m.Keys.Review, m.Keys.Help, m.Keys.Quit),
	})
}

func (m *Model) syncSelectedTask() {
	if ranked, ok := m.selectedPlanItem(); ok {
		m.SelectedTaskID = ranked.Task.ID
	} else {
		m.SelectedTaskID = ""
	}
}

func alertText(a reminder.Alert) string {
	switch a.Kind {
	case reminder.KindBlockStarting:
		return fmt.Sprintf("focus block starting soon: %s", a.Title)
	case reminder.KindTaskDue:
		return fmt.Sprintf("task due: %s", a.Title)
	default:
		return a.Title
	}
}

func isKnownView(v View) bool {
	switch v {
	case ViewPlan, ViewTimeline, ViewFocus, ViewReview:
		return true
	default:
		return false
	}
}
