// Package update holds the bubbletea model for the planner TUI: the
// Plan, Timeline, Focus and Review screens, the command palette, and
// the message plumbing between the sync engine and the UI.
package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/fbecker/blockplan/internal/engine"
	"github.com/fbecker/blockplan/internal/gap"
	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/reminder"
)

type View string

const (
	ViewPlan     View = "Plan"
	ViewTimeline View = "Timeline"
	ViewFocus    View = "Focus"
	ViewReview   View = "Review"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Plan     string
	Timeline string
	Focus    string
	Review   string
	Help     string
	Quit     string
}

type PlanState struct {
	Cursor int
}

type TimelineEntry struct {
	ID      string
	Title   string
	Kind    string
	StartAt time.Time
	EndAt   time.Time
}

type TimelineState struct {
	Day        time.Time
	Entries    []TimelineEntry
	Slots      []model.TimeSlot
	MostlyFree bool
	Cursor     int
}

type FocusState struct {
	BlockID       string
	Block         model.FocusBlock
	CurrentTaskID string
	StartedAt     *time.Time
	Exhausted     bool
	Running       bool
	// SkippedThisPass tracks which open tasks were skipped since the
	// pass started; it resets whenever the queue composition changes.
	SkippedThisPass map[string]bool
}

type ReviewState struct {
	WeekShown bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Snapshot       engine.Snapshot
	Plan           PlanState
	Timeline       TimelineState
	Focus          FocusState
	Review         ReviewState
	Palette        CommandPaletteState
	TagFilter      string
	Engine         *engine.Engine
	Reminders      *reminder.Engine
	AlertLog       []reminder.Alert
	AlertAck       map[string]bool
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	notifier       DesktopNotifier
	Status         StatusBar
	Keys           GlobalKeyMap
	// DefaultTaskMinutes is the runtime fallback estimate for tasks
	// without an explicit duration.
	DefaultTaskMinutes int
	Quitting       bool
	LastError      error
	// Bubble components used for rich TUI controls
	planList       list.Model
	timelineTable  table.Model
	quickAddInput  textinput.Model
	commandInput   textinput.Model
	notesArea      textarea.Model
	focusProgress  progress.Model
	syncSpinner    spinner.Model
	helpModel      help.Model
	detailViewport viewport.Model
	spinnerActive  bool
	quickAddActive bool
	notesActive    bool

	now func() time.Time
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type SyncedMsg struct {
	Snapshot engine.Snapshot
}

type TimelineLoadedMsg struct {
	Day        time.Time
	Entries    []TimelineEntry
	Slots      gap.Result
}

type FocusLoadedMsg struct {
	Block model.FocusBlock
}

type FocusTickMsg struct{}

type AlertDueMsg struct {
	Alert reminder.Alert
}

type AcknowledgeAlertMsg struct {
	ID string
}

func NewModel() Model {
	m := Model{
		CurrentView: ViewPlan,
		Timeline: TimelineState{
			Day: startOfDay(time.Now().UTC()),
		},
		AlertAck:           make(map[string]bool),
		DesktopEnabled:     false,
		DefaultTaskMinutes: model.DefaultDurationMinutes,
		notifier:           NoopDesktopNotifier{},
		Keys: GlobalKeyMap{
			Plan:     "1",
			Timeline: "2",
			Focus:    "3",
			Review:   "4",
			Help:     "?",
			Quit:     "q",
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func NewModelWithEngine(eng *engine.Engine) Model {
	m := NewModel()
	m.Engine = eng
	return m
}

func NewModelWithConfig(eng *engine.Engine, reminders *reminder.Engine, notifier DesktopNotifier, cfg RuntimeConfig) Model {
	m := NewModel()
	m.Engine = eng
	m.Reminders = reminders
	m.DesktopEnabled = cfg.DesktopNotifications
	if cfg.DefaultTaskMinutes > 0 {
		m.DefaultTaskMinutes = cfg.DefaultTaskMinutes
	}
	if notifier != nil {
		m.notifier = notifier
	}
	if eng != nil {
		eng.CompletedDays = cfg.HistoryDays
		eng.SetWindow(cfg.Window())
	}
	return m
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
