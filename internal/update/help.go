package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/fbecker/blockplan/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Plan, Action: "switch to Plan"},
		{Key: m.Keys.Timeline, Action: "switch to Timeline"},
		{Key: m.Keys.Focus, Action: "switch to Focus"},
		{Key: m.Keys.Review, Action: "switch to Review"},
		{Key: "/", Action: "open command palette"},
		{Key: "S", Action: "sync now"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewPlan:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "enter", Action: "complete task"},
			{Key: "n", Action: "toggle next up"},
			{Key: "a", Action: "assign to first block of day"},
			{Key: "o", Action: "quick add"},
			{Key: "e", Action: "edit notes"},
			{Key: "x", Action: "delete task"},
		}
	case ViewTimeline:
		return []KeyBinding{
			{Key: "h/l", Action: "previous/next day"},
			{Key: "t", Action: "jump to today"},
			{Key: "j/k", Action: "move cursor"},
			{Key: "b", Action: "create block from selected slot"},
			{Key: "X", Action: "delete selected block"},
			{Key: "enter", Action: "start focus on selected block"},
		}
	case ViewFocus:
		return []KeyBinding{
			{Key: "space", Action: "pause/resume timer"},
			{Key: "enter", Action: "complete current task"},
			{Key: "s", Action: "skip current task"},
			{Key: "J/K", Action: "move task down/up the queue"},
			{Key: "u", Action: "return task to next up"},
		}
	case ViewReview:
		return []KeyBinding{
			{Key: "t", Action: "completed today"},
			{Key: "w", Action: "completed this week"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
