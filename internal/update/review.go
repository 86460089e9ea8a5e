package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/engine"
	"github.com/fbecker/blockplan/internal/views"
)

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "t":
		m.Review.WeekShown = false
		return m, nil
	case "w":
		m.Review.WeekShown = true
		return m, nil
	}
	return m, nil
}

func (m Model) renderReviewView() string {
	now := m.now()
	data := views.ReviewPanelData{WeekShown: m.Review.WeekShown}
	for _, task := range engine.CompletedToday(m.Snapshot, now) {
		data.Today = append(data.Today, views.ReviewItemData{
			Title:       task.Title,
			CompletedAt: clock(*task.CompletedAt),
		})
	}
	for _, task := range engine.CompletedThisWeek(m.Snapshot, now) {
		data.Week = append(data.Week, views.ReviewItemData{
			Title:       task.Title,
			CompletedAt: task.CompletedAt.Format("Mon 15:04"),
		})
	}
	return views.RenderReviewPanel(data)
}
