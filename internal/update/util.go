package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/fbecker/blockplan/internal/block"
	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/priority"
)

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func formatDuration(totalSec int) string {
	if totalSec < 0 {
		totalSec = 0
	}
	min := totalSec / 60
	sec := totalSec % 60
	return fmt.Sprintf("%02d:%02d", min, sec)
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

// visiblePlanItems applies the active tag filter to the ranked backlog.
func (m Model) visiblePlanItems() []priority.Ranked {
	if m.TagFilter == "" {
		return m.Snapshot.Items
	}
	out := make([]priority.Ranked, 0, len(m.Snapshot.Items))
	for _, ranked := range m.Snapshot.Items {
		if hasTag(ranked.Task, m.TagFilter) {
			out = append(out, ranked)
		}
	}
	return out
}

func hasTag(task model.PlanItem, tag string) bool {
	for _, t := range task.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (m Model) selectedPlanItem() (priority.Ranked, bool) {
	items := m.visiblePlanItems()
	if m.Plan.Cursor < 0 || m.Plan.Cursor >= len(items) {
		return priority.Ranked{}, false
	}
	return items[m.Plan.Cursor], true
}

// taskMinutes resolves a task's effective estimate, falling back to the
// configured default when the task carries no explicit duration or is
// not in the current snapshot.
func (m Model) taskMinutes(taskID string) int {
	for _, ranked := range m.Snapshot.Items {
		if ranked.Task.ID == taskID {
			minutes, _ := ranked.Task.EffectiveDurationWith(m.DefaultTaskMinutes)
			return minutes
		}
	}
	if m.DefaultTaskMinutes > 0 {
		return m.DefaultTaskMinutes
	}
	return model.DefaultDurationMinutes
}

func (m Model) taskTitle(taskID string) string {
	for _, ranked := range m.Snapshot.Items {
		if ranked.Task.ID == taskID {
			return ranked.Task.Title
		}
	}
	for _, task := range m.Snapshot.Completed {
		if task.ID == taskID {
			return task.Title
		}
	}
	return taskID
}

func taskProgressAt(startedAt time.Time, now time.Time, durationMinutes int) float64 {
	return block.TaskProgress(startedAt, now, durationMinutes).Fraction
}
