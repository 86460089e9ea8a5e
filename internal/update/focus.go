package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/block"
	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/views"
)

// applyFocusBlock loads a block into the focus session and points the
// timer at its first open task. Switching blocks starts a fresh skip
// pass.
func (m Model) applyFocusBlock(b model.FocusBlock) Model {
	if m.Focus.BlockID != b.ID {
		m.Focus.SkippedThisPass = nil
	}
	m.Focus.BlockID = b.ID
	m.Focus.Block = b
	m.Focus.Exhausted = false
	if current, ok := block.CurrentTask(b); ok {
		if m.Focus.CurrentTaskID != current || m.Focus.StartedAt == nil {
			started := m.now()
			m.Focus.StartedAt = &started
		}
		m.Focus.CurrentTaskID = current
		m.Focus.Running = true
	} else {
		m.Focus.CurrentTaskID = ""
		m.Focus.StartedAt = nil
		m.Focus.Running = false
		m.Focus.Exhausted = len(b.TaskIDs) > 0
	}
	return m
}

func (m Model) handleFocusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Focus.BlockID == "" || m.Engine == nil {
		return m, nil
	}
	switch msg.String() {
	case " ":
		m.Focus.Running = !m.Focus.Running
		if m.Focus.Running {
			m.Status = StatusBar{Text: "focus running", IsError: false}
			return m, focusTickCmd()
		}
		m.Status = StatusBar{Text: "focus paused", IsError: false}
		return m, nil
	case "enter":
		if m.Focus.CurrentTaskID == "" {
			return m, nil
		}
		updated, err := m.Engine.CompleteBlockTask(context.Background(), m.Focus.BlockID, m.Focus.CurrentTaskID, m.Focus.StartedAt, m.now())
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "task completed", IsError: false}
		next := m.applyFocusBlock(updated)
		next.Focus.SkippedThisPass = nil
		return next, tea.Batch(next.syncCmd(), focusTickCmd())
	case "s":
		if m.Focus.CurrentTaskID == "" {
			return m, nil
		}
		skipped := m.Focus.CurrentTaskID
		updated, result, err := m.Engine.SkipBlockTask(context.Background(), m.Focus.BlockID, skipped, m.Focus.SkippedThisPass, m.Focus.StartedAt, m.now())
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		next := m.applyFocusBlock(updated)
		if result == block.ResultExhausted {
			next.Focus.SkippedThisPass = nil
			next.Focus.Exhausted = true
			next.Focus.Running = false
			next.Status = StatusBar{Text: "queue exhausted; pull in another task or end the block", IsError: false}
			return next, nil
		}
		if next.Focus.SkippedThisPass == nil {
			next.Focus.SkippedThisPass = make(map[string]bool)
		}
		next.Focus.SkippedThisPass[skipped] = true
		next.Status = StatusBar{Text: "task skipped to the end of the queue", IsError: false}
		return next, focusTickCmd()
	case "u":
		if m.Focus.CurrentTaskID == "" {
			return m, nil
		}
		updated, err := m.Engine.RemoveBlockTask(context.Background(), m.Focus.BlockID, m.Focus.CurrentTaskID)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "task returned to next up", IsError: false}
		next := m.applyFocusBlock(updated)
		next.Focus.SkippedThisPass = nil
		return next, next.syncCmd()
	case "J":
		return m.reorderCurrent(1)
	case "K":
		return m.reorderCurrent(-1)
	}
	return m, nil
}

// reorderCurrent moves the current task by one position in the queue.
func (m Model) reorderCurrent(delta int) (tea.Model, tea.Cmd) {
	ids := append([]string(nil), m.Focus.Block.TaskIDs...)
	idx := -1
	for i, id := range ids {
		if id == m.Focus.CurrentTaskID {
			idx = i
			break
		}
	}
	target := idx + delta
	if idx < 0 || target < 0 || target >= len(ids) {
		return m, nil
	}
	ids[idx], ids[target] = ids[target], ids[idx]
	updated, err := m.Engine.ReorderBlock(context.Background(), m.Focus.BlockID, ids)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	next := m.applyFocusBlock(updated)
	return next, nil
}

func (m Model) onFocusTick() (tea.Model, tea.Cmd) {
	if !m.Focus.Running || m.Focus.CurrentTaskID == "" || m.Focus.StartedAt == nil {
		return m, nil
	}
	progress := block.TaskProgress(*m.Focus.StartedAt, m.now(), m.taskMinutes(m.Focus.CurrentTaskID))
	if progress.RemainingSeconds == 0 {
		m.Status = StatusBar{Text: "estimate reached; complete or skip the task", IsError: false}
	}
	return m, focusTickCmd()
}

func (m Model) renderFocusView() string {
	if m.Focus.BlockID == "" {
		return views.RenderFocusPanel(views.FocusPanelData{})
	}
	b := m.Focus.Block
	data := views.FocusPanelData{
		BlockTitle:  b.Title,
		BlockWindow: fmt.Sprintf("%s-%s", clock(b.StartAt), clock(b.EndAt)),
		Exhausted:   m.Focus.Exhausted,
	}
	if m.Focus.CurrentTaskID != "" && m.Focus.StartedAt != nil {
		progress := block.TaskProgress(*m.Focus.StartedAt, m.now(), m.taskMinutes(m.Focus.CurrentTaskID))
		data.CurrentTitle = m.taskTitle(m.Focus.CurrentTaskID)
		data.Timer = formatDuration(progress.RemainingSeconds)
		data.ProgressView = m.focusProgress.View()
		data.ProgressPct = int(progress.Fraction * 100)
	}
	for _, id := range b.TaskIDs {
		data.Queue = append(data.Queue, views.FocusQueueItemData{
			ID:        id,
			Title:     m.taskTitle(id),
			Completed: b.IsTaskCompleted(id),
			Current:   id == m.Focus.CurrentTaskID,
		})
	}
	return views.RenderFocusPanel(data)
}
