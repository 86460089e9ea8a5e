package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/commands"
	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/views"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.Engine == nil {
		m.Status = StatusBar{Text: "no engine attached", IsError: true}
		return m, nil
	}

	ctx := context.Background()
	refresh := false
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			task, buildErr := m.buildTaskFromAdd(a)
			if buildErr != nil {
				return commands.Result{}, buildErr
			}
			created, createErr := m.Engine.CreateTask(ctx, task, m.now())
			if createErr != nil {
				return commands.Result{}, createErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("added: %s", created.Title)}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			if doneErr := m.Engine.CompleteTask(ctx, a.Target, m.now()); doneErr != nil {
				return commands.Result{}, doneErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("completed: %s", a.Target)}, nil
		},
		Reopen: func(a commands.ReopenArgs) (commands.Result, error) {
			if reopenErr := m.Engine.UncompleteTask(ctx, a.Target); reopenErr != nil {
				return commands.Result{}, reopenErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("reopened: %s", a.Target)}, nil
		},
		NextUp: func(a commands.NextUpArgs) (commands.Result, error) {
			if nuErr := m.Engine.SetNextUp(ctx, a.Target, !a.Off); nuErr != nil {
				return commands.Result{}, nuErr
			}
			refresh = true
			verb := "staged"
			if a.Off {
				verb = "unstaged"
			}
			return commands.Result{Message: fmt.Sprintf("%s: %s", verb, a.Target)}, nil
		},
		Assign: func(a commands.AssignArgs) (commands.Result, error) {
			if asgErr := m.Engine.AssignToBlock(ctx, a.Target, a.Block); asgErr != nil {
				return commands.Result{}, asgErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("assigned %s to %s", a.Target, a.Block)}, nil
		},
		Duration: func(a commands.DurationArgs) (commands.Result, error) {
			if durErr := m.Engine.UpdateDuration(ctx, a.Target, a.Minutes); durErr != nil {
				return commands.Result{}, durErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("estimate for %s set to %dm", a.Target, a.Minutes)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			if a.All {
				if delErr := m.Engine.DeleteSeries(ctx, a.Target); delErr != nil {
					return commands.Result{}, delErr
				}
				refresh = true
				return commands.Result{Message: fmt.Sprintf("series deleted: %s", a.Target)}, nil
			}
			if delErr := m.Engine.DeleteTask(ctx, a.Target); delErr != nil {
				return commands.Result{}, delErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("deleted: %s", a.Target)}, nil
		},
		End: func(a commands.EndArgs) (commands.Result, error) {
			if endErr := m.Engine.Series().EndSeries(ctx, a.Group, m.now()); endErr != nil {
				return commands.Result{}, endErr
			}
			refresh = true
			return commands.Result{Message: fmt.Sprintf("series ended: %s", a.Group)}, nil
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			m.TagFilter = a.Tag
			switch a.Subject {
			case "plan", "someday":
				m.CurrentView = ViewPlan
			case "today", "week":
				m.CurrentView = ViewReview
				m.Review.WeekShown = a.Subject == "week"
			case "blocks":
				m.CurrentView = ViewTimeline
			}
			return commands.Result{Message: fmt.Sprintf("show %s", a.Subject)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}

	m.Status = StatusBar{Text: res.Message, IsError: false}
	m.notify("Command", res.Message, "info")
	if refresh {
		return m, tea.Batch(m.syncCmd(), m.timelineCmd(m.Timeline.Day))
	}
	return m, nil
}

func (m Model) submitQuickAdd(line string) (tea.Model, tea.Cmd) {
	line = strings.TrimSpace(line)
	if line == "" {
		return m, nil
	}
	cmd, err := commands.Parse("add " + line)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.Engine == nil {
		m.Status = StatusBar{Text: "no engine attached", IsError: true}
		return m, nil
	}
	task, err := m.buildTaskFromAdd(*cmd.Add)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	created, err := m.Engine.CreateTask(context.Background(), task, m.now())
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: fmt.Sprintf("added: %s", created.Title), IsError: false}
	return m, m.syncCmd()
}

func (m Model) buildTaskFromAdd(a commands.AddArgs) (model.PlanItem, error) {
	task := model.PlanItem{
		Title:             a.Title,
		Tags:              a.Tags,
		EstimatedDuration: a.DurationMinutes,
		Recurrence:        model.NoRecurrence(),
	}
	switch a.Importance {
	case "high":
		task.Importance = model.ImportanceHigh
	case "medium":
		task.Importance = model.ImportanceMedium
	case "low":
		task.Importance = model.ImportanceLow
	}
	if a.Urgent {
		task.Urgency = model.UrgencyUrgent
	}

	if a.Due != "" {
		due, err := parseDueToken(a.Due, m.now())
		if err != nil {
			return model.PlanItem{}, err
		}
		task.DueAt = &due
	}
	if a.Every != "" {
		rec, err := parseEveryToken(a.Every, task.DueAt, m.now())
		if err != nil {
			return model.PlanItem{}, err
		}
		task.Recurrence = rec
	}
	return task, nil
}

func parseDueToken(token string, now time.Time) (time.Time, error) {
	switch token {
	case "today":
		return startOfDay(now), nil
	case "tomorrow":
		return startOfDay(now).AddDate(0, 0, 1), nil
	}
	due, err := time.ParseInLocation("2006-01-02", token, now.Location())
	if err != nil {
		return time.Time{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("bad due token: %s", token)}
	}
	return due, nil
}

func parseEveryToken(token string, due *time.Time, now time.Time) (model.Recurrence, error) {
	anchor := now
	if due != nil {
		anchor = *due
	}
	switch token {
	case "day", "daily":
		return model.Daily(), nil
	case "week", "weekly":
		return model.Weekly(anchor.Weekday()), nil
	case "2weeks", "biweekly":
		return model.Biweekly(anchor.Weekday()), nil
	case "month", "monthly":
		return model.Monthly(anchor.Day()), nil
	default:
		return model.Recurrence{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("bad every token: %s", token)}
	}
}

func (m Model) renderCommandPalette() string {
	out := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
	if out == "" {
		return ""
	}
	return "\n" + out + "\n" + m.commandInput.View() + "\n"
}
