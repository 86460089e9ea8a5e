package views

import (
	"fmt"
	"strings"
)

type PlanItemData struct {
	ID       string
	Title    string
	Tier     string
	Score    int
	Overdue  bool
	NextUp   bool
	Assigned bool
	Due      string
	Minutes  int
	Tags     []string
}

type PlanPanelData struct {
	ListView   string
	Items      []PlanItemData
	SelectedID string
	TagFilter  string
}

type TimelineEntryData struct {
	ID    string
	Title string
	Start string
	End   string
	Kind  string
}

type TimelinePanelData struct {
	Day        string
	TableView  string
	Entries    []TimelineEntryData
	Slots      []TimelineEntryData
	MostlyFree bool
	Selected   *TimelineEntryData
}

type FocusQueueItemData struct {
	ID        string
	Title     string
	Completed bool
	Current   bool
}

type FocusPanelData struct {
	BlockTitle   string
	BlockWindow  string
	CurrentTitle string
	Timer        string
	ProgressView string
	ProgressPct  int
	Queue        []FocusQueueItemData
	Exhausted    bool
}

type ReviewItemData struct {
	Title       string
	CompletedAt string
}

type ReviewPanelData struct {
	Today     []ReviewItemData
	Week      []ReviewItemData
	WeekShown bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

type TaskDetailData struct {
	SelectedID  string
	Tier        string
	Score       int
	Due         string
	Minutes     int
	Source      string
	Reschedules int
	Tags        []string
	Recurrence  string
	Markdown    string
}

func RenderPlanPanel(data PlanPanelData) string {
	var b strings.Builder
	b.WriteString("plan:\n")
	if data.TagFilter != "" {
		b.WriteString(fmt.Sprintf("filter: tag=%s\n", data.TagFilter))
	}
	b.WriteString("actions: [j/k]move [enter]done [n]nextup [a]assign [x]delete\n")
	b.WriteString(data.ListView + "\n")

	renderPlanSection(&b, "Do Now", data.Items, "do_now", data.SelectedID)
	renderPlanSection(&b, "Plan Soon", data.Items, "plan_soon", data.SelectedID)
	renderPlanSection(&b, "Eventually", data.Items, "eventually", data.SelectedID)
	renderPlanSection(&b, "Someday", data.Items, "someday", data.SelectedID)
	return strings.TrimSpace(b.String())
}

func RenderTimelinePanel(data TimelinePanelData) string {
	var b strings.Builder
	b.WriteString("timeline:\n")
	b.WriteString(fmt.Sprintf("day: %s", data.Day))
	if data.MostlyFree {
		b.WriteString(" (mostly free)")
	}
	b.WriteString("\nactions: [h/l]day [j/k]move [b]block-from-slot [X]delete-block\n")
	b.WriteString(data.TableView + "\n")

	if len(data.Entries) == 0 && len(data.Slots) == 0 {
		b.WriteString("(empty day)")
		return strings.TrimSpace(b.String())
	}
	for _, entry := range data.Entries {
		cursor := " "
		if data.Selected != nil && data.Selected.ID == entry.ID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s-%s %s\n", cursor, strings.ToUpper(entry.Kind), entry.Start, entry.End, entry.Title))
	}
	if len(data.Slots) > 0 {
		b.WriteString("\nfree slots:\n")
		for _, slot := range data.Slots {
			cursor := " "
			if data.Selected != nil && data.Selected.ID == slot.ID {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s %s-%s open\n", cursor, slot.Start, slot.End))
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderFocusPanel(data FocusPanelData) string {
	var b strings.Builder
	b.WriteString("focus:\n")
	if data.BlockTitle == "" {
		b.WriteString("block: (none active)\n")
		b.WriteString("pick a block on the timeline to start a session")
		return strings.TrimSpace(b.String())
	}
	b.WriteString(fmt.Sprintf("block: %s %s\n", data.BlockTitle, data.BlockWindow))
	if data.CurrentTitle != "" {
		b.WriteString(fmt.Sprintf("now: %s\n", data.CurrentTitle))
		b.WriteString(fmt.Sprintf("timer: %s\n", data.Timer))
		b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	}
	b.WriteString("queue:\n")
	for _, item := range data.Queue {
		mark := "[ ]"
		if item.Completed {
			mark = "[x]"
		}
		cursor := " "
		if item.Current {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, mark, item.Title))
	}
	b.WriteString("actions: [enter]complete [s]skip [J/K]reorder [u]unassign\n")
	if data.Exhausted {
		b.WriteString("prompt: queue exhausted, pull in another task or end the block")
	}
	return strings.TrimSpace(b.String())
}

func RenderReviewPanel(data ReviewPanelData) string {
	var b strings.Builder
	b.WriteString("review:\n")
	b.WriteString("actions: [t]today [w]week\n")
	b.WriteString(fmt.Sprintf("\ncompleted today (%d):\n", len(data.Today)))
	if len(data.Today) == 0 {
		b.WriteString("  (nothing yet)\n")
	}
	for _, item := range data.Today {
		b.WriteString(fmt.Sprintf("- %s %s\n", item.CompletedAt, item.Title))
	}
	if data.WeekShown {
		b.WriteString(fmt.Sprintf("\ncompleted this week (%d):\n", len(data.Week)))
		for _, item := range data.Week {
			b.WriteString(fmt.Sprintf("- %s %s\n", item.CompletedAt, item.Title))
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("\nnotification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nglobal:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func RenderTaskDetail(data TaskDetailData) string {
	if strings.TrimSpace(data.SelectedID) == "" {
		return "detail:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("detail:\n")
	b.WriteString(fmt.Sprintf("id: %s\n", data.SelectedID))
	b.WriteString(fmt.Sprintf("tier: %s (score %d)\n", data.Tier, data.Score))
	if data.Due != "" {
		b.WriteString(fmt.Sprintf("due: %s\n", data.Due))
	}
	b.WriteString(fmt.Sprintf("estimate: %dm (%s)\n", data.Minutes, data.Source))
	if data.Reschedules > 0 {
		b.WriteString(fmt.Sprintf("reschedules: %d\n", data.Reschedules))
	}
	if len(data.Tags) > 0 {
		b.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(data.Tags, ",")))
	}
	if data.Recurrence != "" {
		b.WriteString(fmt.Sprintf("repeats: %s\n", data.Recurrence))
	}
	if data.Markdown != "" {
		b.WriteString("\nnotes:\n" + data.Markdown)
	}
	return strings.TrimSpace(b.String())
}

func renderPlanSection(b *strings.Builder, title string, items []PlanItemData, tier string, selectedID string) {
	section := make([]PlanItemData, 0)
	for _, item := range items {
		if item.Tier == tier {
			section = append(section, item)
		}
	}
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	if len(section) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, item := range section {
		cursor := " "
		if selectedID == item.ID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, scoreBadge(item), item.Title))
		if item.NextUp {
			b.WriteString(" *next")
		}
		if item.Assigned {
			b.WriteString(" *blocked-in")
		}
		if item.Due != "" {
			b.WriteString(fmt.Sprintf(" due:%s", item.Due))
		}
		b.WriteString(fmt.Sprintf(" %dm", item.Minutes))
		b.WriteString("\n")
	}
}

func scoreBadge(item PlanItemData) string {
	if item.Overdue {
		return "[RED]"
	}
	if item.Tier == "do_now" {
		return "[YELLOW]"
	}
	return "[GREEN]"
}
