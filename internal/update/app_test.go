package update

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fbecker/blockplan/internal/engine"
	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/priority"
	"github.com/fbecker/blockplan/internal/reminder"
)

func alertFixture() reminder.Alert {
	return reminder.Alert{
		ID:        "block-start:blk",
		Kind:      reminder.KindBlockStarting,
		Subject:   "blk",
		Title:     "Morning block",
		TriggerAt: fixedNow(),
	}
}

func fixedNow() time.Time {
	return time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)
}

func testSnapshot(now time.Time) engine.Snapshot {
	due := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	tasks := []model.PlanItem{
		{ID: "late", Title: "File the report", Importance: model.ImportanceHigh, Urgency: model.UrgencyUrgent, DueAt: &due, CreatedAt: now.AddDate(0, 0, -5)},
		{ID: "loose", Title: "Learn woodworking", CreatedAt: now, Tags: []string{"hobby"}},
	}
	return engine.Snapshot{Items: priority.Rank(tasks, now), SyncedAt: now}
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel()
	if m.CurrentView != ViewPlan {
		t.Fatalf("expected default view %q, got %q", ViewPlan, m.CurrentView)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if m.Keys.Plan != "1" || m.Keys.Review != "4" {
		t.Fatalf("unexpected view keys: %+v", m.Keys)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := NewModel()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	next := updated.(Model)
	if next.CurrentView != ViewFocus {
		t.Fatalf("expected focus view, got %q", next.CurrentView)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	next = updated.(Model)
	if next.CurrentView != ViewReview {
		t.Fatalf("expected review view, got %q", next.CurrentView)
	}
}

func TestUpdateSwitchViewMsg(t *testing.T) {
	m := NewModel()
	updated, _ := m.Update(SwitchViewMsg{View: ViewReview})
	next := updated.(Model)
	if next.CurrentView != ViewReview {
		t.Fatalf("expected review view, got %q", next.CurrentView)
	}

	updated, _ = next.Update(SwitchViewMsg{View: View("Unknown")})
	next = updated.(Model)
	if next.CurrentView != ViewReview {
		t.Fatalf("expected view unchanged for unknown view, got %q", next.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel()
	updated, _ := m.Update(SetStatusMsg{Text: "ready", IsError: false})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	errMsg := errors.New("boom")
	updated, _ = next.Update(AppErrorMsg{Err: errMsg})
	next = updated.(Model)
	if next.LastError == nil || next.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", next.LastError)
	}
	if !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m := NewModel()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestSyncedMsgAppliesSnapshot(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	updated, _ := m.Update(SyncedMsg{Snapshot: testSnapshot(fixedNow())})
	next := updated.(Model)

	if len(next.Snapshot.Items) != 2 {
		t.Fatalf("expected 2 snapshot items, got %d", len(next.Snapshot.Items))
	}
	if next.SelectedTaskID != "late" {
		t.Fatalf("expected top item selected, got %q", next.SelectedTaskID)
	}

	out := next.View()
	if !strings.Contains(out, "Do Now:") || !strings.Contains(out, "Someday:") {
		t.Fatalf("missing tier sections in plan view: %q", out)
	}
	if !strings.Contains(out, "[RED] File the report") {
		t.Fatalf("missing overdue marker: %q", out)
	}
	if !strings.Contains(out, "Learn woodworking") {
		t.Fatalf("missing someday item: %q", out)
	}
}

func TestPlanTagFilterNarrowsItems(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	m.Snapshot = testSnapshot(fixedNow())
	m.TagFilter = "hobby"

	items := m.visiblePlanItems()
	if len(items) != 1 || items[0].Task.ID != "loose" {
		t.Fatalf("tag filter result = %+v", items)
	}
}

func TestPlanCursorNavigation(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	m.Snapshot = testSnapshot(fixedNow())
	m.syncSelectedTask()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	next := updated.(Model)
	if next.Plan.Cursor != 1 || next.SelectedTaskID != "loose" {
		t.Fatalf("cursor = %d selected = %q", next.Plan.Cursor, next.SelectedTaskID)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	next = updated.(Model)
	if next.Plan.Cursor != 1 {
		t.Fatalf("cursor moved past end: %d", next.Plan.Cursor)
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	next = updated.(Model)
	if next.Plan.Cursor != 0 || next.SelectedTaskID != "late" {
		t.Fatalf("cursor = %d selected = %q", next.Plan.Cursor, next.SelectedTaskID)
	}
}

func TestTimelineLoadedMsgPopulatesDay(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	day := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	msg := TimelineLoadedMsg{
		Day: day,
		Entries: []TimelineEntry{
			{ID: "ev", Title: "Standup", Kind: "event", StartAt: day.Add(9 * time.Hour), EndAt: day.Add(10 * time.Hour)},
			{ID: "blk", Title: "Deep work", Kind: "block", StartAt: day.Add(10 * time.Hour), EndAt: day.Add(11 * time.Hour)},
		},
	}
	msg.Slots.Slots = []model.TimeSlot{
		{StartAt: day.Add(11 * time.Hour), EndAt: day.Add(12 * time.Hour)},
	}

	updated, _ := m.Update(msg)
	next := updated.(Model)
	next.CurrentView = ViewTimeline
	out := next.View()
	if !strings.Contains(out, "[EVENT] 09:00-10:00 Standup") {
		t.Fatalf("missing event row: %q", out)
	}
	if !strings.Contains(out, "[BLOCK] 10:00-11:00 Deep work") {
		t.Fatalf("missing block row: %q", out)
	}
	if !strings.Contains(out, "11:00-12:00 open") {
		t.Fatalf("missing free slot: %q", out)
	}
}

func TestFocusViewRendersQueue(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	m.Snapshot = testSnapshot(fixedNow())

	day := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	b := model.FocusBlock{
		ID:      "blk",
		Title:   "Morning block",
		StartAt: day.Add(9 * time.Hour),
		EndAt:   day.Add(10 * time.Hour),
		TaskIDs: []string{"late", "loose"},
	}
	m = m.applyFocusBlock(b)
	if m.Focus.CurrentTaskID != "late" {
		t.Fatalf("current task = %q, want late", m.Focus.CurrentTaskID)
	}

	m.CurrentView = ViewFocus
	out := m.View()
	if !strings.Contains(out, "block: Morning block 09:00-10:00") {
		t.Fatalf("missing block header: %q", out)
	}
	if !strings.Contains(out, "> [ ] File the report") {
		t.Fatalf("missing current task marker: %q", out)
	}
	if !strings.Contains(out, "[ ] Learn woodworking") {
		t.Fatalf("missing queued task: %q", out)
	}
}

func TestFocusExhaustedPrompt(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	day := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	b := model.FocusBlock{
		ID:               "blk",
		Title:            "Done block",
		StartAt:          day.Add(9 * time.Hour),
		EndAt:            day.Add(10 * time.Hour),
		TaskIDs:          []string{"late"},
		CompletedTaskIDs: []string{"late"},
	}
	m = m.applyFocusBlock(b)
	if !m.Focus.Exhausted {
		t.Fatal("expected exhausted focus state")
	}
	m.CurrentView = ViewFocus
	if out := m.View(); !strings.Contains(out, "queue exhausted") {
		t.Fatalf("missing exhausted prompt: %q", out)
	}
}

func TestFocusSkipPassEndsInExhaustion(t *testing.T) {
	day := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	blocks := newMemBlockStore()
	blocks.blocks["blk"] = model.FocusBlock{
		ID:      "blk",
		Title:   "Morning block",
		StartAt: day.Add(9 * time.Hour),
		EndAt:   day.Add(10 * time.Hour),
		TaskIDs: []string{"late", "loose"},
	}

	m := NewModelWithEngine(engine.New(newMemTaskStore(), blocks))
	m.now = fixedNow
	m.Snapshot = testSnapshot(fixedNow())
	m = m.applyFocusBlock(blocks.blocks["blk"])
	m.CurrentView = ViewFocus

	skip := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}

	updated, _ := m.Update(skip)
	next := updated.(Model)
	if next.Focus.Exhausted {
		t.Fatal("first skip with an unskipped task remaining must not exhaust the queue")
	}
	if !next.Focus.SkippedThisPass["late"] {
		t.Fatalf("skip pass record = %v, want late marked", next.Focus.SkippedThisPass)
	}
	if next.Focus.CurrentTaskID != "loose" {
		t.Fatalf("current task = %q, want loose", next.Focus.CurrentTaskID)
	}

	updated, _ = next.Update(skip)
	next = updated.(Model)
	if !next.Focus.Exhausted {
		t.Fatal("skipping the last unskipped open task must exhaust the queue")
	}
	if next.Focus.SkippedThisPass != nil {
		t.Fatalf("exhaustion must start a fresh pass, got %v", next.Focus.SkippedThisPass)
	}
	if !strings.Contains(next.Status.Text, "queue exhausted") {
		t.Fatalf("status = %q, want exhausted prompt", next.Status.Text)
	}
}

func TestPaletteParseErrorSurfacesStatus(t *testing.T) {
	m := NewModel()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	next := updated.(Model)
	if !next.Palette.Active {
		t.Fatal("expected palette active")
	}

	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("frobnicate")})
	next = updated.(Model)
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next = updated.(Model)

	if next.Palette.Active {
		t.Fatal("expected palette closed after enter")
	}
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "unknown_command") {
		t.Fatalf("unexpected status: %+v", next.Status)
	}
}

func TestQuickAddEscapeCancels(t *testing.T) {
	m := NewModel()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	next := updated.(Model)
	if !next.quickAddActive {
		t.Fatal("expected quick add active")
	}
	updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	next = updated.(Model)
	if next.quickAddActive {
		t.Fatal("expected quick add cancelled")
	}
}

func TestReviewViewGroupsCompletions(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	today := time.Date(2026, time.August, 24, 8, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, time.August, 21, 8, 0, 0, 0, time.UTC)
	m.Snapshot.Completed = []model.PlanItem{
		{ID: "a", Title: "Morning pages", IsCompleted: true, CompletedAt: &today},
		{ID: "b", Title: "Weekly review", IsCompleted: true, CompletedAt: &earlier},
	}
	m.CurrentView = ViewReview

	out := m.View()
	if !strings.Contains(out, "completed today (1)") || !strings.Contains(out, "Morning pages") {
		t.Fatalf("missing today section: %q", out)
	}
	if strings.Contains(out, "Weekly review") {
		t.Fatalf("week section shown without toggle: %q", out)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	next := updated.(Model)
	out = next.View()
	if !strings.Contains(out, "completed this week (2)") || !strings.Contains(out, "Weekly review") {
		t.Fatalf("missing week section: %q", out)
	}
}

func TestAlertDueMsgLogsAndNotifies(t *testing.T) {
	m := NewModel()
	m.now = fixedNow
	alert := alertFixture()
	updated, _ := m.Update(AlertDueMsg{Alert: alert})
	next := updated.(Model)
	if len(next.AlertLog) != 1 {
		t.Fatalf("expected 1 alert logged, got %d", len(next.AlertLog))
	}
	if !strings.Contains(next.Status.Text, "focus block starting soon") {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	updated, _ = next.Update(AcknowledgeAlertMsg{ID: alert.ID})
	next = updated.(Model)
	if !next.AlertAck[alert.ID] {
		t.Fatal("expected alert acknowledged")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m := NewModel()
	m.SelectedTaskID = "task-42"
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	if !strings.Contains(out, "view: Plan") {
		t.Fatalf("expected view text in output: %q", out)
	}
	if !strings.Contains(out, "selected: task-42") {
		t.Fatalf("expected selected task in output: %q", out)
	}
	if !strings.Contains(out, "status: all good") {
		t.Fatalf("expected status in output: %q", out)
	}
}
