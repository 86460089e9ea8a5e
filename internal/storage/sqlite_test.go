package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "blockplan-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func storeTask(id string) model.PlanItem {
	return model.PlanItem{
		ID:         id,
		Title:      "Task " + id,
		Importance: model.ImportanceMedium,
		Urgency:    model.UrgencyNotUrgent,
		Category:   model.CategoryMaintenance,
		Tags:       []string{"home", "errand"},
		CreatedAt:  time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Recurrence: model.NoRecurrence(),
	}
}

func TestTaskRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	due := time.Date(2026, 8, 26, 17, 0, 0, 0, time.UTC)
	task := storeTask("task-1")
	task.DueAt = &due
	task.EstimatedDuration = 45
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := store.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.Importance != model.ImportanceMedium || got.EstimatedDuration != 45 {
		t.Fatalf("unexpected round trip: %#v", got)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Fatalf("due date lost in round trip: %v", got.DueAt)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "home" {
		t.Fatalf("tags lost in round trip: %v", got.Tags)
	}

	got.Title = "Renamed"
	if err := store.UpdateTask(ctx, got); err != nil {
		t.Fatalf("update task: %v", err)
	}

	if err := store.DeleteTask(ctx, "task-1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := store.GetTask(ctx, "task-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecurrenceFieldsRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	template := storeTask("tpl-1")
	template.IsTemplate = true
	template.Recurrence = model.Weekly(time.Monday, time.Thursday)
	template.RecurrenceGroupID = "group-1"
	if err := store.CreateTask(ctx, template); err != nil {
		t.Fatalf("create template: %v", err)
	}

	got, err := store.GetTask(ctx, "tpl-1")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if !got.IsTemplate || got.Recurrence.Kind != model.RecurrenceWeekly {
		t.Fatalf("template flags lost: %#v", got)
	}
	if len(got.Recurrence.Weekdays) != 2 || got.Recurrence.Weekdays[1] != time.Thursday {
		t.Fatalf("weekdays lost: %v", got.Recurrence.Weekdays)
	}

	templates, err := store.FetchTemplates(ctx)
	if err != nil {
		t.Fatalf("fetch templates: %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "tpl-1" {
		t.Fatalf("unexpected templates: %#v", templates)
	}
}

func TestFetchOpenExcludesTemplatesAndCompleted(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	open := storeTask("open-1")
	if err := store.CreateTask(ctx, open); err != nil {
		t.Fatalf("create open: %v", err)
	}

	doneAt := time.Date(2026, 8, 23, 18, 0, 0, 0, time.UTC)
	done := storeTask("done-1")
	done.IsCompleted = true
	done.CompletedAt = &doneAt
	if err := store.CreateTask(ctx, done); err != nil {
		t.Fatalf("create done: %v", err)
	}

	template := storeTask("tpl-1")
	template.IsTemplate = true
	template.Recurrence = model.Daily()
	template.RecurrenceGroupID = "group-1"
	if err := store.CreateTask(ctx, template); err != nil {
		t.Fatalf("create template: %v", err)
	}

	tasks, err := store.FetchOpenTasks(ctx)
	if err != nil {
		t.Fatalf("fetch open: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "open-1" {
		t.Fatalf("unexpected open set: %#v", tasks)
	}
}

func TestFetchCompletedHonorsCutoff(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	recentAt := time.Date(2026, 8, 23, 18, 0, 0, 0, time.UTC)
	recent := storeTask("recent-1")
	recent.IsCompleted = true
	recent.CompletedAt = &recentAt
	if err := store.CreateTask(ctx, recent); err != nil {
		t.Fatalf("create recent: %v", err)
	}

	staleAt := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	stale := storeTask("stale-1")
	stale.IsCompleted = true
	stale.CompletedAt = &staleAt
	if err := store.CreateTask(ctx, stale); err != nil {
		t.Fatalf("create stale: %v", err)
	}

	cutoff := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	got, err := store.FetchCompleted(ctx, cutoff)
	if err != nil {
		t.Fatalf("fetch completed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "recent-1" {
		t.Fatalf("unexpected completed set for cutoff %v: %#v", cutoff, got)
	}
}

func TestSeriesQueriesAndEndedRegistry(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"inst-1", "inst-2"} {
		inst := storeTask(id)
		inst.Recurrence = model.Daily()
		inst.RecurrenceGroupID = "group-9"
		if err := store.CreateTask(ctx, inst); err != nil {
			t.Fatalf("create instance: %v", err)
		}
	}

	series, err := store.FetchSeries(ctx, "group-9")
	if err != nil {
		t.Fatalf("fetch series: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 series rows, got %d", len(series))
	}

	ended, err := store.IsSeriesEnded(ctx, "group-9")
	if err != nil || ended {
		t.Fatalf("fresh series must not be ended: %v %v", ended, err)
	}
	if err := store.MarkSeriesEnded(ctx, "group-9", time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("mark ended: %v", err)
	}
	ended, err = store.IsSeriesEnded(ctx, "group-9")
	if err != nil || !ended {
		t.Fatalf("series must be ended after marking: %v %v", ended, err)
	}
}

func TestFocusBlockRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	b := model.FocusBlock{
		ID:               "block-1",
		Title:            "Deep work",
		StartAt:          time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		TaskIDs:          []string{"a", "b"},
		CompletedTaskIDs: []string{"a"},
		TaskTimes:        map[string]int{"a": 620},
	}
	if err := store.CreateFocusBlock(ctx, b); err != nil {
		t.Fatalf("create block: %v", err)
	}

	got, err := store.GetFocusBlock(ctx, "block-1")
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if len(got.TaskIDs) != 2 || got.TaskIDs[1] != "b" {
		t.Fatalf("task order lost: %v", got.TaskIDs)
	}
	if got.TaskTimes["a"] != 620 {
		t.Fatalf("task times lost: %v", got.TaskTimes)
	}

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	blocks, err := store.FetchFocusBlocks(ctx, day)
	if err != nil {
		t.Fatalf("fetch blocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block for the day, got %d", len(blocks))
	}

	otherDay := day.AddDate(0, 0, 3)
	blocks, err = store.FetchFocusBlocks(ctx, otherDay)
	if err != nil {
		t.Fatalf("fetch other day: %v", err)
	}
	if len(blocks) != 0 {
		t.Fatalf("block leaked into another day: %#v", blocks)
	}

	if err := store.DeleteFocusBlock(ctx, "block-1"); err != nil {
		t.Fatalf("delete block: %v", err)
	}
	if _, err := store.GetFocusBlock(ctx, "block-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventsFetchByDay(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ev := model.Event{
		ID:      "ev-1",
		Title:   "Standup",
		StartAt: time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC),
	}
	if err := store.CreateEvent(ctx, ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	events, err := store.FetchEvents(ctx, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch events: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ev-1" {
		t.Fatalf("unexpected events: %#v", events)
	}
}

func TestMigrateRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.CreateTask(t.Context(), storeTask("task-rt")); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}
}
