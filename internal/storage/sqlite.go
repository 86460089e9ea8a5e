package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fbecker/blockplan/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore implements TaskStore and BlockStore on a single database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const taskColumns = `id, title, description, importance, urgency, category, tags,
	estimated_minutes, due_at, created_at, modified_at, is_completed, completed_at,
	is_next_up, next_up_sort_order, sort_order, assigned_block_id, reschedule_count,
	is_template, recurrence_kind, recurrence_weekdays, recurrence_month_day, recurrence_group_id`

func (s *SQLiteStore) FetchOpenTasks(ctx context.Context) ([]model.PlanItem, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE is_completed = 0 AND is_template = 0
		ORDER BY created_at ASC`)
}

func (s *SQLiteStore) FetchTemplates(ctx context.Context) ([]model.PlanItem, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE is_template = 1
		ORDER BY created_at ASC`)
}

func (s *SQLiteStore) FetchCompleted(ctx context.Context, completedSince time.Time) ([]model.PlanItem, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE is_completed = 1 AND completed_at >= ?
		ORDER BY completed_at DESC`, mustTime(completedSince))
}

func (s *SQLiteStore) FetchSeries(ctx context.Context, groupID string) ([]model.PlanItem, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE recurrence_group_id = ?
		ORDER BY created_at ASC`, groupID)
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (model.PlanItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PlanItem{}, ErrNotFound
		}
		return model.PlanItem{}, err
	}
	return task, nil
}

func (s *SQLiteStore) CreateTask(ctx context.Context, task model.PlanItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		taskArgs(task)...,
	)
	return err
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.PlanItem) error {
	args := append(taskArgs(task)[1:], task.ID)
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, importance = ?, urgency = ?, category = ?, tags = ?,
			estimated_minutes = ?, due_at = ?, created_at = ?, modified_at = ?, is_completed = ?,
			completed_at = ?, is_next_up = ?, next_up_sort_order = ?, sort_order = ?,
			assigned_block_id = ?, reschedule_count = ?, is_template = ?, recurrence_kind = ?,
			recurrence_weekdays = ?, recurrence_month_day = ?, recurrence_group_id = ?
		WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) MarkSeriesEnded(ctx context.Context, groupID string, endedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ended_series (group_id, ended_at) VALUES (?, ?)
		ON CONFLICT (group_id) DO UPDATE SET ended_at = excluded.ended_at`,
		groupID, mustTime(endedAt))
	return err
}

func (s *SQLiteStore) IsSeriesEnded(ctx context.Context, groupID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM ended_series WHERE group_id = ?`, groupID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) FetchEvents(ctx context.Context, day time.Time) ([]model.Event, error) {
	dayStart, dayEnd := dayBounds(day)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_at, end_at, is_all_day FROM events
		WHERE start_at < ? AND end_at > ?
		ORDER BY start_at ASC`, mustTime(dayEnd), mustTime(dayStart))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		var start, end string
		var allDay int
		if err := rows.Scan(&ev.ID, &ev.Title, &start, &end, &allDay); err != nil {
			return nil, err
		}
		if ev.StartAt, err = parseRequiredTime(start); err != nil {
			return nil, err
		}
		if ev.EndAt, err = parseRequiredTime(end); err != nil {
			return nil, err
		}
		ev.IsAllDay = allDay == 1
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, ev model.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, start_at, end_at, is_all_day)
		VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.Title, mustTime(ev.StartAt), mustTime(ev.EndAt), boolInt(ev.IsAllDay))
	return err
}

func (s *SQLiteStore) FetchFocusBlocks(ctx context.Context, day time.Time) ([]model.FocusBlock, error) {
	dayStart, dayEnd := dayBounds(day)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_at, end_at, task_ids, completed_task_ids, task_times
		FROM focus_blocks
		WHERE start_at < ? AND end_at > ?
		ORDER BY start_at ASC`, mustTime(dayEnd), mustTime(dayStart))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.FocusBlock, 0)
	for rows.Next() {
		b, scanErr := scanBlock(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetFocusBlock(ctx context.Context, id string) (model.FocusBlock, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, start_at, end_at, task_ids, completed_task_ids, task_times
		FROM focus_blocks WHERE id = ?`, id)
	b, err := scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FocusBlock{}, ErrNotFound
		}
		return model.FocusBlock{}, err
	}
	return b, nil
}

func (s *SQLiteStore) CreateFocusBlock(ctx context.Context, b model.FocusBlock) error {
	times, err := json.Marshal(taskTimesOrEmpty(b.TaskTimes))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO focus_blocks (id, title, start_at, end_at, task_ids, completed_task_ids, task_times)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, mustTime(b.StartAt), mustTime(b.EndAt),
		joinIDs(b.TaskIDs), joinIDs(b.CompletedTaskIDs), string(times))
	return err
}

func (s *SQLiteStore) UpdateFocusBlock(ctx context.Context, b model.FocusBlock) error {
	times, err := json.Marshal(taskTimesOrEmpty(b.TaskTimes))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE focus_blocks
		SET title = ?, start_at = ?, end_at = ?, task_ids = ?, completed_task_ids = ?, task_times = ?
		WHERE id = ?`,
		b.Title, mustTime(b.StartAt), mustTime(b.EndAt),
		joinIDs(b.TaskIDs), joinIDs(b.CompletedTaskIDs), string(times), b.ID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteFocusBlock(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM focus_blocks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) listTasks(ctx context.Context, query string, args ...any) ([]model.PlanItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PlanItem, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func taskArgs(t model.PlanItem) []any {
	return []any{
		t.ID, t.Title, t.Description, int(t.Importance), string(t.Urgency), string(t.Category),
		joinIDs(t.Tags), t.EstimatedDuration, nullTime(t.DueAt), mustTime(t.CreatedAt),
		nullTime(t.ModifiedAt), boolInt(t.IsCompleted), nullTime(t.CompletedAt),
		boolInt(t.IsNextUp), nullInt(t.NextUpSortOrder), t.SortOrder, t.AssignedBlockID,
		t.RescheduleCount, boolInt(t.IsTemplate), string(t.Recurrence.Kind),
		joinWeekdays(t.Recurrence.Weekdays), t.Recurrence.MonthDay, t.RecurrenceGroupID,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.PlanItem, error) {
	var out model.PlanItem
	var importance int
	var urgency, category, tags string
	var due, modified, completed sql.NullString
	var created string
	var isCompleted, isNextUp, isTemplate int
	var nextUpOrder sql.NullInt64
	var kind, weekdays string

	if err := s.Scan(
		&out.ID, &out.Title, &out.Description, &importance, &urgency, &category, &tags,
		&out.EstimatedDuration, &due, &created, &modified, &isCompleted, &completed,
		&isNextUp, &nextUpOrder, &out.SortOrder, &out.AssignedBlockID, &out.RescheduleCount,
		&isTemplate, &kind, &weekdays, &out.Recurrence.MonthDay, &out.RecurrenceGroupID,
	); err != nil {
		return model.PlanItem{}, err
	}

	out.Importance = model.Importance(importance)
	out.Urgency = model.Urgency(urgency)
	out.Category = model.Category(category)
	out.Tags = splitIDs(tags)
	out.IsCompleted = isCompleted == 1
	out.IsNextUp = isNextUp == 1
	out.IsTemplate = isTemplate == 1
	out.Recurrence.Kind = model.RecurrenceKind(kind)

	var err error
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return model.PlanItem{}, err
	}
	if out.DueAt, err = parseNullableTime(due); err != nil {
		return model.PlanItem{}, err
	}
	if out.ModifiedAt, err = parseNullableTime(modified); err != nil {
		return model.PlanItem{}, err
	}
	if out.CompletedAt, err = parseNullableTime(completed); err != nil {
		return model.PlanItem{}, err
	}
	if nextUpOrder.Valid {
		v := int(nextUpOrder.Int64)
		out.NextUpSortOrder = &v
	}
	if out.Recurrence.Weekdays, err = parseWeekdays(weekdays); err != nil {
		return model.PlanItem{}, err
	}
	return out, nil
}

func scanBlock(s scanner) (model.FocusBlock, error) {
	var out model.FocusBlock
	var start, end, taskIDs, completedIDs, taskTimes string
	if err := s.Scan(&out.ID, &out.Title, &start, &end, &taskIDs, &completedIDs, &taskTimes); err != nil {
		return model.FocusBlock{}, err
	}

	var err error
	if out.StartAt, err = parseRequiredTime(start); err != nil {
		return model.FocusBlock{}, err
	}
	if out.EndAt, err = parseRequiredTime(end); err != nil {
		return model.FocusBlock{}, err
	}
	out.TaskIDs = splitIDs(taskIDs)
	out.CompletedTaskIDs = splitIDs(completedIDs)
	if err := json.Unmarshal([]byte(taskTimes), &out.TaskTimes); err != nil {
		return model.FocusBlock{}, fmt.Errorf("decode task times: %w", err)
	}
	return out, nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func joinIDs(ids []string) string {
	return strings.Join(ids, "|")
}

func splitIDs(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, "|")
}

func joinWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse weekday %q: %w", p, err)
		}
		out = append(out, time.Weekday(v))
	}
	return out, nil
}

func taskTimesOrEmpty(times map[string]int) map[string]int {
	if times == nil {
		return map[string]int{}
	}
	return times
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
