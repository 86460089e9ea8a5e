// Package engine orchestrates the planning pipeline: it loads state from
// the task and block stores, reconciles recurring series, scores the
// backlog, and exposes the ordered plan together with the block-level
// mutations the UI drives during live execution.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fbecker/blockplan/internal/block"
	"github.com/fbecker/blockplan/internal/gap"
	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/priority"
	"github.com/fbecker/blockplan/internal/series"
	"github.com/fbecker/blockplan/internal/storage"
)

// Snapshot is one published result of a sync pass: the scored backlog
// plus the recent completion history. It is immutable once published.
type Snapshot struct {
	Items     []priority.Ranked
	Completed []model.PlanItem
	SyncedAt  time.Time
}

type Engine struct {
	tasks  storage.TaskStore
	blocks storage.BlockStore
	series *series.Engine
	window gap.Window

	// CompletedDays bounds the completion history loaded per sync.
	CompletedDays int

	mu   sync.RWMutex
	last Snapshot

	newID func() string
}

func New(tasks storage.TaskStore, blocks storage.BlockStore) *Engine {
	return &Engine{
		tasks:         tasks,
		blocks:        blocks,
		series:        series.NewEngine(tasks),
		window:        gap.DefaultWindow(),
		CompletedDays: 7,
		newID:         uuid.NewString,
	}
}

// SetWindow overrides the gap-finding day window.
func (e *Engine) SetWindow(win gap.Window) {
	e.window = win
}

// Series exposes the recurrence engine for scoped edit/delete/end calls.
func (e *Engine) Series() *series.Engine {
	return e.series
}

// Sync runs one full reconciliation pass. The three store reads are
// independent queries issued concurrently and joined before anything is
// derived from them; on any failure the previously published snapshot is
// left untouched and the error is surfaced unchanged. Materialization
// and scoring happen only after all reads succeed, so a sync pass is
// all-or-nothing.
func (e *Engine) Sync(ctx context.Context, now time.Time) (Snapshot, error) {
	var (
		wg        sync.WaitGroup
		open      []model.PlanItem
		templates []model.PlanItem
		completed []model.PlanItem
		errs      [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		open, errs[0] = e.tasks.FetchOpenTasks(ctx)
	}()
	go func() {
		defer wg.Done()
		templates, errs[1] = e.tasks.FetchTemplates(ctx)
	}()
	historyCutoff := now.AddDate(0, 0, -e.CompletedDays)
	go func() {
		defer wg.Done()
		completed, errs[2] = e.tasks.FetchCompleted(ctx, historyCutoff)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return e.Last(), fmt.Errorf("engine: sync read: %w", err)
		}
	}

	for _, template := range templates {
		created, err := e.series.Materialize(ctx, template, now)
		if err != nil {
			return e.Last(), fmt.Errorf("engine: materialize: %w", err)
		}
		if created != nil {
			open = append(open, *created)
		}
	}

	snapshot := Snapshot{
		Items:     priority.Rank(open, now),
		Completed: completed,
		SyncedAt:  now,
	}

	e.mu.Lock()
	e.last = snapshot
	e.mu.Unlock()
	return snapshot, nil
}

// Last returns the most recently published snapshot.
func (e *Engine) Last() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// CompletedToday filters the snapshot's history to completions on the
// given day.
func CompletedToday(snapshot Snapshot, now time.Time) []model.PlanItem {
	return completedSince(snapshot, dayStart(now))
}

// CompletedThisWeek filters to completions in the last seven days.
func CompletedThisWeek(snapshot Snapshot, now time.Time) []model.PlanItem {
	return completedSince(snapshot, dayStart(now).AddDate(0, 0, -6))
}

func completedSince(snapshot Snapshot, cutoff time.Time) []model.PlanItem {
	out := make([]model.PlanItem, 0)
	for _, task := range snapshot.Completed {
		if task.CompletedAt != nil && !task.CompletedAt.Before(cutoff) {
			out = append(out, task)
		}
	}
	return out
}

// CompleteTask marks a backlog task done, clears its staging and block
// assignment, and spawns the next occurrence when the task recurs.
// Completing a template is redirected to series-level operations.
func (e *Engine) CompleteTask(ctx context.Context, id string, now time.Time) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	if task.IsTemplate {
		return series.ErrInvalidScope
	}
	if task.IsCompleted {
		return nil
	}

	task.IsCompleted = true
	completedAt := now
	task.CompletedAt = &completedAt
	task.IsNextUp = false
	task.NextUpSortOrder = nil
	task.AssignedBlockID = ""
	if err := e.tasks.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("engine: complete task: %w", err)
	}

	if task.IsRecurring() {
		if _, err := e.series.CreateNextInstance(ctx, task, now); err != nil {
			return err
		}
	}
	return nil
}

// CreateTask validates and persists a new backlog entry. A recurring
// task is stored as the series template; the first concrete instance is
// materialized on the next sync pass.
func (e *Engine) CreateTask(ctx context.Context, task model.PlanItem, now time.Time) (model.PlanItem, error) {
	if task.ID == "" {
		task.ID = e.newID()
	}
	task.CreatedAt = now
	if task.Recurrence.Kind == "" {
		task.Recurrence = model.NoRecurrence()
	}
	if task.IsRecurring() {
		task.IsTemplate = true
		if task.RecurrenceGroupID == "" {
			task.RecurrenceGroupID = e.newID()
		}
	}
	if err := task.Validate(); err != nil {
		return model.PlanItem{}, err
	}
	if err := e.tasks.CreateTask(ctx, task); err != nil {
		return model.PlanItem{}, fmt.Errorf("engine: create task: %w", err)
	}
	return task, nil
}

// UpdateDescription replaces a task's markdown notes.
func (e *Engine) UpdateDescription(ctx context.Context, id, text string) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	task.Description = text
	if err := e.tasks.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("engine: update description: %w", err)
	}
	return nil
}

// DeleteTask removes a single non-recurring task. Recurring tasks go
// through the series engine so scope is explicit.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	if task.IsRecurring() {
		return e.series.Delete(ctx, task, series.ScopeSingle)
	}
	if err := e.tasks.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("engine: delete task: %w", err)
	}
	return nil
}

// DeleteSeries removes the template and every open instance of the
// series the task belongs to; completed instances stay for history.
func (e *Engine) DeleteSeries(ctx context.Context, id string) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	return e.series.Delete(ctx, task, series.ScopeAllOpen)
}

// UncompleteTask reopens a completed task.
func (e *Engine) UncompleteTask(ctx context.Context, id string) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	task.IsCompleted = false
	task.CompletedAt = nil
	if err := e.tasks.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("engine: uncomplete task: %w", err)
	}
	return nil
}

// SetNextUp toggles the staging flag. Unstaging also clears a stale
// block assignment so the task falls back to the plain backlog.
func (e *Engine) SetNextUp(ctx context.Context, id string, isNextUp bool) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	if task.IsTemplate {
		return series.ErrInvalidScope
	}
	task.IsNextUp = isNextUp
	if !isNextUp {
		task.NextUpSortOrder = nil
		task.AssignedBlockID = ""
	}
	if err := e.tasks.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("engine: set next up: %w", err)
	}
	return nil
}

// AssignToBlock moves a task into a focus block's queue. Moving between
// two different blocks counts as a reschedule. Assignment implies the
// task leaves the Next Up stage.
func (e *Engine) AssignToBlock(ctx context.Context, taskID, blockID string) error {
	task, err := e.tasks.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	if task.IsTemplate {
		return series.ErrInvalidScope
	}
	if task.AssignedBlockID != "" && blockID != "" && task.AssignedBlockID != blockID {
		task.RescheduleCount++
	}
	task.AssignedBlockID = blockID
	if blockID != "" {
		task.IsNextUp = false
	}
	if err := e.tasks.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("engine: assign task: %w", err)
	}

	if blockID == "" {
		return nil
	}
	b, err := e.blocks.GetFocusBlock(ctx, blockID)
	if err != nil {
		return fmt.Errorf("engine: load block: %w", err)
	}
	for _, id := range b.TaskIDs {
		if id == taskID {
			return nil
		}
	}
	b.TaskIDs = append(b.TaskIDs, taskID)
	if err := e.blocks.UpdateFocusBlock(ctx, b); err != nil {
		return fmt.Errorf("engine: update block: %w", err)
	}
	return nil
}

// UpdateDuration sets the explicit estimate; zero reverts to the default.
func (e *Engine) UpdateDuration(ctx context.Context, id string, minutes int) error {
	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: load task: %w", err)
	}
	task.EstimatedDuration = minutes
	if err := e.tasks.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("engine: update duration: %w", err)
	}
	return nil
}

// DayEvents returns the read-only calendar events for a day.
func (e *Engine) DayEvents(ctx context.Context, day time.Time) ([]model.Event, error) {
	events, err := e.blocks.FetchEvents(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch events: %w", err)
	}
	return events, nil
}

// DayBlocks returns the focus blocks scheduled on a day.
func (e *Engine) DayBlocks(ctx context.Context, day time.Time) ([]model.FocusBlock, error) {
	blocks, err := e.blocks.FetchFocusBlocks(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch blocks: %w", err)
	}
	return blocks, nil
}

// Block loads a single focus block.
func (e *Engine) Block(ctx context.Context, id string) (model.FocusBlock, error) {
	b, err := e.blocks.GetFocusBlock(ctx, id)
	if err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: load block: %w", err)
	}
	return b, nil
}

// SuggestSlots computes the free-slot candidates for a day from the
// day's events and existing focus blocks.
func (e *Engine) SuggestSlots(ctx context.Context, day time.Time, now time.Time) (gap.Result, error) {
	events, err := e.blocks.FetchEvents(ctx, day)
	if err != nil {
		return gap.Result{}, fmt.Errorf("engine: fetch events: %w", err)
	}
	focusBlocks, err := e.blocks.FetchFocusBlocks(ctx, day)
	if err != nil {
		return gap.Result{}, fmt.Errorf("engine: fetch blocks: %w", err)
	}
	return gap.FindFreeSlots(events, focusBlocks, day, now, e.window), nil
}

// CreateBlock turns a confirmed slot into a persisted focus block.
func (e *Engine) CreateBlock(ctx context.Context, title string, slot model.TimeSlot) (model.FocusBlock, error) {
	b := model.FocusBlock{
		ID:        e.newID(),
		Title:     title,
		StartAt:   slot.StartAt,
		EndAt:     slot.EndAt,
		TaskIDs:   []string{},
		TaskTimes: map[string]int{},
	}
	if err := e.blocks.CreateFocusBlock(ctx, b); err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: create block: %w", err)
	}
	return b, nil
}

// DeleteBlock removes a block; its tasks revert to the backlog.
func (e *Engine) DeleteBlock(ctx context.Context, blockID string) error {
	b, err := e.blocks.GetFocusBlock(ctx, blockID)
	if err != nil {
		return fmt.Errorf("engine: load block: %w", err)
	}
	for _, taskID := range b.TaskIDs {
		task, err := e.tasks.GetTask(ctx, taskID)
		if err != nil {
			continue
		}
		task.AssignedBlockID = ""
		if err := e.tasks.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("engine: unassign task: %w", err)
		}
	}
	if err := e.blocks.DeleteFocusBlock(ctx, blockID); err != nil {
		return fmt.Errorf("engine: delete block: %w", err)
	}
	return nil
}

// CompleteBlockTask applies the complete transform to a live block,
// persists the block, and completes the underlying task row.
func (e *Engine) CompleteBlockTask(ctx context.Context, blockID, taskID string, startedAt *time.Time, now time.Time) (model.FocusBlock, error) {
	b, err := e.blocks.GetFocusBlock(ctx, blockID)
	if err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: load block: %w", err)
	}
	updated, _, err := block.Complete(b, taskID, startedAt, now)
	if err != nil {
		return model.FocusBlock{}, err
	}
	if err := e.blocks.UpdateFocusBlock(ctx, updated); err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: update block: %w", err)
	}
	if err := e.CompleteTask(ctx, taskID, now); err != nil {
		return model.FocusBlock{}, err
	}
	return updated, nil
}

// SkipBlockTask applies the skip transform and persists the block.
// skippedThisPass is the caller's session record of open tasks already
// skipped in the current pass; the returned result tells the caller
// whether the queue is exhausted.
func (e *Engine) SkipBlockTask(ctx context.Context, blockID, taskID string, skippedThisPass map[string]bool, startedAt *time.Time, now time.Time) (model.FocusBlock, block.ActionResult, error) {
	b, err := e.blocks.GetFocusBlock(ctx, blockID)
	if err != nil {
		return model.FocusBlock{}, "", fmt.Errorf("engine: load block: %w", err)
	}
	updated, result, err := block.Skip(b, taskID, skippedThisPass, startedAt, now)
	if err != nil {
		return model.FocusBlock{}, "", err
	}
	if err := e.blocks.UpdateFocusBlock(ctx, updated); err != nil {
		return model.FocusBlock{}, "", fmt.Errorf("engine: update block: %w", err)
	}
	return updated, result, nil
}

// ReorderBlock replaces a block's queue order and persists it.
func (e *Engine) ReorderBlock(ctx context.Context, blockID string, newOrder []string) (model.FocusBlock, error) {
	b, err := e.blocks.GetFocusBlock(ctx, blockID)
	if err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: load block: %w", err)
	}
	updated, err := block.Reorder(b, newOrder)
	if err != nil {
		return model.FocusBlock{}, err
	}
	if err := e.blocks.UpdateFocusBlock(ctx, updated); err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: update block: %w", err)
	}
	return updated, nil
}

// RemoveBlockTask unassigns a task from a block; the task reverts to the
// Next Up stage so it is not lost from planning.
func (e *Engine) RemoveBlockTask(ctx context.Context, blockID, taskID string) (model.FocusBlock, error) {
	b, err := e.blocks.GetFocusBlock(ctx, blockID)
	if err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: load block: %w", err)
	}
	updated, err := block.Remove(b, taskID)
	if err != nil {
		return model.FocusBlock{}, err
	}
	if err := e.blocks.UpdateFocusBlock(ctx, updated); err != nil {
		return model.FocusBlock{}, fmt.Errorf("engine: update block: %w", err)
	}

	task, err := e.tasks.GetTask(ctx, taskID)
	if err == nil {
		task.AssignedBlockID = ""
		task.IsNextUp = true
		if err := e.tasks.UpdateTask(ctx, task); err != nil {
			return model.FocusBlock{}, fmt.Errorf("engine: unassign task: %w", err)
		}
	}
	return updated, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
