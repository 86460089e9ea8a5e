// Package series maintains recurring task series: a template row plus
// its generated, independently completable instances sharing one
// recurrence group id. The engine keeps the invariant that every live
// template has exactly the open instances its pattern implies, and
// routes series-wide mutation through explicit scopes.
package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fbecker/blockplan/internal/model"
	"github.com/fbecker/blockplan/internal/storage"
)

var ErrInvalidScope = errors.New("series: scoped operation requires a recurring task")

// Scope selects how far an edit or delete reaches. The caller chooses
// explicitly; the engine never infers scope from task state.
type Scope string

const (
	// ScopeSingle mutates one instance only.
	ScopeSingle Scope = "single"
	// ScopeAllOpen mutates the template and every open instance of the
	// group. Completed instances are never retouched.
	ScopeAllOpen Scope = "all_open"
)

type Engine struct {
	tasks storage.TaskStore
	newID func() string
}

func NewEngine(tasks storage.TaskStore) *Engine {
	return &Engine{tasks: tasks, newID: uuid.NewString}
}

// Materialize ensures the template has an open instance for its next
// occurrence after asOf. It is idempotent: repeated calls for the same
// template and date create nothing new, because sync runs on every view
// load. An ended series materializes nothing, ever.
func (e *Engine) Materialize(ctx context.Context, template model.PlanItem, asOf time.Time) (*model.PlanItem, error) {
	if !template.IsTemplate || !template.IsRecurring() || template.RecurrenceGroupID == "" {
		return nil, ErrInvalidScope
	}

	ended, err := e.tasks.IsSeriesEnded(ctx, template.RecurrenceGroupID)
	if err != nil {
		return nil, fmt.Errorf("series: check ended: %w", err)
	}
	if ended {
		return nil, nil
	}

	base := asOf
	if template.DueAt != nil && template.DueAt.After(asOf) {
		base = *template.DueAt
	}
	nextDue, err := template.Recurrence.NextAfter(base)
	if err != nil {
		return nil, err
	}

	existing, err := e.tasks.FetchSeries(ctx, template.RecurrenceGroupID)
	if err != nil {
		return nil, fmt.Errorf("series: fetch group: %w", err)
	}
	for _, item := range existing {
		if item.IsTemplate || item.IsCompleted {
			continue
		}
		// Any open instance satisfies the pattern; never stack a second
		// one on top of it.
		return nil, nil
	}

	instance := e.instanceFrom(template, nextDue, asOf)
	if err := e.tasks.CreateTask(ctx, instance); err != nil {
		return nil, fmt.Errorf("series: create instance: %w", err)
	}
	return &instance, nil
}

// CreateNextInstance spawns the follow-up occurrence after an instance
// was completed. The next due date is computed from the completed
// instance's own due date so a late completion does not drift the series.
func (e *Engine) CreateNextInstance(ctx context.Context, completed model.PlanItem, now time.Time) (*model.PlanItem, error) {
	if !completed.IsRecurring() || completed.RecurrenceGroupID == "" {
		return nil, ErrInvalidScope
	}

	ended, err := e.tasks.IsSeriesEnded(ctx, completed.RecurrenceGroupID)
	if err != nil {
		return nil, fmt.Errorf("series: check ended: %w", err)
	}
	if ended {
		return nil, nil
	}

	base := now
	if completed.DueAt != nil {
		base = *completed.DueAt
	}
	nextDue, err := completed.Recurrence.NextAfter(base)
	if err != nil {
		return nil, err
	}

	instance := e.instanceFrom(completed, nextDue, now)
	if err := e.tasks.CreateTask(ctx, instance); err != nil {
		return nil, fmt.Errorf("series: create instance: %w", err)
	}
	return &instance, nil
}

// Edit applies a mutation to one instance, or to the template plus every
// open instance of the group. The mutation runs against each row and the
// result is written back; completed instances are never touched.
func (e *Engine) Edit(ctx context.Context, task model.PlanItem, scope Scope, apply func(model.PlanItem) model.PlanItem) error {
	switch scope {
	case ScopeSingle:
		return e.updateOne(ctx, task, apply)
	case ScopeAllOpen:
		if task.RecurrenceGroupID == "" {
			return ErrInvalidScope
		}
		group, err := e.tasks.FetchSeries(ctx, task.RecurrenceGroupID)
		if err != nil {
			return fmt.Errorf("series: fetch group: %w", err)
		}
		for _, item := range group {
			if item.IsCompleted {
				continue
			}
			if err := e.updateOne(ctx, item, apply); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("series: unknown scope %q", scope)
	}
}

// Delete removes one instance, or the template and every open instance
// of the group. Completed instances survive a bulk delete; with the
// template gone they are the only remaining trace of the series.
func (e *Engine) Delete(ctx context.Context, task model.PlanItem, scope Scope) error {
	switch scope {
	case ScopeSingle:
		return e.tasks.DeleteTask(ctx, task.ID)
	case ScopeAllOpen:
		if task.RecurrenceGroupID == "" {
			return ErrInvalidScope
		}
		return e.deleteOpen(ctx, task.RecurrenceGroupID)
	default:
		return fmt.Errorf("series: unknown scope %q", scope)
	}
}

// EndSeries removes the template and all open instances, preserves the
// completed history, and permanently stops materialization. Unlike a
// bulk delete with the template intact, an ended series never
// regenerates.
func (e *Engine) EndSeries(ctx context.Context, groupID string, now time.Time) error {
	if groupID == "" {
		return ErrInvalidScope
	}
	if err := e.deleteOpen(ctx, groupID); err != nil {
		return err
	}
	if err := e.tasks.MarkSeriesEnded(ctx, groupID, now); err != nil {
		return fmt.Errorf("series: mark ended: %w", err)
	}
	return nil
}

func (e *Engine) deleteOpen(ctx context.Context, groupID string) error {
	group, err := e.tasks.FetchSeries(ctx, groupID)
	if err != nil {
		return fmt.Errorf("series: fetch group: %w", err)
	}
	for _, item := range group {
		if item.IsCompleted {
			continue
		}
		if err := e.tasks.DeleteTask(ctx, item.ID); err != nil {
			return fmt.Errorf("series: delete %s: %w", item.ID, err)
		}
	}
	return nil
}

func (e *Engine) updateOne(ctx context.Context, task model.PlanItem, apply func(model.PlanItem) model.PlanItem) error {
	updated := apply(task)
	// The mutation must not move the row to another identity or series.
	updated.ID = task.ID
	updated.IsTemplate = task.IsTemplate
	updated.RecurrenceGroupID = task.RecurrenceGroupID
	if err := e.tasks.UpdateTask(ctx, updated); err != nil {
		return fmt.Errorf("series: update %s: %w", task.ID, err)
	}
	return nil
}

func (e *Engine) instanceFrom(source model.PlanItem, dueAt time.Time, createdAt time.Time) model.PlanItem {
	return model.PlanItem{
		ID:                e.newID(),
		Title:             source.Title,
		Description:       source.Description,
		Importance:        source.Importance,
		Urgency:           source.Urgency,
		Category:          source.Category,
		Tags:              append([]string(nil), source.Tags...),
		EstimatedDuration: source.EstimatedDuration,
		DueAt:             &dueAt,
		CreatedAt:         createdAt,
		Recurrence:        source.Recurrence,
		RecurrenceGroupID: source.RecurrenceGroupID,
	}
}
