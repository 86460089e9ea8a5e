// Package storage defines the persistence contracts consumed by the
// planning engine and provides the SQLite implementation.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// TaskStore is the read/write contract over the task backlog, including
// recurrence templates and the ended-series registry.
type TaskStore interface {
	FetchOpenTasks(ctx context.Context) ([]model.PlanItem, error)
	FetchTemplates(ctx context.Context) ([]model.PlanItem, error)
	FetchCompleted(ctx context.Context, completedSince time.Time) ([]model.PlanItem, error)
	FetchSeries(ctx context.Context, groupID string) ([]model.PlanItem, error)

	GetTask(ctx context.Context, id string) (model.PlanItem, error)
	CreateTask(ctx context.Context, task model.PlanItem) error
	UpdateTask(ctx context.Context, task model.PlanItem) error
	DeleteTask(ctx context.Context, id string) error

	MarkSeriesEnded(ctx context.Context, groupID string, endedAt time.Time) error
	IsSeriesEnded(ctx context.Context, groupID string) (bool, error)
}

// BlockStore is the read/write contract over the calendar: read-only
// events plus the mutable focus blocks.
type BlockStore interface {
	FetchEvents(ctx context.Context, day time.Time) ([]model.Event, error)
	FetchFocusBlocks(ctx context.Context, day time.Time) ([]model.FocusBlock, error)

	GetFocusBlock(ctx context.Context, id string) (model.FocusBlock, error)
	CreateFocusBlock(ctx context.Context, b model.FocusBlock) error
	UpdateFocusBlock(ctx context.Context, b model.FocusBlock) error
	DeleteFocusBlock(ctx context.Context, id string) error
}
