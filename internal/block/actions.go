// Package block holds the state transforms applied to a focus block's
// task queue during live execution. Every function returns a new block
// value for the caller to persist; nothing here touches a store.
package block

import (
	"errors"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

var (
	ErrNotFound       = errors.New("block: task id not assigned to block")
	ErrInvalidReorder = errors.New("block: new order is not a permutation of the current queue")
)

// ActionResult reports what a complete/skip transition did.
type ActionResult string

const (
	// ResultCompleted means the task was marked completed.
	ResultCompleted ActionResult = "completed"
	// ResultSkipped means the task moved to the end of the queue.
	ResultSkipped ActionResult = "skipped"
	// ResultExhausted means every remaining open task has been skipped
	// once in the current pass; the caller should offer ending the block
	// instead of cycling it.
	ResultExhausted ActionResult = "exhausted"
)

// Complete marks taskID as done. Completing an already-completed task is
// a no-op on the completed set. When the task's start time is known the
// elapsed seconds are accumulated into TaskTimes so a later re-completion
// reflects the latest timing.
func Complete(b model.FocusBlock, taskID string, taskStartedAt *time.Time, now time.Time) (model.FocusBlock, ActionResult, error) {
	if !contains(b.TaskIDs, taskID) {
		return b, "", ErrNotFound
	}
	out := b.Clone()
	if !out.IsTaskCompleted(taskID) {
		out.CompletedTaskIDs = append(out.CompletedTaskIDs, taskID)
	}
	recordElapsed(&out, taskID, taskStartedAt, now)
	return out, ResultCompleted, nil
}

// Skip moves taskID to the end of the queue without completing it, so it
// is revisited only after every other open task. Partial time spent is
// preserved. skippedThisPass carries the open tasks already skipped in
// the current session pass (a nil map means a fresh pass); once this
// skip would mean every remaining open task has been skipped, the queue
// is exhausted and the block is returned unchanged apart from the time
// bookkeeping.
func Skip(b model.FocusBlock, taskID string, skippedThisPass map[string]bool, taskStartedAt *time.Time, now time.Time) (model.FocusBlock, ActionResult, error) {
	if !contains(b.TaskIDs, taskID) {
		return b, "", ErrNotFound
	}
	out := b.Clone()
	recordElapsed(&out, taskID, taskStartedAt, now)

	passDone := true
	for _, id := range out.OpenTaskIDs() {
		if id != taskID && !skippedThisPass[id] {
			passDone = false
			break
		}
	}
	if passDone {
		return out, ResultExhausted, nil
	}

	out.TaskIDs = remove(out.TaskIDs, taskID)
	out.TaskIDs = append(out.TaskIDs, taskID)
	return out, ResultSkipped, nil
}

// Reorder replaces the queue wholesale. newOrder must be a permutation of
// the current TaskIDs.
func Reorder(b model.FocusBlock, newOrder []string) (model.FocusBlock, error) {
	if !samePermutation(b.TaskIDs, newOrder) {
		return b, ErrInvalidReorder
	}
	out := b.Clone()
	out.TaskIDs = append([]string(nil), newOrder...)
	return out, nil
}

// Remove unassigns taskID from the block, scrubbing the completed set and
// the time ledger with it.
func Remove(b model.FocusBlock, taskID string) (model.FocusBlock, error) {
	if !contains(b.TaskIDs, taskID) {
		return b, ErrNotFound
	}
	out := b.Clone()
	out.TaskIDs = remove(out.TaskIDs, taskID)
	out.CompletedTaskIDs = remove(out.CompletedTaskIDs, taskID)
	delete(out.TaskTimes, taskID)
	return out, nil
}

// CurrentTask derives the task under execution: the first queue entry not
// yet completed. It is never stored.
func CurrentTask(b model.FocusBlock) (string, bool) {
	for _, id := range b.TaskIDs {
		if !b.IsTaskCompleted(id) {
			return id, true
		}
	}
	return "", false
}

// Progress is the live countdown state of the current task, recomputed
// from plain values on every external tick.
type Progress struct {
	ElapsedSeconds   int
	RemainingSeconds int
	Fraction         float64
}

// TaskProgress computes elapsed/remaining time for a task that started at
// startedAt with the given estimate.
func TaskProgress(startedAt time.Time, now time.Time, durationMinutes int) Progress {
	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	total := durationMinutes * 60
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	fraction := 1.0
	if total > 0 && elapsed < total {
		fraction = float64(elapsed) / float64(total)
	}
	return Progress{ElapsedSeconds: elapsed, RemainingSeconds: remaining, Fraction: fraction}
}

func recordElapsed(b *model.FocusBlock, taskID string, startedAt *time.Time, now time.Time) {
	if startedAt == nil {
		return
	}
	elapsed := int(now.Sub(*startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if b.TaskTimes == nil {
		b.TaskTimes = make(map[string]int, 1)
	}
	b.TaskTimes[taskID] += elapsed
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}
