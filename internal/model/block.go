package model

import (
	"errors"
	"strings"
	"time"
)

// FocusBlock is a time-boxed container of tasks. TaskIDs order defines
// execution order; CompletedTaskIDs is always a subset of TaskIDs.
type FocusBlock struct {
	ID               string
	Title            string
	StartAt          time.Time
	EndAt            time.Time
	TaskIDs          []string
	CompletedTaskIDs []string

	// TaskTimes maps task id to elapsed seconds actually spent.
	TaskTimes map[string]int
}

func (b FocusBlock) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("model: block id is required")
	}
	if b.StartAt.IsZero() || b.EndAt.IsZero() {
		return errors.New("model: block start and end are required")
	}
	if !b.EndAt.After(b.StartAt) {
		return errors.New("model: block end must be after start")
	}
	assigned := make(map[string]bool, len(b.TaskIDs))
	for _, id := range b.TaskIDs {
		if assigned[id] {
			return errors.New("model: duplicate task id in block")
		}
		assigned[id] = true
	}
	for _, id := range b.CompletedTaskIDs {
		if !assigned[id] {
			return errors.New("model: completed task id not assigned to block")
		}
	}
	return nil
}

func (b FocusBlock) IsActive(now time.Time) bool {
	return !now.Before(b.StartAt) && now.Before(b.EndAt)
}

func (b FocusBlock) IsPast(now time.Time) bool {
	return !now.Before(b.EndAt)
}

func (b FocusBlock) IsFuture(now time.Time) bool {
	return now.Before(b.StartAt)
}

func (b FocusBlock) DurationMinutes() int {
	return int(b.EndAt.Sub(b.StartAt) / time.Minute)
}

func (b FocusBlock) IsTaskCompleted(taskID string) bool {
	for _, id := range b.CompletedTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// OpenTaskIDs returns assigned tasks not yet completed, in queue order.
func (b FocusBlock) OpenTaskIDs() []string {
	open := make([]string, 0, len(b.TaskIDs))
	for _, id := range b.TaskIDs {
		if !b.IsTaskCompleted(id) {
			open = append(open, id)
		}
	}
	return open
}

// Clone returns a deep copy so transforms never alias the caller's slices.
func (b FocusBlock) Clone() FocusBlock {
	out := b
	out.TaskIDs = append([]string(nil), b.TaskIDs...)
	out.CompletedTaskIDs = append([]string(nil), b.CompletedTaskIDs...)
	out.TaskTimes = make(map[string]int, len(b.TaskTimes))
	for id, secs := range b.TaskTimes {
		out.TaskTimes[id] = secs
	}
	return out
}

// TimeSlot is an ephemeral free-time candidate produced by the gap
// finder; it is never persisted.
type TimeSlot struct {
	StartAt time.Time
	EndAt   time.Time
}

func (s TimeSlot) DurationMinutes() int {
	return int(s.EndAt.Sub(s.StartAt) / time.Minute)
}

// Event is a read-only calendar entry consumed as a busy interval.
type Event struct {
	ID       string
	Title    string
	StartAt  time.Time
	EndAt    time.Time
	IsAllDay bool
}
