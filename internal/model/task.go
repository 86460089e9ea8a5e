package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidImportance = errors.New("model: invalid task importance")
	ErrInvalidUrgency    = errors.New("model: invalid task urgency")
	ErrInvalidCategory   = errors.New("model: invalid task category")
	ErrInvalidDuration   = errors.New("model: invalid estimated duration")
)

// DefaultDurationMinutes is the fallback applied when a task has no
// explicit estimate.
const DefaultDurationMinutes = 15

type Importance int

const (
	ImportanceUnset  Importance = 0
	ImportanceLow    Importance = 1
	ImportanceMedium Importance = 2
	ImportanceHigh   Importance = 3
)

func (i Importance) IsValid() bool {
	return i >= ImportanceUnset && i <= ImportanceHigh
}

type Urgency string

const (
	UrgencyUnset     Urgency = ""
	UrgencyUrgent    Urgency = "urgent"
	UrgencyNotUrgent Urgency = "not_urgent"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyUnset, UrgencyUrgent, UrgencyNotUrgent:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryUnset       Category = ""
	CategoryIncome      Category = "income"
	CategoryMaintenance Category = "maintenance"
	CategoryRecharge    Category = "recharge"
	CategoryLearning    Category = "learning"
	CategoryDeepWork    Category = "deep_work"
	CategoryGivingBack  Category = "giving_back"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryUnset, CategoryIncome, CategoryMaintenance, CategoryRecharge,
		CategoryLearning, CategoryDeepWork, CategoryGivingBack:
		return true
	default:
		return false
	}
}

// DurationSource records whether EffectiveDuration came from the user or
// from the process-wide default.
type DurationSource string

const (
	DurationExplicit DurationSource = "explicit"
	DurationDefault  DurationSource = "default"
)

// PlanItem is the unit of work. A row with IsTemplate set is the
// recurrence definition of a series and is never directly schedulable.
type PlanItem struct {
	ID          string
	Title       string
	Description string
	Importance  Importance
	Urgency     Urgency
	Category    Category
	Tags        []string

	// EstimatedDuration is minutes; 0 means unset.
	EstimatedDuration int

	DueAt      *time.Time
	CreatedAt  time.Time
	ModifiedAt *time.Time

	IsCompleted bool
	CompletedAt *time.Time

	IsNextUp        bool
	NextUpSortOrder *int
	SortOrder       int
	AssignedBlockID string
	RescheduleCount int

	IsTemplate        bool
	Recurrence        Recurrence
	RecurrenceGroupID string
}

func (t PlanItem) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Importance.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidImportance, t.Importance)
	}
	if !t.Urgency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidUrgency, t.Urgency)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.EstimatedDuration < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, t.EstimatedDuration)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.IsCompleted && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task is completed")
	}
	if !t.IsCompleted && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when task is open")
	}
	if err := t.Recurrence.Validate(); err != nil {
		return err
	}
	if t.IsRecurring() && t.RecurrenceGroupID == "" {
		return errors.New("model: recurring task requires a recurrence group id")
	}
	if !t.IsRecurring() && t.RecurrenceGroupID != "" {
		return errors.New("model: recurrence group id requires a recurrence pattern")
	}
	if t.IsTemplate {
		if !t.IsRecurring() {
			return errors.New("model: template requires a recurrence pattern")
		}
		if t.IsCompleted {
			return errors.New("model: template must never be completed")
		}
		if t.AssignedBlockID != "" {
			return errors.New("model: template must never be assigned to a block")
		}
	}
	return nil
}

// IsRecurring treats the zero-value pattern like an explicit none so a
// task built without a recurrence never routes into series-scoped code.
func (t PlanItem) IsRecurring() bool {
	return t.Recurrence.Kind != RecurrenceNone && t.Recurrence.Kind != ""
}

// EffectiveDuration resolves the estimate, falling back to the stock
// default.
func (t PlanItem) EffectiveDuration() (int, DurationSource) {
	return t.EffectiveDurationWith(DefaultDurationMinutes)
}

// EffectiveDurationWith resolves the estimate against a caller-supplied
// fallback, so the default stays configurable at runtime.
func (t PlanItem) EffectiveDurationWith(fallbackMinutes int) (int, DurationSource) {
	if t.EstimatedDuration > 0 {
		return t.EstimatedDuration, DurationExplicit
	}
	if fallbackMinutes <= 0 {
		fallbackMinutes = DefaultDurationMinutes
	}
	return fallbackMinutes, DurationDefault
}

// IsOverdue reports whether the due date has passed, comparing whole days
// so a task due later today does not count as overdue.
func (t PlanItem) IsOverdue(now time.Time) bool {
	if t.DueAt == nil || t.IsCompleted {
		return false
	}
	return startOfDay(*t.DueAt).Before(startOfDay(now))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
