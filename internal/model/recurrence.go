package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type RecurrenceKind string

const (
	RecurrenceNone     RecurrenceKind = "none"
	RecurrenceDaily    RecurrenceKind = "daily"
	RecurrenceWeekly   RecurrenceKind = "weekly"
	RecurrenceBiweekly RecurrenceKind = "biweekly"
	RecurrenceMonthly  RecurrenceKind = "monthly"
)

// MonthDayLast selects the last day of the month for monthly recurrence.
const MonthDayLast = 32

var (
	ErrInvalidRecurrenceKind = errors.New("model: invalid recurrence kind")
	ErrWeekdaysRequired      = errors.New("model: weekly recurrence requires weekdays")
	ErrMonthDayRequired      = errors.New("model: monthly recurrence requires a month day")
	ErrNotRecurring          = errors.New("model: pattern does not recur")
)

// Recurrence is the pattern of a series. Weekdays is meaningful only for
// weekly/biweekly kinds, MonthDay only for monthly; the constructors keep
// the payload tied to its kind.
type Recurrence struct {
	Kind     RecurrenceKind
	Weekdays []time.Weekday
	MonthDay int
}

func NoRecurrence() Recurrence {
	return Recurrence{Kind: RecurrenceNone}
}

func Daily() Recurrence {
	return Recurrence{Kind: RecurrenceDaily}
}

func Weekly(weekdays ...time.Weekday) Recurrence {
	return Recurrence{Kind: RecurrenceWeekly, Weekdays: weekdays}
}

func Biweekly(weekdays ...time.Weekday) Recurrence {
	return Recurrence{Kind: RecurrenceBiweekly, Weekdays: weekdays}
}

func Monthly(monthDay int) Recurrence {
	return Recurrence{Kind: RecurrenceMonthly, MonthDay: monthDay}
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceNone, RecurrenceDaily:
		return nil
	case RecurrenceWeekly, RecurrenceBiweekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: %q", ErrWeekdaysRequired, r.Kind)
		}
		seen := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("model: invalid weekday %d in recurrence", d)
			}
			if seen[d] {
				return errors.New("model: duplicate weekday in recurrence")
			}
			seen[d] = true
		}
		return nil
	case RecurrenceMonthly:
		if r.MonthDay < 1 || r.MonthDay > MonthDayLast {
			return fmt.Errorf("%w: %d", ErrMonthDayRequired, r.MonthDay)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceKind, r.Kind)
	}
}

// NextAfter computes the next occurrence strictly after base, preserving
// the clock time of base.
func (r Recurrence) NextAfter(base time.Time) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	switch r.Kind {
	case RecurrenceDaily:
		return base.AddDate(0, 0, 1), nil
	case RecurrenceWeekly:
		return r.nextWeekday(base, 0), nil
	case RecurrenceBiweekly:
		return r.nextWeekday(base, 1), nil
	case RecurrenceMonthly:
		return r.nextMonthDay(base), nil
	default:
		return time.Time{}, ErrNotRecurring
	}
}

// nextWeekday finds the next selected weekday after base; extraWeeks is 1
// for biweekly so the wrap lands in the following cycle.
func (r Recurrence) nextWeekday(base time.Time, extraWeeks int) time.Time {
	days := make([]int, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		days = append(days, int(d))
	}
	sort.Ints(days)

	current := int(base.Weekday())
	for _, d := range days {
		if d > current {
			return base.AddDate(0, 0, d-current+extraWeeks*7)
		}
	}
	ahead := (7 - current) + days[0] + extraWeeks*7
	return base.AddDate(0, 0, ahead)
}

func (r Recurrence) nextMonthDay(base time.Time) time.Time {
	y, m, _ := base.Date()
	firstOfNext := time.Date(y, m, 1, base.Hour(), base.Minute(), 0, 0, base.Location()).AddDate(0, 1, 0)
	if r.MonthDay == MonthDayLast {
		return firstOfNext.AddDate(0, 1, -1)
	}
	day := r.MonthDay
	if last := daysInMonth(firstOfNext); day > last {
		day = last
	}
	return firstOfNext.AddDate(0, 0, day-1)
}

func daysInMonth(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
