// Package gap computes free time slots in a day's calendar for placing
// focus blocks.
package gap

import (
	"sort"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

// Window bounds the schedulable part of a day and the acceptable slot
// duration band.
type Window struct {
	StartHour        int
	EndHour          int
	MinMinutes       int
	MaxMinutes       int
	MostlyFreeBusyAt int
}

func DefaultWindow() Window {
	return Window{
		StartHour:        6,
		EndHour:          22,
		MinMinutes:       30,
		MaxMinutes:       60,
		MostlyFreeBusyAt: 120,
	}
}

// Result carries the chronological slot candidates plus the mostly-free
// signal. MostlyFree is presentation advice for the caller; it never
// changes the slot computation.
type Result struct {
	Slots      []model.TimeSlot
	MostlyFree bool
}

type interval struct {
	start time.Time
	end   time.Time
}

// FindFreeSlots merges the busy intervals of a day (calendar events minus
// all-day entries, plus existing focus blocks) and emits one slot per gap
// within the window's duration band. A gap longer than MaxMinutes is
// clipped to MaxMinutes from the gap start, so a long free afternoon
// yields one bounded suggestion; gaps under MinMinutes are dropped. A day
// with no busy intervals inside the window instead tiles the whole window
// into MaxMinutes candidates. For the current day the effective window
// starts at now, so slots in the past are never suggested. A fully booked
// day yields an empty slot list.
func FindFreeSlots(events []model.Event, blocks []model.FocusBlock, day time.Time, now time.Time, win Window) Result {
	dayStart := atHour(day, win.StartHour)
	dayEnd := atHour(day, win.EndHour)

	busy := make([]interval, 0, len(events)+len(blocks))
	for _, ev := range events {
		if ev.IsAllDay {
			continue
		}
		busy = append(busy, clipped(ev.StartAt, ev.EndAt, dayStart, dayEnd)...)
	}
	for _, b := range blocks {
		busy = append(busy, clipped(b.StartAt, b.EndAt, dayStart, dayEnd)...)
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].start.Before(busy[j].start) })
	busy = mergeIntervals(busy)

	cursor := dayStart
	if sameDay(day, now) && now.After(cursor) {
		cursor = now
	}

	slots := make([]model.TimeSlot, 0, 4)
	if len(busy) == 0 {
		slots = tileWindow(slots, cursor, dayEnd, win)
	} else {
		for _, period := range busy {
			if cursor.Before(period.start) {
				slots = appendGap(slots, cursor, period.start, win)
			}
			if period.end.After(cursor) {
				cursor = period.end
			}
		}
		if cursor.Before(dayEnd) {
			slots = appendGap(slots, cursor, dayEnd, win)
		}
	}

	return Result{
		Slots:      slots,
		MostlyFree: totalBusyMinutes(busy) < win.MostlyFreeBusyAt,
	}
}

// appendGap emits at most one slot for a free gap: clipped to MaxMinutes
// from the gap start, dropped when under MinMinutes.
func appendGap(slots []model.TimeSlot, start, end time.Time, win Window) []model.TimeSlot {
	if end.Sub(start) < time.Duration(win.MinMinutes)*time.Minute {
		return slots
	}
	slotEnd := start.Add(time.Duration(win.MaxMinutes) * time.Minute)
	if slotEnd.After(end) {
		slotEnd = end
	}
	return append(slots, model.TimeSlot{StartAt: start, EndAt: slotEnd})
}

// tileWindow fills an entirely free window with consecutive MaxMinutes
// candidates, the default suggestions for an empty day.
func tileWindow(slots []model.TimeSlot, start, end time.Time, win Window) []model.TimeSlot {
	minDur := time.Duration(win.MinMinutes) * time.Minute
	maxDur := time.Duration(win.MaxMinutes) * time.Minute

	for start.Add(minDur).Before(end) || start.Add(minDur).Equal(end) {
		slotEnd := start.Add(maxDur)
		if slotEnd.After(end) {
			slotEnd = end
		}
		slots = append(slots, model.TimeSlot{StartAt: start, EndAt: slotEnd})
		start = slotEnd
	}
	return slots
}

// clipped bounds one busy interval to the window, dropping it when it
// falls entirely outside.
func clipped(start, end, dayStart, dayEnd time.Time) []interval {
	if !end.After(dayStart) || !dayEnd.After(start) {
		return nil
	}
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	return []interval{{start: start, end: end}}
}

// mergeIntervals coalesces overlapping or touching intervals; the input
// must be sorted by start. Overlap is merged so busy time is never
// counted twice.
func mergeIntervals(busy []interval) []interval {
	if len(busy) == 0 {
		return busy
	}
	merged := busy[:1]
	for _, period := range busy[1:] {
		last := &merged[len(merged)-1]
		if !period.start.After(last.end) {
			if period.end.After(last.end) {
				last.end = period.end
			}
			continue
		}
		merged = append(merged, period)
	}
	return merged
}

func totalBusyMinutes(busy []interval) int {
	total := 0
	for _, period := range busy {
		total += int(period.end.Sub(period.start) / time.Minute)
	}
	return total
}

func atHour(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
