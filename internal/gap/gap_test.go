package gap

import (
	"testing"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

var gapDay = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

// otherDay keeps "now" off the planning day so the window is not clipped
// to the current time.
var otherDay = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func event(id string, startHour, startMin, endHour, endMin int) model.Event {
	return model.Event{
		ID:      id,
		StartAt: time.Date(2026, 8, 24, startHour, startMin, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 8, 24, endHour, endMin, 0, 0, time.UTC),
	}
}

func TestFindFreeSlotsClipsLongGaps(t *testing.T) {
	events := []model.Event{
		event("standup", 9, 0, 10, 0),
		event("lunch", 13, 0, 14, 0),
	}
	result := FindFreeSlots(events, nil, gapDay, otherDay, DefaultWindow())

	// One bounded suggestion per gap: before standup, between the
	// meetings, and after lunch.
	if len(result.Slots) != 3 {
		t.Fatalf("len(Slots) = %d, want one clipped slot per gap, got %v", len(result.Slots), result.Slots)
	}
	for _, slot := range result.Slots {
		if slot.DurationMinutes() < 30 || slot.DurationMinutes() > 60 {
			t.Fatalf("slot outside the duration band: %v-%v", slot.StartAt, slot.EndAt)
		}
	}
	mid := result.Slots[1]
	if mid.StartAt.Hour() != 10 || mid.StartAt.Minute() != 0 ||
		mid.EndAt.Hour() != 11 || mid.EndAt.Minute() != 0 {
		t.Fatalf("three-hour gap must clip to a single 10:00-11:00 slot, got %v-%v", mid.StartAt, mid.EndAt)
	}
	for _, slot := range result.Slots {
		if slot.StartAt.Hour() == 11 || slot.StartAt.Hour() == 12 {
			t.Fatalf("gap was tiled instead of clipped: slot at %v", slot.StartAt)
		}
	}
}

func TestFindFreeSlotsEmptyDayTilesWindow(t *testing.T) {
	result := FindFreeSlots(nil, nil, gapDay, otherDay, DefaultWindow())
	if len(result.Slots) == 0 {
		t.Fatal("empty day must yield slot candidates")
	}
	if !result.MostlyFree {
		t.Fatal("empty day must be flagged mostly free")
	}

	first := result.Slots[0]
	if first.StartAt.Hour() != 6 {
		t.Fatalf("first slot must start at the window start, got %v", first.StartAt)
	}
	for i := 1; i < len(result.Slots); i++ {
		if result.Slots[i].StartAt.Before(result.Slots[i-1].EndAt) {
			t.Fatal("slots must be chronological and non-overlapping")
		}
	}
	last := result.Slots[len(result.Slots)-1]
	if last.EndAt.Hour() != 22 {
		t.Fatalf("tiling must fill the window to its end, got %v", last.EndAt)
	}
}

func TestFindFreeSlotsFullyBookedDay(t *testing.T) {
	events := []model.Event{event("offsite", 5, 0, 23, 0)}
	result := FindFreeSlots(events, nil, gapDay, otherDay, DefaultWindow())
	if len(result.Slots) != 0 {
		t.Fatalf("fully booked day must yield no slots, got %v", result.Slots)
	}
	if result.MostlyFree {
		t.Fatal("fully booked day must not be mostly free")
	}
}

func TestFindFreeSlotsIgnoresAllDayEvents(t *testing.T) {
	allDay := model.Event{
		ID:       "birthday",
		StartAt:  gapDay,
		EndAt:    gapDay.AddDate(0, 0, 1),
		IsAllDay: true,
	}
	result := FindFreeSlots([]model.Event{allDay}, nil, gapDay, otherDay, DefaultWindow())
	if len(result.Slots) == 0 {
		t.Fatal("all-day events must not block the day")
	}
}

func TestFindFreeSlotsCountsFocusBlocksAsBusy(t *testing.T) {
	block := model.FocusBlock{
		ID:      "block-1",
		StartAt: time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	result := FindFreeSlots(nil, []model.FocusBlock{block}, gapDay, otherDay, DefaultWindow())
	for _, slot := range result.Slots {
		if slot.StartAt.Before(block.EndAt) {
			t.Fatalf("slot overlaps an existing focus block: %v", slot.StartAt)
		}
	}
}

func TestFindFreeSlotsSkipsPastForToday(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
	result := FindFreeSlots(nil, nil, gapDay, now, DefaultWindow())
	for _, slot := range result.Slots {
		if slot.StartAt.Before(now) {
			t.Fatalf("slot in the past suggested for today: %v", slot.StartAt)
		}
	}
	if len(result.Slots) == 0 {
		t.Fatal("afternoon of a free day must still yield slots")
	}
}

func TestMostlyFreeMergesOverlappingBusyTime(t *testing.T) {
	// 09:00-10:30 and 10:00-11:00 cover 120 minutes of wall clock; a
	// naive sum would count 150 and cross the threshold with room to
	// spare for a third short meeting.
	overlapping := []model.Event{
		event("planning", 9, 0, 10, 30),
		event("review", 10, 0, 11, 0),
	}
	result := FindFreeSlots(overlapping, nil, gapDay, otherDay, Window{
		StartHour:        6,
		EndHour:          22,
		MinMinutes:       30,
		MaxMinutes:       60,
		MostlyFreeBusyAt: 121,
	})
	if !result.MostlyFree {
		t.Fatal("overlap must not be double-counted toward the busy total")
	}
}

func TestMostlyFreeThreshold(t *testing.T) {
	oneMeeting := []model.Event{event("sync", 9, 0, 10, 0)}
	if !FindFreeSlots(oneMeeting, nil, gapDay, otherDay, DefaultWindow()).MostlyFree {
		t.Fatal("60 busy minutes must be mostly free")
	}

	threeMeetings := []model.Event{
		event("a", 9, 0, 10, 0),
		event("b", 11, 0, 12, 0),
		event("c", 14, 0, 15, 30),
	}
	if FindFreeSlots(threeMeetings, nil, gapDay, otherDay, DefaultWindow()).MostlyFree {
		t.Fatal("210 busy minutes must not be mostly free")
	}
}
