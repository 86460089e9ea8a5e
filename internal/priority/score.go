// Package priority derives a numeric score and a discrete tier from a
// task's current attributes. Scoring is deterministic and total: every
// valid task resolves to a tier, including one with no importance,
// urgency, or due date. Tiers are never persisted; callers recompute on
// every read so edits re-rank immediately.
package priority

import (
	"sort"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

type Tier int

const (
	TierDoNow Tier = iota + 1
	TierPlanSoon
	TierEventually
	TierSomeday
)

func (t Tier) String() string {
	switch t {
	case TierDoNow:
		return "do_now"
	case TierPlanSoon:
		return "plan_soon"
	case TierEventually:
		return "eventually"
	default:
		return "someday"
	}
}

// Score component caps. The total is clamped to 100.
const (
	maxEisenhower   = 50
	maxDeadline     = 25
	maxNeglect      = 15
	maxCompleteness = 5
	nextUpBonus     = 5
)

type Result struct {
	Score   int
	Tier    Tier
	Overdue bool
}

// Score computes the priority of a task at the given instant.
func Score(task model.PlanItem, now time.Time) Result {
	total := eisenhowerScore(task.Importance, task.Urgency) +
		deadlineScore(task.DueAt, now) +
		neglectScore(task.CreatedAt, task.RescheduleCount, now) +
		completenessScore(task)
	if task.IsNextUp {
		total += nextUpBonus
	}
	if total > 100 {
		total = 100
	}

	overdue := task.IsOverdue(now)
	tier := tierFromScore(total)
	// Overdue promotes to at least doNow regardless of the numeric score.
	if overdue && tier > TierDoNow {
		tier = TierDoNow
	}
	return Result{Score: total, Tier: tier, Overdue: overdue}
}

func tierFromScore(score int) Tier {
	switch {
	case score >= 60:
		return TierDoNow
	case score >= 35:
		return TierPlanSoon
	case score >= 10:
		return TierEventually
	default:
		return TierSomeday
	}
}

// eisenhowerScore maps the importance/urgency matrix onto 0-50.
func eisenhowerScore(importance model.Importance, urgency model.Urgency) int {
	urgent := urgency == model.UrgencyUrgent
	notUrgent := urgency == model.UrgencyNotUrgent

	switch {
	case importance == model.ImportanceHigh && urgent:
		return 50
	case importance == model.ImportanceHigh && notUrgent:
		return 38
	case importance == model.ImportanceMedium && urgent:
		return 35
	case importance == model.ImportanceLow && urgent:
		return 30
	case importance == model.ImportanceMedium && notUrgent:
		return 20
	case importance == model.ImportanceLow && notUrgent:
		return 10
	case importance == model.ImportanceUnset && urgent:
		return 25
	case importance == model.ImportanceUnset && notUrgent:
		return 8
	case importance != model.ImportanceUnset:
		return 15
	default:
		return 0
	}
}

// deadlineScore grows monotonically as the due date approaches, 0-25.
func deadlineScore(dueAt *time.Time, now time.Time) int {
	if dueAt == nil {
		return 0
	}
	days := daysBetween(now, *dueAt)
	switch {
	case days <= 0:
		return 25
	case days == 1:
		return 22
	case days <= 3:
		return 18
	case days <= 7:
		return 12
	case days <= 14:
		return 6
	case days <= 30:
		return 3
	default:
		return 0
	}
}

// neglectScore rewards tasks that have been sitting in the backlog: age
// scaled linearly over 30 days (0-10) plus reschedule count (0-5).
func neglectScore(createdAt time.Time, rescheduleCount int, now time.Time) int {
	daysOld := daysBetween(createdAt, now)
	if daysOld < 0 {
		daysOld = 0
	}
	ageScore := daysOld * 10 / 30
	if ageScore > 10 {
		ageScore = 10
	}
	rescheduleScore := rescheduleCount
	if rescheduleScore > 5 {
		rescheduleScore = 5
	}
	return ageScore + rescheduleScore
}

// completenessScore gives a point per curated attribute, plus one when
// all four are set.
func completenessScore(task model.PlanItem) int {
	score := 0
	if task.Importance != model.ImportanceUnset {
		score++
	}
	if task.Urgency != model.UrgencyUnset {
		score++
	}
	if task.EstimatedDuration > 0 {
		score++
	}
	if task.Category != model.CategoryUnset {
		score++
	}
	if score == 4 {
		score++
	}
	return score
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay) / (24 * time.Hour))
}

// Ranked pairs a task with its computed priority.
type Ranked struct {
	Task model.PlanItem
	Result
}

// Rank scores every task and sorts by tier, then overdue first, then
// score descending, then due date ascending (absent last), then creation
// time, then id. The ordering is fully deterministic so re-renders never
// reshuffle equal-priority tasks.
func Rank(tasks []model.PlanItem, now time.Time) []Ranked {
	out := make([]Ranked, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, Ranked{Task: task, Result: Score(task, now)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

func Less(a, b Ranked) bool {
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	if a.Overdue != b.Overdue {
		return a.Overdue
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if cmp := compareDue(a.Task.DueAt, b.Task.DueAt); cmp != 0 {
		return cmp < 0
	}
	if !a.Task.CreatedAt.Equal(b.Task.CreatedAt) {
		return a.Task.CreatedAt.Before(b.Task.CreatedAt)
	}
	return a.Task.ID < b.Task.ID
}

func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}
