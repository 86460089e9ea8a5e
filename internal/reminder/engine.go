// Package reminder runs a min-heap timer engine that fires alerts when
// a focus block is about to start or a task falls due. Alerts are
// delivered on a buffered channel; a full buffer drops the alert rather
// than blocking the timer loop.
package reminder

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fbecker/blockplan/internal/model"
)

var ErrInvalidTriggerTime = errors.New("reminder: invalid trigger time")

type Kind string

const (
	KindBlockStarting Kind = "block_starting"
	KindTaskDue       Kind = "task_due"
)

type Alert struct {
	ID        string
	Kind      Kind
	Subject   string
	Title     string
	TriggerAt time.Time
}

// ForBlockStart builds the alert announcing a focus block shortly
// before it begins.
func ForBlockStart(b model.FocusBlock, lead time.Duration) Alert {
	return Alert{
		ID:        fmt.Sprintf("block-start:%s", b.ID),
		Kind:      KindBlockStarting,
		Subject:   b.ID,
		Title:     b.Title,
		TriggerAt: b.StartAt.Add(-lead),
	}
}

// ForTaskDue builds the alert for a task's due moment.
func ForTaskDue(task model.PlanItem) (Alert, bool) {
	if task.DueAt == nil {
		return Alert{}, false
	}
	return Alert{
		ID:        fmt.Sprintf("task-due:%s", task.ID),
		Kind:      KindTaskDue,
		Subject:   task.ID,
		Title:     task.Title,
		TriggerAt: *task.DueAt,
	}, true
}

type queueItem struct {
	alert Alert
}

type alertQueue []queueItem

func (q alertQueue) Len() int { return len(q) }

func (q alertQueue) Less(i, j int) bool {
	return q[i].alert.TriggerAt.Before(q[j].alert.TriggerAt)
}

func (q alertQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *alertQueue) Push(x any) {
	*q = append(*q, x.(queueItem))
}

func (q *alertQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

type Engine struct {
	mu        sync.Mutex
	queue     alertQueue
	scheduled map[string]bool
	out       chan Alert
	wakeup    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	dropped   uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:     make(alertQueue, 0),
		scheduled: make(map[string]bool),
		out:       make(chan Alert, bufferSize),
		wakeup:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Alert {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule queues an alert. Re-scheduling an ID already queued is a
// no-op, so sync passes can blindly re-submit the day's alerts.
func (e *Engine) Schedule(alert Alert) error {
	if alert.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errors.New("reminder: engine stopped")
	}
	if e.scheduled[alert.ID] {
		return nil
	}
	e.scheduled[alert.ID] = true

	heap.Push(&e.queue, queueItem{alert: alert})
	e.signalWakeup()
	return nil
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.TriggerAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now().UTC())
			for _, alert := range due {
				select {
				case e.out <- alert:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Alert{}, false
	}
	return e.queue[0].alert, true
}

func (e *Engine) popDue(now time.Time) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alert, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].alert
		if next.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		out = append(out, item.alert)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
