package lrmp

import (
	"container/heap"
	"sync"
	"time"

	"github.com/pion/logging"
)

// idleTimeout bounds how long the scheduler sleeps with nothing to do.
const idleTimeout = 10 * time.Second

// TimerHandler is called from the scheduler goroutine when a task is due.
type TimerHandler interface {
	HandleTimerEvent(data any, time time.Time)
}

// TimerHandlerFunc adapts a function to a TimerHandler.
type TimerHandlerFunc func(data any, time time.Time)

func (f TimerHandlerFunc) HandleTimerEvent(data any, time time.Time) {
	f(data, time)
}

// TimerTask is a scheduled callback. It doubles as the token for Cancel.
type TimerTask struct {
	time    time.Time
	data    any
	handler TimerHandler
	index   int // -1 once fired or cancelled
}

// Time returns the absolute time the task is due.
func (t *TimerTask) Time() time.Time {
	return t.time
}

func (t *TimerTask) String() string {
	return "timer@" + t.time.Format("15:04:05.000")
}

type timerHeap []*TimerTask

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].time.Before(h[j].time) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*TimerTask)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// TimerService runs delayed callbacks on a single background goroutine.
// One instance is meant to be shared by everything in the process.
//
// Handlers run without the service lock held, so they may register or
// cancel tasks. A handler that panics is logged and does not disturb the
// other tasks.
type TimerService struct {
	sync.Mutex
	tasks  timerHeap
	wakeup chan struct{}
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
	log    logging.LeveledLogger
}

// NewTimerService starts a timer service. factory may be nil.
func NewTimerService(factory logging.LoggerFactory) *TimerService {
	em := &TimerService{
		wakeup: make(chan struct{}, 1),
		done:   make(chan struct{}),
		log:    newLogger(factory, "lrmp-timer"),
	}

	em.wg.Add(1)
	go em.run()

	return em
}

func (em *TimerService) run() {
	defer em.wg.Done()

	for {
		em.Lock()

		timeout := idleTimeout

		if em.tasks.Len() > 0 {
			timeout = time.Until(em.tasks[0].time)
		}

		if timeout < 0 {
			timeout = 0
		}

		em.Unlock()

		t := time.NewTimer(timeout)
		select {
		case <-em.done:
			t.Stop()
			return
		case <-em.wakeup:
		case <-t.C:
		}
		t.Stop()

		for {
			em.Lock()
			if em.closed {
				em.Unlock()
				return
			}
			var task *TimerTask
			if em.tasks.Len() > 0 && !em.tasks[0].time.After(time.Now()) {
				task = heap.Pop(&em.tasks).(*TimerTask)
			}

			em.Unlock() // the handler might submit another task

			if task == nil {
				break
			}
			em.fire(task)
		}
	}
}

func (em *TimerService) fire(task *TimerTask) {
	defer func() {
		if r := recover(); r != nil {
			em.log.Errorf("unable to execute %v: %v", task, r)
		}
	}()

	em.log.Tracef("firing %v", task)
	task.handler.HandleTimerEvent(task.data, task.time)
}

// Register schedules handler to be called with data after ms milliseconds.
func (em *TimerService) Register(ms int, handler TimerHandler, data any) (*TimerTask, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if f, ok := handler.(TimerHandlerFunc); ok && f == nil {
		return nil, ErrNilHandler
	}
	if ms < 0 {
		return nil, ErrNegativeDelay
	}

	t := &TimerTask{time: addMillis(time.Now(), ms), handler: handler, data: data}

	em.Lock()
	if em.closed {
		em.Unlock()
		return nil, ErrTimerClosed
	}
	heap.Push(&em.tasks, t)
	em.Unlock()

	select {
	case em.wakeup <- struct{}{}:
	default:
	}

	em.log.Tracef("scheduled %v in %dms", t, ms)

	return t, nil
}

// Cancel removes task if it has not started firing. It reports whether the
// task was removed; a task that already fired, is firing, or was cancelled
// before yields false.
func (em *TimerService) Cancel(task *TimerTask) bool {
	if task == nil {
		return false
	}

	em.Lock()
	defer em.Unlock()

	if task.index < 0 || task.index >= em.tasks.Len() || em.tasks[task.index] != task {
		return false
	}

	heap.Remove(&em.tasks, task.index)

	return true
}

// Pending returns the number of tasks waiting to fire.
func (em *TimerService) Pending() int {
	em.Lock()
	defer em.Unlock()
	return em.tasks.Len()
}

// Close stops the scheduler and waits for it to exit. Pending tasks are
// dropped. Close must not be called from a timer handler.
func (em *TimerService) Close() {
	em.Lock()
	if em.closed {
		em.Unlock()
		return
	}
	em.closed = true
	for _, t := range em.tasks {
		t.index = -1
	}
	em.tasks = nil
	close(em.done)
	em.Unlock()

	em.wg.Wait()
}
