package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is an interface for accessing simulation time, so components can
// depend on a clock abstraction rather than a concrete controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// After returns a channel that receives the simulation time once d has
	// elapsed in simulation time.
	After(d time.Duration) <-chan time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated jumps straight from one scheduled event to the next
	// without waiting.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// triggerQueueSize bounds the number of pending out-of-band handlers.
const triggerQueueSize = 16

type schedule struct {
	period time.Duration
	next   time.Time
	fns    []func(time.Time)
}

type timer struct {
	due time.Time
	ch  chan time.Time
}

// TimeController drives simulation time. Listeners, periodic schedules and
// triggered handlers all run on the controller goroutine, one at a time, so
// handlers never overlap.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time

	tick      *schedule
	schedules []*schedule
	timers    []timer
	triggers  chan func(time.Time)
}

// NewTimeController constructs a controller whose base schedule fires every
// tick. A non-positive tick defaults to one second.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	if tick <= 0 {
		tick = time.Second
	}
	base := &schedule{period: tick}
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
		tick:        base,
		schedules:   []*schedule{base},
		triggers:    make(chan func(time.Time), triggerQueueSize),
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime overrides the current simulation time.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// After returns a channel that receives the simulation time once d has
// elapsed past Now. The channel is buffered and fires at most once, while
// the controller is running.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.timers = append(tc.timers, timer{due: tc.currentTime.Add(d), ch: ch})
	return ch
}

// AddListener registers a callback invoked on every tick. Must be called
// before Start.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.tick.fns = append(tc.tick.fns, fn)
}

// AddPeriodic registers a callback on its own schedule, independent of the
// tick. A non-positive period is ignored. Must be called before Start.
func (tc *TimeController) AddPeriodic(period time.Duration, fn func(time.Time)) {
	if period <= 0 || fn == nil {
		return
	}
	tc.schedules = append(tc.schedules, &schedule{period: period, fns: []func(time.Time){fn}})
}

// Trigger queues fn to run on the controller goroutine between scheduled
// events. It never blocks; false means the queue is full and fn was
// dropped. Handlers queued before Start run once it begins.
func (tc *TimeController) Trigger(fn func(time.Time)) bool {
	if fn == nil {
		return false
	}
	select {
	case tc.triggers <- fn:
		return true
	default:
		return false
	}
}

// Start runs the controller until ctx is cancelled or, when duration is
// positive, until duration of simulation time has elapsed. It returns a
// channel that is closed when the controller finishes.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})

	tc.mu.Lock()
	tc.currentTime = tc.StartTime
	for _, s := range tc.schedules {
		s.next = tc.StartTime.Add(s.period)
	}
	tc.mu.Unlock()

	go func() {
		defer close(done)
		if tc.Mode == Accelerated {
			tc.runAccelerated(ctx, duration)
			return
		}
		tc.runRealTime(ctx, duration)
	}()
	return done
}

func (tc *TimeController) runAccelerated(ctx context.Context, duration time.Duration) {
	end := tc.StartTime.Add(duration)
	for {
		if ctx.Err() != nil {
			return
		}
		tc.drainTriggers()

		next := tc.earliest()
		if duration > 0 && next.After(end) {
			return
		}
		tc.advance(next)
		tc.fireDue(next)
	}
}

func (tc *TimeController) runRealTime(ctx context.Context, duration time.Duration) {
	fired := make(chan *schedule)
	stop := make(chan struct{})
	defer close(stop)

	for _, s := range tc.schedules {
		go func(s *schedule) {
			ticker := time.NewTicker(s.period)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					select {
					case fired <- s:
					case <-stop:
						return
					}
				case <-stop:
					return
				}
			}
		}(s)
	}

	var deadline <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(duration)
		defer t.Stop()
		deadline = t.C
	}
	wallStart := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case fn := <-tc.triggers:
			fn(tc.Now())
		case s := <-fired:
			now := tc.StartTime.Add(time.Since(wallStart))
			tc.advance(now)
			for _, fn := range s.fns {
				fn(now)
			}
			tc.fireTimers(now)
		}
	}
}

// earliest returns the next due time over schedules and pending timers.
func (tc *TimeController) earliest() time.Time {
	next := tc.schedules[0].next
	for _, s := range tc.schedules[1:] {
		if s.next.Before(next) {
			next = s.next
		}
	}
	tc.mu.RLock()
	for _, t := range tc.timers {
		if t.due.Before(next) {
			next = t.due
		}
	}
	tc.mu.RUnlock()
	return next
}

// fireDue runs every schedule due at now in registration order, so the
// tick always precedes other schedules sharing its instant.
func (tc *TimeController) fireDue(now time.Time) {
	for _, s := range tc.schedules {
		if s.next.After(now) {
			continue
		}
		for _, fn := range s.fns {
			fn(now)
		}
		s.next = s.next.Add(s.period)
	}
	tc.fireTimers(now)
}

func (tc *TimeController) fireTimers(now time.Time) {
	tc.mu.Lock()
	pending := tc.timers[:0]
	var due []timer
	for _, t := range tc.timers {
		if t.due.After(now) {
			pending = append(pending, t)
			continue
		}
		due = append(due, t)
	}
	tc.timers = pending
	tc.mu.Unlock()

	for _, t := range due {
		t.ch <- now
	}
}

func (tc *TimeController) drainTriggers() {
	for {
		select {
		case fn := <-tc.triggers:
			fn(tc.Now())
		default:
			return
		}
	}
}

func (tc *TimeController) advance(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}
