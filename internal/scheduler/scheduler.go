package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

// RunFunc is one user's trading loop. It must return shortly after its
// context is canceled; the scheduler tracks termination through its return.
type RunFunc func(ctx context.Context, userID string)

// handle tracks one live runner.
type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler reconciles the set of live runners against the user registry.
// It guarantees at most one runner per user id.
type Scheduler struct {
	store    *db.Database
	bus      *events.Bus
	run      RunFunc
	resetter ProfitResetter
	interval time.Duration

	mu      sync.Mutex
	handles map[string]*handle
	// draining holds the done channels of cancelled runners that have not
	// returned yet. A user with a draining entry gets no replacement until
	// it closes; two runners for one user would race on its trading state.
	draining map[string]chan struct{}

	lastReset string // UTC date of the last daily_profit reset
}

// ProfitResetter zeroes every user's daily running total. The recorder
// implements it under its per-user write sections.
type ProfitResetter interface {
	ResetDailyProfits(ctx context.Context) error
}

func New(store *db.Database, bus *events.Bus, run RunFunc, resetter ProfitResetter, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{
		store:     store,
		bus:       bus,
		run:       run,
		resetter:  resetter,
		interval:  interval,
		handles:   make(map[string]*handle),
		draining:  make(map[string]chan struct{}),
		lastReset: time.Now().UTC().Format("2006-01-02"),
	}
}

// Run reconciles on a fixed cadence until ctx is canceled, then stops every
// runner and waits for them to drain.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return
		case <-ticker.C:
			s.resetDailyProfits(ctx)
			s.Reconcile(ctx)
		}
	}
}

// Reconcile takes a registry snapshot and converges the runner set: start
// eligible users without a live runner, cancel runners whose users are no
// longer eligible. Idempotent; a registry read failure skips the cycle and
// leaves existing runners untouched.
func (s *Scheduler) Reconcile(ctx context.Context) {
	users, err := s.store.ListActiveAutobotUsers(ctx)
	if err != nil {
		log.Printf("scheduler: registry snapshot: %v", err)
		s.bus.Publish(events.EventSchedulerError, err.Error())
		return
	}

	eligible := make(map[string]bool, len(users))
	for _, u := range users {
		eligible[u.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reap terminated and fully drained runners so they can be restarted
	// below.
	for id, h := range s.handles {
		select {
		case <-h.done:
			delete(s.handles, id)
		default:
		}
	}
	for id, done := range s.draining {
		select {
		case <-done:
			delete(s.draining, id)
		default:
		}
	}

	for id, h := range s.handles {
		if eligible[id] {
			continue
		}
		h.cancel()
		delete(s.handles, id)
		s.draining[id] = h.done
		log.Printf("scheduler: stopping runner %s (no longer eligible)", id)
		s.bus.Publish(events.EventRunnerStopped, events.LifecyclePayload{UserID: id, Reason: "not eligible"})
	}

	for id := range eligible {
		if _, live := s.handles[id]; live {
			continue
		}
		if _, busy := s.draining[id]; busy {
			// The previous runner observed cancellation but has not
			// returned. Start its replacement on a later pass.
			continue
		}
		s.start(ctx, id)
	}
}

// start launches a runner under the scheduler's lock.
func (s *Scheduler) start(ctx context.Context, userID string) {
	runCtx, cancel := context.WithCancel(ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}
	s.handles[userID] = h

	go func() {
		defer close(h.done)
		s.run(runCtx, userID)
	}()

	log.Printf("scheduler: started runner %s", userID)
	s.bus.Publish(events.EventRunnerStarted, events.LifecyclePayload{UserID: userID})
}

// stopAll cancels every runner and waits for termination.
func (s *Scheduler) stopAll() {
	s.mu.Lock()
	handles := make(map[string]*handle, len(s.handles))
	for id, h := range s.handles {
		handles[id] = h
		h.cancel()
	}
	draining := make([]chan struct{}, 0, len(s.draining))
	for _, done := range s.draining {
		draining = append(draining, done)
	}
	s.handles = make(map[string]*handle)
	s.draining = make(map[string]chan struct{})
	s.mu.Unlock()

	for id, h := range handles {
		<-h.done
		s.bus.Publish(events.EventRunnerStopped, events.LifecyclePayload{UserID: id, Reason: "shutdown"})
	}
	for _, done := range draining {
		<-done
	}
	log.Printf("scheduler: all runners stopped")
}

// resetDailyProfits zeroes every user's running total once per UTC day.
// The reset goes through the recorder so it cannot land inside a runner's
// read-modify-write of the same row.
func (s *Scheduler) resetDailyProfits(ctx context.Context) {
	if s.resetter == nil {
		return
	}
	today := time.Now().UTC().Format("2006-01-02")
	if today == s.lastReset {
		return
	}
	if err := s.resetter.ResetDailyProfits(ctx); err != nil {
		log.Printf("scheduler: daily profit reset: %v", err)
		return
	}
	s.lastReset = today
	log.Printf("scheduler: daily profits reset for %s", today)
}

// Status is the API view over the runner set.
type Status struct {
	Running int      `json:"running"`
	UserIDs []string `json:"user_ids"`
}

// Status reports the currently live runners.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{UserIDs: make([]string, 0, len(s.handles))}
	for id, h := range s.handles {
		select {
		case <-h.done:
			continue
		default:
		}
		st.UserIDs = append(st.UserIDs, id)
	}
	sort.Strings(st.UserIDs)
	st.Running = len(st.UserIDs)
	return st
}
