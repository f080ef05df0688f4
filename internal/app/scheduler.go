package app

import "time"

// TaskKind names a scheduled task. At most one task of each kind is pending.
type TaskKind string

const (
	TaskCountdown   TaskKind = "countdown"
	TaskDistraction TaskKind = "distraction"
)

// Task is a one-shot deferred action bound to a round.
type Task struct {
	Kind    TaskKind
	RoundID string
	Due     time.Time
	// Appear is the pre-rolled visibility of a distraction.
	Appear bool
}

// Scheduler holds pending tasks and releases them as the clock passes their
// due time. Tasks belonging to another round are dropped, never fired.
type Scheduler struct {
	pending map[TaskKind]Task
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: map[TaskKind]Task{}}
}

// Schedule replaces any pending task of the same kind.
func (s *Scheduler) Schedule(t Task) { s.pending[t.Kind] = t }

// Pending reports whether a task of kind is waiting.
func (s *Scheduler) Pending(kind TaskKind) bool {
	_, ok := s.pending[kind]
	return ok
}

// Cancel drops the pending task of kind.
func (s *Scheduler) Cancel(kind TaskKind) { delete(s.pending, kind) }

// CancelAll drops every pending task.
func (s *Scheduler) CancelAll() {
	for k := range s.pending {
		delete(s.pending, k)
	}
}

// Due removes and returns tasks for roundID whose time has come, countdown
// first. Tasks keyed to any other round are discarded.
func (s *Scheduler) Due(now time.Time, roundID string) []Task {
	var out []Task
	for _, kind := range []TaskKind{TaskCountdown, TaskDistraction} {
		t, ok := s.pending[kind]
		if !ok {
			continue
		}
		if t.RoundID != roundID {
			delete(s.pending, kind)
			continue
		}
		if t.Due.After(now) {
			continue
		}
		delete(s.pending, kind)
		out = append(out, t)
	}
	return out
}
