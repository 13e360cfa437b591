package courselib

import (
	"context"
	"sync"

	"github.com/coursedl/coursedl/pkg/logger"
)

// DefaultMaxConcurrent is the concurrency bound used when none is
// configured.
const DefaultMaxConcurrent = 3

// Scheduler owns all task bookkeeping: the submission history, the FIFO
// wait queue and the active set, bounded by a live-mutable concurrency
// limit. All methods are safe for concurrent use; the dispatch step runs
// under the scheduler mutex and therefore never races with itself.
type Scheduler struct {
	mu            sync.Mutex
	ctx           context.Context
	log           logger.Logger
	maxConcurrent int

	// tasks is the append-style history of every submission; queue and
	// active only ever hold tasks that are also in tasks, and a given id
	// is in at most one of queue and active.
	tasks  []Task
	queue  []Task
	active map[string]Task

	subs []chan []TaskSnapshot
}

// NewScheduler creates a scheduler with the given concurrency bound.
// Backend calls issued on behalf of tasks use ctx; cancelling it aborts
// them. A nil logger disables logging.
func NewScheduler(ctx context.Context, maxConcurrent int, l logger.Logger) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Scheduler{
		ctx:           ctx,
		log:           l,
		maxConcurrent: maxConcurrent,
		active:        make(map[string]Task),
	}
}

// AddTask submits a task. Submissions whose id is already queued or
// active are dropped, preventing duplicate concurrent work. A submission
// matching a history entry replaces it only when that entry is canceled
// or redownload is set; otherwise it is silently dropped.
func (s *Scheduler) AddTask(t Task, redownload bool) {
	s.mu.Lock()
	if !s.inFlightLocked(t.ID()) {
		if i := s.taskIndexLocked(t.ID()); i == -1 {
			s.tasks = append(s.tasks, t)
			s.queue = append(s.queue, t)
		} else if s.tasks[i].Status() == StatusCanceled || redownload {
			s.tasks[i] = t
			s.queue = append(s.queue, t)
		}
	}
	s.dispatchLocked()
	s.mu.Unlock()
	s.publish()
}

// CancelTask cancels a task by id. An active task is canceled through the
// backend; a queued task is marked canceled synchronously since it never
// started. Ids found only in history (already terminal) are a no-op.
func (s *Scheduler) CancelTask(id string) {
	s.mu.Lock()
	if t, ok := s.active[id]; ok {
		s.mu.Unlock()
		s.cancelActive(id, t)
		return
	}
	if i := s.queueIndexLocked(id); i != -1 {
		t := s.queue[i]
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		t.setStatus(StatusCanceled)
	}
	s.dispatchLocked()
	s.mu.Unlock()
	s.publish()
}

// cancelActive requests backend cancellation off the scheduler goroutine
// and evicts the slot when it resolves. A failed cancel still evicts:
// leaking a concurrency slot is worse than evicting a possibly
// still-running transfer.
func (s *Scheduler) cancelActive(id string, t Task) {
	safeGo(s.log, "cancel "+id, func() {
		if err := t.Cancel(s.ctx); err != nil {
			s.log.Warning("cancel %s failed, evicting slot anyway: %v", id, err)
		}
		s.mu.Lock()
		delete(s.active, id)
		s.dispatchLocked()
		s.mu.Unlock()
		s.publish()
	})
}

// CancelAllTasks cancels every non-terminal task but leaves the history
// intact so completed items remain visible.
func (s *Scheduler) CancelAllTasks() {
	s.mu.Lock()
	for _, t := range s.queue {
		t.setStatus(StatusCanceled)
	}
	s.queue = nil
	for id, t := range s.active {
		id, t := id, t
		safeGo(s.log, "cancel "+id, func() {
			if err := t.Cancel(s.ctx); err != nil {
				s.log.Warning("cancel %s failed: %v", id, err)
			}
		})
	}
	s.active = make(map[string]Task)
	s.mu.Unlock()
	s.publish()
}

// ReDownloadTask re-queues a failed or canceled task from history. Tasks
// that are already queued or active are left alone.
func (s *Scheduler) ReDownloadTask(id string) {
	s.mu.Lock()
	s.redownloadLocked(id)
	s.dispatchLocked()
	s.mu.Unlock()
	s.publish()
}

// ReDownloadAllTasks re-queues every failed or canceled task in history.
func (s *Scheduler) ReDownloadAllTasks() {
	s.mu.Lock()
	for _, t := range s.tasks {
		s.redownloadLocked(t.ID())
	}
	s.dispatchLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Scheduler) redownloadLocked(id string) {
	if s.inFlightLocked(id) {
		return
	}
	i := s.taskIndexLocked(id)
	if i == -1 {
		return
	}
	t := s.tasks[i]
	if st := t.Status(); st != StatusFailed && st != StatusCanceled {
		return
	}
	t.setStatus(StatusPending)
	s.queue = append(s.queue, t)
}

// UpdateProgress routes a backend event to its task. Events for unknown
// ids are ignored, as are events for tasks that are no longer active
// (the backend may emit stragglers after a local cancel or a cleanup).
// A terminal event frees the task's slot and re-runs dispatch.
func (s *Scheduler) UpdateProgress(ev ProgressEvent) {
	s.mu.Lock()
	i := s.taskIndexLocked(ev.ID)
	if i == -1 {
		s.mu.Unlock()
		return
	}
	t := s.tasks[i]
	if _, ok := s.active[ev.ID]; !ok {
		s.mu.Unlock()
		return
	}
	t.ApplyProgress(ev)
	if ev.Status.Terminal() {
		delete(s.active, ev.ID)
	}
	s.dispatchLocked()
	s.mu.Unlock()
	s.publish()
}

// CleanUp cancels every active transfer fire-and-forget and drops all
// bookkeeping, including the history. Used when a session ends.
func (s *Scheduler) CleanUp() {
	s.mu.Lock()
	for id, t := range s.active {
		id, t := id, t
		safeGo(s.log, "cleanup "+id, func() {
			if err := t.Cancel(s.ctx); err != nil {
				s.log.Warning("cleanup cancel %s: %v", id, err)
			}
		})
	}
	s.active = make(map[string]Task)
	s.queue = nil
	s.tasks = nil
	s.mu.Unlock()
	s.publish()
}

// GetTasks returns the submission history, oldest first.
func (s *Scheduler) GetTasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Snapshots returns point-in-time views of the history, oldest first.
func (s *Scheduler) Snapshots() []TaskSnapshot {
	tasks := s.GetTasks()
	snaps := make([]TaskSnapshot, len(tasks))
	for i, t := range tasks {
		snaps[i] = t.Snapshot()
	}
	return snaps
}

// GetDownloadingCount returns the number of tasks that are active or
// waiting for a slot.
func (s *Scheduler) GetDownloadingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) + len(s.queue)
}

// CheckTaskExists reports whether a history entry with the candidate's id
// exists, is not canceled, and is equal to the candidate. Callers use it
// to drive the "already downloaded, fetch again?" confirmation.
func (s *Scheduler) CheckTaskExists(c Task) bool {
	s.mu.Lock()
	i := s.taskIndexLocked(c.ID())
	if i == -1 {
		s.mu.Unlock()
		return false
	}
	t := s.tasks[i]
	s.mu.Unlock()
	return t.Status() != StatusCanceled && t.Equals(c)
}

// OpenTask reveals the finished artifact of the task with the given id.
func (s *Scheduler) OpenTask(id string, folder bool) (string, error) {
	s.mu.Lock()
	i := s.taskIndexLocked(id)
	if i == -1 {
		s.mu.Unlock()
		return "", ErrTaskNotFound
	}
	t := s.tasks[i]
	s.mu.Unlock()
	return t.Open(s.ctx, folder)
}

// SetMaxConcurrent updates the concurrency bound at runtime and re-runs
// dispatch, since a raised bound may unblock queued tasks. Values below 1
// are clamped to 1.
func (s *Scheduler) SetMaxConcurrent(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.maxConcurrent = n
	s.dispatchLocked()
	s.mu.Unlock()
	s.publish()
}

// MaxConcurrent returns the current concurrency bound.
func (s *Scheduler) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxConcurrent
}

// Subscribe returns a channel receiving history snapshots after every
// state change. Sends never block; a subscriber that lags misses
// intermediate updates, not the latest state, since every later change
// publishes again.
func (s *Scheduler) Subscribe() <-chan []TaskSnapshot {
	ch := make(chan []TaskSnapshot, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Scheduler) publish() {
	snaps := s.Snapshots()
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snaps:
		default:
		}
	}
}

// dispatchLocked promotes queued tasks into the active set up to the
// concurrency bound, FIFO. Start runs off the scheduler goroutine; a
// rejected start marks the task failed and frees its slot immediately so
// failures never stall the pool.
func (s *Scheduler) dispatchLocked() {
	for len(s.active) < s.maxConcurrent && len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.active[t.ID()] = t
		s.startTask(t)
	}
}

func (s *Scheduler) startTask(t Task) {
	safeGo(s.log, "start "+t.ID(), func() {
		if err := t.Start(s.ctx); err != nil {
			s.log.Error("start %s: %v", t.ID(), err)
			t.setStatus(StatusFailed)
			s.mu.Lock()
			delete(s.active, t.ID())
			s.dispatchLocked()
			s.mu.Unlock()
		}
		s.publish()
	})
}

func (s *Scheduler) inFlightLocked(id string) bool {
	if _, ok := s.active[id]; ok {
		return true
	}
	return s.queueIndexLocked(id) != -1
}

func (s *Scheduler) taskIndexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Scheduler) queueIndexLocked(id string) int {
	for i, t := range s.queue {
		if t.ID() == id {
			return i
		}
	}
	return -1
}
