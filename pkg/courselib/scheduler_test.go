package courselib

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeBackend records start/cancel calls and lets tests inject errors.
type fakeBackend struct {
	mu        sync.Mutex
	started   []string
	canceled  []string
	startErr  error
	cancelErr error
}

func (b *fakeBackend) StartFile(_ context.Context, id string, _ Upload, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return b.startErr
	}
	b.started = append(b.started, id)
	return nil
}

func (b *fakeBackend) StartSlides(_ context.Context, id string, _ Subject, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return b.startErr
	}
	b.started = append(b.started, id)
	return nil
}

func (b *fakeBackend) Cancel(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canceled = append(b.canceled, id)
	return b.cancelErr
}

func (b *fakeBackend) Open(_ context.Context, path string, _ bool) (string, error) {
	return path, nil
}

func (b *fakeBackend) startCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.started)
}

func (b *fakeBackend) startedIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.started))
	copy(out, b.started)
	return out
}

func (b *fakeBackend) cancelCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.canceled)
}

func newTestTask(b Backend, n int) *FileTask {
	return NewFileTask(b, Upload{
		ReferenceID: int64(n),
		FileName:    fmt.Sprintf("file%02d.pdf", n),
		CourseName:  "Course",
		Path:        "/tmp/dl",
		Size:        1000,
	}, false)
}

// waitUntil polls cond since task starts run on their own goroutines.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func doneEvent(id string) ProgressEvent {
	return ProgressEvent{ID: id, Status: StatusDone, DownloadedSize: 1000, TotalSize: 1000}
}

func TestSchedulerFIFOBound(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 2, nil)

	tasks := make([]*FileTask, 5)
	for i := range tasks {
		tasks[i] = newTestTask(b, i)
		s.AddTask(tasks[i], false)
	}

	waitUntil(t, "first two starts", func() bool { return b.startCount() == 2 })
	if got := s.GetDownloadingCount(); got != 5 {
		t.Errorf("downloading count = %d, want 5", got)
	}
	// The first two submissions hold the two slots; their goroutines
	// may interleave, so check membership rather than order.
	started := map[string]bool{}
	for _, id := range b.startedIDs() {
		started[id] = true
	}
	if !started[tasks[0].ID()] || !started[tasks[1].ID()] {
		t.Errorf("started = %v", b.startedIDs())
	}

	// Finishing one frees a slot for the next queued task, in order.
	s.UpdateProgress(doneEvent(tasks[0].ID()))
	waitUntil(t, "third start", func() bool { return b.startCount() == 3 })
	if ids := b.startedIDs(); ids[2] != tasks[2].ID() {
		t.Errorf("third start = %s, want %s", ids[2], tasks[2].ID())
	}
	if got := s.GetDownloadingCount(); got != 4 {
		t.Errorf("downloading count after done = %d, want 4", got)
	}
	if tasks[0].Status() != StatusDone {
		t.Errorf("finished task status = %s", tasks[0].Status())
	}
}

func TestSchedulerDedup(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	s.AddTask(newTestTask(b, 1), false)
	s.AddTask(newTestTask(b, 1), false)

	waitUntil(t, "start", func() bool { return b.startCount() == 1 })
	if got := len(s.GetTasks()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
	// Give a straggling duplicate start a chance to show up.
	time.Sleep(50 * time.Millisecond)
	if got := b.startCount(); got != 1 {
		t.Errorf("start count = %d, want 1", got)
	}
}

func TestSchedulerCancelQueued(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	first := newTestTask(b, 1)
	second := newTestTask(b, 2)
	s.AddTask(first, false)
	s.AddTask(second, false)
	waitUntil(t, "first start", func() bool { return b.startCount() == 1 })

	s.CancelTask(second.ID())
	if second.Status() != StatusCanceled {
		t.Errorf("queued task status = %s, want canceled", second.Status())
	}
	if b.cancelCount() != 0 {
		t.Error("queued cancel must not reach the backend")
	}
	if got := s.GetDownloadingCount(); got != 1 {
		t.Errorf("downloading count = %d, want 1", got)
	}
}

func TestSchedulerCancelActivePromotesQueued(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	first := newTestTask(b, 1)
	second := newTestTask(b, 2)
	s.AddTask(first, false)
	s.AddTask(second, false)
	waitUntil(t, "first start", func() bool { return b.startCount() == 1 })

	s.CancelTask(first.ID())
	waitUntil(t, "backend cancel", func() bool { return b.cancelCount() == 1 })
	waitUntil(t, "second start", func() bool { return b.startCount() == 2 })
	if first.Status() != StatusCanceled {
		t.Errorf("canceled task status = %s", first.Status())
	}
}

func TestSchedulerCancelFailureStillFreesSlot(t *testing.T) {
	b := &fakeBackend{cancelErr: errors.New("backend unreachable")}
	s := NewScheduler(context.Background(), 1, nil)

	first := newTestTask(b, 1)
	second := newTestTask(b, 2)
	s.AddTask(first, false)
	s.AddTask(second, false)
	waitUntil(t, "first start", func() bool { return b.startCount() == 1 })

	s.CancelTask(first.ID())
	waitUntil(t, "second start despite cancel error", func() bool { return b.startCount() == 2 })
}

func TestSchedulerStartFailureFreesSlot(t *testing.T) {
	b := &fakeBackend{startErr: errors.New("rejected")}
	s := NewScheduler(context.Background(), 1, nil)

	first := newTestTask(b, 1)
	second := newTestTask(b, 2)
	s.AddTask(first, false)
	s.AddTask(second, false)

	waitUntil(t, "both tasks failed", func() bool {
		return first.Status() == StatusFailed && second.Status() == StatusFailed
	})
	if got := s.GetDownloadingCount(); got != 0 {
		t.Errorf("downloading count = %d, want 0", got)
	}
}

func TestSchedulerRedownload(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	task := newTestTask(b, 1)
	s.AddTask(task, false)
	waitUntil(t, "start", func() bool { return b.startCount() == 1 })
	s.UpdateProgress(ProgressEvent{ID: task.ID(), Status: StatusFailed})

	s.ReDownloadTask(task.ID())
	waitUntil(t, "restart", func() bool { return b.startCount() == 2 })
	if got := len(s.GetTasks()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestSchedulerRedownloadIgnoresDone(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	task := newTestTask(b, 1)
	s.AddTask(task, false)
	waitUntil(t, "start", func() bool { return b.startCount() == 1 })
	s.UpdateProgress(doneEvent(task.ID()))

	s.ReDownloadTask(task.ID())
	time.Sleep(50 * time.Millisecond)
	if got := b.startCount(); got != 1 {
		t.Errorf("done task was restarted: start count = %d", got)
	}
}

func TestSchedulerRedownloadAll(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 3, nil)

	failed := newTestTask(b, 1)
	done := newTestTask(b, 2)
	s.AddTask(failed, false)
	s.AddTask(done, false)
	waitUntil(t, "both starts", func() bool { return b.startCount() == 2 })
	s.UpdateProgress(ProgressEvent{ID: failed.ID(), Status: StatusFailed})
	s.UpdateProgress(doneEvent(done.ID()))

	s.ReDownloadAllTasks()
	waitUntil(t, "failed restart only", func() bool { return b.startCount() == 3 })
	time.Sleep(50 * time.Millisecond)
	if got := b.startCount(); got != 3 {
		t.Errorf("start count = %d, want 3", got)
	}
}

func TestSchedulerUpdateProgressStale(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	// Unknown id is a no-op.
	s.UpdateProgress(doneEvent("nope"))

	task := newTestTask(b, 1)
	s.AddTask(task, false)
	waitUntil(t, "start", func() bool { return b.startCount() == 1 })
	s.UpdateProgress(doneEvent(task.ID()))

	// A straggler after the terminal event must not resurrect the task.
	s.UpdateProgress(ProgressEvent{ID: task.ID(), Status: StatusDownloading, DownloadedSize: 10})
	if task.Status() != StatusDone {
		t.Errorf("stale event applied: status = %s", task.Status())
	}
}

func TestSchedulerCancelAllKeepsHistory(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	first := newTestTask(b, 1)
	second := newTestTask(b, 2)
	s.AddTask(first, false)
	s.AddTask(second, false)
	waitUntil(t, "first start", func() bool { return b.startCount() == 1 })

	s.CancelAllTasks()
	waitUntil(t, "backend cancel", func() bool { return b.cancelCount() == 1 })
	if second.Status() != StatusCanceled {
		t.Errorf("queued task status = %s, want canceled", second.Status())
	}
	if got := s.GetDownloadingCount(); got != 0 {
		t.Errorf("downloading count = %d, want 0", got)
	}
	if got := len(s.GetTasks()); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestSchedulerCleanUp(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	s.AddTask(newTestTask(b, 1), false)
	s.AddTask(newTestTask(b, 2), false)
	waitUntil(t, "first start", func() bool { return b.startCount() == 1 })

	s.CleanUp()
	waitUntil(t, "backend cancel", func() bool { return b.cancelCount() == 1 })
	if got := len(s.GetTasks()); got != 0 {
		t.Errorf("history length = %d, want 0", got)
	}
	if got := s.GetDownloadingCount(); got != 0 {
		t.Errorf("downloading count = %d, want 0", got)
	}
}

func TestSchedulerSetMaxConcurrent(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	for i := 0; i < 3; i++ {
		s.AddTask(newTestTask(b, i), false)
	}
	waitUntil(t, "first start", func() bool { return b.startCount() == 1 })

	s.SetMaxConcurrent(3)
	waitUntil(t, "all starts after raise", func() bool { return b.startCount() == 3 })
	if got := s.MaxConcurrent(); got != 3 {
		t.Errorf("max concurrent = %d, want 3", got)
	}

	// Values below 1 clamp rather than wedge the pool.
	s.SetMaxConcurrent(0)
	if got := s.MaxConcurrent(); got != 1 {
		t.Errorf("clamped max concurrent = %d, want 1", got)
	}
}

func TestSchedulerCheckTaskExists(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	task := newTestTask(b, 1)
	s.AddTask(task, false)
	waitUntil(t, "start", func() bool { return b.startCount() == 1 })

	if !s.CheckTaskExists(newTestTask(b, 1)) {
		t.Error("equal task should exist")
	}
	if s.CheckTaskExists(newTestTask(b, 2)) {
		t.Error("unknown task should not exist")
	}

	s.UpdateProgress(ProgressEvent{ID: task.ID(), Status: StatusCanceled})
	if s.CheckTaskExists(newTestTask(b, 1)) {
		t.Error("canceled task should not count as existing")
	}
}

func TestSchedulerAddReplacesCanceled(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	task := newTestTask(b, 1)
	s.AddTask(task, false)
	waitUntil(t, "start", func() bool { return b.startCount() == 1 })
	s.UpdateProgress(ProgressEvent{ID: task.ID(), Status: StatusCanceled})

	replacement := newTestTask(b, 1)
	s.AddTask(replacement, false)
	waitUntil(t, "replacement start", func() bool { return b.startCount() == 2 })
	if got := len(s.GetTasks()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestSchedulerOpenTask(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	task := newTestTask(b, 1)
	s.AddTask(task, false)
	waitUntil(t, "start", func() bool { return b.startCount() == 1 })

	if _, err := s.OpenTask("nope", false); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("unknown id error = %v, want ErrTaskNotFound", err)
	}
	if _, err := s.OpenTask(task.ID(), false); !errors.Is(err, ErrTaskNotReady) {
		t.Errorf("unfinished task error = %v, want ErrTaskNotReady", err)
	}

	s.UpdateProgress(doneEvent(task.ID()))
	if _, err := s.OpenTask(task.ID(), false); err != nil {
		t.Errorf("finished open error = %v", err)
	}
}

func TestSchedulerSubscribe(t *testing.T) {
	b := &fakeBackend{}
	s := NewScheduler(context.Background(), 1, nil)

	ch := s.Subscribe()
	s.AddTask(newTestTask(b, 1), false)

	select {
	case snaps := <-ch:
		if len(snaps) != 1 {
			t.Errorf("snapshot length = %d, want 1", len(snaps))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}
}
