// Package courselib provides the core download model for coursedl:
// tasks representing course artifacts and the scheduler that runs them
// under a concurrency bound.
package courselib

import (
	"context"
	"math"
	"sync"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	// StatusPending means the task is queued and waiting for a free slot.
	StatusPending Status = "pending"
	// StatusDownloading means the task has been handed to the backend.
	StatusDownloading Status = "downloading"
	// StatusWriting means the slide variant is assembling its PDF after
	// the page transfer finished. Slot accounting treats it like
	// StatusDownloading.
	StatusWriting Status = "writing"
	// StatusDone means the artifact was fully downloaded.
	StatusDone Status = "done"
	// StatusFailed means the transfer was rejected or aborted with an error.
	StatusFailed Status = "failed"
	// StatusCanceled means the task was canceled locally.
	StatusCanceled Status = "canceled"
)

// Terminal reports whether no further automatic transitions occur
// without an explicit redownload.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// UnknownETA marks a remaining-time value that cannot be estimated yet.
const UnknownETA float64 = -1

// rateInterval is the minimum wall-clock gap between two speed/ETA
// recomputations. Events arriving faster only update the status fields.
const rateInterval = time.Second

// Task is one logical download unit. The concrete set of implementations
// is closed: FileTask for single-file artifacts and SlideTask for lecture
// slide decks.
type Task interface {
	// ID is the stable identifier derived from the artifact's source
	// identity and destination path.
	ID() string
	Name() string
	Path() string
	Status() Status
	Kind() string
	TotalSize() int64

	// Start resets the progress bookkeeping and delegates the transfer to
	// the backend. A returned error means the backend rejected the task;
	// the scheduler marks it failed.
	Start(ctx context.Context) error
	// Cancel marks the task canceled locally and requests cancellation
	// from the backend. Cancellation is cooperative and best-effort.
	Cancel(ctx context.Context) error
	// Open reveals the finished artifact. Valid only once Status is
	// StatusDone; otherwise ErrTaskNotReady is returned.
	Open(ctx context.Context, folder bool) (string, error)

	// ApplyProgress folds a backend progress event into the task.
	ApplyProgress(ev ProgressEvent)
	// Equals reports identity and content equality, including the
	// variant's size fingerprint.
	Equals(other Task) bool
	// Describe returns a human-readable status line for display.
	Describe() string
	// Snapshot returns a point-in-time copy of the task state.
	Snapshot() TaskSnapshot

	setStatus(st Status)
}

// TaskSnapshot is an immutable view of a task, safe to serialize.
type TaskSnapshot struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Name           string  `json:"name"`
	Path           string  `json:"path"`
	Status         Status  `json:"status"`
	TotalSize      int64   `json:"total_size"`
	DownloadedSize int64   `json:"downloaded_size"`
	Progress       float64 `json:"progress"`
	// Speed is the instantaneous transfer rate in bytes (or pages) per second.
	Speed float64 `json:"speed"`
	// RemainingTime is the ETA in seconds, or UnknownETA when it cannot
	// be estimated.
	RemainingTime float64 `json:"remaining_time"`
	Description   string  `json:"description"`
}

// baseTask carries the bookkeeping shared by all task variants.
type baseTask struct {
	mu      sync.RWMutex
	backend Backend

	id   string
	name string
	path string

	totalSize      int64
	downloadedSize int64
	status         Status
	progress       float64
	speed          float64
	remainingTime  float64

	startTime  time.Time
	lastUpdate time.Time

	clock func() time.Time
}

func newBaseTask(b Backend, id, name, path string, totalSize int64) baseTask {
	return baseTask{
		backend:   b,
		id:        id,
		name:      name,
		path:      path,
		totalSize: totalSize,
		status:    StatusPending,
		clock:     time.Now,
	}
}

func (b *baseTask) ID() string { return b.id }

func (b *baseTask) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *baseTask) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

func (b *baseTask) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// TotalSize is the expected artifact size: bytes for files, pages for
// slide decks. It may be corrected by progress events.
func (b *baseTask) TotalSize() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalSize
}

func (b *baseTask) setStatus(st Status) {
	b.mu.Lock()
	b.status = st
	b.mu.Unlock()
}

// beginStart resets the progress bookkeeping for a (re)started transfer.
func (b *baseTask) beginStart() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock()
	b.startTime = now
	b.lastUpdate = now
	b.downloadedSize = 0
	b.progress = 0
	b.speed = 0
	b.remainingTime = 0
	b.status = StatusDownloading
}

// applyProgress folds an event into the counters. The status, name and
// total size always latch; speed and ETA are recomputed at most once per
// rateInterval to avoid display jitter. A done event short-circuits to a
// completed state.
func (b *baseTask) applyProgress(ev ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = ev.Status
	if ev.TotalSize > 0 {
		b.totalSize = ev.TotalSize
	}
	if ev.FileName != "" {
		b.name = ev.FileName
	}
	now := b.clock()
	if ev.Status == StatusDone {
		b.downloadedSize = b.totalSize
		b.progress = 1
		b.speed = 0
		b.remainingTime = 0
		return
	}
	elapsed := now.Sub(b.lastUpdate)
	if elapsed < rateInterval {
		return
	}
	speed := float64(ev.DownloadedSize-b.downloadedSize) / float64(elapsed.Milliseconds()) * 1000
	// The lifetime rate deliberately uses the pre-update counters: the new
	// downloadedSize only lands below.
	lifetimeRate := float64(b.downloadedSize) / float64(b.lastUpdate.Sub(b.startTime).Milliseconds())
	remaining := float64(b.totalSize-b.downloadedSize) / lifetimeRate / 1000
	b.speed = clampSpeed(speed)
	b.remainingTime = clampETA(remaining)
	b.downloadedSize = ev.DownloadedSize
	if b.totalSize > 0 {
		b.progress = float64(b.downloadedSize) / float64(b.totalSize)
	}
	b.lastUpdate = now
}

// clampSpeed zeroes rates that are not representable: division by zero at
// the very start of a transfer, or an out-of-order event regressing the
// counter.
func clampSpeed(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// clampETA maps non-finite or negative estimates to UnknownETA.
func clampETA(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return UnknownETA
	}
	return v
}

func (b *baseTask) snapshot(kind, description string) TaskSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return TaskSnapshot{
		ID:             b.id,
		Kind:           kind,
		Name:           b.name,
		Path:           b.path,
		Status:         b.status,
		TotalSize:      b.totalSize,
		DownloadedSize: b.downloadedSize,
		Progress:       b.progress,
		Speed:          b.speed,
		RemainingTime:  b.remainingTime,
		Description:    description,
	}
}
