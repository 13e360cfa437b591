package courselib

import (
	"context"
	"fmt"
	"path/filepath"
)

// FileTask downloads a single file artifact attached to a course.
type FileTask struct {
	baseTask
	upload Upload
	// sync makes the backend skip the transfer when the destination file
	// already exists with a matching size.
	sync bool
}

// NewFileTask builds a file task for the given upload. The task id is
// derived from the upload's reference id and destination path, so
// resubmitting the same artifact to the same location yields the same
// logical download.
func NewFileTask(b Backend, u Upload, sync bool) *FileTask {
	t := &FileTask{upload: u, sync: sync}
	t.baseTask = newBaseTask(
		b,
		fmt.Sprintf("%d-%s", u.ReferenceID, u.Path),
		u.FileName,
		u.Path,
		u.Size,
	)
	return t
}

func (t *FileTask) Kind() string { return "file" }

func (t *FileTask) Start(ctx context.Context) error {
	t.beginStart()
	return t.backend.StartFile(ctx, t.id, t.upload, t.sync)
}

func (t *FileTask) Cancel(ctx context.Context) error {
	t.setStatus(StatusCanceled)
	return t.backend.Cancel(ctx, t.id)
}

func (t *FileTask) Open(ctx context.Context, folder bool) (string, error) {
	if t.Status() != StatusDone {
		return "", ErrTaskNotReady
	}
	return t.backend.Open(ctx, filepath.Join(t.upload.Path, t.Name()), folder)
}

func (t *FileTask) ApplyProgress(ev ProgressEvent) {
	t.applyProgress(ev)
	if ev.FileName != "" {
		// The server may correct the filename mid-flight, e.g. from a
		// Content-Disposition header.
		t.mu.Lock()
		t.upload.FileName = ev.FileName
		t.mu.Unlock()
	}
}

func (t *FileTask) Equals(other Task) bool {
	o, ok := other.(*FileTask)
	if !ok {
		return false
	}
	return t.ID() == o.ID() &&
		t.Name() == o.Name() &&
		t.Path() == o.Path() &&
		t.size() == o.size()
}

func (t *FileTask) size() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.upload.Size
}

func (t *FileTask) Describe() string {
	st := t.stats()
	switch st.status {
	case StatusPending:
		return "waiting"
	case StatusDownloading, StatusWriting:
		return describeBytes(st)
	case StatusDone:
		return "completed"
	case StatusFailed:
		return "download failed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown status"
	}
}

func (t *FileTask) Snapshot() TaskSnapshot {
	return t.snapshot(t.Kind(), t.Describe())
}
