package courselib

import (
	"context"
	"fmt"
	"path/filepath"
)

// SlideTask downloads a lecture's slide pages and optionally assembles
// them into a single PDF. Its size counters are page counts, not bytes.
type SlideTask struct {
	baseTask
	subject Subject
	toPDF   bool
}

// NewSlideTask builds a slide-deck task for the given subject.
func NewSlideTask(b Backend, sub Subject, toPDF bool) *SlideTask {
	t := &SlideTask{subject: sub, toPDF: toPDF}
	t.baseTask = newBaseTask(
		b,
		fmt.Sprintf("%d-%d-%s", sub.CourseID, sub.SubID, sub.Path),
		fmt.Sprintf("%s-%s", sub.CourseName, sub.SubName),
		sub.Path,
		int64(len(sub.SlideURLs)),
	)
	return t
}

func (t *SlideTask) Kind() string { return "slides" }

func (t *SlideTask) Start(ctx context.Context) error {
	t.beginStart()
	return t.backend.StartSlides(ctx, t.id, t.subject, t.toPDF)
}

func (t *SlideTask) Cancel(ctx context.Context) error {
	t.setStatus(StatusCanceled)
	return t.backend.Cancel(ctx, t.id)
}

// Open reveals the assembled PDF, or the page image directory when PDF
// assembly was disabled.
func (t *SlideTask) Open(ctx context.Context, folder bool) (string, error) {
	if t.Status() != StatusDone {
		return "", ErrTaskNotReady
	}
	dir := filepath.Join(t.subject.Path, t.subject.SubName)
	artifact := filepath.Join(dir, t.Name()+".pdf")
	if !t.toPDF {
		artifact = filepath.Join(dir, "slide_pages")
	}
	return t.backend.Open(ctx, artifact, folder)
}

func (t *SlideTask) ApplyProgress(ev ProgressEvent) {
	t.applyProgress(ev)
}

func (t *SlideTask) Equals(other Task) bool {
	o, ok := other.(*SlideTask)
	if !ok {
		return false
	}
	return t.ID() == o.ID() &&
		t.Name() == o.Name() &&
		t.Path() == o.Path() &&
		len(t.subject.SlideURLs) == len(o.subject.SlideURLs) &&
		t.toPDF == o.toPDF
}

func (t *SlideTask) Describe() string {
	st := t.stats()
	switch st.status {
	case StatusPending:
		return "waiting"
	case StatusDownloading:
		s := fmt.Sprintf("slides %d/%d", st.downloaded, st.total)
		if st.eta > 0 {
			s += fmt.Sprintf(" | about %s left", formatETA(st.eta))
		}
		return s
	case StatusWriting:
		return "writing PDF file"
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

func (t *SlideTask) Snapshot() TaskSnapshot {
	return t.snapshot(t.Kind(), t.Describe())
}
