package executor

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/coursedl/coursedl/pkg/courselib"
)

// eventSink collects emitted progress events for assertions.
type eventSink struct {
	mu     sync.Mutex
	events []courselib.ProgressEvent
}

func (s *eventSink) emit(ev courselib.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) all() []courselib.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]courselib.ProgressEvent, len(s.events))
	copy(out, s.events)
	return out
}

// waitTerminal blocks until a terminal event shows up and returns it.
func (s *eventSink) waitTerminal(t *testing.T) courselib.ProgressEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range s.all() {
			if ev.Status.Terminal() {
				return ev
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no terminal event emitted")
	return courselib.ProgressEvent{}
}

// waitStatus blocks until an event with the given status shows up.
func (s *eventSink) waitStatus(t *testing.T, st courselib.Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range s.all() {
			if ev.Status == st {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s event emitted", st)
}

func TestStartFileSuccess(t *testing.T) {
	payload := bytes.Repeat([]byte("course material "), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	sink := &eventSink{}
	e := New(srv.Client(), nil, sink.emit)
	dir := t.TempDir()

	err := e.StartFile(context.Background(), "7-x", courselib.Upload{
		URL:      srv.URL,
		FileName: "lecture.pdf",
		Path:     dir,
	}, false)
	if err != nil {
		t.Fatalf("StartFile: %v", err)
	}

	term := sink.waitTerminal(t)
	if term.Status != courselib.StatusDone {
		t.Fatalf("terminal status = %s, want done", term.Status)
	}
	if term.DownloadedSize != int64(len(payload)) || term.TotalSize != int64(len(payload)) {
		t.Errorf("terminal sizes = %d/%d, want %d", term.DownloadedSize, term.TotalSize, len(payload))
	}
	if term.FileName != "lecture.pdf" {
		t.Errorf("terminal file name = %q", term.FileName)
	}

	got, err := os.ReadFile(filepath.Join(dir, "lecture.pdf"))
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("written file differs from payload")
	}

	// Downloading events precede the terminal one.
	evs := sink.all()
	if evs[0].Status != courselib.StatusDownloading {
		t.Errorf("first event status = %s, want downloading", evs[0].Status)
	}
}

func TestStartFileRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	sink := &eventSink{}
	e := New(srv.Client(), nil, sink.emit)

	err := e.StartFile(context.Background(), "7-x", courselib.Upload{
		URL:      srv.URL,
		FileName: "lecture.pdf",
		Path:     t.TempDir(),
	}, false)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	if len(sink.all()) != 0 {
		t.Error("rejected start must not emit events")
	}
}

func TestStartFileSyncSkipsExisting(t *testing.T) {
	payload := []byte("already here")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), payload, 0644); err != nil {
		t.Fatal(err)
	}

	sink := &eventSink{}
	e := New(srv.Client(), nil, sink.emit)
	err := e.StartFile(context.Background(), "7-x", courselib.Upload{
		URL:      srv.URL,
		FileName: "notes.txt",
		Path:     dir,
	}, true)
	if err != nil {
		t.Fatalf("StartFile: %v", err)
	}

	evs := sink.all()
	if len(evs) != 1 || evs[0].Status != courselib.StatusDone {
		t.Fatalf("events = %+v, want a single done event", evs)
	}
	if evs[0].DownloadedSize != int64(len(payload)) {
		t.Errorf("done size = %d, want %d", evs[0].DownloadedSize, len(payload))
	}
}

func TestStartFileCancelDiscardsPartial(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fl := w.(http.Flusher)
		w.Write(bytes.Repeat([]byte("a"), chunkSize))
		fl.Flush()
		<-release
		// More than one chunk so the run flag is checked again before
		// the body drains.
		w.Write(bytes.Repeat([]byte("b"), 4*chunkSize))
		fl.Flush()
	}))
	defer srv.Close()

	sink := &eventSink{}
	e := New(srv.Client(), nil, sink.emit)
	dir := t.TempDir()

	err := e.StartFile(context.Background(), "7-x", courselib.Upload{
		URL:      srv.URL,
		FileName: "big.bin",
		Path:     dir,
	}, false)
	if err != nil {
		t.Fatalf("StartFile: %v", err)
	}

	sink.waitStatus(t, courselib.StatusDownloading)
	if err := e.Cancel(context.Background(), "7-x"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	close(release)

	term := sink.waitTerminal(t)
	if term.Status != courselib.StatusCanceled {
		t.Fatalf("terminal status = %s, want canceled", term.Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "big.bin")); !os.IsNotExist(err) {
		t.Error("partial file was not removed")
	}
}

func TestCancelUnknownID(t *testing.T) {
	e := New(nil, nil, nil)
	if err := e.Cancel(context.Background(), "nope"); err != nil {
		t.Errorf("Cancel unknown id: %v", err)
	}
}

func TestStartSlidesWithoutPDF(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		w.Write([]byte("image:" + r.URL.Path))
	}))
	defer srv.Close()

	sink := &eventSink{}
	e := New(srv.Client(), nil, sink.emit)
	dir := t.TempDir()

	sub := courselib.Subject{
		CourseID:   3,
		SubID:      9,
		CourseName: "Algorithms",
		SubName:    "Sorting",
		Path:       dir,
		SlideURLs: []string{
			srv.URL + "/p1.png",
			srv.URL + "/p2.jpg",
			srv.URL + "/p3",
		},
	}
	if err := e.StartSlides(context.Background(), "3-9-x", sub, false); err != nil {
		t.Fatalf("StartSlides: %v", err)
	}

	term := sink.waitTerminal(t)
	if term.Status != courselib.StatusDone {
		t.Fatalf("terminal status = %s, want done", term.Status)
	}
	if term.DownloadedSize != 3 || term.TotalSize != 3 {
		t.Errorf("terminal pages = %d/%d, want 3/3", term.DownloadedSize, term.TotalSize)
	}
	if term.FileName != "Algorithms-Sorting" {
		t.Errorf("terminal name = %q", term.FileName)
	}

	pagesDir := filepath.Join(dir, "Sorting", "slide_pages")
	for _, want := range []string{"page_001.png", "page_002.jpg", "page_003.jpg"} {
		if _, err := os.Stat(filepath.Join(pagesDir, want)); err != nil {
			t.Errorf("missing page file %s: %v", want, err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	for path, n := range hits {
		if n != 1 {
			t.Errorf("page %s fetched %d times", path, n)
		}
	}
}

func TestStartSlidesEmpty(t *testing.T) {
	e := New(nil, nil, nil)
	err := e.StartSlides(context.Background(), "3-9-x", courselib.Subject{
		SubName: "Sorting",
		Path:    t.TempDir(),
	}, false)
	if err == nil {
		t.Fatal("expected an error for a manifest without pages")
	}
}

func TestPageExt(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/slides/p1.PNG", ".png"},
		{"https://cdn.example.com/slides/p1.jpeg?token=abc", ".jpeg"},
		{"https://cdn.example.com/slides/p1.webp", ".jpg"},
		{"https://cdn.example.com/slides/p1", ".jpg"},
		{"https://cdn.example.com/slides/p1.gif", ".gif"},
	}
	for _, c := range cases {
		if got := pageExt(c.url); got != c.want {
			t.Errorf("pageExt(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
