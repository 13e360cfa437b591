package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/config"
	"github.com/coursedl/coursedl/internal/server"
	"github.com/coursedl/coursedl/pkg/courselib"
)

// stubBackend accepts every start and records the ids it saw.
type stubBackend struct {
	mu      sync.Mutex
	started []string
}

func (b *stubBackend) StartFile(_ context.Context, id string, _ courselib.Upload, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = append(b.started, id)
	return nil
}

func (b *stubBackend) StartSlides(_ context.Context, id string, _ courselib.Subject, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = append(b.started, id)
	return nil
}

func (b *stubBackend) Cancel(context.Context, string) error { return nil }

func (b *stubBackend) Open(_ context.Context, path string, _ bool) (string, error) {
	return path, nil
}

func newTestApi(t *testing.T) (*Api, *config.Store, *server.Pool) {
	t.Helper()
	store, err := config.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	backend := &stubBackend{}
	sched := courselib.NewScheduler(context.Background(), 2, nil)
	pool := server.NewPool(nil)
	a, err := NewApi(nil, sched, backend, store, pool, nil, "test")
	if err != nil {
		t.Fatalf("NewApi: %v", err)
	}
	return a, store, pool
}

func fileParams(name string) *common.AddFileParams {
	return &common.AddFileParams{
		Upload: courselib.Upload{
			ReferenceID: 11,
			FileName:    name,
			CourseName:  "Course",
			URL:         "http://example.com/" + name,
			Path:        "/tmp/dl",
			Size:        100,
		},
	}
}

func TestAddFileDedup(t *testing.T) {
	a, _, _ := newTestApi(t)

	res, err := a.AddFile(fileParams("a.pdf"))
	if err != nil {
		t.Fatalf("first AddFile: %v", err)
	}
	if res.ID != "11-/tmp/dl" {
		t.Errorf("id = %q", res.ID)
	}

	if _, err := a.AddFile(fileParams("a.pdf")); !errors.Is(err, errAlreadyDownloaded) {
		t.Errorf("duplicate AddFile error = %v", err)
	}

	p := fileParams("a.pdf")
	p.Redownload = true
	if _, err := a.AddFile(p); err != nil {
		t.Errorf("redownload AddFile: %v", err)
	}
}

func TestAddFilePathFallback(t *testing.T) {
	a, store, _ := newTestApi(t)
	if err := store.SetSavePath("/srv/courses"); err != nil {
		t.Fatal(err)
	}

	p := fileParams("a.pdf")
	p.Upload.Path = ""
	res, err := a.AddFile(p)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if res.Path != "/srv/courses" {
		t.Errorf("path = %q, want /srv/courses", res.Path)
	}
}

func TestAddSlides(t *testing.T) {
	a, _, _ := newTestApi(t)

	res, err := a.AddSlides(&common.AddSlidesParams{
		Subject: courselib.Subject{
			CourseID:   3,
			SubID:      9,
			CourseName: "Algorithms",
			SubName:    "Sorting",
			Path:       "/tmp/dl",
			SlideURLs:  []string{"http://example.com/p1.png"},
		},
		ToPDF: true,
	})
	if err != nil {
		t.Fatalf("AddSlides: %v", err)
	}
	if res.ID != "3-9-/tmp/dl" {
		t.Errorf("id = %q", res.ID)
	}
	if res.Name != "Algorithms-Sorting" {
		t.Errorf("name = %q", res.Name)
	}
	if res.TotalSize != 1 {
		t.Errorf("total = %d, want 1 page", res.TotalSize)
	}
}

func TestCancelNotFound(t *testing.T) {
	a, _, _ := newTestApi(t)
	if err := a.Cancel("nope"); !errors.Is(err, courselib.ErrTaskNotFound) {
		t.Errorf("Cancel error = %v, want ErrTaskNotFound", err)
	}
}

func TestTasksAndCount(t *testing.T) {
	a, _, _ := newTestApi(t)

	if a.Count() != 0 {
		t.Errorf("initial count = %d", a.Count())
	}
	if _, err := a.AddFile(fileParams("a.pdf")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if got := a.Count(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	list := a.Tasks()
	if len(list.Tasks) != 1 || list.Tasks[0].ID != "11-/tmp/dl" {
		t.Errorf("tasks = %+v", list.Tasks)
	}
}

func TestSetMaxConcurrentPersistsAndApplies(t *testing.T) {
	a, store, _ := newTestApi(t)

	if err := a.SetMaxConcurrent(5); err != nil {
		t.Fatalf("SetMaxConcurrent: %v", err)
	}
	if got := a.sched.MaxConcurrent(); got != 5 {
		t.Errorf("live bound = %d, want 5", got)
	}
	settings, err := store.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if settings.MaxConcurrent != 5 {
		t.Errorf("persisted bound = %d, want 5", settings.MaxConcurrent)
	}

	if err := a.SetMaxConcurrent(0); err == nil {
		t.Error("SetMaxConcurrent(0) accepted")
	}
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	head := make([]byte, 4)
	if _, err := io.ReadFull(conn, head); err != nil {
		t.Fatalf("read head: %v", err)
	}
	size := uint32(head[0]) | uint32(head[1])<<8 | uint32(head[2])<<16 | uint32(head[3])<<24
	buf := make([]byte, size)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return buf
}

func TestOnEventBroadcastsToWatchers(t *testing.T) {
	a, _, pool := newTestApi(t)

	res, err := a.AddFile(fileParams("a.pdf"))
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	srvSide, cliSide := net.Pipe()
	defer cliSide.Close()
	pool.AddConnections(res.ID, []net.Conn{srvSide})

	frames := make(chan []byte, 1)
	go func() { frames <- readFrame(t, cliSide) }()

	// Wait for the scheduler to promote the task before reporting
	// progress; events for non-active tasks are dropped.
	deadline := time.Now().Add(2 * time.Second)
	for a.sched.Snapshots()[0].Status == courselib.StatusPending {
		if time.Now().After(deadline) {
			t.Fatal("task never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	a.OnEvent(courselib.ProgressEvent{
		ID:             res.ID,
		Status:         courselib.StatusDownloading,
		DownloadedSize: 10,
		TotalSize:      100,
	})

	select {
	case frame := <-frames:
		var resp server.Response
		if err := json.Unmarshal(frame, &resp); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		if !resp.Ok || resp.Update == nil || resp.Update.Type != common.UPDATE_PROGRESS {
			t.Errorf("frame = %+v", resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher received no progress frame")
	}
}

func TestResubmitKeepsExistingWatchers(t *testing.T) {
	a, _, pool := newTestApi(t)

	firstSrv, firstCli := net.Pipe()
	secondSrv, secondCli := net.Pipe()
	defer firstCli.Close()
	defer secondCli.Close()

	body, err := json.Marshal(fileParams("a.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.addFileHandler(server.NewSyncConn(firstSrv), pool, body); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	p := fileParams("a.pdf")
	p.Redownload = true
	body, err = json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.addFileHandler(server.NewSyncConn(secondSrv), pool, body); err != nil {
		t.Fatalf("resubmission: %v", err)
	}

	// Both the original and the resubmitting watcher must receive
	// broadcasts for the task.
	frames := make(chan []byte, 2)
	for _, conn := range []net.Conn{firstCli, secondCli} {
		conn := conn
		go func() { frames <- readFrame(t, conn) }()
	}
	pool.Broadcast("11-/tmp/dl", []byte(`{"ok":true}`))
	for i := 0; i < 2; i++ {
		select {
		case <-frames:
		case <-time.After(2 * time.Second):
			t.Fatal("a watcher was detached by the resubmission")
		}
	}
}

func TestOnEventUnknownTask(t *testing.T) {
	a, _, _ := newTestApi(t)
	// Must not panic or broadcast.
	a.OnEvent(courselib.ProgressEvent{ID: "nope", Status: courselib.StatusDownloading})
}
