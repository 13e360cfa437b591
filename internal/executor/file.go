package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/coursedl/coursedl/pkg/courselib"
)

// StartFile begins downloading a single file artifact. The HTTP request
// and response validation happen synchronously so a rejected start
// surfaces as an error; the byte transfer streams in a background
// goroutine, emitting a downloading event per chunk and a terminal event
// at the end. Partial files are removed on failure or cancel.
func (e *Executor) StartFile(ctx context.Context, id string, u courselib.Upload, sync bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return fmt.Errorf("start file %s: %w", id, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("start file %s: %w", id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return fmt.Errorf("start file %s: unexpected status %s", id, resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = u.Size
	}
	name := serverFileName(resp)
	if name == "" {
		name = u.FileName
	}

	if err := os.MkdirAll(u.Path, 0755); err != nil {
		resp.Body.Close()
		return fmt.Errorf("start file %s: %w", id, err)
	}
	dest := filepath.Join(u.Path, name)

	// When syncing, an already-present file with a matching size counts
	// as done without re-transferring.
	if sync {
		if fi, err := os.Stat(dest); err == nil && fi.Size() == total {
			resp.Body.Close()
			e.log.Info("file %s already in sync, skipping", id)
			e.finish(id, courselib.ProgressEvent{
				ID:             id,
				Status:         courselib.StatusDone,
				FileName:       name,
				DownloadedSize: total,
				TotalSize:      total,
			})
			return nil
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		resp.Body.Close()
		return fmt.Errorf("start file %s: %w", id, err)
	}

	flag := e.register(id)
	go e.streamFile(id, name, total, resp.Body, f, flag)
	return nil
}

func (e *Executor) streamFile(id, name string, total int64, body io.ReadCloser, f *os.File, flag *atomic.Bool) {
	defer body.Close()
	defer f.Close()

	event := func(st courselib.Status, downloaded int64) courselib.ProgressEvent {
		return courselib.ProgressEvent{
			ID:             id,
			Status:         st,
			FileName:       name,
			DownloadedSize: downloaded,
			TotalSize:      total,
		}
	}

	var current int64
	buf := make([]byte, chunkSize)
	for {
		if !flag.Load() {
			e.discard(f)
			e.finish(id, event(courselib.StatusCanceled, current))
			return
		}
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				e.log.Error("file %s: write: %v", id, werr)
				e.discard(f)
				e.finish(id, event(courselib.StatusFailed, current))
				return
			}
			current += int64(n)
			e.emit(event(courselib.StatusDownloading, current))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			e.log.Error("file %s: read: %v", id, err)
			e.discard(f)
			e.finish(id, event(courselib.StatusFailed, current))
			return
		}
	}
	if total <= 0 {
		total = current
	}
	e.finish(id, courselib.ProgressEvent{
		ID:             id,
		Status:         courselib.StatusDone,
		FileName:       name,
		DownloadedSize: total,
		TotalSize:      total,
	})
	e.log.Info("file %s: done (%d bytes)", id, current)
}

// discard closes and removes a partial download.
func (e *Executor) discard(f *os.File) {
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.log.Warning("cleanup %s: %v", name, err)
	}
}

// serverFileName extracts the filename the server reports, preferring
// Content-Disposition and falling back to a "name" query parameter on
// the final (post-redirect) URL.
func serverFileName(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := params["filename"]; fn != "" {
				return fn
			}
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if name := resp.Request.URL.Query().Get("name"); name != "" {
			if decoded, err := url.QueryUnescape(name); err == nil {
				return decoded
			}
			return name
		}
	}
	return ""
}
