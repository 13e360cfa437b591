package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/coursedl/coursedl/pkg/courselib"
)

const (
	// pageStagger spaces out page requests so a large deck does not
	// hammer the slide host.
	pageStagger = 50 * time.Millisecond
	// pageRetryDelay is the wait before the single retry of a failed
	// page download.
	pageRetryDelay = time.Second
)

// StartSlides begins downloading a lecture's slide pages. Pages are
// fetched sequentially into <path>/<sub>/slide_pages, emitting a
// downloading event per page; with toPDF the pages are then assembled
// into <path>/<sub>/<name>.pdf under a writing status. The page
// directory is removed on failure, cancel, or after a successful PDF
// assembly.
func (e *Executor) StartSlides(ctx context.Context, id string, sub courselib.Subject, toPDF bool) error {
	if len(sub.SlideURLs) == 0 {
		return fmt.Errorf("start slides %s: no slide pages", id)
	}
	dir := filepath.Join(sub.Path, sub.SubName)
	pagesDir := filepath.Join(dir, "slide_pages")
	if err := os.MkdirAll(pagesDir, 0755); err != nil {
		return fmt.Errorf("start slides %s: %w", id, err)
	}

	flag := e.register(id)
	go e.streamSlides(id, sub, dir, pagesDir, toPDF, flag)
	return nil
}

func (e *Executor) streamSlides(id string, sub courselib.Subject, dir, pagesDir string, toPDF bool, flag *atomic.Bool) {
	name := fmt.Sprintf("%s-%s", sub.CourseName, sub.SubName)
	total := int64(len(sub.SlideURLs))

	event := func(st courselib.Status, pages int64) courselib.ProgressEvent {
		return courselib.ProgressEvent{
			ID:             id,
			Status:         st,
			FileName:       name,
			DownloadedSize: pages,
			TotalSize:      total,
		}
	}

	pages := make([]string, 0, len(sub.SlideURLs))
	for i, pageURL := range sub.SlideURLs {
		if !flag.Load() {
			e.removeDir(pagesDir)
			e.finish(id, event(courselib.StatusCanceled, int64(i)))
			return
		}
		page := filepath.Join(pagesDir, fmt.Sprintf("page_%03d%s", i+1, pageExt(pageURL)))
		err := e.downloadImage(pageURL, page)
		if err != nil {
			// One retry per page; slide hosts drop requests now
			// and then.
			e.log.Warning("slides %s: page %d: %v, retrying", id, i+1, err)
			time.Sleep(pageRetryDelay)
			err = e.downloadImage(pageURL, page)
		}
		if err != nil {
			e.log.Error("slides %s: page %d: %v", id, i+1, err)
			e.removeDir(pagesDir)
			e.finish(id, event(courselib.StatusFailed, int64(i)))
			return
		}
		pages = append(pages, page)
		e.emit(event(courselib.StatusDownloading, int64(i+1)))
		time.Sleep(pageStagger)
	}

	if toPDF {
		e.emit(event(courselib.StatusWriting, total))
		if err := assemblePDF(pages, filepath.Join(dir, name+".pdf")); err != nil {
			e.log.Error("slides %s: pdf: %v", id, err)
			e.removeDir(pagesDir)
			e.finish(id, event(courselib.StatusFailed, total))
			return
		}
		e.removeDir(pagesDir)
	}

	e.finish(id, event(courselib.StatusDone, total))
	e.log.Info("slides %s: done (%d pages)", id, total)
}

// downloadImage fetches a single slide page to disk.
func (e *Executor) downloadImage(pageURL, dest string) error {
	resp, err := e.client.Get(pageURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// assemblePDF lays one page image per PDF page, scaled to the page
// width.
func assemblePDF(pages []string, dest string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	opts := gofpdf.ImageOptions{ReadDpi: true}
	for _, page := range pages {
		pdf.AddPage()
		pdf.ImageOptions(page, 0, 0, 210, 0, false, opts, 0, "")
	}
	return pdf.OutputFileAndClose(dest)
}

func (e *Executor) removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		e.log.Warning("cleanup %s: %v", dir, err)
	}
}

// pageExt picks the on-disk extension for a slide page URL, defaulting
// to jpg when the URL carries none.
func pageExt(pageURL string) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(pageURL, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return ext
	}
	return ".jpg"
}
