package courselib

import "context"

// Upload identifies one downloadable file attached to a course.
// The actual save path is Path joined with FileName.
type Upload struct {
	ID          int64  `json:"id"`
	ReferenceID int64  `json:"reference_id"`
	FileName    string `json:"file_name"`
	CourseName  string `json:"course_name"`
	URL         string `json:"url"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
}

// Subject identifies one lecture whose slides are downloaded page by
// page. The pages land under Path/SubName and are optionally assembled
// into a single PDF.
type Subject struct {
	CourseID     int64    `json:"course_id"`
	SubID        int64    `json:"sub_id"`
	CourseName   string   `json:"course_name"`
	SubName      string   `json:"sub_name"`
	LecturerName string   `json:"lecturer_name"`
	Path         string   `json:"path"`
	SlideURLs    []string `json:"ppt_image_urls"`
}

// Backend is the boundary to the download execution service. Start calls
// return an error only when the backend rejects the task; an accepted
// transfer runs in the background and reports through progress events.
// Cancel is cooperative: the backend stops the transfer at the next
// opportunity and acknowledges with a terminal event.
type Backend interface {
	StartFile(ctx context.Context, id string, u Upload, sync bool) error
	StartSlides(ctx context.Context, id string, sub Subject, toPDF bool) error
	Cancel(ctx context.Context, id string) error
	// Open reveals a finished artifact, either the file itself or its
	// containing folder, and returns the path it opened.
	Open(ctx context.Context, path string, folder bool) (string, error)
}
