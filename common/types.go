package common

import "github.com/coursedl/coursedl/pkg/courselib"

// AddFileParams submits a single-file artifact for download.
type AddFileParams struct {
	Upload courselib.Upload `json:"upload"`
	// Sync skips the transfer when the destination already holds the
	// file with a matching size.
	Sync       bool `json:"sync,omitempty"`
	Redownload bool `json:"redownload,omitempty"`
}

// AddSlidesParams submits a lecture slide deck for download.
type AddSlidesParams struct {
	Subject    courselib.Subject `json:"subject"`
	ToPDF      bool              `json:"to_pdf"`
	Redownload bool              `json:"redownload,omitempty"`
}

// AddResponse acknowledges a submission.
type AddResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	TotalSize int64  `json:"total_size"`
}

// TaskIDParams addresses a single task.
type TaskIDParams struct {
	ID string `json:"id"`
}

// OpenParams asks the daemon to reveal a finished artifact.
type OpenParams struct {
	ID     string `json:"id"`
	Folder bool   `json:"folder,omitempty"`
}

// OpenResponse carries the path that was revealed.
type OpenResponse struct {
	Path string `json:"path"`
}

// ListResponse carries the full submission history.
type ListResponse struct {
	Tasks []courselib.TaskSnapshot `json:"tasks"`
}

// CountResponse carries the number of active plus queued tasks.
type CountResponse struct {
	Count int `json:"count"`
}

// ExistsResponse answers an existence check.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// ConfigResponse mirrors the daemon's persisted settings.
type ConfigResponse struct {
	SavePath      string `json:"save_path"`
	ToPDF         bool   `json:"to_pdf"`
	MaxConcurrent int    `json:"max_concurrent_tasks"`
}

// SetConfigParams updates a subset of the daemon settings; nil fields
// are left unchanged.
type SetConfigParams struct {
	SavePath      *string `json:"save_path,omitempty"`
	ToPDF         *bool   `json:"to_pdf,omitempty"`
	MaxConcurrent *int    `json:"max_concurrent_tasks,omitempty"`
}

// OkResponse acknowledges a method with no payload.
type OkResponse struct{}

// ProgressUpdate is pushed to attached connections for every backend
// event, together with the affected task's refreshed snapshot.
type ProgressUpdate struct {
	Event courselib.ProgressEvent `json:"event"`
	Task  courselib.TaskSnapshot  `json:"task"`
}
