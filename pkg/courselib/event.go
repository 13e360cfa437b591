package courselib

// ProgressEvent is one update emitted by the download backend, keyed by
// task id. The feed is asynchronous and unordered: events may be dropped,
// duplicated or delivered late, and DownloadedSize is not guaranteed to
// be monotonic.
type ProgressEvent struct {
	ID             string `json:"id"`
	Status         Status `json:"status"`
	FileName       string `json:"file_name"`
	DownloadedSize int64  `json:"downloaded_size"`
	TotalSize      int64  `json:"total_size"`
	Msg            string `json:"msg,omitempty"`
}
