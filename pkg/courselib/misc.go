package courselib

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// taskStats is a consistent read of the fields Describe needs.
type taskStats struct {
	status     Status
	downloaded int64
	total      int64
	speed      float64
	eta        float64
}

func (b *baseTask) stats() taskStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return taskStats{
		status:     b.status,
		downloaded: b.downloadedSize,
		total:      b.totalSize,
		speed:      b.speed,
		eta:        b.remainingTime,
	}
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// formatETA renders a second count as a compact duration, e.g. "2m30s".
func formatETA(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Round(time.Second).String()
}

func describeBytes(st taskStats) string {
	s := fmt.Sprintf("%s/%s | %s/s",
		formatBytes(st.downloaded),
		formatBytes(st.total),
		formatBytes(int64(st.speed)),
	)
	if st.eta > 0 {
		s += fmt.Sprintf(" | %s left", formatETA(st.eta))
	}
	return s
}
