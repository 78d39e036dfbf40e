package run

import (
	"fmt"
	"time"
)

// Failure records one file that could not be processed, with the reason it
// was left in place.
type Failure struct {
	Path   string
	Reason string
}

// Report is the terminal artifact of one invocation. It is produced even
// when the run fails partway through.
type Report struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	ArchivePath string

	StaleDeleted     int
	Archived         int
	OriginalsDeleted int
	Failed           int
	Skipped          int

	BytesIn  int64
	BytesOut int64

	Failures []Failure
}

func (r Report) Summary() string {
	return fmt.Sprintf(
		"stale deleted=%d archived=%d originals deleted=%d failed=%d skipped=%d bytes=%s -> %s",
		r.StaleDeleted, r.Archived, r.OriginalsDeleted, r.Failed, r.Skipped,
		FormatSize(r.BytesIn), FormatSize(r.BytesOut))
}

func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f PB", size)
}
