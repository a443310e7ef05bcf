// Package reproducible picks the timestamp to clamp file metadata to, so that packaging the same
// artifacts twice produces byte-identical output.
package reproducible

import (
	"os"
	"strconv"
	"sync"
	"time"
)

var (
	nowOnce sync.Once
	now     time.Time
)

// Now returns the clamp timestamp: the commit timestamp that the CI service exports when
// available, then the standard SOURCE_DATE_EPOCH, then the wall clock.  The answer is computed
// once and sticks for the life of the process.
func Now() time.Time {
	nowOnce.Do(func() {
		if ts, err := time.Parse(time.RFC3339, os.Getenv("APPVEYOR_REPO_COMMIT_TIMESTAMP")); err == nil {
			now = ts
			return
		}
		if secs, err := strconv.ParseInt(os.Getenv("SOURCE_DATE_EPOCH"), 10, 64); err == nil {
			now = time.Unix(secs, 0)
			return
		}
		now = time.Now()
	})
	return now
}
