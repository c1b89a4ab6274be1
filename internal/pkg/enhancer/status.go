package enhancer

import (
	"fmt"
	"time"

	"github.com/StefanBrandt/FotoFix/app/models"
	"github.com/StefanBrandt/FotoFix/internal/pkg/cache"
	"github.com/StefanBrandt/FotoFix/internal/pkg/database"
)

// Cache key formats for enhancement job status
const (
	jobStatusKeyFormat          = "enhance:status:%s"           // enhance:status:<display-id>
	jobStatusTimestampKeyFormat = "enhance:status:timestamp:%s" // enhance:status:timestamp:<display-id>
)

const jobStatusTTL = 24 * time.Hour

// SetJobStatus records the current pipeline state of a job in the cache so
// status polls don't hit the database on every request.
func SetJobStatus(displayID string, status string) error {
	key := fmt.Sprintf(jobStatusKeyFormat, displayID)
	SetJobStatusTimestamp(displayID, time.Now())
	return cache.Set(key, status, jobStatusTTL)
}

// SetJobStatusTimestamp records when the status was last written.
func SetJobStatusTimestamp(displayID string, timestamp time.Time) error {
	key := fmt.Sprintf(jobStatusTimestampKeyFormat, displayID)
	return cache.Set(key, timestamp.Format(time.RFC3339), jobStatusTTL)
}

// GetJobStatus retrieves the cached pipeline state of a job.
func GetJobStatus(displayID string) (string, error) {
	key := fmt.Sprintf(jobStatusKeyFormat, displayID)
	return cache.Get(key)
}

// GetJobStatusTimestamp retrieves when the status was last written.
func GetJobStatusTimestamp(displayID string) (time.Time, error) {
	key := fmt.Sprintf(jobStatusTimestampKeyFormat, displayID)
	raw, err := cache.Get(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}

// ResolveJobStatus answers a status poll: cache first, database as the source
// of truth on a miss (and repairs the cache so the next poll is cheap).
func ResolveJobStatus(displayID string) (string, error) {
	if status, err := GetJobStatus(displayID); err == nil && status != "" {
		return status, nil
	}

	job, err := models.FindJobByDisplayID(database.GetDB(), displayID)
	if err != nil {
		return "", err
	}

	SetJobStatus(displayID, job.Status)
	return job.Status, nil
}
