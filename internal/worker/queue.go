package worker

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

// JobQueue adapts pkg/jobs.Queue to the scheduleJobQueue seam the control
// plane's ScheduleService depends on, keeping the HTTP-facing service free
// of any direct dependency on the worker package.
type JobQueue struct {
	queue *jobs.Queue
}

// NewJobQueue wraps an already-started pkg/jobs.Queue.
func NewJobQueue(queue *jobs.Queue) *JobQueue {
	return &JobQueue{queue: queue}
}

// Enqueue submits a schedule generation job.
func (q *JobQueue) Enqueue(ctx context.Context, scheduleID string) error {
	return q.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobType,
		Payload: scheduleID,
	})
}

// Depth reports the number of jobs buffered and not yet picked up by a
// worker, for the schedule_queue_depth gauge (SPEC_FULL.md §8).
func (q *JobQueue) Depth() int {
	return q.queue.Depth()
}
