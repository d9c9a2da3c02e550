package worker

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"prompt-forge-server/modules/common/model"
	"prompt-forge-server/modules/replicate"
)

// Bridge - the image-generation collaborator
type Bridge interface {
	SubmitAndAwait(ctx context.Context, job replicate.Job) (string, error)
}

// Notifier - receives job state changes for session fan-out
type Notifier func(job ImageJob)

// StartWorker - watch the Redis queue and process jobs as they arrive
// Blocks forever; run in its own goroutine.
func StartWorker(rdb *redis.Client, bridge Bridge, notify Notifier) {
	log.Printf("🔄 Image job worker starting, watching queue: %s", QueueKey)

	store := NewStore(rdb)
	ctx := context.Background()

	for {
		result, err := rdb.BRPop(ctx, 0, QueueKey).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0] is the queue name, result[1] the job ID
		jobID := result[1]
		log.Printf("🎯 Received new job: %s", jobID)

		go processJob(ctx, store, bridge, notify, jobID)
	}
}

// processJob - run one job through the bridge and record every transition
func processJob(ctx context.Context, store *Store, bridge Bridge, notify Notifier, jobID string) {
	job, err := store.Load(ctx, jobID)
	if err != nil {
		log.Printf("❌ Failed to load job %s: %v", jobID, err)
		return
	}
	if job == nil {
		log.Printf("⚠️ Job %s not found in store, skipping", jobID)
		return
	}

	transition(ctx, store, notify, job, func(j *ImageJob) {
		j.Status = model.StatusProcessing
	})

	resultURL, err := RunJob(ctx, bridge, *job)

	now := time.Now()
	if err != nil {
		log.Printf("❌ Job %s failed: %v", jobID, err)
		transition(ctx, store, notify, job, func(j *ImageJob) {
			j.Status = model.StatusFailed
			j.ErrorMessage = err.Error()
			j.CompletedAt = &now
		})
		return
	}

	log.Printf("✅ Job %s completed: %s", jobID, resultURL)
	transition(ctx, store, notify, job, func(j *ImageJob) {
		j.Status = model.StatusCompleted
		j.ResultURL = resultURL
		j.CompletedAt = &now
	})
}

// RunJob - execute one job against the bridge
func RunJob(ctx context.Context, bridge Bridge, job ImageJob) (string, error) {
	return bridge.SubmitAndAwait(ctx, job.Job)
}

// transition - apply a state change, persist it, and notify listeners
func transition(ctx context.Context, store *Store, notify Notifier, job *ImageJob, apply func(*ImageJob)) {
	apply(job)
	if err := store.Save(ctx, *job); err != nil {
		log.Printf("⚠️ Failed to persist job %s state: %v", job.ID, err)
	}
	if notify != nil {
		notify(*job)
	}
}
