package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store - Redis-backed job state
type Store struct {
	rdb *redis.Client
}

// NewStore - create the job store
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Save - persist the job state with its TTL
func (s *Store) Save(ctx context.Context, job ImageJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}

// Load - fetch a job by ID, nil when unknown or expired
func (s *Store) Load(ctx context.Context, id string) (*ImageJob, error) {
	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}

	var job ImageJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job %s: %w", id, err)
	}
	return &job, nil
}

// Enqueue - push the job ID onto the work queue, returning its position
func (s *Store) Enqueue(ctx context.Context, id string) (int64, error) {
	if err := s.rdb.LPush(ctx, QueueKey, id).Err(); err != nil {
		return 0, fmt.Errorf("failed to enqueue job %s: %w", id, err)
	}
	position, _ := s.rdb.LLen(ctx, QueueKey).Result()
	return position, nil
}
