package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("job not found")

// Store keeps per-job status records in redis, keyed by job id with a TTL,
// so concurrent jobs never share state and finished records expire on their
// own instead of accumulating in a process-wide map.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(jobID uuid.UUID) string {
	return "video:status:" + jobID.String()
}

// Create registers a fresh job in the processing state.
func (s *Store) Create(ctx context.Context, jobID uuid.UUID) error {
	return s.put(ctx, &models.JobState{
		JobID:    jobID,
		Status:   models.JobStatusProcessing,
		Progress: 0,
	})
}

// SetProgress records forward motion within the processing state.
func (s *Store) SetProgress(ctx context.Context, jobID uuid.UUID, progress int) error {
	return s.put(ctx, &models.JobState{
		JobID:    jobID,
		Status:   models.JobStatusProcessing,
		Progress: progress,
	})
}

// Complete marks the job done and records where the artifact lives.
func (s *Store) Complete(ctx context.Context, jobID uuid.UUID, outputURL string) error {
	return s.put(ctx, &models.JobState{
		JobID:     jobID,
		Status:    models.JobStatusCompleted,
		Progress:  100,
		OutputURL: outputURL,
	})
}

// Fail marks the job failed with a caller-visible message.
func (s *Store) Fail(ctx context.Context, jobID uuid.UUID, message string) error {
	return s.put(ctx, &models.JobState{
		JobID:  jobID,
		Status: models.JobStatusFailed,
		Error:  message,
	})
}

// Get fetches the current state; ErrNotFound covers unknown and expired ids.
func (s *Store) Get(ctx context.Context, jobID uuid.UUID) (*models.JobState, error) {
	data, err := s.client.Get(ctx, key(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job state: %w", err)
	}

	var state models.JobState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job state: %w", err)
	}

	return &state, nil
}

func (s *Store) put(ctx context.Context, state *models.JobState) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal job state: %w", err)
	}

	if err := s.client.Set(ctx, key(state.JobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job state: %w", err)
	}

	return nil
}
