package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/clipsmith/clipsmith/internal/models"
)

const QueueRenderVideo = "queue:render_video"

type Queue struct {
	client *redis.Client
}

// Job pairs a job id with the submitted video request.
type Job struct {
	ID        uuid.UUID           `json:"id"`
	Request   models.VideoRequest `json:"request"`
	CreatedAt time.Time           `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// Client exposes the underlying connection so the job store can share it.
func (q *Queue) Client() *redis.Client {
	return q.client
}

// EnqueueRenderVideo submits a video job.
func (q *Queue) EnqueueRenderVideo(ctx context.Context, jobID uuid.UUID, req models.VideoRequest) error {
	job := &Job{ID: jobID, Request: req, CreatedAt: time.Now()}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, QueueRenderVideo, data).Err()
}

// Dequeue blocks up to timeout for the next job. A nil job means the queue
// was empty for the whole window.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, QueueRenderVideo).Result()
	if err == redis.Nil {
		return nil, nil // No job available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueRenderVideo).Result()
}
