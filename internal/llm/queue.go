package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	queueKey     = "emailwise:queue"
	jobKeyPrefix = "emailwise:job:"
	jobTTL       = 24 * time.Hour

	JobQueued     = "queued"
	JobProcessing = "processing"
	JobDone       = "done"
	JobFailed     = "failed"
)

var ErrJobNotFound = errors.New("job not found")

type Job struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Options   Options   `json:"options"`
	CreatedAt time.Time `json:"created_at"`
}

type JobStatus struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	SummaryID int64           `json:"summary_id,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Queue struct {
	client *redis.Client
}

func NewQueue(redisURL string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	return &Queue{client: client}, nil
}

func NewQueueWithClient(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// Enqueue assigns a job id, records a queued status and pushes the job.
func (q *Queue) Enqueue(ctx context.Context, content string, opts Options) (Job, error) {
	job := Job{ID: uuid.New(), Content: content, Options: opts, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(job)
	if err != nil {
		return Job{}, err
	}
	if err := q.SetStatus(ctx, JobStatus{ID: job.ID, Status: JobQueued}); err != nil {
		return Job{}, err
	}
	if err := q.client.LPush(ctx, queueKey, payload).Err(); err != nil {
		return Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

func (q *Queue) DequeueBatch(ctx context.Context, batchSize int) ([][]byte, error) {
	var items [][]byte
	for i := 0; i < batchSize; i++ {
		item, err := q.client.RPop(ctx, queueKey).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (q *Queue) SetStatus(ctx context.Context, status JobStatus) error {
	status.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, jobKeyPrefix+status.ID.String(), payload, jobTTL).Err()
}

func (q *Queue) Status(ctx context.Context, id uuid.UUID) (*JobStatus, error) {
	raw, err := q.client.Get(ctx, jobKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var status JobStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode job status: %w", err)
	}
	return &status, nil
}

// ResultSaver persists a finished analysis and returns its history id.
type ResultSaver interface {
	Save(ctx context.Context, content string, result *AnalysisResult) (int64, error)
}

type Broadcaster interface {
	Broadcast(payload any)
}

type Worker struct {
	Queue     *Queue
	Analyzer  *Analyzer
	History   ResultSaver
	Hub       Broadcaster
	Log       zerolog.Logger
	BatchSize int
	Timeout   time.Duration
}

func (w *Worker) Start(ctx context.Context) {
	batch := w.BatchSize
	if batch <= 0 {
		batch = 10
	}
	log := w.Log.With().Str("component", "worker").Logger()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		items, err := w.Queue.DequeueBatch(ctx, batch)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("dequeue failed")
			}
			sleep(ctx, 2*time.Second)
			continue
		}
		if len(items) == 0 {
			sleep(ctx, 500*time.Millisecond)
			continue
		}

		for _, raw := range items {
			var job Job
			if err := json.Unmarshal(raw, &job); err != nil {
				log.Warn().Err(err).Msg("dropping malformed job")
				continue
			}
			w.process(ctx, job, log)
		}
	}
}

func (w *Worker) process(ctx context.Context, job Job, log zerolog.Logger) {
	if err := w.Queue.SetStatus(ctx, JobStatus{ID: job.ID, Status: JobProcessing}); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Str("status", JobProcessing).Msg("failed to store job status")
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	resp := w.Analyzer.AnalyzeEmail(ctxTimeout, Request{Content: job.Content, Options: job.Options})
	cancel()

	status := JobStatus{ID: job.ID, Status: JobDone, Result: resp.Data}
	if !resp.Success {
		status.Status = JobFailed
		status.Error = resp.Error
	} else if w.History != nil {
		id, err := w.History.Save(ctx, job.Content, resp.Data)
		if err != nil {
			log.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to save analysis")
		} else {
			status.SummaryID = id
			if w.Hub != nil {
				w.Hub.Broadcast(map[string]any{
					"type":   "history.created",
					"id":     id,
					"job_id": job.ID,
					"method": resp.Data.Method,
				})
			}
		}
	}
	if err := w.Queue.SetStatus(ctx, status); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Str("status", status.Status).Msg("failed to store job status")
	}
	log.Info().Str("job_id", job.ID.String()).Str("status", status.Status).Msg("job processed")
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
