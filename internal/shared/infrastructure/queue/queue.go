package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job is the envelope stored on the wire for every queued payload.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Commands is the subset of redis commands the queue uses. Satisfied by
// *redis.Client.
type Commands interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) *redis.StringCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRangeByScore(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
}

// Queue is a redis-list backed job channel with at-least-once delivery.
// Failed jobs are retried with exponential backoff up to MaxAttempts and
// then pushed to a dead-letter list for operator attention.
type Queue struct {
	client      Commands
	name        string
	maxAttempts int
}

// New creates a queue handle for the given name.
func New(client Commands, name string, maxAttempts int) *Queue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Queue{client: client, name: name, maxAttempts: maxAttempts}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

func (q *Queue) pendingKey() string { return "queue:" + q.name }
func (q *Queue) activeKey() string  { return "queue:" + q.name + ":active" }
func (q *Queue) delayedKey() string { return "queue:" + q.name + ":delayed" }
func (q *Queue) deadKey() string    { return "queue:" + q.name + ":dead" }

// Enqueue marshals payload and pushes a new job onto the queue.
func (q *Queue) Enqueue(ctx context.Context, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New().String(),
		Queue:      q.name,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.pendingKey(), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Backoff returns the delay before the given retry attempt (1-based).
// 1s, 2s, 4s, ... capped at five minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Second << uint(attempt-1)
	if d > 5*time.Minute || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Handler processes a single job payload. A nil return acknowledges the
// job; an error schedules a retry or dead-letters it.
type Handler func(ctx context.Context, payload []byte) error

// Consumer runs a pool of workers draining one queue.
type Consumer struct {
	queue       *Queue
	handler     Handler
	concurrency int
	logger      *slog.Logger
}

// NewConsumer creates a consumer for the queue with the given handler.
func NewConsumer(q *Queue, handler Handler, concurrency int, logger *slog.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{queue: q, handler: handler, concurrency: concurrency, logger: logger}
}

// Run blocks until ctx is cancelled, processing jobs with the configured
// concurrency. Jobs for unrelated records may run in parallel; the queue
// makes no ordering or exclusivity promise for jobs sharing a key.
func (c *Consumer) Run(ctx context.Context) {
	if n, err := c.reclaimActive(ctx); err != nil {
		c.logger.Error("failed to reclaim stranded jobs", "queue", c.queue.name, "error", err)
	} else if n > 0 {
		c.logger.Info("requeued stranded jobs", "queue", c.queue.name, "count", n)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.loop(ctx)
		}()
	}
	wg.Wait()
}

func (c *Consumer) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.promoteDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("failed to promote delayed jobs", "queue", c.queue.name, "error", err)
		}

		data, err := c.queue.client.BLMove(ctx, c.queue.pendingKey(), c.queue.activeKey(), "RIGHT", "LEFT", time.Second).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Error("failed to fetch job", "queue", c.queue.name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.process(ctx, data)
	}
}

func (c *Consumer) process(ctx context.Context, data string) {
	// Ack and retry bookkeeping must run even after ctx is cancelled,
	// otherwise a shutdown mid-job strands the entry on the active list.
	ack := context.WithoutCancel(ctx)
	defer c.queue.client.LRem(ack, c.queue.activeKey(), 1, data)

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		// Malformed envelope cannot be retried; park it for inspection.
		c.logger.Error("dead-lettering undecodable job", "queue", c.queue.name, "error", err)
		c.queue.client.LPush(ack, c.queue.deadKey(), data)
		return
	}

	if err := c.handler(ctx, job.Payload); err != nil {
		c.retry(ack, job, err)
		return
	}
}

func (c *Consumer) retry(ctx context.Context, job Job, cause error) {
	job.Attempts++
	data, err := json.Marshal(job)
	if err != nil {
		c.logger.Error("failed to re-marshal job for retry", "queue", c.queue.name, "job_id", job.ID, "error", err)
		return
	}

	if job.Attempts >= c.queue.maxAttempts {
		c.logger.Error("job exhausted retries, dead-lettering",
			"queue", c.queue.name, "job_id", job.ID, "attempts", job.Attempts, "error", cause)
		if err := c.queue.client.LPush(ctx, c.queue.deadKey(), data).Err(); err != nil {
			c.logger.Error("failed to dead-letter job", "queue", c.queue.name, "job_id", job.ID, "error", err)
		}
		return
	}

	delay := Backoff(job.Attempts)
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	c.logger.Warn("job failed, scheduling retry",
		"queue", c.queue.name, "job_id", job.ID, "attempt", job.Attempts, "delay", delay, "error", cause)
	if err := c.queue.client.ZAdd(ctx, c.queue.delayedKey(), redis.Z{Score: readyAt, Member: string(data)}).Err(); err != nil {
		c.logger.Error("failed to schedule retry", "queue", c.queue.name, "job_id", job.ID, "error", err)
	}
}

// reclaimActive requeues jobs a previous run left on the active list, for
// instance after a worker crash between the BLMove and the ack. Delivery is
// at-least-once, so a job reclaimed from a still-running replica is only a
// duplicate, never a loss.
func (c *Consumer) reclaimActive(ctx context.Context) (int, error) {
	stranded, err := c.queue.client.LRange(ctx, c.queue.activeKey(), 0, -1).Result()
	if err != nil {
		return 0, err
	}
	if len(stranded) == 0 {
		return 0, nil
	}
	for _, data := range stranded {
		if err := c.queue.client.LPush(ctx, c.queue.pendingKey(), data).Err(); err != nil {
			return 0, err
		}
	}
	if err := c.queue.client.Del(ctx, c.queue.activeKey()).Err(); err != nil {
		return 0, err
	}
	return len(stranded), nil
}

// promoteDue moves delayed jobs whose backoff has elapsed back onto the
// pending list.
func (c *Consumer) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := c.queue.client.ZRangeByScore(ctx, c.queue.delayedKey(), &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := c.queue.client.ZRem(ctx, c.queue.delayedKey(), member).Result()
		if err != nil {
			return err
		}
		// Another worker may have promoted it first.
		if removed == 0 {
			continue
		}
		if err := c.queue.client.LPush(ctx, c.queue.pendingKey(), member).Err(); err != nil {
			return err
		}
	}
	return nil
}
