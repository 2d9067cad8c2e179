package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const saveJobTimeout = 5 * time.Second

// StartWorkers limits unacknowledged deliveries to one per worker and
// starts count consumers. Workers stop when ctx is done.
func (q *QueueService) StartWorkers(ctx context.Context, count int) error {
	count = max(count, 1)
	if err := q.channel.Qos(count, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	for id := 1; id <= count; id++ {
		if err := q.StartWorker(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	consumer := fmt.Sprintf("normalizer-%d", workerID)
	deliveries, err := q.channel.Consume(q.queueName, consumer, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer %s: %w", consumer, err)
	}

	log := q.logger.With(zap.Int("worker_id", workerID))
	log.Info("Worker started", zap.String("queue", q.queueName))

	go q.consume(ctx, log, deliveries)
	return nil
}

func (q *QueueService) consume(ctx context.Context, log *zap.Logger, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			log.Info("Worker stopping")
			return
		case delivery, ok := <-deliveries:
			if !ok {
				log.Warn("Delivery channel closed")
				return
			}
			q.handleDelivery(ctx, log, delivery)
		}
	}
}

// handleDelivery runs one job. Malformed messages are dropped without
// requeue. A job interrupted by shutdown is requeued, every other job is
// acked once it reaches a terminal status.
func (q *QueueService) handleDelivery(ctx context.Context, log *zap.Logger, delivery amqp.Delivery) {
	var job models.NormalizeJob
	if err := json.Unmarshal(delivery.Body, &job); err != nil || job.ID == "" {
		log.Error("Dropping malformed job message",
			zap.String("message_id", delivery.MessageId),
			zap.Error(err))
		if err := delivery.Nack(false, false); err != nil {
			log.Error("Failed to nack message", zap.Error(err))
		}
		return
	}

	log.Info("Processing job", zap.String("job_id", job.ID))
	q.handleJob(ctx, &job)

	if ctx.Err() != nil {
		log.Warn("Requeueing interrupted job", zap.String("job_id", job.ID))
		if err := delivery.Nack(false, true); err != nil {
			log.Error("Failed to nack message", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		log.Error("Failed to ack message", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// handleJob drives job through processing to a terminal status and records
// every transition.
func (q *QueueService) handleJob(ctx context.Context, job *models.NormalizeJob) {
	job.Status = models.StatusProcessing
	q.saveJob(ctx, job)

	result, err := q.processJob(ctx, job)
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.logger.Error("Job failed", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		job.Result = result
		q.logger.Info("Job completed", zap.String("job_id", job.ID))
	}

	q.saveJob(ctx, job)
}

// saveJob outlives ctx so a job interrupted by shutdown still records its
// terminal status.
func (q *QueueService) saveJob(ctx context.Context, job *models.NormalizeJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveJobTimeout)
	defer cancel()

	if err := q.storage.SaveJob(ctx, job); err != nil {
		q.logger.Error("Failed to store job state",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}
