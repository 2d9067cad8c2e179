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

// PublishJob records job as pending, then hands it to the workers. A job
// that cannot be published is recorded as failed.
func (q *QueueService) PublishJob(ctx context.Context, job *models.NormalizeJob) error {
	job.Status = models.StatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}

	if err := q.storage.SaveJob(ctx, job); err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.CreatedAt,
		Body:         body,
	}
	if err := q.channel.Publish("", q.queueName, false, false, msg); err != nil {
		job.Status = models.StatusFailed
		job.Error = "failed to enqueue job"
		q.saveJob(ctx, job)
		return fmt.Errorf("failed to publish job %s: %w", job.ID, err)
	}

	q.logger.Info("Job queued", zap.String("job_id", job.ID), zap.String("queue", q.queueName))
	return nil
}
