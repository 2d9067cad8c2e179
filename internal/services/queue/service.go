package queue

import (
	"errors"
	"fmt"

	"github.com/phambaophuc/image-normalizer/internal/config"
	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/phambaophuc/image-normalizer/internal/services/storage"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const defaultQueueName = "image_normalize"

// QueueService publishes normalization jobs to RabbitMQ and runs the
// workers that consume them. Job state lives in the storage service.
type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	processor *processor.ImageProcessor
	storage   *storage.StorageService
	defaults  processor.Options
}

func NewQueueService(
	cfg config.RabbitMQConfig,
	processor *processor.ImageProcessor,
	storage *storage.StorageService,
	defaults processor.Options,
	logger *zap.Logger,
) (*QueueService, error) {
	queueName := cfg.Queue
	if queueName == "" {
		queueName = defaultQueueName
	}

	conn, channel, err := connect(cfg.URL, queueName)
	if err != nil {
		return nil, err
	}

	q := &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
		processor: processor,
		storage:   storage,
		defaults:  defaults,
	}
	go q.watchConnection(conn.NotifyClose(make(chan *amqp.Error, 1)))

	return q, nil
}

// connect dials the broker and declares a durable queue named queueName.
func connect(url, queueName string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return conn, channel, nil
}

func (q *QueueService) watchConnection(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		q.logger.Error("RabbitMQ connection lost",
			zap.String("queue", q.queueName),
			zap.Int("code", err.Code),
			zap.String("reason", err.Reason))
	}
}

// Close shuts the channel and the connection down.
func (q *QueueService) Close() error {
	var errs []error
	if q.channel != nil {
		if err := q.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if q.conn != nil {
		if err := q.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
