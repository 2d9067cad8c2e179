package queue

import "fmt"

type QueueStats struct {
	Name      string `json:"name"`
	Messages  int    `json:"messages"`
	Consumers int    `json:"consumers"`
}

// GetQueueStats reports the backlog and consumer count of the job queue.
func (q *QueueService) GetQueueStats() (QueueStats, error) {
	if q.channel == nil {
		return QueueStats{}, fmt.Errorf("queue %s: channel not available", q.queueName)
	}

	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return QueueStats{}, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}

	return QueueStats{
		Name:      info.Name,
		Messages:  info.Messages,
		Consumers: info.Consumers,
	}, nil
}

func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	default:
		return "healthy"
	}
}
