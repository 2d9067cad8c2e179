package storage

import (
	"context"
)

// HealthCheck checks Redis and the object store
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	if s.objects == nil {
		status["object_store"] = "not configured"
		return status
	}

	if err := s.objects.Ping(ctx); err != nil {
		status[s.objects.Name()] = "unhealthy: " + err.Error()
	} else {
		status[s.objects.Name()] = "healthy"
	}

	return status
}
