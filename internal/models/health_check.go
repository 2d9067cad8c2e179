package models

import "time"

// HealthCheck reports every dependency as "healthy", "not configured" or
// "unhealthy: <reason>".
type HealthCheck struct {
	Status         string            `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
	StorageBackend string            `json:"storage_backend"`
	Services       map[string]string `json:"services"`
}
