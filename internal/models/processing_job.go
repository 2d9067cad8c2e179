package models

import "time"

// NormalizeJob is queued for asynchronous normalization. Exactly one of
// ImageURL and ObjectKey names the source.
type NormalizeJob struct {
	ID        string             `json:"id"`
	ImageURL  string             `json:"image_url,omitempty"`
	ObjectKey string             `json:"object_key,omitempty"`
	Filename  string             `json:"filename,omitempty"`
	Options   NormalizeOptions   `json:"options"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Result    *NormalizeResponse `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type AsyncNormalizeRequest struct {
	ImageURL  string           `json:"image_url" binding:"required_without=ObjectKey"`
	ObjectKey string           `json:"object_key" binding:"required_without=ImageURL"`
	Filename  string           `json:"filename"`
	Options   NormalizeOptions `json:"options"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
