package models

import "time"

type BatchResponse struct {
	Images      []NormalizeResponse `json:"images"`
	Failed      []BatchFailure      `json:"failed,omitempty"`
	ProcessedAt time.Time           `json:"processed_at"`
}

type BatchFailure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type UploadFile struct {
	Data        []byte
	Filename    string
	ContentType string
}
