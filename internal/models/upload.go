package models

// UploadRequest carries an already normalized image as a data URL.
type UploadRequest struct {
	Image    string `json:"image" binding:"required"`
	Filename string `json:"filename"`
}

type UploadResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

type DeleteResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}
