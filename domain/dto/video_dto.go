package dto

// VideoRequest is the body accepted by /video_info and /download
type VideoRequest struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status string `json:"status"`
}
