package model

// Response is a generic struct for API responses
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Message string      `json:"message"`
}

// StatusResponse is the acknowledgement returned by /update_location.
type StatusResponse struct {
	Status string `json:"status"`
}
