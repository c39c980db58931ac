package http

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  int    `json:"status" example:"200"`
	Message string `json:"message" example:"OK"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string         `json:"field,omitempty" example:"ticker"`
	Message string         `json:"message,omitempty" example:"ticker is required"`
	Params  map[string]any `json:"params,omitempty"`
}
