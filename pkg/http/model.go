package http

// DetailResponse is the error body returned to callers.
type DetailResponse struct {
	Detail string            `json:"detail" example:"Symbol is required"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// HealthResponse is returned by the root health check.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"etf-scraper"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"symbol"`
	Message string                 `json:"message,omitempty" example:"Symbol is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
