// Package responses defines JSON response types used by the HTTP handlers.
package responses

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
