// Package proctor is the client for the proctoring backend's two upload
// endpoints.
package proctor

import (
	"encoding/json"
	"strconv"
)

// Endpoint paths relative to the server URL.
const (
	ReferencePath = "/api/capture_reference_batch"
	VerifyPath    = "/api/batch_verify"
)

// Form field names.
const (
	FieldStudentID = "student_id"
	FieldImages    = "images[]"
)

// ReferenceImageField returns the form field for the i-th reference image (0-based).
func ReferenceImageField(i int) string {
	return "image" + strconv.Itoa(i+1)
}

// Verify status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ReferenceResult is the response to a reference upload.
type ReferenceResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	// StatusCode is the HTTP status the body arrived with.
	StatusCode int `json:"-"`
}

// Reason returns the server's failure explanation: error, else message.
func (r *ReferenceResult) Reason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// VerifyResult is the response to a monitoring batch.
type VerifyResult struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details []json.RawMessage `json:"detailed_results,omitempty"`

	StatusCode int `json:"-"`
}

// Flagged reports whether the server signalled a verification problem.
func (r *VerifyResult) Flagged() bool {
	return r.Status == StatusError
}

// OK reports whether the HTTP exchange itself succeeded (2xx).
func (r *VerifyResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
