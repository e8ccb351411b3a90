package proctor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/teslashibe/proctorcam/internal/httpc"
	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
)

// maxBodyBytes caps how much of a response we read.
const maxBodyBytes = 1 << 20

// Client posts multipart uploads to the proctoring backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the shared httpc client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.Or(c.logger).With("component", "proctor")
	return c
}

// BaseURL returns the server URL the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitReference uploads the three reference poses for studentID.
func (c *Client) SubmitReference(ctx context.Context, studentID string, frames [3]camera.Frame) (*ReferenceResult, error) {
	if studentID == "" {
		return nil, ErrNoStudentID
	}
	for i, f := range frames {
		if f.Empty() {
			return nil, fmt.Errorf("%w: %s", ErrEmptyFrame, ReferenceImageField(i))
		}
	}

	var result ReferenceResult
	status, err := c.post(ctx, ReferencePath, func(w *multipart.Writer) error {
		if err := w.WriteField(FieldStudentID, studentID); err != nil {
			return err
		}
		for i, f := range frames {
			if err := w.WriteField(ReferenceImageField(i), f.DataURL()); err != nil {
				return err
			}
		}
		return nil
	}, &result)
	if err != nil {
		return nil, err
	}
	result.StatusCode = status

	c.logger.Debug("reference upload done", "student_id", studentID, "status", status, "success", result.Success)
	return &result, nil
}

// VerifyBatch uploads one monitoring batch for studentID.
func (c *Client) VerifyBatch(ctx context.Context, studentID string, frames []camera.Frame) (*VerifyResult, error) {
	if studentID == "" {
		return nil, ErrNoStudentID
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	var result VerifyResult
	status, err := c.post(ctx, VerifyPath, func(w *multipart.Writer) error {
		if err := w.WriteField(FieldStudentID, studentID); err != nil {
			return err
		}
		for _, f := range frames {
			if f.Empty() {
				return ErrEmptyFrame
			}
			if err := w.WriteField(FieldImages, f.DataURL()); err != nil {
				return err
			}
		}
		return nil
	}, &result)
	if err != nil {
		return nil, err
	}
	result.StatusCode = status

	c.logger.Debug("batch verify done",
		"student_id", studentID,
		"frames", len(frames),
		"status", status,
		"verify_status", result.Status,
		"details", len(result.Details))
	return &result, nil
}

// post sends a multipart form built by fill and decodes the JSON reply into
// out. The body is decoded whatever the HTTP status, since the backend
// reports rejections as 4xx with a JSON explanation.
func (c *Client) post(ctx context.Context, path string, fill func(*multipart.Writer) error, out interface{}) (int, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := fill(w); err != nil {
		return 0, fmt.Errorf("proctor: build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("proctor: build form: %w", err)
	}

	resp, err := httpc.PostContext(ctx, c.http, c.baseURL+path, w.FormDataContentType(), &body)
	if err != nil {
		return 0, &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, &TransportError{Endpoint: path, Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Message:    excerpt(data, err),
			Endpoint:   path,
		}
	}
	return resp.StatusCode, nil
}

func excerpt(data []byte, err error) string {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "empty response body"
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("%v: %s", err, s)
}
