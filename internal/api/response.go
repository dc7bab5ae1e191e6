package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is a stable error code plus a human readable message.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Response renders itself.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

type jsonResponse struct {
	status int
	body   Envelope
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// ResponseOption adjusts a JSON response.
type ResponseOption func(*jsonResponse)

func WithStatus(status int) ResponseOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithMeta(key string, value any) ResponseOption {
	return func(r *jsonResponse) {
		if r.body.Meta == nil {
			r.body.Meta = make(map[string]any)
		}
		r.body.Meta[key] = value
	}
}

// JSON wraps data in the envelope with status 200.
func JSON(data any, opts ...ResponseOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: Envelope{Data: data}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Error builds an error envelope.
func Error(status int, code, message string, opts ...ResponseOption) Response {
	r := &jsonResponse{
		status: status,
		body:   Envelope{Error: &ErrorDetail{Code: code, Message: message}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidationError reports field errors with 422.
func ValidationError(details map[string][]string) Response {
	r := &jsonResponse{
		status: http.StatusUnprocessableEntity,
		body: Envelope{Error: &ErrorDetail{
			Code:    "validation_error",
			Message: "request validation failed",
			Details: details,
		}},
	}
	return r
}

// HandlerFunc is an http.Handler that returns its response instead of writing it.
type HandlerFunc func(r *http.Request) Response

func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(r)
	if resp == nil {
		resp = Error(http.StatusInternalServerError, "internal_error", "empty response")
	}
	if err := resp.Render(w, r); err != nil {
		slog.Default().ErrorContext(r.Context(), "failed to render response", slog.Any("error", err))
	}
}

func render(w http.ResponseWriter, r *http.Request, resp Response) {
	HandlerFunc(func(*http.Request) Response { return resp }).ServeHTTP(w, r)
}
