package domain

import (
	"encoding/json"
	"time"
)

// Meta carries pagination details for list responses.
type Meta struct {
	TotalPage  int `json:"totalPage"`
	Page       int `json:"page"`
	TotalCount int `json:"totalCount"`
	PageSize   int `json:"pageSize"`
}

// Status is the application-level status carried inside every envelope.
// Code is a backend-defined application code, not an HTTP status.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is the backend's uniform wire wrapper. Every response, success
// or business failure, arrives in this shape. Data is kept raw so callers
// decode it into the payload type they expect.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Meta      *Meta           `json:"meta,omitempty"`
	Status    Status          `json:"status"`
	Timestamp string          `json:"timestamp,omitempty"`
	TraceID   string          `json:"traceId,omitempty"`
	Path      string          `json:"path,omitempty"`
}

// DecodeData unmarshals the envelope payload into v.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// NewEnvelope builds a success envelope around data. Marshal failures are
// a programming error and surface as an error return rather than a panic.
func NewEnvelope(data any, code int, message, traceID, path string) (*Envelope, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Envelope{
		Success:   true,
		Data:      raw,
		Status:    Status{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		TraceID:   traceID,
		Path:      path,
	}, nil
}

// NewErrorEnvelope builds a failure envelope with the given application
// status code and message.
func NewErrorEnvelope(code int, message, path string) *Envelope {
	return &Envelope{
		Success:   false,
		Status:    Status{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Path:      path,
	}
}
