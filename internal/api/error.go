package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a structured failure from either backend. Detail carries the
// server's error message verbatim so callers can show it to the user.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// newError decodes a FastAPI-style {"detail": "..."} body, falling back to
// the raw body text when the shape is different.
func newError(statusCode int, body []byte) *Error {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return &Error{StatusCode: statusCode, Detail: detail}
		}
		// Validation errors arrive as structured detail; keep it readable.
		return &Error{StatusCode: statusCode, Detail: string(payload.Detail)}
	}
	return &Error{StatusCode: statusCode, Detail: strings.TrimSpace(string(body))}
}
