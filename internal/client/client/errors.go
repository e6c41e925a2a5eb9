package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response. It matches ErrUnauthorized, ErrForbidden
// and ErrNotFound through errors.Is according to StatusCode.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

const maxErrorMessage = 512

// errorMessage pulls a human readable message out of an error body. The
// backend uses "errorMessage" for its own errors and "detail" for framework
// errors; validation failures come back as {"field": ["msg", ...]}.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return truncate(strings.TrimSpace(string(body)))
	}

	for _, k := range []string{"errorMessage", "detail", "message", "error"} {
		if s, ok := payload[k].(string); ok && s != "" {
			return truncate(s)
		}
	}

	parts := make([]string, 0, len(payload))
	for field, v := range payload {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if s, ok := item.(string); ok {
				parts = append(parts, field+": "+s)
			}
		}
	}
	sort.Strings(parts)
	return truncate(strings.Join(parts, "; "))
}

// truncate caps s at maxErrorMessage bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxErrorMessage {
		return s
	}
	cut := maxErrorMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
