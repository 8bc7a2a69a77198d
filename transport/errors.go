package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Sentinel errors for the transport layer.
var (
	ErrInvalidBaseURL = errors.New("transport: invalid base URL")
	ErrDecode         = errors.New("transport: decode response")
)

// maxMessageLen bounds how much of a remote error message is quoted.
const maxMessageLen = 200

// Error describes a failed request.
//
// HTTPStatus is zero when no response was received (network failure,
// credentials error, cancellation); Err then holds the cause. For non-2xx
// responses Err is nil and Body holds the response body.
type Error struct {
	Method     string
	Endpoint   string
	HTTPStatus int
	Status     string
	Body       []byte
	Err        error
}

// Error returns a message such as "GET /health: 503 Service Unavailable".
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	b.WriteByte(' ')
	b.WriteString(e.Endpoint)
	b.WriteString(": ")

	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.HTTPStatus != 0:
		b.WriteString(e.statusLine())
		if msg := remoteMessage(e.Body); msg != "" {
			b.WriteString(": ")
			b.WriteString(msg)
		}
	default:
		b.WriteString("request failed")
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status, or 0 if no response was received.
func (e *Error) StatusCode() int {
	return e.HTTPStatus
}

func (e *Error) statusLine() string {
	if e.Status != "" {
		return e.Status
	}
	return strconv.Itoa(e.HTTPStatus) + " " + http.StatusText(e.HTTPStatus)
}

// remoteMessage extracts {"error": "..."} or {"message": "..."} from a JSON
// error body.
func remoteMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	msg = strings.TrimSpace(msg)
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return msg
}
