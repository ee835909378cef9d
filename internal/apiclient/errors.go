package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultFallback is used when neither the response body nor the call site
// supply a usable message.
const DefaultFallback = "Something went wrong. Please try again."

var (
	// ErrSessionExpired is wrapped by errors returned for authenticated calls
	// the API rejected with 401. The session has already been cleared when a
	// caller sees it.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned for authenticated calls made without a
	// token. No request is sent.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// BodyKind tags the shape of an error response body.
type BodyKind int

const (
	// BodyUnknown covers empty, non-JSON and unrecognised bodies.
	BodyUnknown BodyKind = iota
	// BodyFieldErrors is an object of field name to message list.
	BodyFieldErrors
	// BodyDetail is {"detail": "..."}.
	BodyDetail
	// BodyErrorText is {"error": "..."}.
	BodyErrorText
)

func (k BodyKind) String() string {
	switch k {
	case BodyFieldErrors:
		return "field_errors"
	case BodyDetail:
		return "detail"
	case BodyErrorText:
		return "error"
	}
	return "unknown"
}

// FieldError holds the messages reported for one field.
type FieldError struct {
	Field    string
	Messages []string
}

// ErrorBody is the decoded form of an error response. Exactly one of Fields,
// Detail or Text is meaningful, selected by Kind.
type ErrorBody struct {
	Kind   BodyKind
	Fields []FieldError // document order
	Detail string
	Text   string
}

// Message maps the body to a single display string. It is total: every body
// yields either one of its own messages or fallback.
func (b ErrorBody) Message(fallback string) string {
	switch b.Kind {
	case BodyDetail:
		return b.Detail
	case BodyErrorText:
		return b.Text
	case BodyFieldErrors:
		for _, f := range b.Fields {
			if len(f.Messages) > 0 && f.Messages[0] != "" {
				return f.Messages[0]
			}
		}
	}
	if fallback == "" {
		return DefaultFallback
	}
	return fallback
}

// FieldMap flattens field errors to their first message, for form rendering.
func (b ErrorBody) FieldMap() map[string]string {
	if b.Kind != BodyFieldErrors {
		return nil
	}
	out := make(map[string]string, len(b.Fields))
	for _, f := range b.Fields {
		if len(f.Messages) > 0 {
			out[f.Field] = f.Messages[0]
		}
	}
	return out
}

// ParseErrorBody classifies a response body. Object keys are read from the
// token stream so "first field" means first in the document.
func ParseErrorBody(raw []byte) ErrorBody {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ErrorBody{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return ErrorBody{}
	}
	switch tok {
	case json.Delim('['):
		// DRF returns a bare list for non-field validation errors.
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err != nil || len(msgs) == 0 {
			return ErrorBody{}
		}
		return ErrorBody{Kind: BodyFieldErrors, Fields: []FieldError{{Field: "non_field_errors", Messages: msgs}}}
	case json.Delim('{'):
	default:
		return ErrorBody{}
	}

	var (
		detail, text       string
		hasDetail, hasText bool
		fields             []FieldError
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ErrorBody{}
		}
		key, _ := keyTok.(string)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return ErrorBody{}
		}
		var s string
		isString := json.Unmarshal(val, &s) == nil
		switch {
		case key == "detail" && isString:
			detail, hasDetail = s, true
		case key == "error" && isString:
			text, hasText = s, true
		case isString:
			fields = append(fields, FieldError{Field: key, Messages: []string{s}})
		default:
			if msgs := messagesOf(val); len(msgs) > 0 {
				fields = append(fields, FieldError{Field: key, Messages: msgs})
			}
		}
	}

	switch {
	case hasDetail:
		return ErrorBody{Kind: BodyDetail, Detail: detail}
	case hasText:
		return ErrorBody{Kind: BodyErrorText, Text: text}
	case len(fields) > 0:
		return ErrorBody{Kind: BodyFieldErrors, Fields: fields}
	}
	return ErrorBody{}
}

// messagesOf extracts messages from a list of strings or a nested error object.
func messagesOf(val json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(val, &list); err == nil {
		return list
	}
	nested := ParseErrorBody(val)
	if nested.Kind == BodyUnknown {
		return nil
	}
	return []string{nested.Message("")}
}

// Error is returned for every failed API call.
type Error struct {
	// StatusCode is the HTTP status, or 0 when the request never got a response.
	StatusCode int
	// Body is the decoded response body.
	Body ErrorBody
	// Message is the display message extracted from Body or the fallback.
	Message string
	// Err is the underlying cause (transport error or a sentinel).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized returns true if the API rejected the credentials.
func (e *Error) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// IsForbidden returns true if the caller lacks permission.
func (e *Error) IsForbidden() bool { return e.StatusCode == http.StatusForbidden }

// IsNotFound returns true if the resource does not exist.
func (e *Error) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsNetwork returns true if no response was received.
func (e *Error) IsNetwork() bool { return e.StatusCode == 0 }

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// MessageOf returns the display message for any error coming out of the
// client, falling back to fallback for foreign errors.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return DefaultFallback
	}
	return fallback
}

func parseError(statusCode int, body io.Reader, fallback string) *Error {
	raw, _ := io.ReadAll(io.LimitReader(body, 1<<20))
	parsed := ParseErrorBody(raw)
	return &Error{
		StatusCode: statusCode,
		Body:       parsed,
		Message:    parsed.Message(fallback),
	}
}
