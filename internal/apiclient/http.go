package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/iliyamo/carshare-web/internal/metrics"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"
	contentTypeForm     = "application/x-www-form-urlencoded"
)

// File is one file part of a multipart request.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Multipart is a multipart/form-data body.
type Multipart struct {
	Fields url.Values
	Files  []File
}

// Request describes one API call. At most one of JSON, Form and Multipart is set.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	JSON      any
	Form      url.Values
	Multipart *Multipart
	// Auth attaches the session token and enables the 401 interceptor.
	Auth bool
	// REST routes the call to the REST viewset base URL.
	REST bool
	// Fallback is the display message used when the error body has none.
	Fallback string
}

// Do performs req and decodes a successful JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	base := c.baseURL
	if req.REST {
		base = c.restBaseURL
	}
	reqURL := base + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		reqURL += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(headerUserAgent, c.userAgent)
	httpReq.Header.Set(headerAccept, contentTypeJSON)
	if contentType != "" {
		httpReq.Header.Set(headerContentType, contentType)
	}
	if req.Auth {
		token := ""
		if c.session != nil {
			token = c.session.Token(ctx)
		}
		if token == "" {
			return &Error{StatusCode: http.StatusUnauthorized, Message: "Please sign in to continue.", Err: ErrNotAuthenticated}
		}
		httpReq.Header.Set(headerAuthorization, "Token "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RemoteCalls.WithLabelValues(req.Method, metricPath(req.Path), "error").Inc()
		msg := req.Fallback
		if msg == "" {
			msg = "Network error. Check your connection and try again."
		}
		return &Error{Message: msg, Err: err}
	}
	defer resp.Body.Close()
	metrics.RemoteCalls.WithLabelValues(req.Method, metricPath(req.Path), strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, resp.Body, req.Fallback)
		if req.Auth && c.session != nil && tokenRejected(resp.StatusCode, apiErr.Body) {
			c.session.Expire(ctx)
			apiErr.Err = ErrSessionExpired
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	switch {
	case req.Multipart != nil:
		return encodeMultipart(req.Multipart)
	case req.Form != nil:
		return strings.NewReader(req.Form.Encode()), contentTypeForm, nil
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(b), contentTypeJSON, nil
	}
	return nil, "", nil
}

func encodeMultipart(m *Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, vals := range m.Fields {
		for _, v := range vals {
			if err := w.WriteField(key, v); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
			}
		}
	}
	for _, f := range m.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set(headerContentType, ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write part %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// metricPath collapses numeric ids so metric labels stay bounded.
func metricPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return idSegment.ReplaceAllString("/"+strings.TrimLeft(p, "/"), "/{id}$1")
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, query url.Values, auth bool, fallback string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Auth: auth, Fallback: fallback}, out)
}

// postJSON performs an authenticated POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body any, fallback string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, JSON: body, Auth: true, Fallback: fallback}, out)
}

// tokenRejected reports whether the API refused the token itself. DRF answers
// 403 rather than 401 when no WWW-Authenticate scheme is configured.
func tokenRejected(status int, body ErrorBody) bool {
	switch status {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		d := strings.ToLower(body.Detail)
		return body.Kind == BodyDetail && (strings.Contains(d, "invalid token") || strings.Contains(d, "credentials were not provided"))
	}
	return false
}

// IsSessionExpired reports whether err came from the 401 interceptor.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotAuthenticated)
}
