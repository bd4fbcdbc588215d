package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
)

const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// Response is built up by a controller action and written once with Send.
// It starts as 200 text/html.
type Response struct {
	status  int
	headers http.Header
	body    any
}

// NewResponse creates an empty 200 text/html response.
func NewResponse() *Response {
	h := http.Header{}
	h.Set("Content-Type", ContentTypeHTML)
	return &Response{status: http.StatusOK, headers: h}
}

func (res *Response) Status() int { return res.status }

func (res *Response) SetStatus(code int) *Response {
	res.status = code
	return res
}

// Header returns one header value.
func (res *Response) Header(key string) string { return res.headers.Get(key) }

// Headers returns a copy of every header.
func (res *Response) Headers() http.Header { return res.headers.Clone() }

func (res *Response) SetHeader(key, value string) *Response {
	res.headers.Set(key, value)
	return res
}

func (res *Response) ContentType() string { return res.headers.Get("Content-Type") }

func (res *Response) SetContentType(ct string) *Response {
	return res.SetHeader("Content-Type", ct)
}

// IsJSON reports whether the body will be JSON-encoded on Send.
func (res *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(res.ContentType())
	return err == nil && mt == ContentTypeJSON
}

func (res *Response) Body() any { return res.body }

func (res *Response) SetBody(body any) *Response {
	res.body = body
	return res
}

// ── Shorthands ───────────────────────────────────────────────────────────────

// JSON switches the response to JSON with the given status and body.
//
//	return res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) *Response {
	return res.SetContentType(ContentTypeJSON).SetStatus(status).SetBody(data)
}

// Success sets 200 JSON: {"data": v}
func (res *Response) Success(v any) *Response {
	return res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sets 201 JSON: {"data": v}
func (res *Response) Created(v any) *Response {
	return res.JSON(http.StatusCreated, envelope{"data": v})
}

// Error sets status and a message body, {"message": ...} for JSON
// responses.
func (res *Response) Error(status int, message string) *Response {
	res.SetStatus(status)
	if res.IsJSON() {
		return res.SetBody(envelope{"message": message})
	}
	return res.SetBody(message)
}

// NotFound sets 404.
func (res *Response) NotFound(message ...string) *Response {
	return res.Error(http.StatusNotFound, first(message, "Not found."))
}

// Redirect sets a redirect to url.
func (res *Response) Redirect(status int, url string) *Response {
	return res.SetStatus(status).SetHeader("Location", url)
}

// ── Sending ──────────────────────────────────────────────────────────────────

// Encode renders the body: JSON when IsJSON, otherwise text.
func (res *Response) Encode() ([]byte, error) {
	if res.IsJSON() {
		b, err := json.Marshal(res.body)
		if err != nil {
			return nil, fmt.Errorf("http: encode response: %w", err)
		}
		return b, nil
	}
	switch b := res.body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	case fmt.Stringer:
		return []byte(b.String()), nil
	}
	return []byte(fmt.Sprint(res.body)), nil
}

// Send writes status, headers and body to w.
func (res *Response) Send(w http.ResponseWriter) error {
	body, err := res.Encode()
	if err != nil {
		return err
	}
	for k, vs := range res.headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(res.status)
	_, err = w.Write(body)
	return err
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
