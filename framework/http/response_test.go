package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-spf/framework/http"
)

func send(t *testing.T, res *gohttp.Response) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, res.Send(rr))
	return rr
}

func TestResponse_Defaults(t *testing.T) {
	res := gohttp.NewResponse()

	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, gohttp.ContentTypeHTML, res.ContentType())
	assert.False(t, res.IsJSON())
	assert.Nil(t, res.Body())
}

func TestResponse_SendHTML(t *testing.T) {
	rr := send(t, gohttp.NewResponse().SetBody("<h1>hi</h1>").SetHeader("X-Frame-Options", "DENY"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<h1>hi</h1>", rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "11", rr.Header().Get("Content-Length"))
}

func TestResponse_SendJSON(t *testing.T) {
	res := gohttp.NewResponse().SetContentType("application/json; charset=utf-8").SetBody(map[string]int{"n": 1})
	require.True(t, res.IsJSON())

	rr := send(t, res)

	assert.JSONEq(t, `{"n":1}`, rr.Body.String())
}

func TestResponse_SuccessAndCreated(t *testing.T) {
	rr := send(t, gohttp.NewResponse().Success(map[string]string{"name": "Alice"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"name":"Alice"}}`, rr.Body.String())

	rr = send(t, gohttp.NewResponse().Created(1))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"data":1}`, rr.Body.String())
}

func TestResponse_Error(t *testing.T) {
	rr := send(t, gohttp.NewResponse().Error(http.StatusTeapot, "short and stout"))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "short and stout", rr.Body.String())

	rr = send(t, gohttp.NewResponse().SetContentType(gohttp.ContentTypeJSON).NotFound())
	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Not found.", body["message"])
}

func TestResponse_Redirect(t *testing.T) {
	rr := send(t, gohttp.NewResponse().Redirect(http.StatusFound, "/dashboard"))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestResponse_HeadersAreCopied(t *testing.T) {
	res := gohttp.NewResponse()
	h := res.Headers()
	h.Set("Content-Type", "text/plain")

	assert.Equal(t, gohttp.ContentTypeHTML, res.ContentType())
}

func TestResponse_EncodeFailure(t *testing.T) {
	res := gohttp.NewResponse().JSON(http.StatusOK, make(chan int))

	assert.Error(t, res.Send(httptest.NewRecorder()))
}
