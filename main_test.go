package main

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/km-arc/go-spf/framework/app"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/core"
)

func newExample(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	a, err := app.New(app.WithBase("."), app.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, a.Register(&AppServiceProvider{}))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg, err := a.Config()
	require.NoError(t, err)
	require.NoError(t, a.Set(container.KeyDatabase, core.NewDatabase(cfg, func(string, string) (*sqlx.DB, error) {
		return sqlx.NewDb(db, "sqlmock"), nil
	})))

	h, err := a.Handler()
	require.NoError(t, err)
	return h, mock
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHome(t *testing.T) {
	h, _ := newExample(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hello/ann", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<h1>Hello, ann!</h1>")
	assert.Contains(t, rr.Body.String(), "</html>")
}

func TestUsers_List(t *testing.T) {
	h, mock := newExample(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password FROM users ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}).
			AddRow(1, "Ann", "ann@example.com", "secret").
			AddRow(2, "Bob", "bob@example.com", "hunter2"))

	rr := serve(h, "/api/users")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[
		{"id":1,"name":"Ann","email":"ann@example.com"},
		{"id":2,"name":"Bob","email":"bob@example.com"}
	]`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_Show(t *testing.T) {
	h, mock := newExample(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}).
			AddRow(7, "Ann", "ann@example.com", "secret"))

	rr := serve(h, "/api/users/7")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":7,"name":"Ann","email":"ann@example.com"}`, rr.Body.String())
}

func TestUsers_ShowErrors(t *testing.T) {
	h, mock := newExample(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}))

	rr := serve(h, "/api/users/8")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "user not found")

	rr = serve(h, "/api/users/abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequireToken(t *testing.T) {
	h := requireToken("/api/", "t0k3n")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name, path, auth string
		want             int
	}{
		{"public path", "/", "", http.StatusNoContent},
		{"missing token", "/api/users", "", http.StatusUnauthorized},
		{"wrong token", "/api/users", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/api/users", "Bearer t0k3n", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
