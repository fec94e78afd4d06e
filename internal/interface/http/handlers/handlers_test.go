package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
	"github.com/alem-hub/lesson-catalog/pkg/logger"
)

func TestEtagMatches(t *testing.T) {
	etag := `"abc"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"abd"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, etag), tt.header)
	}
}

func TestAdminKeyAuth_IsValid(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("key"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewAdminKeyAuth(string(hash), logger.Nop())
	assert.True(t, auth.IsValid("key"))
	assert.False(t, auth.IsValid("KEY"))
	assert.False(t, auth.IsValid(""))

	assert.False(t, NewAdminKeyAuth("", logger.Nop()).IsValid("key"))
}

func TestAdminKeyAuth_Authorize(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("key"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewAdminKeyAuth(string(hash), logger.Nop())

	assert.NoError(t, auth.Authorize("key"))

	err = auth.Authorize("")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Contains(t, err.Error(), "admin key is required")

	err = auth.Authorize("wrong")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid admin key")
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lessons?offset=7&limit=abc", nil)

	n, err := queryInt(req, "offset")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = queryInt(req, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = queryInt(req, "limit")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "limit must be an integer")
}

func TestCompositeHealthChecker(t *testing.T) {
	checker := NewCompositeHealthChecker("v1")

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)

	checker.AddCheck("catalog", NewCatalogCheck(lesson.Catalog()))
	checker.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	checker.AddCheck("postgres", func(context.Context) error { return errors.New("timeout") })

	status = checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: postgres, redis", status.Message)
	assert.True(t, status.Checks["catalog"].Healthy)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	checker := NewCompositeHealthChecker("v1")
	checker.SetTimeout(20 * time.Millisecond)
	checker.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"].Message)
}

func TestCatalogCheck_Empty(t *testing.T) {
	empty, err := lesson.New(nil)
	require.NoError(t, err)
	assert.Error(t, NewCatalogCheck(empty)(context.Background()))
	assert.Error(t, NewCatalogCheck(nil)(context.Background()))
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recovery(logger.NewWithCore(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestLogging_AttachesRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var inner *logger.Logger

	h := RequestID(Logging(logger.NewWithCore(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = logger.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, inner)
	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-1", fields[logger.RequestIDKey])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestCacheControl(t *testing.T) {
	h := CacheControl(90 * time.Second)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "public, max-age=90", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
