package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/images"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errBadRequest, http.StatusBadRequest},
		{fmt.Errorf("%w: price", common.ErrValidation), http.StatusBadRequest},
		{common.ErrOwnerNotFound, http.StatusBadRequest},
		{common.ErrAdderNotFound, http.StatusBadRequest},
		{errUnauthorized, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusUnauthorized},
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: delete", common.ErrDenied), http.StatusForbidden},
		{common.ErrWishlistNotFound, http.StatusNotFound},
		{common.ErrProductNotFound, http.StatusNotFound},
		{common.ErrUserNotFound, http.StatusNotFound},
		{common.ErrConflict, http.StatusConflict},
		{common.ErrAlreadyMember, http.StatusConflict},
		{errRateLimited, http.StatusTooManyRequests},
		{images.ErrDisabled, http.StatusNotImplemented},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{common.StorageError(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("anything"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), logging.Nop{}, rec, common.StorageError(errors.New("password=hunter2")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRecovery(t *testing.T) {
	h := recovery(logging.Nop{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(r)
		assert.Equal(t, tt.ok, ok, tt.header)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2, time.Minute, logging.Nop{})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)

	limited := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code)

	// one token per second refills
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1003").Code)

	assert.Equal(t, 2, rl.size())
	now = now.Add(2 * time.Minute)
	rl.Cleanup()
	assert.Equal(t, 0, rl.size())
}

func TestRateLimiter_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	var nilRL *RateLimiter
	assert.False(t, nilRL.Enabled())
	assert.NotNil(t, nilRL.Middleware(next))

	assert.False(t, NewRateLimiter(0, 5, time.Minute, logging.Nop{}).Enabled())
}
