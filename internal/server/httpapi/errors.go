package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/images"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("malformed request body")

// errUnauthorized marks requests without a usable bearer token.
var errUnauthorized = errors.New("invalid or missing token")

var errRateLimited = errors.New("too many requests")

// statusFor maps an error returned by a domain package to its HTTP status.
// Order matters: owner and adder lookups fail with 400, so they are checked
// before the generic not-found.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrOwnerNotFound), errors.Is(err, common.ErrAdderNotFound):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized), errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrDenied):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, images.ErrDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// publicMessage hides internal details of server-side failures.
func publicMessage(status int, err error) string {
	switch {
	case status >= http.StatusInternalServerError && !errors.Is(err, images.ErrDisabled):
		return "internal server error"
	case errors.Is(err, common.ErrWishlistNotFound):
		return common.ErrWishlistNotFound.Error()
	case errors.Is(err, common.ErrProductNotFound):
		return common.ErrProductNotFound.Error()
	case errors.Is(err, common.ErrUserNotFound):
		return common.ErrUserNotFound.Error()
	}
	return err.Error()
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(ctx context.Context, log logging.Logger, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: publicMessage(status, err)})
}
