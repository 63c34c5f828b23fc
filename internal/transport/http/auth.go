package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fooddash/api/internal/domain"
)

// Authenticator is the minimal interface the auth endpoints need.
type Authenticator interface {
	RequestOTP(ctx context.Context, identifier string) error
	VerifyOTP(ctx context.Context, identifier, code string) (domain.AppUser, error)
	AdminLogin(ctx context.Context, username, secret string) (domain.AppUser, error)
}

// HandleGetOTP issues a login code for the identifier in the query string.
// The response never reveals whether delivery succeeded.
func HandleGetOTP(svc Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := r.URL.Query().Get("phoneOrEmail")

		if err := svc.RequestOTP(r.Context(), identifier); err != nil {
			if errors.Is(err, domain.ErrIdentifierRequired) {
				writeError(w, http.StatusBadRequest, codeIdentifierRequired, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OTP sent"))
	}
}

// HandleVerifyOTP exchanges a valid code for the user record, creating a
// customer account on first login.
func HandleVerifyOTP(svc Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		identifier := q.Get("phoneOrEmail")
		code := q.Get("otp")

		user, err := svc.VerifyOTP(r.Context(), identifier, code)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrIdentifierRequired):
				writeError(w, http.StatusBadRequest, codeIdentifierRequired, err.Error())
			case errors.Is(err, domain.ErrNotAuthenticated):
				writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "not authenticated")
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}

// HandleAdminLogin authenticates an admin account.
func HandleAdminLogin(svc Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		username := q.Get("username")
		secret := q.Get("passwordHash")

		user, err := svc.AdminLogin(r.Context(), username, secret)
		if err != nil {
			if errors.Is(err, domain.ErrNotAuthenticated) {
				writeError(w, http.StatusUnauthorized, codeNotAuthenticated, "not authenticated")
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}

type userResponse struct {
	ID           string    `json:"id"`
	PhoneOrEmail string    `json:"phoneOrEmail"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toUserResponse(u domain.AppUser) userResponse {
	return userResponse{
		ID:           u.ID,
		PhoneOrEmail: u.PhoneOrEmail,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}
