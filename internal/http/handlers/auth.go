// Package handlers exposes the auth core over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clearline/authd/internal/auth"
	"github.com/clearline/authd/internal/domain"
	httperrors "github.com/clearline/authd/internal/http/errors"
	"github.com/clearline/authd/internal/metrics"
	"github.com/clearline/authd/internal/observability/logger"
)

// Auth holds the handler set for the /auth routes.
type Auth struct {
	Svc *auth.Service
}

func NewAuth(svc *auth.Service) *Auth {
	return &Auth{Svc: svc}
}

// mapAuthError translates the core's sentinel errors into the API taxonomy.
func mapAuthError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrWeakPassword):
		return httperrors.ErrValidation.WithCause(err)
	case errors.Is(err, auth.ErrEmailExists):
		return httperrors.ErrEmailExists
	case errors.Is(err, auth.ErrInvalidAdminSecret):
		return httperrors.ErrInvalidAdminSecret
	case errors.Is(err, auth.ErrInvalidCredentials):
		return httperrors.ErrInvalidCredentials
	case errors.Is(err, auth.ErrAccountInactive):
		return httperrors.ErrAccountInactive
	case errors.Is(err, auth.ErrInvalidToken):
		return httperrors.ErrInvalidToken
	case errors.Is(err, auth.ErrUserInactive):
		return httperrors.ErrUserInactive
	case errors.Is(err, auth.ErrInvalidOrExpiredReset):
		return httperrors.ErrInvalidOrExpiredToken
	default:
		return httperrors.ErrInternal.WithCause(err)
	}
}

func (h *Auth) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := mapAuthError(err)
	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("auth operation failed", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

func (h *Auth) signup(w http.ResponseWriter, r *http.Request, role domain.Role) {
	var req signupRequest
	if !readJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Signup(r.Context(), auth.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		metrics.Signup(string(role), "failure")
		h.writeAuthError(w, r, err)
		return
	}

	metrics.Signup(string(role), "success")
	writeJSON(w, http.StatusCreated, authResponse{User: res.Principal, Token: res.Token})
}

func (h *Auth) UserSignup(w http.ResponseWriter, r *http.Request) {
	h.signup(w, r, domain.RoleUser)
}

func (h *Auth) AdminSignup(w http.ResponseWriter, r *http.Request) {
	h.signup(w, r, domain.RoleAdmin)
}

func (h *Auth) login(w http.ResponseWriter, r *http.Request, role domain.Role) {
	var req loginRequest
	if !readJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		metrics.Login(string(role), "failure")
		h.writeAuthError(w, r, err)
		return
	}

	metrics.Login(string(role), "success")
	writeJSON(w, http.StatusOK, authResponse{User: res.Principal, Token: res.Token})
}

func (h *Auth) UserLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.RoleUser)
}

func (h *Auth) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.RoleAdmin)
}

// bearerToken pulls the token out of the Authorization header, or "".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (h *Auth) ValidateSession(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidToken)
		return
	}

	view, err := h.Svc.ValidateSession(r.Context(), tok)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: *view})
}

// Logout never fails the caller. Revocation does not happen here: the token
// stays valid for holders until it expires.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	h.Svc.Logout(r.Context(), bearerToken(r))
	writeJSON(w, http.StatusOK, messageResponse{Message: logoutMessage})
}

// ForgotPassword responds with the same generic body for known and unknown
// emails. The rate-limit middleware sits in front of this handler.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := h.Svc.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrMissingFields) {
			httperrors.WriteError(w, httperrors.ErrValidation.WithCause(err))
			return
		}
		h.writeAuthError(w, r, err)
		return
	}

	metrics.ResetRequested()
	writeJSON(w, http.StatusOK, messageResponse{Message: forgotPasswordMessage})
}

func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := h.Svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	metrics.ResetCompleted()
	writeJSON(w, http.StatusOK, messageResponse{Message: resetPasswordMessage})
}
