package handlers

import "github.com/clearline/authd/internal/domain"

type signupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AdminSecret string `json:"adminSecret,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type authResponse struct {
	User  domain.SanitizedPrincipal `json:"user"`
	Token string                    `json:"token"`
}

type userResponse struct {
	User domain.SanitizedPrincipal `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// forgotPasswordMessage is the one body forgot-password ever returns,
// byte-identical whether or not the email matched a principal.
const forgotPasswordMessage = "If an account exists for that email, a password reset link has been sent."

const resetPasswordMessage = "Password updated. Please log in with your new password."

const logoutMessage = "Logged out."
