package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"accounts-service/internal/mail"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service       *Service
	verifications *VerificationService
	mailer        *mail.Dispatcher
	refreshTTL    time.Duration
	baseURL       string
}

func NewHandler(service *Service, verifications *VerificationService, mailer *mail.Dispatcher, refreshTTL time.Duration, baseURL string) *Handler {
	return &Handler{
		service:       service,
		verifications: verifications,
		mailer:        mailer,
		refreshTTL:    refreshTTL,
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Username = strings.ToLower(strings.TrimSpace(body.Username))
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if !usernameRegex.MatchString(body.Username) {
		writeError(w, http.StatusBadRequest, "username format is invalid")
		return
	}
	if !emailRegex.MatchString(body.Email) {
		writeError(w, http.StatusBadRequest, "email format is invalid")
		return
	}
	if len(body.Password) < 8 || len(body.Password) > 200 {
		writeError(w, http.StatusBadRequest, "password format is invalid")
		return
	}

	user, err := h.service.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "user already exists with the username or email")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	// Registration succeeds even when token issuance or delivery fails; the
	// user can ask for a resend.
	if err := h.sendVerificationEmail(r, user.ID); err != nil {
		sentry.CaptureException(err)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":               user.Summary(),
		"needs_verification": true,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, tokens, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	setTokenCookies(w, tokens, h.refreshTTL)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":   user.Summary(),
		"tokens": tokens,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	clearTokenCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := cookieValue(r, refreshTokenCookie)
	if presented == "" {
		var body refreshRequest
		if !decodeJSON(w, r, &body) {
			return
		}
		presented = strings.TrimSpace(body.RefreshToken)
	}

	tokens, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	setTokenCookies(w, tokens, h.refreshTTL)
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "email verification token is missing")
		return
	}

	if err := h.verifications.RedeemEmailVerification(r.Context(), token); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			writeError(w, http.StatusBadRequest, "token is invalid or expired")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to verify email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"is_email_verified": true})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sendVerificationEmail(r, userID); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyVerified):
			writeError(w, http.StatusConflict, "email is already verified")
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user does not exist")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to resend verification")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification mail has been sent to your email"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body forgotPasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	raw, user, err := h.verifications.RequestPasswordReset(r.Context(), body.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user does not exist")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to request password reset")
		return
	}

	h.mailer.Dispatch(mail.PasswordResetMessage(
		user.Email, user.Username,
		h.externalURL(r, "/auth/reset-password/"+raw),
	))

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset mail has been sent to your email"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "password reset token is missing")
		return
	}

	var body resetPasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.NewPassword) < 8 || len(body.NewPassword) > 200 {
		writeError(w, http.StatusBadRequest, "password format is invalid")
		return
	}

	if err := h.verifications.RedeemPasswordReset(r.Context(), token, body.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			writeError(w, http.StatusBadRequest, "token is invalid or expired")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successfully"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body changePasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.NewPassword) < 8 || len(body.NewPassword) > 200 {
		writeError(w, http.StatusBadRequest, "password format is invalid")
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, body.OldPassword, body.NewPassword)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "old password is not valid")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user does not exist")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user.Summary()})
}

// sendVerificationEmail issues a fresh verification token and hands the mail
// to the dispatcher.
func (h *Handler) sendVerificationEmail(r *http.Request, userID string) error {
	raw, user, err := h.verifications.RequestEmailVerification(r.Context(), userID)
	if err != nil {
		return err
	}

	h.mailer.Dispatch(mail.VerificationMessage(
		user.Email, user.Username,
		h.externalURL(r, "/auth/verify-email/"+raw),
	))
	return nil
}

func (h *Handler) externalURL(r *http.Request, path string) string {
	if h.baseURL != "" {
		return h.baseURL + path
	}

	scheme := "https"
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}

	return scheme + "://" + r.Host + path
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
