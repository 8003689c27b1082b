package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Sarsenovv/competition-platform/middleware"
	"github.com/Sarsenovv/competition-platform/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtManager  *middleware.JWTManager
	mailer      services.Mailer
	logger      *slog.Logger
}

func NewAuthHandler(as services.AuthService, jwtManager *middleware.JWTManager, mailer services.Mailer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: as,
		jwtManager:  jwtManager,
		mailer:      mailer,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, confirmationToken, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Письмо с подтверждением не блокирует ответ.
	go func(email, token string) {
		if err := h.mailer.SendWelcomeEmail(email, token); err != nil {
			h.logger.Error("failed to send welcome email", "email", email, "error", err)
		}
	}(user.Email, confirmationToken)

	user.PasswordHash = ""
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), services.LoginInput{Email: input.Email, Password: input.Password})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := h.jwtManager.IssueToken(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	user.PasswordHash = ""
	response := jsonResponse{
		"token": token,
		"user":  user,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		badRequestResponse(w, r, errMissingToken)
		return
	}

	if err := h.authService.ConfirmEmail(r.Context(), token); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "email confirmed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resetToken, err := h.authService.GeneratePasswordResetToken(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Пустой токен означает неизвестный email; ответ одинаковый в обоих случаях.
	if resetToken != "" {
		go func(email, token string) {
			if err := h.mailer.SendPasswordResetEmail(email, token); err != nil {
				h.logger.Error("failed to send password reset email", "email", email, "error", err)
			}
		}(input.Email, resetToken)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "if the email exists, a reset link has been sent"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Token == "" {
		badRequestResponse(w, r, errMissingToken)
		return
	}

	if err := h.authService.ResetPasswordByToken(r.Context(), input.Token, input.Password); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "password updated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
