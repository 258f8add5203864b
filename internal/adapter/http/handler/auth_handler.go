package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// UserService defines the behavior needed by AuthHandler.
type UserService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error)
}

// AuthHandler handles registration and login
type AuthHandler struct {
	userUC UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userUC UserService) *AuthHandler {
	return &AuthHandler{userUC: userUC}
}

// Register creates credentials and an empty wallet.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.userUC.Register(r.Context(), req.ToRegisterInput()); err != nil {
		writeDomainError(w, "registration failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MessageResponse{Message: "User registered"})
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.userUC.Login(r.Context(), req.ToLoginInput())
	if err != nil {
		writeDomainError(w, "login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: result.Token, Role: result.Role})
}
