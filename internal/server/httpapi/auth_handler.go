package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/daybookapp/daybook/internal/common"
	"github.com/daybookapp/daybook/internal/server/models"
	"github.com/daybookapp/daybook/internal/server/users"
	"github.com/go-playground/validator/v10"
)

// UserService is the slice of the users service the auth endpoints need.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*users.LoginResult, error)
}

type AuthHandler struct {
	users     UserService
	validator *validator.Validate
}

func NewAuthHandler(users UserService) *AuthHandler {
	return &AuthHandler{
		users:     users,
		validator: validator.New(),
	}
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if _, err := h.users.Register(r.Context(), req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, common.ErrConflict):
			Conflict(w, "Email already registered")
		case errors.Is(err, common.ErrRejected):
			BadRequest(w, err.Error())
		default:
			InternalError(w, "Registration failed")
		}
		return
	}

	Created(w, map[string]string{
		"message": "User registered successfully. Please login.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			Unauthorized(w, "Invalid email or password")
			return
		}
		InternalError(w, "Login failed")
		return
	}

	Success(w, loginResponse{
		AccessToken: result.AccessToken,
		UserID:      result.UserID,
	})
}
