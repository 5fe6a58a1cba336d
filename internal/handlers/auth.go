package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
	"github.com/nkiryanov/ytsummarizer/internal/handlers/render"
	"github.com/nkiryanov/ytsummarizer/internal/logger"
	"github.com/nkiryanov/ytsummarizer/internal/models"
)

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Body returned on register and login
type tokensResponse struct {
	Message      string       `json:"message"`
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
}

// Seconds left till expiresAt, rounded up

func newTokensResponse(message string, user models.User, pair models.TokenPair) tokensResponse {
	return tokensResponse{
		Message:      message,
		User:         userResponse{ID: user.ID, Username: user.Username, Email: user.Email},
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		ExpiresIn:    pair.Access.ExpiresIn(time.Now()),
	}
}

func handleRegister(auth authService, logger logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=2,max=80"`
		Email    string `json:"email" validate:"required,email,max=120"`
		Password string `json:"password" validate:"required,min=6"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return // Error response already written
		}

		user, pair, err := auth.Register(r.Context(), data.Username, data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				logger.Error("Failed to register user", "username", data.Username, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		logger.Info("User registered", "user_id", user.ID)
		render.JSON(w, newTokensResponse("Registration successful", user, pair))
	})
}

func handleLogin(auth authService, logger logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Invalid username or password", http.StatusUnauthorized)
			default:
				logger.Error("Failed to login user", "username", data.Username, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newTokensResponse("Login successful", user, pair))
	})
}

func handleTokenRefresh(auth authService, logger logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		Message     string `json:"message"`
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		access, err := auth.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
				errors.Is(err, apperrors.ErrRefreshTokenRevoked),
				errors.Is(err, apperrors.ErrRefreshTokenExpired):
				render.ServiceError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
			default:
				logger.Error("Failed to refresh access token", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			Message:     "Token refreshed successfully",
			AccessToken: access.Value,
			ExpiresIn:   access.ExpiresIn(time.Now()),
		})
	})
}

func handleLogout(auth authService, logger logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := auth.Logout(r.Context(), data.RefreshToken); err != nil {
			logger.Error("Failed to revoke refresh token", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Logout successful"})
	})
}
