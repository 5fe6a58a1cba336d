package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/ytsummarizer/internal/handlers/render"
	"github.com/nkiryanov/ytsummarizer/internal/handlers/userctx"
)

func handleUserProfile() http.Handler {
	type profile struct {
		ID        uuid.UUID `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}
	type response struct {
		User profile `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "User not found", http.StatusNotFound)
			return
		}

		render.JSON(w, response{User: profile{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		}})
	})
}
