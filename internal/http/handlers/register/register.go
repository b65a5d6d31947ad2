// Package register предоставляет HTTP‑обработчик регистрации пользователя.
// Повторная регистрация существующего пользователя безвредна и отвечает OK.
package register

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
)

// Request тело запроса регистрации.
type Request struct {
	ID       int64  `json:"id" validate:"required"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Registrar определяет контракт регистрации пользователя.
type Registrar interface {
	Register(ctx context.Context, id int64, username, fullName string) error
}

// New возвращает HTTP‑обработчик, который регистрирует пользователя.
func New(ctx context.Context, log *slog.Logger, registrar Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		if err := registrar.Register(ctx, req.ID, req.Username, req.FullName); err != nil {
			log.Error("failed to register user", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to register user"))
			return
		}

		log.Info("registered user", sl.UserID(req.ID))
		render.JSON(w, r, response.OK())
	}
}
