// Package listusers предоставляет HTTP‑обработчик административного
// списка пользователей с вычисленным уровнем доступа каждого.
package listusers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/services/lifecycle"
)

// Lister определяет контракт получения списка пользователей.
type Lister interface {
	ListUsers(ctx context.Context) ([]lifecycle.UserOverview, error)
}

// New возвращает HTTP‑обработчик, который отвечает списком пользователей.
func New(ctx context.Context, log *slog.Logger, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.listusers.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		users, err := lister.ListUsers(ctx)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list users"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"users": users,
			"count": len(users),
		}))
	}
}
