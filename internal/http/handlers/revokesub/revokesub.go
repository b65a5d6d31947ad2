// Package revokesub предоставляет HTTP‑обработчик административного
// отзыва доступа: история подписок пользователя удаляется, доступ
// к каналу закрывается.
package revokesub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

// Revoker определяет контракт отзыва доступа.
type Revoker interface {
	AdminRevoke(ctx context.Context, userID int64) error
}

// New возвращает HTTP‑обработчик, который отзывает доступ пользователя из URL.
func New(ctx context.Context, log *slog.Logger, revoker Revoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.revokesub.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			log.Error("failed to decode id from url", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode id from url"))
			return
		}

		err = revoker.AdminRevoke(ctx, id)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			log.Error("user not found", sl.UserID(id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		case err != nil:
			log.Error("failed to revoke access", sl.UserID(id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to revoke access"))
			return
		}

		log.Info("revoked access", sl.UserID(id))
		render.JSON(w, r, response.OK())
	}
}
