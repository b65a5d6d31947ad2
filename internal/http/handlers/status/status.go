// Package status предоставляет HTTP‑обработчик чтения текущего уровня
// доступа пользователя. Чтение не изменяет состояние: протухшие записи
// собирает фоновая сверка.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/access"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

// AccessReader определяет контракт чтения уровня доступа.
type AccessReader interface {
	CurrentAccess(ctx context.Context, id int64) (access.Tier, error)
}

// New возвращает HTTP‑обработчик, который отвечает текущим уровнем
// доступа пользователя из URL.
func New(ctx context.Context, log *slog.Logger, reader AccessReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.status.New"

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

		tier, err := reader.CurrentAccess(ctx, id)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			log.Error("user not found", sl.UserID(id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		case err != nil:
			log.Error("failed to read access", sl.UserID(id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to read access"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(tier))
	}
}
