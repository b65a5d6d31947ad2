// Package grantsub предоставляет HTTP‑обработчик ручной выдачи подписки
// администратором. Число дней передается в теле запроса, при пустом теле
// используется срок по умолчанию из конфига.
package grantsub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

// Request тело запроса выдачи подписки.
type Request struct {
	Days int `json:"days"`
}

// Granter определяет контракт выдачи подписки.
type Granter interface {
	Grant(ctx context.Context, userID int64, days int) (time.Time, error)
}

// New возвращает HTTP‑обработчик, который выдает подписку пользователю
// из URL и возвращает дату её окончания.
func New(ctx context.Context, log *slog.Logger, granter Granter, defaultDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.grantsub.New"

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

		req := Request{Days: defaultDays}
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}
		if req.Days <= 0 {
			req.Days = defaultDays
		}

		end, err := granter.Grant(ctx, id, req.Days)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			log.Error("user not found", sl.UserID(id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		case err != nil:
			log.Error("failed to grant subscription", sl.UserID(id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to grant subscription"))
			return
		}

		log.Info("granted subscription", sl.UserID(id), slog.Int("days", req.Days))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"until": end,
		}))
	}
}
