// Package trial предоставляет HTTP‑обработчик активации пробного периода.
// Пробный период выдается один раз за всю жизнь пользователя.
package trial

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/services/lifecycle"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

// TrialActivator определяет контракт активации пробного периода.
type TrialActivator interface {
	ActivateTrial(ctx context.Context, id int64) (time.Time, error)
}

// New возвращает HTTP‑обработчик, который активирует пробный период
// пользователю из URL и возвращает момент его окончания.
func New(ctx context.Context, log *slog.Logger, activator TrialActivator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.trial.New"

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

		end, err := activator.ActivateTrial(ctx, id)
		switch {
		case errors.Is(err, lifecycle.ErrTrialAlreadyUsed):
			log.Info("trial already used", sl.UserID(id))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("trial already used"))
			return
		case errors.Is(err, repository.ErrUserNotFound):
			log.Error("user not found", sl.UserID(id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		case err != nil:
			log.Error("failed to activate trial", sl.UserID(id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to activate trial"))
			return
		}

		log.Info("activated trial", sl.UserID(id))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"until": end,
		}))
	}
}
