// Package confirmpayment предоставляет HTTP‑обработчик подтверждения
// заявки на оплату администратором. Подтверждение выдает пользователю
// подписку, заявка разрешается ровно один раз.
package confirmpayment

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
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/services/payment"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

// Confirmer определяет контракт подтверждения заявки на оплату.
type Confirmer interface {
	Confirm(ctx context.Context, paymentID int) (time.Time, error)
}

// New возвращает HTTP‑обработчик, который подтверждает заявку из URL
// и возвращает дату окончания выданной подписки.
func New(ctx context.Context, log *slog.Logger, confirmer Confirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.confirmpayment.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			log.Error("failed to decode id from url", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode id from url"))
			return
		}

		end, err := confirmer.Confirm(ctx, id)
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			log.Error("payment not found", slog.Int("payment_id", id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
			return
		case errors.Is(err, payment.ErrPaymentAlreadyResolved):
			log.Info("payment already resolved", slog.Int("payment_id", id))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("payment already resolved"))
			return
		case err != nil:
			log.Error("failed to confirm payment", slog.Int("payment_id", id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to confirm payment"))
			return
		}

		log.Info("confirmed payment", slog.Int("payment_id", id))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"until": end,
		}))
	}
}
