// Package rejectpayment предоставляет HTTP‑обработчик отклонения заявки
// на оплату администратором.
package rejectpayment

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
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/services/payment"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

// Rejecter определяет контракт отклонения заявки на оплату.
type Rejecter interface {
	Reject(ctx context.Context, paymentID int) error
}

// New возвращает HTTP‑обработчик, который отклоняет заявку из URL.
func New(ctx context.Context, log *slog.Logger, rejecter Rejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rejectpayment.New"

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

		err = rejecter.Reject(ctx, id)
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
			log.Error("failed to reject payment", slog.Int("payment_id", id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to reject payment"))
			return
		}

		log.Info("rejected payment", slog.Int("payment_id", id))
		render.JSON(w, r, response.OK())
	}
}
