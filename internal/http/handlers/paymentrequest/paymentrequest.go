// Package paymentrequest предоставляет HTTP‑обработчик создания заявки
// на оплату подписки. В ответе реквизиты перевода: сумма, номер телефона
// и код платежа для комментария.
package paymentrequest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/models"
)

// Requester определяет контракт создания заявки на оплату.
type Requester interface {
	Request(ctx context.Context, userID int64) (*models.Payment, error)
}

// New возвращает HTTP‑обработчик, который создает заявку на оплату
// для пользователя из URL. Номер телефона для перевода приходит из конфига.
func New(ctx context.Context, log *slog.Logger, requester Requester, phone string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.paymentrequest.New"

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

		payment, err := requester.Request(ctx, id)
		if err != nil {
			log.Error("failed to create payment request", sl.UserID(id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create payment request"))
			return
		}

		log.Info("created payment request", sl.UserID(id), slog.Int("payment_id", payment.ID))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"payment_id": payment.ID,
			"amount":     payment.Amount,
			"phone":      phone,
			"code":       payment.Comment,
		}))
	}
}
