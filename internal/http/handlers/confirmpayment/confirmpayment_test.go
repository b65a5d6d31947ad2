package confirmpayment_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/confirmpayment"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/services/payment"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

type mockConfirmer struct {
	ConfirmFunc func(ctx context.Context, paymentID int) (time.Time, error)
}

func (m *mockConfirmer) Confirm(ctx context.Context, paymentID int) (time.Time, error) {
	return m.ConfirmFunc(ctx, paymentID)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func newPostRequest(url, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req := httptest.NewRequest(http.MethodPost, url, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	return req
}

func TestConfirmPaymentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		end := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
		confirmer := &mockConfirmer{
			ConfirmFunc: func(_ context.Context, paymentID int) (time.Time, error) {
				require.Equal(t, 7, paymentID)
				return end, nil
			},
		}

		req := newPostRequest("/admin/payments/7/confirm", "7")
		w := httptest.NewRecorder()

		handler := confirmpayment.New(ctx, makeLogger(), confirmer)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusOK, resp.Status)
	})

	t.Run("already resolved", func(t *testing.T) {
		confirmer := &mockConfirmer{
			ConfirmFunc: func(_ context.Context, _ int) (time.Time, error) {
				return time.Time{}, payment.ErrPaymentAlreadyResolved
			},
		}

		req := newPostRequest("/admin/payments/7/confirm", "7")
		w := httptest.NewRecorder()

		handler := confirmpayment.New(ctx, makeLogger(), confirmer)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		confirmer := &mockConfirmer{
			ConfirmFunc: func(_ context.Context, _ int) (time.Time, error) {
				return time.Time{}, repository.ErrPaymentNotFound
			},
		}

		req := newPostRequest("/admin/payments/7/confirm", "7")
		w := httptest.NewRecorder()

		handler := confirmpayment.New(ctx, makeLogger(), confirmer)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		confirmer := &mockConfirmer{
			ConfirmFunc: func(_ context.Context, _ int) (time.Time, error) {
				t.Fatal("service must not be called")
				return time.Time{}, nil
			},
		}

		req := newPostRequest("/admin/payments/abc/confirm", "abc")
		w := httptest.NewRecorder()

		handler := confirmpayment.New(ctx, makeLogger(), confirmer)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
