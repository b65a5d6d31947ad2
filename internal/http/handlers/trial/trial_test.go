package trial_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/trial"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/services/lifecycle"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/storage/repository"
)

type mockActivator struct {
	ActivateFunc func(ctx context.Context, id int64) (time.Time, error)
}

func (m *mockActivator) ActivateTrial(ctx context.Context, id int64) (time.Time, error) {
	return m.ActivateFunc(ctx, id)
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

func TestTrialHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		end := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		activator := &mockActivator{
			ActivateFunc: func(_ context.Context, id int64) (time.Time, error) {
				require.Equal(t, int64(42), id)
				return end, nil
			},
		}

		req := newPostRequest("/users/42/trial", "42")
		w := httptest.NewRecorder()

		handler := trial.New(ctx, makeLogger(), activator)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusOK, resp.Status)
		assert.NotEmpty(t, resp.Data.(map[string]any)["until"])
	})

	t.Run("already used", func(t *testing.T) {
		activator := &mockActivator{
			ActivateFunc: func(_ context.Context, _ int64) (time.Time, error) {
				return time.Time{}, lifecycle.ErrTrialAlreadyUsed
			},
		}

		req := newPostRequest("/users/42/trial", "42")
		w := httptest.NewRecorder()

		handler := trial.New(ctx, makeLogger(), activator)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusError, resp.Status)
		assert.Equal(t, "trial already used", resp.Error)
	})

	t.Run("user not found", func(t *testing.T) {
		activator := &mockActivator{
			ActivateFunc: func(_ context.Context, _ int64) (time.Time, error) {
				return time.Time{}, repository.ErrUserNotFound
			},
		}

		req := newPostRequest("/users/42/trial", "42")
		w := httptest.NewRecorder()

		handler := trial.New(ctx, makeLogger(), activator)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		activator := &mockActivator{
			ActivateFunc: func(_ context.Context, _ int64) (time.Time, error) {
				t.Fatal("service must not be called")
				return time.Time{}, nil
			},
		}

		req := newPostRequest("/users/abc/trial", "abc")
		w := httptest.NewRecorder()

		handler := trial.New(ctx, makeLogger(), activator)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("internal error", func(t *testing.T) {
		activator := &mockActivator{
			ActivateFunc: func(_ context.Context, _ int64) (time.Time, error) {
				return time.Time{}, errors.New("storage is down")
			},
		}

		req := newPostRequest("/users/42/trial", "42")
		w := httptest.NewRecorder()

		handler := trial.New(ctx, makeLogger(), activator)
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
