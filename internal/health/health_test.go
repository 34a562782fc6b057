package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func ok(context.Context) error { return nil }

func TestHandler_Healthy(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewStoreChecker(memory.NewStore()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, StatusHealthy, response.Status)
	require.Equal(t, "v1.0.0", response.Version)
	require.Contains(t, response.Checks, "storage")
}

func TestHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1")
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, StatusUnhealthy, response.Status)
	require.Equal(t, "connection refused", response.Checks["storage"].Message)
}

func TestHandler_DegradedStaysReady(t *testing.T) {
	handler := NewHandler("v1")
	handler.RegisterChecker("storage", NewFuncChecker("storage", ok))
	handler.RegisterChecker("kafka", NewOptionalChecker("kafka", func(context.Context) error {
		return errors.New("broker down")
	}))

	require.Equal(t, StatusDegraded, handler.Evaluate(context.Background()).Status)

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ready", w.Body.String())
}

func TestReadinessHandler_NotReady(t *testing.T) {
	handler := NewHandler("v1")
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return domain.ErrStorage
	}))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "not ready", w.Body.String())
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

type pingFailingStore struct {
	domain.Store
}

func (pingFailingStore) Ping(context.Context) error { return errors.New("ping failed") }

func TestStoreChecker_UsesPinger(t *testing.T) {
	check := NewStoreChecker(pingFailingStore{Store: memory.NewStore()}).Check(context.Background())
	require.Equal(t, StatusUnhealthy, check.Status)
	require.Equal(t, "storage", check.Name)
}
