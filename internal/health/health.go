// Package health отдаёт состояние витрины для проб оркестратора:
// /healthz с деталями, /livez и /readyz.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Status состояние компонента.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const defaultCheckTimeout = 2 * time.Second

// Check результат одной проверки.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response тело ответа /healthz.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker проверяет один компонент.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler собирает проверки и отдаёт их результат.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHandler создаёт health handler с версией сборки в ответе.
func NewHandler(version string) *Handler {
	return &Handler{
		checkers:  make(map[string]Checker),
		version:   version,
		startTime: time.Now(),
		timeout:   defaultCheckTimeout,
	}
}

// RegisterChecker добавляет или заменяет проверку с именем name.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Evaluate выполняет все проверки и возвращает общий статус.
func (h *Handler) Evaluate(ctx context.Context) Response {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for k, v := range h.checkers {
		checkers[k] = v
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	overall := StatusHealthy
	checks := make(map[string]Check, len(names))
	for _, name := range names {
		check := checkers[name].Check(ctx)
		checks[name] = check
		switch {
		case check.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case check.Status == StatusDegraded && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}

	return Response{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
}

// ServeHTTP отдаёт полный отчёт; 503, если хоть одна проверка unhealthy.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := h.Evaluate(r.Context())

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// LivenessHandler всегда отвечает 200.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler отвечает 503, пока хранилище или другой критичный компонент недоступен.
// Degraded-компоненты (например, брокер событий) готовность не снимают.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if h.Evaluate(r.Context()).Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// FuncChecker превращает функцию в проверку. Ошибка даёт failStatus.
type FuncChecker struct {
	name       string
	failStatus Status
	checkFn    func(ctx context.Context) error
}

// NewFuncChecker создаёт критичную проверку: ошибка — unhealthy.
func NewFuncChecker(name string, checkFn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, failStatus: StatusUnhealthy, checkFn: checkFn}
}

// NewOptionalChecker создаёт некритичную проверку: ошибка — degraded.
func NewOptionalChecker(name string, checkFn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, failStatus: StatusDegraded, checkFn: checkFn}
}

// NewStoreChecker проверяет доступность хранилища. Хранилище без Ping считается доступным.
func NewStoreChecker(store domain.Store) *FuncChecker {
	return NewFuncChecker("storage", func(ctx context.Context) error {
		if pinger, ok := store.(domain.Pinger); ok {
			return pinger.Ping(ctx)
		}
		return nil
	})
}

// Check выполняет проверку.
func (c *FuncChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.checkFn(ctx)
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       c.name,
			Status:     c.failStatus,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}
	return Check{
		Name:       c.name,
		Status:     StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}
