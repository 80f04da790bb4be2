// health.go — health endpoints Biology Module.
// /health/live — процесс жив, /health/ready — PostgreSQL доступен,
// /metrics — Prometheus метрики.
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/insania/biology-module/internal/config"
)

const (
	serviceName = "biology-module"
	statusOK    = "ok"
	statusFail  = "fail"
)

// ReadinessChecker — проверка готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status, message string)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	pgChecker   ReadinessChecker
	promHandler http.Handler
}

// NewHealthHandler создаёт HealthHandler.
// pgChecker может быть nil — тогда readiness вернёт "fail".
func NewHealthHandler(pgChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		pgChecker:   pgChecker,
		promHandler: promhttp.Handler(),
	}
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    *struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
	} `json:"checks,omitempty"`
}

func newHealthResponse(status string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
}

// Live — проверка живости процесса, всегда 200.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(statusOK))
}

// Ready — проверка готовности: 200 если PostgreSQL доступен, иначе 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, _ *http.Request) {
	resp := newHealthResponse(statusOK)
	resp.Checks = &struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
	}{}

	if h.pgChecker != nil {
		status, msg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}

	code := http.StatusOK
	if resp.Checks.PostgreSQL.Status == statusFail {
		resp.Status = statusFail
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// Metrics — Prometheus метрики.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
