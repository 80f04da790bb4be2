package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/insania/biology-module/internal/api/openapi"
	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

func TestRequestID_Generated(t *testing.T) {
	var inCtx string
	handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		inCtx = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/races/list", nil))

	header := rec.Header().Get(HeaderRequestID)
	if header == "" {
		t.Fatal("ожидался сгенерированный X-Request-ID")
	}
	if inCtx != header {
		t.Errorf("идентификатор в контексте %q не совпадает с заголовком %q", inCtx, header)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	handler := RequestID()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/races/list", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("ожидался abc-123, получен %q", got)
	}

	// Слишком длинный идентификатор заменяется
	req = httptest.NewRequest(http.MethodGet, "/races/list", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); len(got) != 36 {
		t.Errorf("ожидался UUID, получен %q", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/races/list":              "/races/list",
		"/races/list_with_nations": "/races/list_with_nations",
		"/nations/list":            "/nations/list",
		"/metrics":                 "/metrics",
		"/wp-admin":                "other",
		"/races/list/1":            "other",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, ожидался %q", in, got, want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestID()(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("{}"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/nations/list", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("запись лога не JSON: %v (%s)", err, buf.String())
	}
	if entry["level"] != "WARN" {
		t.Errorf("ожидался уровень WARN, получен %v", entry["level"])
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("ожидался request_id req-1, получен %v", entry["request_id"])
	}
	if entry["status"] != float64(http.StatusBadRequest) {
		t.Errorf("ожидался status 400, получен %v", entry["status"])
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/races/list", http.StatusOK, slog.LevelInfo},
		{"/nations/list", http.StatusBadRequest, slog.LevelWarn},
		{"/races/list_with_nations", http.StatusInternalServerError, slog.LevelError},
		{"/health/live", http.StatusOK, slog.LevelDebug},
		{"/health/ready", http.StatusServiceUnavailable, slog.LevelError},
		{"/metrics", http.StatusOK, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s, %d) = %v, ожидался %v", tt.path, tt.status, got, tt.want)
		}
	}
}

// mockLogQueue — мок APILogQueue, запоминающий записи.
type mockLogQueue struct {
	entries []*model.LogAPI
}

func (m *mockLogQueue) Queue(entry *model.LogAPI) bool {
	m.entries = append(m.entries, entry)
	return true
}

func TestAPILog_RecordsDataInAndOut(t *testing.T) {
	queue := &mockLogQueue{}
	router := chi.NewRouter()
	router.Use(RequestID(), APILog(queue, 1024))
	router.Get("/nations/list", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"items":[{"id":1,"name":"Западные альвы","description":""}]}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/nations/list?raceId=1", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "Западные альвы") {
		t.Fatalf("тело ответа должно доходить до клиента без изменений: %s", rec.Body.String())
	}
	if len(queue.entries) != 1 {
		t.Fatalf("ожидалась 1 запись журнала, получено %d", len(queue.entries))
	}
	entry := queue.entries[0]

	if entry.Method != "/nations/list" || entry.Type != http.MethodGet {
		t.Errorf("method/type = %q/%q", entry.Method, entry.Type)
	}
	if !entry.IsSystem || entry.Username != "system" {
		t.Errorf("вызов без JWT должен быть системным: %q/%v", entry.Username, entry.IsSystem)
	}
	if !entry.Success {
		t.Error("ожидался success=true для статуса 200")
	}
	if entry.DateEnd == nil || entry.DateEnd.Before(entry.DateStart) {
		t.Error("date_end должна быть не раньше date_start")
	}

	var in struct {
		RequestID string              `json:"request_id"`
		Path      string              `json:"path"`
		Query     map[string][]string `json:"query"`
	}
	if err := json.Unmarshal(entry.DataIn, &in); err != nil {
		t.Fatalf("data_in не JSON: %v", err)
	}
	if in.RequestID != "req-7" || in.Path != "/nations/list" || len(in.Query["raceId"]) != 1 || in.Query["raceId"][0] != "1" {
		t.Errorf("неожиданный data_in: %+v", in)
	}

	var out map[string]any
	if err := json.Unmarshal(entry.DataOut, &out); err != nil {
		t.Fatalf("data_out не JSON: %v", err)
	}
	if out["success"] != true {
		t.Errorf("data_out должен содержать ответ: %s", entry.DataOut)
	}
}

func TestAPILog_ErrorAndUser(t *testing.T) {
	queue := &mockLogQueue{}
	handler := APILog(queue, 1024)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Пустая раса","code":"VALIDATION_ERROR"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/nations/list", nil)
	ctx := context.WithValue(req.Context(), ContextKeyClaims, &AuthClaims{Subject: "user-1", PreferredUsername: "keeper"})
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

	entry := queue.entries[0]
	if entry.Success {
		t.Error("ожидался success=false для статуса 400")
	}
	if entry.IsSystem || entry.Username != "keeper" {
		t.Errorf("ожидался пользователь keeper, получен %q (system=%v)", entry.Username, entry.IsSystem)
	}
	// Маршрут вне chi — записывается путь
	if entry.Method != "/nations/list" {
		t.Errorf("ожидался method /nations/list, получен %q", entry.Method)
	}
	if !strings.Contains(string(entry.DataOut), "Пустая раса") {
		t.Errorf("data_out должен содержать сообщение ошибки: %s", entry.DataOut)
	}
}

func TestAPILog_TruncatedBody(t *testing.T) {
	queue := &mockLogQueue{}
	body := `{"success":true,"items":[` + strings.Repeat(`{"id":1},`, 50) + `{"id":2}]}`
	handler := APILog(queue, 32)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/races/list", nil))

	if rec.Body.String() != body {
		t.Fatal("клиент должен получить полное тело ответа")
	}
	var out string
	if err := json.Unmarshal(queue.entries[0].DataOut, &out); err != nil {
		t.Fatalf("обрезанный ответ должен сохраняться JSON-строкой: %v", err)
	}
	if len(out) != 32 || !strings.HasPrefix(body, out) {
		t.Errorf("ожидались первые 32 байта ответа, получено %q", out)
	}
}

func TestAPILog_NoBodyWhenDisabled(t *testing.T) {
	queue := &mockLogQueue{}
	handler := APILog(queue, 0)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"items":[]}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/races/list", nil))

	if queue.entries[0].DataOut != nil {
		t.Errorf("при maxBody=0 data_out должен быть пустым: %s", queue.entries[0].DataOut)
	}
}

func TestRequestValidator(t *testing.T) {
	v, err := NewRequestValidator(openapi.Spec, testLogger())
	if err != nil {
		t.Fatalf("NewRequestValidator: %v", err)
	}

	called := false
	handler := v.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		target     string
		wantCalled bool
	}{
		{"корректный raceId", "/nations/list?raceId=5", true},
		{"raceId отсутствует", "/nations/list", true},
		{"raceId не число", "/nations/list?raceId=abc", false},
		{"список рас", "/races/list", true},
		{"путь вне контракта", "/unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if called != tt.wantCalled {
				t.Fatalf("обработчик вызван=%v, ожидалось %v", called, tt.wantCalled)
			}
			if tt.wantCalled {
				return
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("ожидался статус 400, получен %d", rec.Code)
			}
			var body map[string]any
			_ = json.NewDecoder(rec.Body).Decode(&body)
			if body["code"] != "VALIDATION_ERROR" {
				t.Errorf("ожидался код VALIDATION_ERROR, получен %v", body["code"])
			}
			if body["message"] != "Некорректный параметр raceId" {
				t.Errorf("неожиданное сообщение: %v", body["message"])
			}
		})
	}
}

func TestNewRequestValidator_InvalidContract(t *testing.T) {
	if _, err := NewRequestValidator([]byte("not: [valid"), testLogger()); err == nil {
		t.Error("ожидалась ошибка для невалидного контракта")
	}
}
