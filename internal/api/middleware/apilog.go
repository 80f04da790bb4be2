// apilog.go — журнал вызовов API: вход (query-параметры) и выход (тело ответа)
// каждого запроса ставятся в очередь фоновой записи в r_logs_api_biology.
package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// systemUsername — имя для вызовов без аутентифицированного пользователя.
const systemUsername = "system"

// APILogQueue — очередь записей журнала (реализуется service.APILogger).
type APILogQueue interface {
	Queue(entry *model.LogAPI) bool
}

// apiLogInput — содержимое data_in.
type apiLogInput struct {
	RequestID string              `json:"request_id,omitempty"`
	Path      string              `json:"path"`
	Query     map[string][]string `json:"query,omitempty"`
}

// bodyCapture копирует первые limit байт тела ответа.
type bodyCapture struct {
	*responseWriter
	body      bytes.Buffer
	limit     int
	truncated bool
}

func (c *bodyCapture) Write(b []byte) (int, error) {
	if room := c.limit - c.body.Len(); room > 0 {
		if len(b) > room {
			c.body.Write(b[:room])
			c.truncated = true
		} else {
			c.body.Write(b)
		}
	} else if len(b) > 0 {
		c.truncated = true
	}
	return c.responseWriter.Write(b)
}

// APILog возвращает middleware журнала вызовов API.
// maxBody — сколько байт ответа сохранять в data_out (0 — не сохранять).
// Должен стоять после JWT middleware, чтобы видеть пользователя.
func APILog(queue APILogQueue, maxBody int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			capture := &bodyCapture{responseWriter: newResponseWriter(w), limit: maxBody}

			next.ServeHTTP(capture, r)

			end := time.Now()
			username, isSystem := systemUsername, true
			if claims := ClaimsFromContext(r.Context()); claims != nil {
				username, isSystem = claims.PreferredUsername, false
				if username == "" {
					username = claims.Subject
				}
			}

			queue.Queue(&model.LogAPI{
				Username:  username,
				IsSystem:  isSystem,
				Method:    routeName(r),
				Type:      r.Method,
				Success:   capture.statusCode < http.StatusBadRequest,
				DateStart: start,
				DateEnd:   &end,
				DataIn:    requestData(r),
				DataOut:   responseData(capture),
			})
		})
	}
}

// routeName — шаблон маршрута chi, если маршрут найден, иначе путь.
func routeName(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func requestData(r *http.Request) json.RawMessage {
	in := apiLogInput{
		RequestID: RequestIDFromContext(r.Context()),
		Path:      r.URL.Path,
	}
	if q := r.URL.Query(); len(q) > 0 {
		in.Query = q
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil
	}
	return data
}

// responseData — тело ответа как есть, если это целый JSON, иначе JSON-строка.
func responseData(c *bodyCapture) json.RawMessage {
	body := c.body.Bytes()
	if len(body) == 0 {
		return nil
	}
	if !c.truncated && json.Valid(body) {
		return bytes.Clone(body)
	}
	data, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return data
}
