package model

import (
	"encoding/json"
	"time"
)

// LogAPI — запись журнала вызовов API (r_logs_api_biology).
type LogAPI struct {
	ID int64
	// Username — логин вызывающего; для анонимных вызовов — системный
	Username string
	// IsSystem — вызов без аутентифицированного пользователя
	IsSystem bool
	// Method — маршрут ("GET /races/list")
	Method string
	// Type — HTTP-метод
	Type    string
	Success bool
	// DateStart, DateEnd — начало и окончание обработки запроса
	DateStart time.Time
	DateEnd   *time.Time
	// DataIn — входные данные (JSON), DataOut — ответ (JSON)
	DataIn  json.RawMessage
	DataOut json.RawMessage
}
