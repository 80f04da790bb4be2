package model

import "time"

// Parameter — строка конфигурационной таблицы c_parameters.
// Используется только для чтения: базовые URL, пути методов, учётные данные.
type Parameter struct {
	ID        int64
	Name      string
	Alias     string
	Value     *string
	DeletedAt *time.Time
}
