// Пакет model — доменные модели Biology Module.
// Race и Nation — маппинг таблиц c_races и c_nations схемы insania_biology.
package model

import "time"

// Race — раса (верхний уровень таксономии).
type Race struct {
	// ID — первичный ключ, стабилен и виден клиентам
	ID int64
	// Name — наименование
	Name string
	// Alias — транслитерированный псевдоним (уникален)
	Alias string
	// Description — описание
	Description string
	// MaxAge — максимальный возраст в циклах (опционально)
	MaxAge *int
	// DeletedAt — метка мягкого удаления (nil — раса активна)
	DeletedAt *time.Time
	// Nations — активные нации расы (заполняется только для агрегации)
	Nations []Nation
}

// Active сообщает, что раса не удалена.
func (r *Race) Active() bool {
	return r.DeletedAt == nil
}

// Nation — нация, принадлежащая ровно одной расе.
type Nation struct {
	ID          int64
	Name        string
	Alias       string
	Description string
	// LanguageForPersonalNames — язык для личных имён
	LanguageForPersonalNames string
	// RaceID — владелец (внешний ключ, NOT NULL)
	RaceID    int64
	DeletedAt *time.Time
}

// Active сообщает, что нация не удалена.
func (n *Nation) Active() bool {
	return n.DeletedAt == nil
}
