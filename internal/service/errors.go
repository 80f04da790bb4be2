// Пакет service — бизнес-логика Biology Module: разрешение параметров,
// поиск представительных файлов, агрегация рас с нациями, списки рас и наций.
package service

import "errors"

// Виды ошибок сервисного слоя. Проверяются через errors.Is.
var (
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotFound — сущность не найдена.
	ErrNotFound = errors.New("не найдено")
	// ErrState — сущность в недопустимом состоянии (например, удалена).
	ErrState = errors.New("недопустимое состояние")
	// ErrNotFoundParameter — обязательный параметр отсутствует.
	ErrNotFoundParameter = errors.New("не найден параметр")
)

// Сообщения ошибок, отдаваемые клиентам.
const (
	MsgEmptyRace    = "Пустая раса"
	MsgNotFoundRace = "Не найдена раса"
	MsgDeletedRace  = "Раса удалена"
)

// Error — ошибка с клиентским сообщением и видом (ErrValidation, ErrNotFound, ...).
// Error() возвращает только сообщение.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
