package api

import (
	"errors"
	"fmt"

	"github.com/iudanet/notesync/pkg/api"
)

// Kind классифицирует ошибки удаленного хранилища.
// От класса зависит поведение очереди: transient уходит в retry
// с backoff, conflict — в детектор конфликтов, validation удаляется
// из очереди после логирования и не повторяется никогда.
type Kind int

const (
	KindTransient    Kind = iota // сеть, таймаут, 5xx, 429
	KindConflict                 // version mismatch (409)
	KindNotFound                 // сущности нет на сервере (404)
	KindValidation               // постоянная ошибка данных (400/422)
	KindUnauthorized             // токен невалиден/истек (401/403)
	KindQuota                    // хранилище переполнено (507)
)

// String возвращает строковое представление класса ошибки
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindQuota:
		return "quota"
	default:
		return "unknown"
	}
}

// Error ошибка вызова удаленного хранилища с классификацией
type Error struct {
	Conflict   *api.ConflictResponse // заполнен для KindConflict
	Message    string
	Kind       Kind
	StatusCode int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote store error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote store error (%s): %s", e.Kind, e.Message)
}

// kindOf извлекает класс ошибки; для не-API ошибок возвращает transient
// (сетевые сбои и таймауты — единственный источник таких ошибок здесь)
func kindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransient
}

// IsTransient проверяет, стоит ли повторять операцию позже
func IsTransient(err error) bool {
	return err != nil && kindOf(err) == KindTransient
}

// IsConflict проверяет, является ли ошибка version conflict
func IsConflict(err error) bool {
	return err != nil && kindOf(err) == KindConflict
}

// IsNotFound проверяет, отсутствует ли сущность на сервере
func IsNotFound(err error) bool {
	return err != nil && kindOf(err) == KindNotFound
}

// IsValidation проверяет, является ли ошибка постоянной ошибкой данных
func IsValidation(err error) bool {
	return err != nil && kindOf(err) == KindValidation
}

// IsUnauthorized проверяет, требуется ли повторная аутентификация
func IsUnauthorized(err error) bool {
	return err != nil && kindOf(err) == KindUnauthorized
}

// AsConflict извлекает тело конфликта из ошибки.
// Сервер присылает полное текущее состояние документа, поэтому
// детектору конфликтов не нужен повторный запрос.
func AsConflict(err error) (*api.ConflictResponse, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindConflict && apiErr.Conflict != nil {
		return apiErr.Conflict, true
	}
	return nil, false
}
