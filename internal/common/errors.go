// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять оператору понятные сообщения.
package common

import "errors"

// Ошибки справочника водителей
var (
	// ErrDriverNotFound — водитель не найден в базе
	ErrDriverNotFound = errors.New("водитель не найден")
	// ErrDriverNotActive — водитель не активен (pending или suspended)
	ErrDriverNotActive = errors.New("водитель не активен")
	// ErrInvalidLocation — координаты вне допустимого диапазона
	ErrInvalidLocation = errors.New("некорректные координаты")
)

// Ошибки рейтинга
var (
	// ErrInvalidEvaluation — оценка нарушает инварианты (нет субъекта, пустое время)
	ErrInvalidEvaluation = errors.New("некорректная оценка")
	// ErrFutureEvaluation — время оценки позже момента пересчёта
	ErrFutureEvaluation = errors.New("оценка из будущего")
)

// Ошибки доступа
var (
	// ErrNotAdminGroup — команда пришла не из группы операторов
	ErrNotAdminGroup = errors.New("команда доступна только в группе операторов")
)
