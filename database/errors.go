package database

import "errors"

// Типизированные ошибки хранилища. Сервисы различают виды сбоев
// через errors.Is, а не через разбор текста ошибки.
var (
	// ErrNotFound возвращается, когда запись не существует
	ErrNotFound = errors.New("запись не найдена")

	// ErrDuplicate возвращается при нарушении уникальности
	ErrDuplicate = errors.New("запись уже существует")

	// ErrInsufficientFunds возвращается, когда списание превышает баланс счета
	ErrInsufficientFunds = errors.New("недостаточно средств на счете")
)
