package services

import (
	"errors"
	"fmt"
)

// Типизированные ошибки расчетного контура. Планировщик и входящий
// обработчик различают переходные и терминальные сбои через
// errors.Is / errors.As, никогда — через разбор текста.
var (
	// ErrBankNotFound — банк подтвержденно отсутствует в реестре
	// после успешного обновления (терминальный сбой, с возвратом средств)
	ErrBankNotFound = errors.New("банк не найден в центральном реестре")

	// ErrAccountNotFound — счет не существует в этом банке
	ErrAccountNotFound = errors.New("счет не найден")

	// ErrInvalidDestination — банк-получатель не существует на момент создания перевода
	ErrInvalidDestination = errors.New("некорректный банк-получатель")

	// ErrBadEnvelope — подписанный конверт не разбирается
	ErrBadEnvelope = errors.New("некорректный формат подписанного конверта")

	// ErrBadSignature — подпись конверта не прошла криптографическую проверку
	ErrBadSignature = errors.New("подпись конверта не прошла проверку")
)

// RefreshError — обновление реестра из центрального банка не удалось
// (сеть, авторизация, некорректный ответ). Переходный сбой: транзакция
// возвращается в Pending и повторяется на следующем проходе.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("ошибка обновления реестра банков: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// TransportError — исходящий вызов к банку-получателю не состоялся
// (соединение, таймаут, не-JSON ответ). Переходный сбой.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ошибка запроса к %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateError — курс валют недоступен. Проваливает одну попытку
// зачисления, не затрагивая баланс.
type RateError struct {
	From string
	To   string
	Err  error
}

func (e *RateError) Error() string {
	return fmt.Sprintf("курс %s/%s недоступен: %v", e.From, e.To, e.Err)
}

func (e *RateError) Unwrap() error {
	return e.Err
}
