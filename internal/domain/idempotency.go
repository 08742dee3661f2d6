package domain

import (
	"errors"
	"strings"
	"time"
)

// MaxIdempotencyKeyLength ограничивает длину заголовка Idempotency-Key.
const MaxIdempotencyKeyLength = 255

// IdempotencyStatus описывает состояние ключа идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing — запрос принят и ещё выполняется.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone — заказ оформлен, ответ сохранён.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed — запрос отклонён, ответ с ошибкой тоже сохранён.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

var (
	ErrIdempotencyKeyRequired         = newKindError(ErrInvalidArgument, "idempotency key is required")
	ErrIdempotencyKeyTooLong          = newKindError(ErrInvalidArgument, "idempotency key must not exceed 255 characters")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different payload")
	ErrIdempotencyInProgress          = errors.New("request with the same idempotency key is already processing")
)

// IdempotencyRecord связывает ключ с хэшем тела запроса и сохранённым ответом.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeIdempotencyKey обрезает пробелы и проверяет ключ.
func NormalizeIdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return "", ErrIdempotencyKeyRequired
	case len(key) > MaxIdempotencyKeyLength:
		return "", ErrIdempotencyKeyTooLong
	}
	return key, nil
}

// CompletionStatus выбирает итоговый статус записи по HTTP-коду ответа.
func CompletionStatus(httpStatus int) IdempotencyStatus {
	if httpStatus >= 200 && httpStatus < 300 {
		return IdempotencyStatusDone
	}
	return IdempotencyStatusFailed
}

func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Expired сообщает, что ключ можно занять заново.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.After(now)
}

// Completed сообщает, что ответ сохранён и его можно вернуть повторно.
func (r IdempotencyRecord) Completed() bool {
	return r.Status == IdempotencyStatusDone || r.Status == IdempotencyStatusFailed
}
