package domain

import "errors"

// Базовые категории ошибок. Конкретные ошибки ниже разворачиваются в одну из них,
// поэтому транспортный слой проверяет только категорию через errors.Is.
var (
	// ErrNotFound — запрошенная сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — входные данные нарушают бизнес-правило.
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	// Ошибка отсутствующего ресторана.
	ErrRestaurantNotFound = newKindError(ErrNotFound, "restaurant does not exist")
	// Ошибка отсутствующего блюда.
	ErrFoodNotFound = newKindError(ErrNotFound, "food does not exist")
	// Ошибка количества вне диапазона [MinLineQuantity, MaxLineQuantity].
	ErrQuantityOutOfRange = newKindError(ErrInvalidArgument, "order quantity must be between 1 and 100")
	// Ошибка суммы блюд ниже минимального заказа ресторана.
	ErrBelowMinOrderPrice = newKindError(ErrInvalidArgument, "order total is below the restaurant's minimum order price")

	// Ошибки каталога.
	ErrRestaurantNameRequired = newKindError(ErrInvalidArgument, "restaurant name is required")
	ErrMinOrderPriceInvalid   = newKindError(ErrInvalidArgument, "min order price must be between 1000 and 100000 in steps of 100")
	ErrDeliveryFeeInvalid     = newKindError(ErrInvalidArgument, "delivery fee must be between 0 and 10000 in steps of 500")
	ErrFoodNameRequired       = newKindError(ErrInvalidArgument, "food name is required")
	ErrFoodPriceInvalid       = newKindError(ErrInvalidArgument, "food price must be between 100 and 1000000 in steps of 100")
	ErrFoodNameDuplicate      = newKindError(ErrInvalidArgument, "food name already exists in restaurant")
	ErrFoodsRequired          = newKindError(ErrInvalidArgument, "at least one food is required")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// kindError связывает конкретное сообщение с категорией ошибки.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// IsNotFound проверяет, относится ли ошибка к категории ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument проверяет, относится ли ошибка к категории ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
