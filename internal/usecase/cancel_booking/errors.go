package cancel_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("cancel_booking: booking not found")

	// ErrAccessDenied возвращается, когда пользователь не владелец
	// бронирования и не оператор программы
	ErrAccessDenied = errors.New("cancel_booking: access denied")

	// ErrInvalidTransition возвращается при попытке отменить бронирование
	// в терминальном статусе
	ErrInvalidTransition = errors.New("cancel_booking: invalid booking status transition")

	// ErrConcurrentUpdate возвращается, когда сериализуемая транзакция
	// не прошла из-за конкурентного изменения. Запрос можно повторить.
	ErrConcurrentUpdate = errors.New("cancel_booking: concurrent update, retry the request")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancel_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_booking: internal error")
)
