package confirm_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("confirm_booking: booking not found")

	// ErrProgramNotFound возвращается, когда программа не найдена в каталоге
	ErrProgramNotFound = errors.New("confirm_booking: program not found")

	// ErrSlotNotFound возвращается, когда указанный слот не найден
	ErrSlotNotFound = errors.New("confirm_booking: slot not found")

	// ErrSlotFull возвращается, когда в слоте нет свободных мест
	ErrSlotFull = errors.New("confirm_booking: slot is full")

	// ErrSlotUnavailable возвращается, когда слот закрыт оператором
	ErrSlotUnavailable = errors.New("confirm_booking: slot is unavailable")

	// ErrSlotMismatch возвращается, когда указанный слот принадлежит
	// другой программе
	ErrSlotMismatch = errors.New("confirm_booking: slot does not match booking")

	// ErrSlotConflict возвращается, когда слот на запрошенное время
	// нельзя создать из-за пересечения с существующим слотом.
	// Оператор может повторить запрос с явным slotId.
	ErrSlotConflict = errors.New("confirm_booking: requested time overlaps an existing slot")

	// ErrAccessDenied возвращается, когда пользователь не является оператором программы
	ErrAccessDenied = errors.New("confirm_booking: access denied")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = errors.New("confirm_booking: invalid booking status transition")

	// ErrConcurrentUpdate возвращается, когда сериализуемая транзакция
	// не прошла из-за конкурентного подтверждения. Запрос можно повторить.
	ErrConcurrentUpdate = errors.New("confirm_booking: concurrent update, retry the request")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("confirm_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_booking: internal error")
)
