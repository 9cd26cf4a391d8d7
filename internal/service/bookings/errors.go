package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStudentNotFound возвращается, когда запись ученика не найдена
	ErrStudentNotFound = errors.New("student not found")

	// ErrProgramNotFound возвращается, когда программа не найдена в каталоге
	ErrProgramNotFound = errors.New("program not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrNotYetOccurred возвращается при попытке завершить бронирование,
	// дата которого еще не наступила
	ErrNotYetOccurred = errors.New("booking has not occurred yet")

	// ErrCapacityExceeded возвращается, когда количество учеников превышает
	// максимум программы
	ErrCapacityExceeded = errors.New("student count exceeds program capacity")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
