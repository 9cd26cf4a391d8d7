package slots

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrProgramNotFound возвращается, когда программа не найдена в каталоге
	ErrProgramNotFound = errors.New("program not found")

	// ErrSlotConflict возвращается, когда временной интервал пересекается с существующим слотом
	ErrSlotConflict = errors.New("slot overlaps an existing slot")

	// ErrSlotHasBookings возвращается при попытке удалить слот с бронированиями
	ErrSlotHasBookings = errors.New("slot has active bookings")

	// ErrAccessDenied возвращается, когда у пользователя нет прав оператора программы
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slots service: internal error")
)
