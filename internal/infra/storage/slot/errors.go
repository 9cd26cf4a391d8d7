package slot

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot.repository: slot not found")

	// ErrSlotFull возвращается, когда в слоте не осталось мест для бронирования
	ErrSlotFull = errors.New("slot.repository: slot is fully booked")

	// ErrSlotUnavailable возвращается, когда слот заблокирован оператором
	ErrSlotUnavailable = errors.New("slot.repository: slot is not available")

	// ErrSlotHasBookings возвращается при попытке удалить слот с активными бронированиями
	ErrSlotHasBookings = errors.New("slot.repository: slot has active bookings")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
