package create_booking

import "errors"

var (
	// ErrProgramNotFound возвращается, когда программа не найдена в каталоге
	ErrProgramNotFound = errors.New("create_booking: program not found")

	// ErrProgramInactive возвращается при попытке забронировать неактивную программу
	ErrProgramInactive = errors.New("create_booking: program is inactive")

	// ErrCapacityExceeded возвращается, когда количество учеников превышает
	// максимум программы
	ErrCapacityExceeded = errors.New("create_booking: student count exceeds program capacity")

	// ErrInvalidDate возвращается при некорректной дате визита
	ErrInvalidDate = errors.New("create_booking: invalid requested date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
