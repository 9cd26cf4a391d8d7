package generate_availability

import "errors"

var (
	// ErrProgramNotFound возвращается, когда программа не найдена в каталоге
	ErrProgramNotFound = errors.New("generate_availability: program not found")

	// ErrProgramInactive возвращается при попытке сгенерировать слоты
	// для неактивной программы
	ErrProgramInactive = errors.New("generate_availability: program is inactive")

	// ErrAccessDenied возвращается, когда пользователь не является оператором программы
	ErrAccessDenied = errors.New("generate_availability: access denied")

	// ErrInvalidDateRange возвращается при некорректном диапазоне дат
	ErrInvalidDateRange = errors.New("generate_availability: invalid date range")

	// ErrRangeTooLarge возвращается, когда диапазон дат превышает максимум
	ErrRangeTooLarge = errors.New("generate_availability: date range too large")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("generate_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("generate_availability: internal error")
)
