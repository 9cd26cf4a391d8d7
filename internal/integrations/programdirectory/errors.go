package programdirectory

import "errors"

var (
	// ErrProgramNotFound возвращается, когда программа не найдена в каталоге
	ErrProgramNotFound = errors.New("programdirectory: program not found")

	// ErrInvalidResponse возвращается при некорректном ответе каталога программ
	ErrInvalidResponse = errors.New("programdirectory: invalid response")

	// ErrInternal возвращается при ошибках выполнения запроса
	ErrInternal = errors.New("programdirectory: internal error")
)
