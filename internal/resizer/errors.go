package resizer

import "errors"

var (
	// ErrInvalidSource - исходная папка не существует.
	ErrInvalidSource = errors.New("исходная папка не существует")

	// ErrDestinationCreate - не удалось создать папку назначения.
	ErrDestinationCreate = errors.New("не удалось создать папку назначения")

	// ErrInvalidDimensions - вычисленный размер <= 0.
	ErrInvalidDimensions = errors.New("некорректные размеры для изменения")

	// ErrResizeIO - ошибка чтения, декодирования или записи изображения.
	ErrResizeIO = errors.New("ошибка ввода-вывода изображения")

	// ErrUnsupportedFormat - формат не поддерживается для записи.
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат")
)
