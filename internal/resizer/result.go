package resizer

import "encoding/json"

// Status - итог обработки одного файла.
type Status string

const (
	// StatusAlreadyProcessed - выходной файл существует и не старше исходного.
	StatusAlreadyProcessed Status = "Already processed"
	// StatusProcessed - изображение успешно изменено и записано.
	StatusProcessed Status = "Processed successfully"
	// StatusFailed - обработка завершилась ошибкой.
	StatusFailed Status = "Processing failed"
)

// Valid проверяет, что статус входит в закрытый набор значений.
func (s Status) Valid() bool {
	switch s {
	case StatusAlreadyProcessed, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// Result содержит результат обработки одного файла.
// После создания не изменяется.
type Result struct {
	// Filename - имя файла относительно исходной папки.
	Filename string `json:"filename"`

	// Success - успешна ли обработка (включая "Already processed").
	Success bool `json:"success"`

	// OutputPath - путь к выходному файлу.
	OutputPath string `json:"output_path"`

	// Status - статус обработки.
	Status Status `json:"status"`

	// Error - текст ошибки (только для StatusFailed).
	Error string `json:"error,omitempty"`
}

// JSON сериализует результат для передачи в UI.
func (r Result) JSON() string {
	b, _ := json.Marshal(r)
	return string(b)
}
