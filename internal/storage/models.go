// Package storage содержит модели и логику работы с SQLite базой данных.
package storage

import "time"

// Origin определяет, каким путём файл попал в обработку.
type Origin string

const (
	// OriginInitial - начальная обработка папки.
	OriginInitial Origin = "initial"
	// OriginWatch - файл найден циклом наблюдения.
	OriginWatch Origin = "watch"
)

// Entry представляет запись журнала о результате обработки файла.
type Entry struct {
	// ID - уникальный идентификатор записи.
	ID int64 `db:"id"`

	// Filename - имя исходного файла.
	Filename string `db:"filename"`

	// OutputPath - путь к результату (пусто при ошибке).
	OutputPath string `db:"output_path"`

	// Status - статус результата.
	Status string `db:"status"`

	// Success - успешна ли обработка.
	Success bool `db:"success"`

	// Error - сообщение об ошибке (если есть).
	Error string `db:"error"`

	// Origin - источник обработки.
	Origin Origin `db:"origin"`

	// CreatedAt - время записи.
	CreatedAt time.Time `db:"created_at"`
}

// Stats содержит агрегированную статистику журнала.
type Stats struct {
	// Total - всего записей.
	Total int64 `json:"total"`

	// Processed - успешно обработанных.
	Processed int64 `json:"processed"`

	// Skipped - уже обработанных ранее.
	Skipped int64 `json:"skipped"`

	// Failed - с ошибками.
	Failed int64 `json:"failed"`
}
