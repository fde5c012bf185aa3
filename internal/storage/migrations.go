// Package storage содержит миграции SQLite базы данных.
package storage

// migrations содержит SQL-миграции в порядке выполнения.
var migrations = []string{
	// Миграция 1: Таблица результатов обработки
	`CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		output_path TEXT,
		status TEXT NOT NULL,
		success INTEGER NOT NULL,
		error TEXT,
		origin TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`,

	// Миграция 2: Индекс для подсчёта по статусу
	`CREATE INDEX IF NOT EXISTS ix_results_status ON results (status);`,

	// Миграция 3: Индекс для выборки последних записей по файлу
	`CREATE INDEX IF NOT EXISTS ix_results_filename ON results (filename, created_at);`,

	// Миграция 4: Таблица метаданных для версионирования схемы
	`CREATE TABLE IF NOT EXISTS schema_info (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	// Миграция 5: Запись версии схемы
	`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', '1');`,
}

// GetMigrations возвращает список SQL-миграций.
func GetMigrations() []string {
	return migrations
}

/*
Возможные расширения:
- Добавить поддержку отката миграций (down migrations)
*/
