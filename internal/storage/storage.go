// Package storage содержит журнал результатов обработки в SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/artemshloyda/photoresizer/internal/resizer"
)

// Storage предоставляет методы для работы с журналом результатов.
type Storage struct {
	db *sql.DB
}

// New создаёт новое подключение к SQLite и выполняет миграции.
func New(dbPath string) (*Storage, error) {
	// Создаём директорию для БД, если не существует
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	// Открываем/создаём БД с параметрами для concurrent доступа
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть БД: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// Запись идёт из цикла наблюдения и из начальной обработки
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Storage{db: db}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	return s, nil
}

// migrate выполняет все SQL-миграции.
func (s *Storage) migrate() error {
	for i, m := range GetMigrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("миграция %d: %w", i+1, err)
		}
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Record сохраняет результат обработки файла.
func (s *Storage) Record(result resizer.Result, origin Origin) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO results (filename, output_path, status, success, error, origin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Filename, nullable(result.OutputPath), string(result.Status),
		result.Success, nullable(result.Error), string(origin), time.Now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("не удалось записать результат %s: %w", result.Filename, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("не удалось получить ID записи: %w", err)
	}
	return id, nil
}

// GetStats возвращает статистику по журналу.
func (s *Storage) GetStats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		 FROM results`,
		string(resizer.StatusProcessed),
		string(resizer.StatusAlreadyProcessed),
		string(resizer.StatusFailed),
	).Scan(&st.Total, &st.Processed, &st.Skipped, &st.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("не удалось получить статистику: %w", err)
	}
	return st, nil
}

// Recent возвращает последние limit записей, новые первыми.
func (s *Storage) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, filename, output_path, status, success, error, origin, created_at
		 FROM results ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать журнал: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			output    sql.NullString
			errMsg    sql.NullString
			origin    string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Filename, &output, &e.Status, &e.Success, &errMsg, &origin, &createdAt); err != nil {
			return nil, fmt.Errorf("не удалось прочитать запись журнала: %w", err)
		}
		e.OutputPath = output.String
		e.Error = errMsg.String
		e.Origin = Origin(origin)
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

/*
Возможные расширения:
- Добавить метод для экспорта журнала в JSON
- Добавить метод для очистки старых записей
*/
