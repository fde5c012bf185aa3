// Package scanner отвечает за поиск изображений в исходной директории.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TempMarker - суффикс временных файлов, которые пишет resizer.
const TempMarker = ".resizing"

// TempName возвращает путь временного файла для path: "dir/.name.ext.resizing".
func TempName(path string) string {
	dir, base := filepath.Split(path)
	return dir + "." + base + TempMarker
}

// IsTempName возвращает true только для имён, построенных TempName.
// Пользовательский "trip.resizing.jpg" временным не считается.
func IsTempName(name string) bool {
	base := filepath.Base(name)
	return len(base) > 1+len(TempMarker) &&
		strings.HasPrefix(base, ".") &&
		strings.HasSuffix(base, TempMarker)
}

// DefaultExtensions - расширения изображений по умолчанию (без точки, lowercase).
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}

// Scanner ищет изображения в одной директории (без рекурсии).
type Scanner struct {
	extensions map[string]struct{}
}

// New создаёт новый Scanner. Пустой список означает DefaultExtensions.
func New(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		if ext != "" {
			set[ext] = struct{}{}
		}
	}

	return &Scanner{extensions: set}
}

// HasExtension проверяет, входит ли расширение файла в набор сканера.
func (s *Scanner) HasExtension(name string) bool {
	_, ext := SplitExt(name)
	if ext == "" {
		return false
	}
	_, ok := s.extensions[normalizeExt(ext)]
	return ok
}

// List возвращает отсортированный список имён изображений в директории dir.
// Поддиректории, macOS metadata файлы (._*) и временные файлы пропускаются.
func (s *Scanner) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать директорию %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()

		if strings.HasPrefix(name, "._") {
			continue
		}
		if IsTempName(name) {
			continue
		}
		if !s.HasExtension(name) {
			continue
		}

		// Symlink на файл допустим, поэтому проверяем через Stat
		if !entry.Type().IsRegular() {
			info, err := os.Stat(filepath.Join(dir, name))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}

		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// SplitExt делит имя файла на основу и расширение (с точкой).
// Ведущие точки не считаются началом расширения: ".hidden" не имеет расширения.
func SplitExt(name string) (stem, ext string) {
	base := filepath.Base(name)
	trimmed := strings.TrimLeft(base, ".")
	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 {
		return name, ""
	}

	ext = trimmed[idx:]
	return name[:len(name)-len(ext)], ext
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
