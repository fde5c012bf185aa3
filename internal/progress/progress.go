// Package progress показывает ход обработки: полосу начального прохода
// и построчный вывод результатов в режиме наблюдения.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/artemshloyda/photoresizer/internal/resizer"
)

// Options настраивает Bar.
type Options struct {
	// Total - число файлов начального прохода. 0 - без полосы,
	// как в режиме наблюдения, где число файлов заранее неизвестно.
	Total int

	// Disabled отключает полосу. Строки результатов печатаются всё равно.
	Disabled bool

	// Verbose печатает строку и для успешно уменьшенных файлов.
	// Ошибки печатаются всегда.
	Verbose bool

	// Writer - куда выводить (по умолчанию os.Stderr).
	Writer io.Writer
}

// Bar считает результаты по статусам и выводит их.
type Bar struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	counts  map[resizer.Status]int
	verbose bool
	writer  io.Writer
}

// New создаёт Bar.
func New(opts Options) *Bar {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	b := &Bar{
		counts:  make(map[resizer.Status]int, 3),
		verbose: opts.Verbose,
		writer:  writer,
	}

	if !opts.Disabled && opts.Total > 0 {
		b.bar = progressbar.NewOptions(
			opts.Total,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Уменьшение"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]█[reset]",
				SaucerHead:    "[green]▓[reset]",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(writer)
			}),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	return b
}

// Observe учитывает результат одного файла.
// Подходит как наблюдатель для InitialProcessing и для канала событий.
func (b *Bar) Observe(result resizer.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts[result.Status]++

	if line := b.line(result); line != "" {
		if b.bar != nil {
			_ = b.bar.Clear()
		}
		fmt.Fprintln(b.writer, line)
	}

	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *Bar) line(result resizer.Result) string {
	switch result.Status {
	case resizer.StatusFailed:
		return fmt.Sprintf("❌ %s: %s", result.Filename, result.Error)
	case resizer.StatusProcessed:
		if b.verbose {
			return fmt.Sprintf("✅ %s -> %s", result.Filename, result.OutputPath)
		}
	}
	return ""
}

// Count возвращает число результатов со статусом status.
func (b *Bar) Count(status resizer.Status) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[status]
}

// Summary возвращает строку со счётчиками, например
// "уменьшено: 2, уже актуальны: 1, с ошибками: 0".
func (b *Bar) Summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return fmt.Sprintf("уменьшено: %d, уже актуальны: %d, с ошибками: %d",
		b.counts[resizer.StatusProcessed],
		b.counts[resizer.StatusAlreadyProcessed],
		b.counts[resizer.StatusFailed],
	)
}

// Finish завершает полосу.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
