// Package watcher предоставляет цикл слежения за исходной папкой.
//
// Слежение построено на опросе: каждые PollInterval список изображений
// сравнивается с множеством уже обработанных файлов, новые файлы
// передаются в Processor по одному.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artemshloyda/photoresizer/internal/resizer"
)

const (
	// DefaultPollInterval - пауза между проходами.
	DefaultPollInterval = time.Second

	// DefaultErrorBackoff - пауза после ошибки прохода.
	DefaultErrorBackoff = 5 * time.Second

	// DefaultStopTimeout - сколько Stop ждёт завершения цикла.
	DefaultStopTimeout = 2 * time.Second

	// DefaultEventBuffer - ёмкость канала событий.
	DefaultEventBuffer = 64
)

var (
	// ErrNotConfigured - папки не заданы.
	ErrNotConfigured = errors.New("исходная или выходная папка не задана")

	// ErrAlreadyRunning - цикл уже запущен.
	ErrAlreadyRunning = errors.New("наблюдение уже запущено")

	// ErrNotRunning - цикл не запущен.
	ErrNotRunning = errors.New("наблюдение не запущено")

	// ErrStillStopping - предыдущий цикл ещё дообрабатывает файл после Stop.
	ErrStillStopping = errors.New("предыдущий цикл наблюдения ещё не завершился")

	// ErrLoop - непредвиденная ошибка внутри прохода.
	ErrLoop = errors.New("ошибка в цикле наблюдения")
)

// Processor обрабатывает отдельные файлы.
type Processor interface {
	Folders() resizer.FolderPair
	ProcessOne(filename string) resizer.Result
}

// Lister перечисляет изображения в директории.
type Lister interface {
	List(dir string) ([]string, error)
}

// Status - состояние наблюдателя.
type Status struct {
	// Running - запущен ли цикл.
	Running bool `json:"running"`

	// ProcessedCount - размер множества обработанных файлов.
	ProcessedCount int `json:"processed_count"`
}

// Controller владеет циклом опроса и множеством обработанных файлов.
type Controller struct {
	processor Processor
	lister    Lister
	logger    *slog.Logger

	pollInterval time.Duration
	errorBackoff time.Duration
	stopTimeout  time.Duration

	// events - канал уведомлений об успешно обработанных файлах.
	events  chan resizer.Result
	dropped atomic.Int64

	// observer вызывается для каждого результата цикла, включая ошибки.
	observer func(resizer.Result)

	running atomic.Bool

	// mu защищает processed, stop и done.
	mu        sync.Mutex
	processed map[string]struct{}
	stop      chan struct{}
	done      chan struct{}
}

// Option настраивает Controller.
type Option func(*Controller)

// WithPollInterval задаёт паузу между проходами.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithErrorBackoff задаёт паузу после ошибки.
func WithErrorBackoff(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.errorBackoff = d
		}
	}
}

// WithStopTimeout задаёт максимальное ожидание в Stop.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// WithEventBuffer задаёт ёмкость канала событий.
func WithEventBuffer(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.events = make(chan resizer.Result, n)
		}
	}
}

// WithObserver задаёт функцию, получающую каждый результат цикла.
func WithObserver(fn func(resizer.Result)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// New создаёт остановленный Controller.
func New(processor Processor, lister Lister, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		processor:    processor,
		lister:       lister,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		errorBackoff: DefaultErrorBackoff,
		stopTimeout:  DefaultStopTimeout,
		events:       make(chan resizer.Result, DefaultEventBuffer),
		processed:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetObserver заменяет наблюдателя результатов. Вызывать до Start.
func (c *Controller) SetObserver(fn func(resizer.Result)) {
	c.mu.Lock()
	c.observer = fn
	c.mu.Unlock()
}

// Events возвращает канал результатов успешно обработанных новых файлов.
func (c *Controller) Events() <-chan resizer.Result {
	return c.events
}

// Dropped возвращает количество событий, отброшенных из-за заполненного канала.
func (c *Controller) Dropped() int64 {
	return c.dropped.Load()
}

// IsRunning возвращает true, если цикл запущен.
func (c *Controller) IsRunning() bool {
	return c.running.Load()
}

// Status возвращает текущее состояние.
func (c *Controller) Status() Status {
	c.mu.Lock()
	count := len(c.processed)
	c.mu.Unlock()

	return Status{
		Running:        c.running.Load(),
		ProcessedCount: count,
	}
}

// Processed возвращает отсортированный список обработанных файлов.
func (c *Controller) Processed() []string {
	c.mu.Lock()
	names := make([]string, 0, len(c.processed))
	for name := range c.processed {
		names = append(names, name)
	}
	c.mu.Unlock()

	sort.Strings(names)
	return names
}

// Start запускает цикл опроса в отдельной горутине и сразу возвращается.
// Множество обработанных файлов при повторном запуске не очищается.
// Если Stop вернулся по таймауту, Start ждёт старый цикл не дольше
// stopTimeout и возвращает ErrStillStopping, пока тот не завершится.
func (c *Controller) Start() error {
	if !c.processor.Folders().Configured() {
		c.logger.Error("невозможно запустить наблюдение: папки не заданы")
		return ErrNotConfigured
	}

	c.mu.Lock()
	prev := c.done
	c.mu.Unlock()

	if prev != nil && !c.running.Load() {
		timer := time.NewTimer(c.stopTimeout)
		select {
		case <-prev:
			timer.Stop()
		case <-timer.C:
			c.logger.Warn("наблюдение не запущено: предыдущий цикл ещё работает")
			return ErrStillStopping
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return ErrAlreadyRunning
	}
	if c.done != prev {
		// Пока ждали, цикл успели запустить и остановить заново
		select {
		case <-c.done:
		default:
			return ErrStillStopping
		}
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running.Store(true)

	go c.loop(c.stop, c.done)

	c.logger.Info("наблюдение запущено")
	return nil
}

// Stop останавливает цикл и ждёт его завершения не дольше stopTimeout.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.running.Load() {
		c.mu.Unlock()
		return ErrNotRunning
	}

	c.logger.Info("остановка наблюдения...")
	c.running.Store(false)
	close(c.stop)
	done := c.done
	c.mu.Unlock()

	timer := time.NewTimer(c.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		c.logger.Info("наблюдение остановлено")
	case <-timer.C:
		c.logger.Warn("цикл не завершился вовремя, он остановится после текущего файла",
			"timeout", c.stopTimeout)
	}

	return nil
}

// InitialProcessing синхронно обрабатывает все изображения исходной папки.
// Успешные файлы добавляются в множество обработанных. observe может быть nil.
func (c *Controller) InitialProcessing(ctx context.Context, observe func(resizer.Result)) ([]resizer.Result, error) {
	folders := c.processor.Folders()
	if !folders.Configured() {
		return nil, ErrNotConfigured
	}

	files, err := c.lister.List(folders.Source)
	if err != nil {
		return nil, err
	}

	c.logger.Info("начальная обработка", "files", len(files))

	results := make([]resizer.Result, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := c.processor.ProcessOne(name)
		results = append(results, result)
		if result.Success {
			c.markProcessed(name)
		}
		if observe != nil {
			observe(result)
		}
	}

	c.logger.Info("начальная обработка завершена", "files", len(results))
	return results, nil
}

// loop - тело фоновой горутины. Завершается только по сигналу stop.
func (c *Controller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	c.logger.Info("запуск наблюдения за папкой")

	for {
		select {
		case <-stop:
			return
		default:
		}

		wait := c.pollInterval
		if err := c.pass(stop); err != nil {
			c.logger.Error("ошибка в цикле наблюдения", "error", err, "backoff", c.errorBackoff)
			wait = c.errorBackoff
		}

		if !sleep(stop, wait) {
			return
		}
	}
}

// pass выполняет один проход: список, разность, обработка новых файлов.
func (c *Controller) pass(stop <-chan struct{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrLoop, r)
		}
	}()

	folders := c.processor.Folders()
	files, err := c.lister.List(folders.Source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoop, err)
	}

	for _, name := range c.unseen(files) {
		if stopped(stop) {
			return nil
		}

		c.logger.Info("обработка нового файла", "file", name)
		result := c.processor.ProcessOne(name)
		c.observe(result)

		if result.Success {
			c.markProcessed(name)
			c.emit(result)
		}
	}

	return nil
}

// unseen возвращает файлы, которых ещё нет в множестве обработанных.
func (c *Controller) unseen(files []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fresh []string
	for _, name := range files {
		if _, ok := c.processed[name]; !ok {
			fresh = append(fresh, name)
		}
	}
	return fresh
}

func (c *Controller) markProcessed(name string) {
	c.mu.Lock()
	c.processed[name] = struct{}{}
	c.mu.Unlock()
}

func (c *Controller) observe(result resizer.Result) {
	c.mu.Lock()
	fn := c.observer
	c.mu.Unlock()

	if fn != nil {
		fn(result)
	}
}

// emit отправляет событие без блокировки; при заполненном канале событие теряется.
func (c *Controller) emit(result resizer.Result) {
	select {
	case c.events <- result:
	default:
		c.dropped.Add(1)
		c.logger.Warn("канал событий заполнен, событие отброшено", "file", result.Filename)
	}
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// sleep ждёт d или сигнала stop. Возвращает false, если пришёл stop.
func sleep(stop <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

/*
Возможные расширения:
- Добавить обработку удалённых файлов (удаление результата)
- Добавить адаптивный интервал опроса для больших папок
*/
