// Package service предоставляет управляющий интерфейс для UI-адаптеров.
//
// Service владеет Engine и Controller и переводит их ошибки в записи
// ответов {success, message}: адаптеры (CLI, TUI, MCP) ошибок не получают.
package service

import (
	"context"
	"log/slog"

	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/storage"
	"github.com/artemshloyda/photoresizer/internal/watcher"
)

// Journal сохраняет историю результатов.
type Journal interface {
	Record(result resizer.Result, origin storage.Origin) (int64, error)
}

// Response - ответ на команду.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PassResponse - ответ на начальную обработку.
type PassResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Results []resizer.Result `json:"results"`
}

// StatusResponse - текущее состояние.
type StatusResponse struct {
	Running              bool    `json:"running"`
	SourceFolder         string  `json:"source_folder"`
	DestinationFolder    string  `json:"destination_folder"`
	ScalingFactor        float64 `json:"scaling_factor"`
	SingleSideResolution int     `json:"single_side_resolution"`
	ProcessedCount       int     `json:"processed_count"`
}

// Service связывает Engine и Controller.
type Service struct {
	engine     *resizer.Engine
	controller *watcher.Controller
	journal    Journal
	logger     *slog.Logger
}

// Option настраивает Service.
type Option func(*Service)

// WithJournal включает запись всех результатов в журнал.
func WithJournal(j Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

// New создаёт Service. Если задан журнал, он подписывается на результаты цикла.
func New(engine *resizer.Engine, controller *watcher.Controller, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Service{
		engine:     engine,
		controller: controller,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.journal != nil {
		controller.SetObserver(func(r resizer.Result) {
			s.record(r, storage.OriginWatch)
		})
	}

	return s
}

// ConfigureFolders задаёт исходную и выходную папки.
func (s *Service) ConfigureFolders(source, destination string) Response {
	if err := s.engine.ConfigureFolders(source, destination); err != nil {
		return Response{Success: false, Message: err.Error()}
	}
	return Response{Success: true, Message: "Папки заданы"}
}

// ConfigurePolicy обновляет переданные поля политики. nil оставляет прежнее значение.
func (s *Service) ConfigurePolicy(scalingFactor *float64, singleSideResolution *int) Response {
	s.engine.ConfigurePolicy(scalingFactor, singleSideResolution)
	return Response{Success: true}
}

// RunInitialPass обрабатывает все изображения исходной папки.
// observe вызывается для каждого файла и может быть nil.
func (s *Service) RunInitialPass(ctx context.Context, observe func(resizer.Result)) PassResponse {
	results, err := s.controller.InitialProcessing(ctx, func(r resizer.Result) {
		s.record(r, storage.OriginInitial)
		if observe != nil {
			observe(r)
		}
	})
	if results == nil {
		results = []resizer.Result{}
	}
	if err != nil {
		s.logger.Error("начальная обработка прервана", "error", err)
		return PassResponse{Success: false, Message: err.Error(), Results: results}
	}
	return PassResponse{Success: true, Results: results}
}

// StartWatching запускает цикл наблюдения.
func (s *Service) StartWatching() Response {
	if err := s.controller.Start(); err != nil {
		return Response{Success: false, Message: err.Error()}
	}
	return Response{Success: true}
}

// StopWatching останавливает цикл наблюдения.
func (s *Service) StopWatching() Response {
	if err := s.controller.Stop(); err != nil {
		return Response{Success: false, Message: err.Error()}
	}
	return Response{Success: true}
}

// GetStatus возвращает состояние наблюдателя и текущие настройки.
func (s *Service) GetStatus() StatusResponse {
	folders := s.engine.Folders()
	policy := s.engine.Policy()
	st := s.controller.Status()

	return StatusResponse{
		Running:              st.Running,
		SourceFolder:         folders.Source,
		DestinationFolder:    folders.Destination,
		ScalingFactor:        policy.ScalingFactor,
		SingleSideResolution: policy.SingleSideResolution,
		ProcessedCount:       st.ProcessedCount,
	}
}

// Events возвращает канал результатов, найденных циклом.
func (s *Service) Events() <-chan resizer.Result {
	return s.controller.Events()
}

// DrainEvents забирает из канала до limit накопленных событий без ожидания.
// limit <= 0 означает все.
func (s *Service) DrainEvents(limit int) []resizer.Result {
	events := []resizer.Result{}
	for limit <= 0 || len(events) < limit {
		select {
		case r := <-s.controller.Events():
			events = append(events, r)
		default:
			return events
		}
	}
	return events
}

// Dropped возвращает количество потерянных событий.
func (s *Service) Dropped() int64 {
	return s.controller.Dropped()
}

func (s *Service) record(r resizer.Result, origin storage.Origin) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(r, origin); err != nil {
		s.logger.Warn("не удалось записать результат в журнал", "file", r.Filename, "error", err)
	}
}
