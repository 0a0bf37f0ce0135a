package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corpfest/secret-santa/storage"
)

// ExportService выгружает снимок административного представления в
// объектное хранилище. Если хранилище не сконфигурировано (uploader ==
// nil), экспорт недоступен.
type ExportService struct {
	exchange *ExchangeService
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewExportService(exchange *ExchangeService, uploader storage.FileUploader, logger *slog.Logger) *ExportService {
	return &ExportService{
		exchange: exchange,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportResults сериализует текущее состояние обмена и загружает его под
// ключом с меткой времени. Возвращает публичный URL снимка.
func (s *ExportService) ExportResults(ctx context.Context) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportUnavailable
	}

	state, err := s.exchange.GetAdminState(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.MarshalIndent(state, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exchange snapshot: %w", err)
	}

	key := fmt.Sprintf("exports/secret-santa-%s.json", s.now().UTC().Format("20060102-150405"))
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to upload exchange snapshot: %w", err)
	}

	s.logger.Info("exchange snapshot exported",
		slog.String("key", uploaded.Key),
		slog.Int("participants", state.Stats.Total),
	)
	return &ExportResult{Key: uploaded.Key, URL: uploaded.Location}, nil
}
