package queue

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/campaign-api/internal/domain/entity"
	"github.com/yourusername/campaign-api/internal/domain/repository"
	"github.com/yourusername/campaign-api/internal/media"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
)

// Worker разбирает очередь загрузок: декодирует байты, размещает видео,
// создает кампанию и инвалидирует кеш. Второй домен конкуренции процесса,
// его параллелизм ограничен настройкой Concurrency.
type Worker struct {
	queue     *Queue
	uploader  media.Uploader
	campaigns repository.CampaignRepository
	cache     repository.CacheRepository

	wg sync.WaitGroup
}

// NewWorker собирает воркер очереди
func NewWorker(q *Queue, uploader media.Uploader, campaigns repository.CampaignRepository, cache repository.CacheRepository) *Worker {
	return &Worker{
		queue:     q,
		uploader:  uploader,
		campaigns: campaigns,
		cache:     cache,
	}
}

// Run запускает потребительские горутины и блокируется до отмены ctx
func (w *Worker) Run(ctx context.Context) {
	concurrency := w.queue.Config().Concurrency
	log.Printf("[Worker] запуск: %d одновременных задач", concurrency)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go func(n int) {
			defer w.wg.Done()
			w.consume(ctx, n)
		}(i)
	}

	w.wg.Wait()
	log.Println("[Worker] все потребители остановлены")
}

// consume — цикл одного потребителя
func (w *Worker) consume(ctx context.Context, n int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := w.queue.pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Worker:%d] ошибка чтения очереди: %v", n, err)
			time.Sleep(time.Second)
			continue
		}
		if jobID == "" {
			continue
		}

		w.processJob(ctx, jobID)
	}
}

// processJob проводит задачу через active → completed/failed с ограниченными повторами
func (w *Worker) processJob(ctx context.Context, jobID string) {
	attempt, err := w.queue.markActive(ctx, jobID)
	if err != nil {
		log.Printf("[Worker] не удалось активировать задачу %s: %v", jobID, err)
		return
	}

	payload, err := w.queue.loadPayload(ctx, jobID)
	if err != nil {
		log.Printf("[Worker] задача %s без полезной нагрузки: %v", jobID, err)
		_ = w.queue.markFailed(ctx, jobID, err)
		return
	}

	asset, err := w.handle(ctx, payload)
	if err == nil {
		if err := w.queue.markCompleted(ctx, jobID, asset.VideoURL, asset.ThumbnailURL); err != nil {
			log.Printf("[Worker] не удалось зафиксировать успех задачи %s: %v", jobID, err)
		}
		log.Printf("[Worker] задача %s завершена (slug=%s)", jobID, payload.Slug)
		return
	}

	maxAttempts := w.queue.Config().MaxAttempts

	// Провалы, которые не лечатся повтором, терминальны сразу
	if attempt >= maxAttempts || !isRetryable(err) {
		if ferr := w.queue.markFailed(ctx, jobID, err); ferr != nil {
			log.Printf("[Worker] не удалось зафиксировать провал задачи %s: %v", jobID, ferr)
		}
		log.Printf("[Worker] задача %s провалена после %d попыток: %v", jobID, attempt, err)
		return
	}

	// Экспоненциальный бэкофф от базовой задержки очереди
	delay := w.queue.Config().BackoffBase * (1 << (attempt - 1))
	log.Printf("[Worker] задача %s: попытка %d/%d не удалась (%v), повтор через %s", jobID, attempt, maxAttempts, err, delay)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if rerr := w.queue.requeue(context.Background(), jobID, err); rerr != nil {
			log.Printf("[Worker] не удалось вернуть задачу %s в очередь: %v", jobID, rerr)
		}
	}()
}

// handle выполняет содержательную часть задачи: декодирование, размещение,
// создание кампании, инвалидация кеша
func (w *Worker) handle(ctx context.Context, payload *entity.UploadJobPayload) (*media.Asset, error) {
	data, err := base64.StdEncoding.DecodeString(payload.VideoB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode job video bytes: %w", err)
	}

	asset, err := w.uploader.Upload(ctx, data, payload.Slug+"_full")
	if err != nil {
		return nil, err
	}

	label := payload.WaButtonLabel
	if label == "" {
		label = entity.DefaultWAButtonLabel
	}

	campaign := &entity.Campaign{
		Slug:              payload.Slug,
		FullVideoUrl:      asset.VideoURL,
		FullThumbnailUrl:  asset.ThumbnailURL,
		WaLink:            payload.WaLink,
		WaButtonLabel:     label,
		Caption:           payload.Caption,
		PopupTriggerType:  payload.PopupTriggerType,
		PopupTriggerValue: payload.PopupTriggerValue,
	}
	if err := w.campaigns.Create(campaign); err != nil {
		return nil, err
	}

	// Инвалидация строго после записи; сбой кеша не валит задачу
	if err := w.cache.DeleteByPattern("campaign:*"); err != nil {
		log.Printf("[Worker] инвалидация кеша после создания %s не удалась: %v", payload.Slug, err)
	}

	return asset, nil
}

// isRetryable отделяет временные сбои от бессмысленных для повтора
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrFileTooLarge),
		errors.Is(err, apperrors.ErrValidation):
		return false
	}
	return true
}
