// Package queue реализует очередь отложенных загрузок поверх Redis:
// список работ + hash-запись на задачу. HTTP-путь только ставит задачу
// и сразу отвечает; воркер разбирает очередь независимо.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/yourusername/campaign-api/internal/config"
	"github.com/yourusername/campaign-api/internal/domain/entity"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
)

const (
	// Ключи очереди
	jobListKey     = "upload:jobs"     // список id, ожидающих воркера
	finishedKey    = "upload:finished" // окно последних завершенных id
	jobKeyPrefix   = "upload:job:"     // hash-запись задачи
	jobRecordTTL   = 24 * time.Hour    // страховка от осиротевших записей
	popTimeout     = 5 * time.Second   // шаг блокирующего чтения, чтобы видеть отмену ctx
	timestampLayout = time.RFC3339Nano
)

// Enqueuer — контракт постановки задачи, используемый HTTP-слоем
type Enqueuer interface {
	Enqueue(ctx context.Context, payload entity.UploadJobPayload) (string, error)
	Status(ctx context.Context, jobID string) (*entity.UploadJobStatus, error)
}

// Queue хранит задачи и их состояние в Redis
type Queue struct {
	client redis.UniversalClient
	cfg    config.QueueConfig
}

// NewQueue создает очередь и возвращает ошибку при проблемах
func NewQueue(client redis.UniversalClient, cfg config.QueueConfig) (*Queue, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for Queue")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.KeepFinished <= 0 {
		cfg.KeepFinished = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	return &Queue{client: client, cfg: cfg}, nil
}

// Config возвращает действующие настройки очереди
func (q *Queue) Config() config.QueueConfig {
	return q.cfg
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Enqueue пишет запись задачи и кладет id в список работ. Не блокирует:
// возвращает id сразу, не дожидаясь загрузки.
func (q *Queue) Enqueue(ctx context.Context, payload entity.UploadJobPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(timestampLayout)

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, jobKey(id), map[string]interface{}{
		"state":      entity.JobStateQueued,
		"attempts":   0,
		"payload":    data,
		"created_at": now,
		"updated_at": now,
	})
	pipe.Expire(ctx, jobKey(id), jobRecordTTL)
	pipe.LPush(ctx, jobListKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return id, nil
}

// Status возвращает инспектируемое состояние задачи по id
func (q *Queue) Status(ctx context.Context, jobID string) (*entity.UploadJobStatus, error) {
	fields, err := q.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrNotFound
	}

	attempts, _ := strconv.Atoi(fields["attempts"])
	status := &entity.UploadJobStatus{
		ID:           jobID,
		State:        fields["state"],
		Attempts:     attempts,
		Error:        fields["error"],
		VideoURL:     fields["video_url"],
		ThumbnailURL: fields["thumbnail_url"],
	}
	if t, err := time.Parse(timestampLayout, fields["created_at"]); err == nil {
		status.CreatedAt = t
	}
	if t, err := time.Parse(timestampLayout, fields["updated_at"]); err == nil {
		status.UpdatedAt = t
	}
	return status, nil
}

// pop блокирующе забирает следующий id; пустая строка означает, что за
// отведенный шаг ничего не пришло
func (q *Queue) pop(ctx context.Context) (string, error) {
	res, err := q.client.BRPop(ctx, popTimeout, jobListKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	// BRPop возвращает [key, value]
	if len(res) != 2 {
		return "", nil
	}
	return res[1], nil
}

// loadPayload читает полезную нагрузку задачи
func (q *Queue) loadPayload(ctx context.Context, jobID string) (*entity.UploadJobPayload, error) {
	raw, err := q.client.HGet(ctx, jobKey(jobID), "payload").Result()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	var payload entity.UploadJobPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	return &payload, nil
}

// markActive переводит задачу в active и возвращает номер текущей попытки (1-based)
func (q *Queue) markActive(ctx context.Context, jobID string) (int, error) {
	attempts, err := q.client.HIncrBy(ctx, jobKey(jobID), "attempts", 1).Result()
	if err != nil {
		return 0, err
	}
	err = q.client.HSet(ctx, jobKey(jobID), map[string]interface{}{
		"state":      entity.JobStateActive,
		"updated_at": time.Now().UTC().Format(timestampLayout),
	}).Err()
	return int(attempts), err
}

// markCompleted фиксирует успех и ссылки результата
func (q *Queue) markCompleted(ctx context.Context, jobID, videoURL, thumbnailURL string) error {
	err := q.client.HSet(ctx, jobKey(jobID), map[string]interface{}{
		"state":         entity.JobStateCompleted,
		"error":         "",
		"video_url":     videoURL,
		"thumbnail_url": thumbnailURL,
		"updated_at":    time.Now().UTC().Format(timestampLayout),
	}).Err()
	if err != nil {
		return err
	}
	return q.retire(ctx, jobID)
}

// markFailed фиксирует терминальный провал задачи
func (q *Queue) markFailed(ctx context.Context, jobID string, cause error) error {
	err := q.client.HSet(ctx, jobKey(jobID), map[string]interface{}{
		"state":      entity.JobStateFailed,
		"error":      cause.Error(),
		"updated_at": time.Now().UTC().Format(timestampLayout),
	}).Err()
	if err != nil {
		return err
	}
	return q.retire(ctx, jobID)
}

// requeue возвращает задачу в состояние queued (перед повторной постановкой)
func (q *Queue) requeue(ctx context.Context, jobID string, cause error) error {
	if err := q.client.HSet(ctx, jobKey(jobID), map[string]interface{}{
		"state":      entity.JobStateQueued,
		"error":      cause.Error(),
		"updated_at": time.Now().UTC().Format(timestampLayout),
	}).Err(); err != nil {
		return err
	}
	return q.client.LPush(ctx, jobListKey, jobID).Err()
}

// retire добавляет id в окно завершенных и вытесняет записи за его пределами
func (q *Queue) retire(ctx context.Context, jobID string) error {
	keep := int64(q.cfg.KeepFinished)

	if err := q.client.LPush(ctx, finishedKey, jobID).Err(); err != nil {
		return err
	}

	// Сначала собираем вытесняемые id, потом обрезаем окно и удаляем их записи
	evicted, err := q.client.LRange(ctx, finishedKey, keep, -1).Result()
	if err != nil {
		return err
	}
	if err := q.client.LTrim(ctx, finishedKey, 0, keep-1).Err(); err != nil {
		return err
	}
	for _, id := range evicted {
		if err := q.client.Del(ctx, jobKey(id)).Err(); err != nil {
			return err
		}
	}
	return nil
}
