package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/campaign-api/internal/config"
)

const (
	filestackStoreURL = "https://www.filestackapi.com/api/store/S3"
	filestackCDNBase  = "https://cdn.filestackcontent.com"
)

// FilestackHost — bulk-бэкенд для файлов выше порога. Хранилище возвращает только
// ссылку на видео, поэтому постер выводится цепочкой стратегий: извлеченный кадр
// через PosterUploader, а при сбое — URL-трансформация CDN без единого сетевого вызова.
// Сбой постера никогда не блокирует размещение видео.
type FilestackHost struct {
	apiKey    string
	client    *http.Client
	extractor FrameExtractor
	posters   PosterUploader
}

// NewFilestackHost создает клиент bulk-бэкенда
func NewFilestackHost(cfg config.FilestackConfig, extractor FrameExtractor, posters PosterUploader) *FilestackHost {
	return &FilestackHost{
		apiKey: cfg.APIKey,
		client: &http.Client{
			// Отдельный щедрый таймаут: тела здесь по определению большие
			Timeout: 30 * time.Minute,
		},
		extractor: extractor,
		posters:   posters,
	}
}

// storeResponse — ответ store API хранилища
type storeResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// Upload отправляет байты в хранилище и выводит постер
func (h *FilestackHost) Upload(ctx context.Context, data []byte, publicID string) (*Asset, error) {
	videoURL, err := h.store(ctx, data, publicID)
	if err != nil {
		return nil, err
	}

	return &Asset{
		VideoURL:     videoURL,
		ThumbnailURL: h.deriveThumbnail(ctx, data, publicID, videoURL),
	}, nil
}

// store выполняет сам POST в store API
func (h *FilestackHost) store(ctx context.Context, data []byte, publicID string) (string, error) {
	url := fmt.Sprintf("%s?key=%s", filestackStoreURL, h.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Filestack-Upload-Handle", publicID+".mp4")
	req.ContentLength = int64(len(data))

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("filestack store request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("filestack store response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("filestack store: status %d – %s", resp.StatusCode, truncate(string(body), 200))
	}

	var stored storeResponse
	if err := json.Unmarshal(body, &stored); err != nil {
		return "", fmt.Errorf("filestack store: malformed response: %w", err)
	}
	if stored.URL == "" {
		return "", fmt.Errorf("filestack store: response without url")
	}
	return stored.URL, nil
}

// thumbnailStrategy — один способ получить постер; стратегии пробуются по порядку
type thumbnailStrategy struct {
	name   string
	derive func(ctx context.Context) (string, error)
}

// deriveThumbnail пробует стратегии по порядку до первого успеха.
// Последняя стратегия — чистая конструкция URL, она не может упасть.
func (h *FilestackHost) deriveThumbnail(ctx context.Context, data []byte, publicID, videoURL string) string {
	strategies := []thumbnailStrategy{
		{
			name: "poster-frame",
			derive: func(ctx context.Context) (string, error) {
				return h.posterFrameThumbnail(ctx, data, publicID)
			},
		},
		{
			name: "cdn-transform",
			derive: func(ctx context.Context) (string, error) {
				return transformThumbnailURL(videoURL), nil
			},
		},
	}

	for _, s := range strategies {
		url, err := s.derive(ctx)
		if err != nil {
			log.Printf("[FilestackHost] стратегия постера '%s' для %s не сработала: %v", s.name, publicID, err)
			continue
		}
		if url != "" {
			return url
		}
	}
	return ""
}

// posterFrameThumbnail извлекает кадр helper-процессом и размещает его как изображение
func (h *FilestackHost) posterFrameThumbnail(ctx context.Context, data []byte, publicID string) (string, error) {
	if h.extractor == nil || h.posters == nil {
		return "", fmt.Errorf("poster pipeline is not configured")
	}
	frame, err := h.extractor.ExtractFrame(ctx, data)
	if err != nil {
		return "", err
	}
	return h.posters.UploadPoster(ctx, frame, publicID)
}

// transformThumbnailURL строит ссылку на постер средствами CDN-трансформации
// хранилища; дополнительной загрузки не требуется
func transformThumbnailURL(videoURL string) string {
	handle := videoURL
	if idx := strings.LastIndex(videoURL, "/"); idx >= 0 {
		handle = videoURL[idx+1:]
	}
	if handle == "" {
		return ""
	}
	return fmt.Sprintf("%s/video_convert=preset:thumbnail/%s", filestackCDNBase, handle)
}
