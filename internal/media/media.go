// Package media отвечает за размещение видео кампаний у внешних хостингов
// и выведение постеров. Два взаимозаменяемых бэкенда за общим контрактом:
// fast (видеохостинг, сам отдает постер) и bulk (хранилище больших файлов,
// постер выводится отдельным шагом).
package media

import (
	"context"
)

// Asset — результат размещения одного видео
type Asset struct {
	VideoURL     string
	ThumbnailURL string
}

// Host — один бэкенд размещения видео
type Host interface {
	Upload(ctx context.Context, data []byte, publicID string) (*Asset, error)
}

// Uploader — публичный контракт пакета: принять байты и идентификатор,
// вернуть ссылки на видео и постер
type Uploader interface {
	Upload(ctx context.Context, data []byte, publicID string) (*Asset, error)
}

// PosterUploader размещает один кадр-постер как изображение
type PosterUploader interface {
	UploadPoster(ctx context.Context, frame []byte, publicID string) (string, error)
}

// FrameExtractor извлекает один кадр из видео
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, video []byte) ([]byte, error)
}

const bytesPerMB = 1 << 20

// sizeMB возвращает размер полезной нагрузки в мегабайтах
func sizeMB(data []byte) float64 {
	return float64(len(data)) / bytesPerMB
}
