package media

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/campaign-api/internal/config"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
	"github.com/yourusername/campaign-api/pkg/retry"
)

// SizeDispatcher выбирает бэкенд по размеру полезной нагрузки:
// до порога — fast с повторами, выше — bulk без повторов (его store API
// и так переживает длинные загрузки, асимметрия намеренная).
type SizeDispatcher struct {
	fast Host
	bulk Host

	bulkThresholdMB float64
	maxMB           float64

	retryAttempts int
	retryBase     time.Duration
}

// NewSizeDispatcher собирает диспетчер из двух бэкендов и лимитов конфигурации
func NewSizeDispatcher(fast, bulk Host, cfg config.MediaConfig) *SizeDispatcher {
	return &SizeDispatcher{
		fast:            fast,
		bulk:            bulk,
		bulkThresholdMB: float64(cfg.BulkThresholdMB),
		maxMB:           float64(cfg.MaxUploadMB),
		retryAttempts:   3,
		retryBase:       time.Second,
	}
}

// Upload реализует Uploader
func (d *SizeDispatcher) Upload(ctx context.Context, data []byte, publicID string) (*Asset, error) {
	size := sizeMB(data)

	// Жесткий потолок проверяется до любого сетевого вызова
	if size > d.maxMB {
		return nil, fmt.Errorf("%w: %.1f MB (max %.0f MB)", apperrors.ErrFileTooLarge, size, d.maxMB)
	}

	if size <= d.bulkThresholdMB {
		return d.uploadFast(ctx, data, publicID)
	}
	return d.uploadBulk(ctx, data, publicID)
}

func (d *SizeDispatcher) uploadFast(ctx context.Context, data []byte, publicID string) (*Asset, error) {
	var asset *Asset
	err := retry.Do(ctx, func(ctx context.Context) error {
		var opErr error
		asset, opErr = d.fast.Upload(ctx, data, publicID)
		return opErr
	},
		retry.WithAttempts(d.retryAttempts),
		retry.WithBaseDelay(d.retryBase),
	)
	if err != nil {
		log.Printf("[SizeDispatcher] fast-бэкенд исчерпал попытки для %s: %v", publicID, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProcessingServiceUnavailable, err)
	}
	return asset, nil
}

func (d *SizeDispatcher) uploadBulk(ctx context.Context, data []byte, publicID string) (*Asset, error) {
	asset, err := d.bulk.Upload(ctx, data, publicID)
	if err != nil {
		log.Printf("[SizeDispatcher] bulk-бэкенд отказал для %s: %v", publicID, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUploadServiceUnavailable, err)
	}
	return asset, nil
}
