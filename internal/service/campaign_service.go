package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/campaign-api/internal/domain/entity"
	"github.com/yourusername/campaign-api/internal/domain/repository"
	"github.com/yourusername/campaign-api/internal/handler/dto"
	"github.com/yourusername/campaign-api/internal/media"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
	"github.com/yourusername/campaign-api/internal/queue"
)

const (
	// Формат ключа кеша и паттерн инвалидации. Ключ кончается slug-ом,
	// поэтому инвалидация сметает по префиксу, а не удаляет один ключ.
	campaignCacheKeyPrefix    = "campaign:"
	campaignInvalidatePattern = "campaign:*"

	// asyncMaxUploadBytes — потолок отложенного пути. Полезная нагрузка хранится
	// в Redis-хеше в base64 (рост 4/3), а Redis ограничивает значение 512 MB,
	// поэтому порог здесь заметно ниже общего лимита загрузки.
	asyncMaxUploadBytes = int64(300) << 20
)

// slugPattern ограничивает slug URL-безопасными символами идентификатора
var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// CampaignService оркестрирует загрузку медиа, персистентность и кеш
type CampaignService struct {
	campaigns repository.CampaignRepository
	cache     repository.CacheRepository
	uploader  media.Uploader
	jobs      queue.Enqueuer

	cacheTTL      time.Duration
	uploadTimeout time.Duration
	asyncMaxBytes int64
}

// NewCampaignService создает новый сервис кампаний
func NewCampaignService(
	campaigns repository.CampaignRepository,
	cache repository.CacheRepository,
	uploader media.Uploader,
	jobs queue.Enqueuer,
	cacheTTL time.Duration,
	uploadTimeout time.Duration,
) *CampaignService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 15 * time.Minute
	}
	return &CampaignService{
		campaigns:     campaigns,
		cache:         cache,
		uploader:      uploader,
		jobs:          jobs,
		cacheTTL:      cacheTTL,
		uploadTimeout: uploadTimeout,
		asyncMaxBytes: asyncMaxUploadBytes,
	}
}

// UploadInput — данные синхронного создания кампании с файлами
type UploadInput struct {
	Slug              string
	Caption           string
	WaLink            string
	WaButtonLabel     string
	PopupTriggerType  *string
	PopupTriggerValue *float64
	Preview           []byte
	Full              []byte
}

// AsyncUploadInput — данные отложенной загрузки (одно полное видео)
type AsyncUploadInput struct {
	Slug              string
	Caption           string
	WaLink            string
	WaButtonLabel     string
	PopupTriggerType  *string
	PopupTriggerValue *float64
	Full              []byte
}

// Create создает кампанию из готовых ссылок (легаси JSON-путь)
func (s *CampaignService) Create(req *dto.CreateCampaignRequest) (*entity.Campaign, error) {
	if err := validateSlug(req.Slug); err != nil {
		return nil, err
	}
	if err := validateWaLink(req.WaLink); err != nil {
		return nil, err
	}
	if err := validatePopupTrigger(req.PopupTriggerType, req.PopupTriggerValue); err != nil {
		return nil, err
	}

	campaign := &entity.Campaign{
		Slug:              req.Slug,
		SnapVideoUrl:      req.SnapVideoUrl,
		FullVideoUrl:      req.FullVideoUrl,
		SnapThumbnailUrl:  req.SnapThumbnailUrl,
		FullThumbnailUrl:  req.FullThumbnailUrl,
		WaLink:            req.WaLink,
		WaButtonLabel:     buttonLabel(req.WaButtonLabel),
		Caption:           req.Caption,
		PopupTriggerType:  req.PopupTriggerType,
		PopupTriggerValue: req.PopupTriggerValue,
	}
	if err := s.campaigns.Create(campaign); err != nil {
		return nil, err
	}

	s.invalidateCache()
	return campaign, nil
}

// UploadAndCreate размещает превью и полное видео конкурентно и создает кампанию.
// Все-или-ничего: частичный успех загрузок не оставляет записи.
// Вендорские вызовы идут на контексте, отвязанном от HTTP-запроса: клиентский
// таймаут не должен бросать загрузку на полпути ради консистентности БД/кеша.
func (s *CampaignService) UploadAndCreate(input *UploadInput) (*entity.Campaign, error) {
	if err := validateSlug(input.Slug); err != nil {
		return nil, err
	}
	if err := validateWaLink(input.WaLink); err != nil {
		return nil, err
	}
	if err := validatePopupTrigger(input.PopupTriggerType, input.PopupTriggerValue); err != nil {
		return nil, err
	}
	if len(input.Preview) == 0 || len(input.Full) == 0 {
		return nil, fmt.Errorf("%w: both preview and full files are required", apperrors.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.uploadTimeout)
	defer cancel()

	var previewAsset, fullAsset *media.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		previewAsset, err = s.uploader.Upload(gctx, input.Preview, input.Slug+"_preview")
		return err
	})
	g.Go(func() error {
		var err error
		fullAsset, err = s.uploader.Upload(gctx, input.Full, input.Slug+"_full")
		return err
	})
	if err := g.Wait(); err != nil {
		// Запись не создается: наружу уходит ошибка апстрима
		return nil, err
	}

	campaign := &entity.Campaign{
		Slug:              input.Slug,
		SnapVideoUrl:      previewAsset.VideoURL,
		FullVideoUrl:      fullAsset.VideoURL,
		SnapThumbnailUrl:  previewAsset.ThumbnailURL,
		FullThumbnailUrl:  fullAsset.ThumbnailURL,
		WaLink:            input.WaLink,
		WaButtonLabel:     buttonLabel(input.WaButtonLabel),
		Caption:           input.Caption,
		PopupTriggerType:  input.PopupTriggerType,
		PopupTriggerValue: input.PopupTriggerValue,
	}
	if err := s.campaigns.Create(campaign); err != nil {
		return nil, err
	}

	s.invalidateCache()
	return campaign, nil
}

// EnqueueUpload ставит отложенную загрузку и сразу возвращает id задачи
func (s *CampaignService) EnqueueUpload(ctx context.Context, input *AsyncUploadInput) (string, error) {
	if err := validateSlug(input.Slug); err != nil {
		return "", err
	}
	if err := validateWaLink(input.WaLink); err != nil {
		return "", err
	}
	if err := validatePopupTrigger(input.PopupTriggerType, input.PopupTriggerValue); err != nil {
		return "", err
	}
	if len(input.Full) == 0 {
		return "", fmt.Errorf("%w: full file is required", apperrors.ErrValidation)
	}
	if int64(len(input.Full)) > s.asyncMaxBytes {
		return "", fmt.Errorf("%w: file is too large for the deferred path (max %d MB)", apperrors.ErrFileTooLarge, s.asyncMaxBytes>>20)
	}

	payload := entity.UploadJobPayload{
		VideoB64:          base64.StdEncoding.EncodeToString(input.Full),
		Slug:              input.Slug,
		Caption:           input.Caption,
		WaLink:            input.WaLink,
		WaButtonLabel:     buttonLabel(input.WaButtonLabel),
		PopupTriggerType:  input.PopupTriggerType,
		PopupTriggerValue: input.PopupTriggerValue,
	}
	return s.jobs.Enqueue(ctx, payload)
}

// JobStatus возвращает состояние отложенной загрузки
func (s *CampaignService) JobStatus(ctx context.Context, jobID string) (*entity.UploadJobStatus, error) {
	return s.jobs.Status(ctx, jobID)
}

// GetPublic возвращает публичную проекцию: сначала кеш, при промахе — репозиторий
// с последующим наполнением кеша. Ошибки кеша логируются и не всплывают.
func (s *CampaignService) GetPublic(slug string) (*dto.CampaignResponse, error) {
	key := campaignCacheKeyPrefix + slug

	var cached dto.CampaignResponse
	err := s.cache.GetJSON(key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[CampaignService] ошибка чтения кеша для %s: %v", key, err)
	}

	campaign, err := s.campaigns.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	resp := dto.NewCampaignResponse(campaign)
	if err := s.cache.SetJSON(key, resp, s.cacheTTL); err != nil {
		log.Printf("[CampaignService] не удалось наполнить кеш для %s: %v", key, err)
	}
	return resp, nil
}

// List возвращает все кампании (админский список), новые первыми
func (s *CampaignService) List() ([]entity.Campaign, error) {
	return s.campaigns.List(0, 0)
}

// PublicLinks возвращает пагинированный публичный список ссылок
func (s *CampaignService) PublicLinks(page, pageSize int) (*dto.PaginatedLinksResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, err := s.campaigns.List(pageSize, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.campaigns.Count()
	if err != nil {
		return nil, err
	}

	links := make([]dto.PublicLinkResponse, len(campaigns))
	for i := range campaigns {
		links[i] = dto.NewPublicLinkResponse(&campaigns[i])
	}

	return &dto.PaginatedLinksResponse{
		Links:   links,
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}, nil
}

// Patch частично обновляет кампанию; отсутствующие в патче поля не затираются
func (s *CampaignService) Patch(slug string, req *dto.PatchCampaignRequest) (*entity.Campaign, error) {
	if err := validatePopupTrigger(req.PopupTriggerType, req.PopupTriggerValue); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.WaLink != nil {
		if err := validateWaLink(*req.WaLink); err != nil {
			return nil, err
		}
		updates["wa_link"] = *req.WaLink
	}
	if req.WaButtonLabel != nil {
		updates["wa_button_label"] = *req.WaButtonLabel
	}
	if req.Caption != nil {
		updates["caption"] = *req.Caption
	}
	if req.PopupTriggerType != nil {
		updates["popup_trigger_type"] = *req.PopupTriggerType
	}
	if req.PopupTriggerValue != nil {
		updates["popup_trigger_value"] = *req.PopupTriggerValue
	}
	if len(updates) == 0 {
		return s.campaigns.GetBySlug(slug)
	}

	campaign, err := s.campaigns.UpdateBySlug(slug, updates)
	if err != nil {
		return nil, err
	}

	s.invalidateCache()
	return campaign, nil
}

// ReplaceAssets повторяет цикл загрузки для slug и обновляет ссылки вместе с патчем
func (s *CampaignService) ReplaceAssets(slug string, preview, full []byte, req *dto.PatchCampaignRequest) (*entity.Campaign, error) {
	if len(preview) == 0 || len(full) == 0 {
		return nil, fmt.Errorf("%w: both preview and full files are required", apperrors.ErrValidation)
	}
	if req != nil {
		if err := validatePopupTrigger(req.PopupTriggerType, req.PopupTriggerValue); err != nil {
			return nil, err
		}
	}

	// Убеждаемся, что кампания существует, до дорогих вендорских вызовов
	if _, err := s.campaigns.GetBySlug(slug); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.uploadTimeout)
	defer cancel()

	var previewAsset, fullAsset *media.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		previewAsset, err = s.uploader.Upload(gctx, preview, slug+"_preview")
		return err
	})
	g.Go(func() error {
		var err error
		fullAsset, err = s.uploader.Upload(gctx, full, slug+"_full")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"snap_video_url":     previewAsset.VideoURL,
		"full_video_url":     fullAsset.VideoURL,
		"snap_thumbnail_url": previewAsset.ThumbnailURL,
		"full_thumbnail_url": fullAsset.ThumbnailURL,
	}
	if req != nil {
		if req.WaLink != nil {
			if err := validateWaLink(*req.WaLink); err != nil {
				return nil, err
			}
			updates["wa_link"] = *req.WaLink
		}
		if req.WaButtonLabel != nil {
			updates["wa_button_label"] = *req.WaButtonLabel
		}
		if req.Caption != nil {
			updates["caption"] = *req.Caption
		}
		if req.PopupTriggerType != nil {
			updates["popup_trigger_type"] = *req.PopupTriggerType
		}
		if req.PopupTriggerValue != nil {
			updates["popup_trigger_value"] = *req.PopupTriggerValue
		}
	}

	campaign, err := s.campaigns.UpdateBySlug(slug, updates)
	if err != nil {
		return nil, err
	}

	s.invalidateCache()
	return campaign, nil
}

// Delete жестко удаляет кампанию; повторное удаление дает ErrNotFound
func (s *CampaignService) Delete(slug string) error {
	if err := s.campaigns.DeleteBySlug(slug); err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

// invalidateCache сметает все ключи кампаний. Вызывается строго после записи;
// сбой логируется и не влияет на исход запроса.
func (s *CampaignService) invalidateCache() {
	if err := s.cache.DeleteByPattern(campaignInvalidatePattern); err != nil {
		log.Printf("[CampaignService] инвалидация кеша не удалась: %v", err)
	}
}

func buttonLabel(label string) string {
	if label == "" {
		return entity.DefaultWAButtonLabel
	}
	return label
}

func validateSlug(slug string) error {
	if slug == "" || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug must be a non-empty identifier (letters, digits, '-', '_')", apperrors.ErrValidation)
	}
	return nil
}

// validatePopupTrigger требует, чтобы тип и порог триггера задавались только парой
func validatePopupTrigger(typ *string, value *float64) error {
	if (typ == nil) != (value == nil) {
		return fmt.Errorf("%w: popupTriggerType and popupTriggerValue must be provided together", apperrors.ErrValidation)
	}
	if typ != nil && *typ != entity.PopupTriggerSeconds && *typ != entity.PopupTriggerPercent {
		return fmt.Errorf("%w: popupTriggerType must be 'seconds' or 'percent'", apperrors.ErrValidation)
	}
	return nil
}

func validateWaLink(waLink string) error {
	u, err := url.ParseRequestURI(waLink)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: waLink must be a well-formed http(s) URL", apperrors.ErrValidation)
	}
	return nil
}
