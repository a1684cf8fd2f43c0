package handler

import (
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/campaign-api/internal/domain/entity"
	"github.com/yourusername/campaign-api/internal/handler/dto"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
	"github.com/yourusername/campaign-api/internal/service"
)

// CampaignHandler обрабатывает запросы, связанные с кампаниями
type CampaignHandler struct {
	campaignService *service.CampaignService
	// publicBaseURL — адрес фронтенда для канонических ссылок в мета-страницах
	publicBaseURL string
	// maxUploadBytes — потолок multipart-файла, проверяемый до чтения в память
	maxUploadBytes int64
}

// NewCampaignHandler создает новый обработчик кампаний
func NewCampaignHandler(campaignService *service.CampaignService, publicBaseURL string, maxUploadMB int) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		publicBaseURL:   strings.TrimRight(publicBaseURL, "/"),
		maxUploadBytes:  int64(maxUploadMB) << 20,
	}
}

// Create обрабатывает легаси JSON-создание кампании
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.Create(&req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCampaignResponse(campaign))
}

// List возвращает все кампании (админский список)
func (h *CampaignHandler) List(c *gin.Context) {
	campaigns, err := h.campaignService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list campaigns"})
		return
	}

	responses := make([]*dto.CampaignResponse, len(campaigns))
	for i := range campaigns {
		responses[i] = dto.NewCampaignResponse(&campaigns[i])
	}
	c.JSON(http.StatusOK, responses)
}

// Upload обрабатывает синхронную загрузку: multipart с полями preview и full
func (h *CampaignHandler) Upload(c *gin.Context) {
	preview, err := h.readFormFile(c, "preview")
	if err != nil {
		h.respondError(c, err)
		return
	}
	full, err := h.readFormFile(c, "full")
	if err != nil {
		h.respondError(c, err)
		return
	}

	input := &service.UploadInput{
		Slug:          strings.TrimSpace(c.PostForm("slug")),
		Caption:       c.PostForm("caption"),
		WaLink:        c.PostForm("waLink"),
		WaButtonLabel: c.PostForm("waButtonLabel"),
		Preview:       preview,
		Full:          full,
	}
	input.PopupTriggerType, input.PopupTriggerValue, err = parsePopupTrigger(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.UploadAndCreate(input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCampaignResponse(campaign))
}

// UploadAsync ставит загрузку в очередь и сразу отвечает id задачи
func (h *CampaignHandler) UploadAsync(c *gin.Context) {
	full, err := h.readFormFile(c, "full")
	if err != nil {
		h.respondError(c, err)
		return
	}

	input := &service.AsyncUploadInput{
		Slug:          strings.TrimSpace(c.PostForm("slug")),
		Caption:       c.PostForm("caption"),
		WaLink:        c.PostForm("waLink"),
		WaButtonLabel: c.PostForm("waButtonLabel"),
		Full:          full,
	}
	input.PopupTriggerType, input.PopupTriggerValue, err = parsePopupTrigger(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.campaignService.EnqueueUpload(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.EnqueuedJobResponse{JobID: jobID, State: "queued"})
}

// UploadStatus возвращает состояние отложенной загрузки по id задачи
func (h *CampaignHandler) UploadStatus(c *gin.Context) {
	jobID := c.Param("jobId")
	status, err := h.campaignService.JobStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job status"})
		return
	}
	c.JSON(http.StatusOK, dto.NewJobStatusResponse(status))
}

// Update обрабатывает обновление: multipart с файлами повторяет цикл загрузки,
// JSON применяет частичный патч
func (h *CampaignHandler) Update(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug param is missing or empty"})
		return
	}

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		h.updateWithFiles(c, slug)
		return
	}

	var req dto.PatchCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.Patch(slug, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// updateWithFiles — multipart-ветка обновления
func (h *CampaignHandler) updateWithFiles(c *gin.Context, slug string) {
	preview, err := h.readFormFile(c, "preview")
	if err != nil {
		h.respondError(c, err)
		return
	}
	full, err := h.readFormFile(c, "full")
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := &dto.PatchCampaignRequest{}
	if v, ok := c.GetPostForm("waLink"); ok {
		req.WaLink = &v
	}
	if v, ok := c.GetPostForm("waButtonLabel"); ok {
		req.WaButtonLabel = &v
	}
	if v, ok := c.GetPostForm("caption"); ok {
		req.Caption = &v
	}
	req.PopupTriggerType, req.PopupTriggerValue, err = parsePopupTrigger(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.ReplaceAssets(slug, preview, full, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// Delete удаляет кампанию по slug
func (h *CampaignHandler) Delete(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	err := h.campaignService.Delete(slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete campaign"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted", "slug": slug})
}

// GetBySlug возвращает публичную проекцию кампании (кеш-первое чтение)
func (h *CampaignHandler) GetBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	campaign, err := h.campaignService.GetPublic(slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load campaign"})
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// PublicLinks возвращает публичный пагинированный список ссылок
func (h *CampaignHandler) PublicLinks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	links, err := h.campaignService.PublicLinks(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list public links"})
		return
	}
	c.JSON(http.StatusOK, links)
}

// GetMetaTags отдает минимальный HTML с Open-Graph/Twitter метаданными и
// клиентским редиректом на каноническую страницу; нужен только краулерам превью
func (h *CampaignHandler) GetMetaTags(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	campaign, err := h.campaignService.GetPublic(slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.String(http.StatusNotFound, "Campaign not found")
			return
		}
		c.String(http.StatusInternalServerError, "Failed to load campaign")
		return
	}

	title := html.EscapeString(campaign.Slug)
	description := campaign.Caption
	if description == "" {
		description = campaign.Slug + " video"
	}
	description = html.EscapeString(description)
	image := html.EscapeString(campaign.FullThumbnailUrl)
	canonical := fmt.Sprintf("%s/campaigns/%s", h.publicBaseURL, url.PathEscape(campaign.Slug))

	page := fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>%s</title>
    <meta name="description" content="%s" />

    <!-- Open-Graph -->
    <meta property="og:type"        content="video.other" />
    <meta property="og:title"       content="%s" />
    <meta property="og:description" content="%s" />
    <meta property="og:image"       content="%s" />
    <meta property="og:url"         content="%s" />

    <!-- Twitter Card -->
    <meta name="twitter:card"        content="summary_large_image" />
    <meta name="twitter:title"       content="%s" />
    <meta name="twitter:description" content="%s" />
    <meta name="twitter:image"       content="%s" />

    <!-- Redirect humans -->
    <meta http-equiv="refresh" content="0;url=%s" />
  </head>
  <body></body>
</html>`, title, description, title, description, image, canonical, title, description, image, canonical)

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// readFormFile читает один multipart-файл в память, проверяя потолок размера
// до аллокации под содержимое
func (h *CampaignHandler) readFormFile(c *gin.Context, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: file field '%s' is required", apperrors.ErrValidation, field)
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: '%s' is %d bytes", apperrors.ErrFileTooLarge, field, fileHeader.Size)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file '%s': %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file '%s': %w", field, err)
	}
	return data, nil
}

// respondError транслирует ошибки сервисного слоя в статусы по таксономии
func (h *CampaignHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Campaign with this slug already exists"})
	case errors.Is(err, apperrors.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUploadServiceUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload service unavailable", "detail": err.Error()})
	case errors.Is(err, apperrors.ErrProcessingServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Processing service unavailable", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parsePopupTrigger разбирает пару полей триггера попапа из формы.
// Оба поля либо заданы вместе, либо отсутствуют.
func parsePopupTrigger(c *gin.Context) (*string, *float64, error) {
	typ := strings.TrimSpace(c.PostForm("popupTriggerType"))
	val := strings.TrimSpace(c.PostForm("popupTriggerValue"))

	if typ == "" && val == "" {
		return nil, nil, nil
	}
	if typ == "" || val == "" {
		return nil, nil, fmt.Errorf("popupTriggerType and popupTriggerValue must be provided together")
	}
	if typ != entity.PopupTriggerSeconds && typ != entity.PopupTriggerPercent {
		return nil, nil, fmt.Errorf("popupTriggerType must be 'seconds' or 'percent'")
	}
	value, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("popupTriggerValue must be numeric")
	}
	return &typ, &value, nil
}
