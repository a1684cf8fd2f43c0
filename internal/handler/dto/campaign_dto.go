package dto

import (
	"time"

	"github.com/yourusername/campaign-api/internal/domain/entity"
)

// CreateCampaignRequest — легаси JSON-создание: все ссылки уже известны
type CreateCampaignRequest struct {
	Slug              string   `json:"slug" binding:"required"`
	SnapVideoUrl      string   `json:"snapVideoUrl" binding:"omitempty,url"`
	FullVideoUrl      string   `json:"fullVideoUrl" binding:"required,url"`
	SnapThumbnailUrl  string   `json:"snapThumbnailUrl" binding:"omitempty,url"`
	FullThumbnailUrl  string   `json:"fullThumbnailUrl" binding:"required,url"`
	WaLink            string   `json:"waLink" binding:"required,url"`
	WaButtonLabel     string   `json:"waButtonLabel"`
	Caption           string   `json:"caption"`
	PopupTriggerType  *string  `json:"popupTriggerType" binding:"omitempty,oneof=seconds percent"`
	PopupTriggerValue *float64 `json:"popupTriggerValue"`
}

// PatchCampaignRequest — частичное JSON-обновление; nil-поля не трогаются
type PatchCampaignRequest struct {
	WaLink            *string  `json:"waLink" binding:"omitempty,url"`
	WaButtonLabel     *string  `json:"waButtonLabel"`
	Caption           *string  `json:"caption"`
	PopupTriggerType  *string  `json:"popupTriggerType" binding:"omitempty,oneof=seconds percent"`
	PopupTriggerValue *float64 `json:"popupTriggerValue"`
}

// CampaignResponse — публичная проекция кампании (без внутреннего id)
type CampaignResponse struct {
	Slug              string    `json:"slug"`
	SnapVideoUrl      string    `json:"snapVideoUrl,omitempty"`
	FullVideoUrl      string    `json:"fullVideoUrl"`
	SnapThumbnailUrl  string    `json:"snapThumbnailUrl,omitempty"`
	FullThumbnailUrl  string    `json:"fullThumbnailUrl"`
	WaLink            string    `json:"waLink"`
	WaButtonLabel     string    `json:"waButtonLabel"`
	Caption           string    `json:"caption"`
	PopupTriggerType  *string   `json:"popupTriggerType"`
	PopupTriggerValue *float64  `json:"popupTriggerValue"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// PublicLinkResponse — урезанная проекция для публичного списка ссылок
type PublicLinkResponse struct {
	Slug              string   `json:"slug"`
	FullVideoUrl      string   `json:"fullVideoUrl"`
	FullThumbnailUrl  string   `json:"fullThumbnailUrl"`
	WaLink            string   `json:"waLink"`
	WaButtonLabel     string   `json:"waButtonLabel"`
	PopupTriggerType  *string  `json:"popupTriggerType"`
	PopupTriggerValue *float64 `json:"popupTriggerValue"`
}

// PaginatedLinksResponse — пагинированный публичный список
type PaginatedLinksResponse struct {
	Links   []PublicLinkResponse `json:"links"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

// EnqueuedJobResponse — ответ асинхронной постановки загрузки
type EnqueuedJobResponse struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
}

// JobStatusResponse — проекция состояния задачи для поллинга
type JobStatusResponse struct {
	JobID        string `json:"job_id"`
	State        string `json:"state"`
	Attempts     int    `json:"attempts"`
	Error        string `json:"error,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// NewCampaignResponse строит публичную проекцию из сущности
func NewCampaignResponse(c *entity.Campaign) *CampaignResponse {
	return &CampaignResponse{
		Slug:              c.Slug,
		SnapVideoUrl:      c.SnapVideoUrl,
		FullVideoUrl:      c.FullVideoUrl,
		SnapThumbnailUrl:  c.SnapThumbnailUrl,
		FullThumbnailUrl:  c.FullThumbnailUrl,
		WaLink:            c.WaLink,
		WaButtonLabel:     c.WaButtonLabel,
		Caption:           c.Caption,
		PopupTriggerType:  c.PopupTriggerType,
		PopupTriggerValue: c.PopupTriggerValue,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// NewPublicLinkResponse строит элемент публичного списка из сущности
func NewPublicLinkResponse(c *entity.Campaign) PublicLinkResponse {
	return PublicLinkResponse{
		Slug:              c.Slug,
		FullVideoUrl:      c.FullVideoUrl,
		FullThumbnailUrl:  c.FullThumbnailUrl,
		WaLink:            c.WaLink,
		WaButtonLabel:     c.WaButtonLabel,
		PopupTriggerType:  c.PopupTriggerType,
		PopupTriggerValue: c.PopupTriggerValue,
	}
}

// NewJobStatusResponse строит проекцию состояния задачи
func NewJobStatusResponse(s *entity.UploadJobStatus) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:        s.ID,
		State:        s.State,
		Attempts:     s.Attempts,
		Error:        s.Error,
		VideoURL:     s.VideoURL,
		ThumbnailURL: s.ThumbnailURL,
	}
}
