package entity

import (
	"time"
)

// Типы триггера клиентского попапа
const (
	PopupTriggerSeconds = "seconds"
	PopupTriggerPercent = "percent"
)

// DefaultWAButtonLabel — подпись CTA-кнопки по умолчанию
const DefaultWAButtonLabel = "Chat on WhatsApp"

// Campaign представляет одну видеокампанию.
// JSON-теги в camelCase: этот формат уже парсят существующие фронтенды.
type Campaign struct {
	ID uint `gorm:"primaryKey" json:"-"`

	// Slug — уникальный URL-безопасный идентификатор, неизменяемый ключ поиска
	Slug string `gorm:"size:100;not null;uniqueIndex" json:"slug"`

	// Ссылки на размещенные видео (snap — легаси-превью)
	SnapVideoUrl string `gorm:"size:500;not null;default:''" json:"snapVideoUrl,omitempty"`
	FullVideoUrl string `gorm:"size:500;not null;default:''" json:"fullVideoUrl"`

	// Ссылки на постеры
	SnapThumbnailUrl string `gorm:"size:500;not null;default:''" json:"snapThumbnailUrl,omitempty"`
	FullThumbnailUrl string `gorm:"size:500;not null;default:''" json:"fullThumbnailUrl"`

	// CTA: диплинк мессенджера и подпись кнопки
	WaLink        string `gorm:"size:500;not null" json:"waLink"`
	WaButtonLabel string `gorm:"size:100;not null;default:'Chat on WhatsApp'" json:"waButtonLabel"`

	Caption string `gorm:"size:500;not null;default:''" json:"caption"`

	// Попап: тип триггера (seconds/percent) и порог; оба либо заданы, либо NULL
	PopupTriggerType  *string  `gorm:"size:10" json:"popupTriggerType"`
	PopupTriggerValue *float64 `json:"popupTriggerValue"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName определяет имя таблицы для GORM
func (Campaign) TableName() string {
	return "campaigns"
}

// HasPopupTrigger проверяет, задан ли триггер попапа полностью
func (c *Campaign) HasPopupTrigger() bool {
	return c.PopupTriggerType != nil && c.PopupTriggerValue != nil
}
