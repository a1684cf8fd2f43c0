package repository

import (
	"github.com/yourusername/campaign-api/internal/domain/entity"
)

// CampaignRepository определяет методы для работы с кампаниями
type CampaignRepository interface {
	Create(campaign *entity.Campaign) error
	GetBySlug(slug string) (*entity.Campaign, error)
	// List возвращает кампании, новые первыми; limit<=0 означает без пагинации
	List(limit, offset int) ([]entity.Campaign, error)
	Count() (int64, error)
	// UpdateBySlug точечно обновляет только переданные поля, не затрагивая остальные
	UpdateBySlug(slug string, updates map[string]interface{}) (*entity.Campaign, error)
	DeleteBySlug(slug string) error
}

// AdminRepository определяет методы для работы с администраторами
type AdminRepository interface {
	Create(admin *entity.Admin) error
	GetByID(id uint) (*entity.Admin, error)
	GetByEmail(email string) (*entity.Admin, error)
}
