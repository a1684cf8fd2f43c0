package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/campaign-api/internal/domain/entity"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
)

// CampaignRepo реализует repository.CampaignRepository
type CampaignRepo struct {
	db *gorm.DB
}

// NewCampaignRepo создает новый репозиторий кампаний
func NewCampaignRepo(db *gorm.DB) *CampaignRepo {
	return &CampaignRepo{db: db}
}

// Create создает новую кампанию
func (r *CampaignRepo) Create(campaign *entity.Campaign) error {
	err := r.db.Create(campaign).Error
	if err != nil && isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// GetBySlug возвращает кампанию по slug
func (r *CampaignRepo) GetBySlug(slug string) (*entity.Campaign, error) {
	var campaign entity.Campaign
	err := r.db.Where("slug = ?", slug).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// List возвращает кампании, новые первыми
func (r *CampaignRepo) List(limit, offset int) ([]entity.Campaign, error) {
	var campaigns []entity.Campaign
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Count возвращает общее число кампаний
func (r *CampaignRepo) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.Campaign{}).Count(&total).Error
	return total, err
}

// UpdateBySlug точечно обновляет только переданные поля кампании.
// Возвращает обновленную запись или ErrNotFound, если slug неизвестен.
func (r *CampaignRepo) UpdateBySlug(slug string, updates map[string]interface{}) (*entity.Campaign, error) {
	// Slug неизменяем: даже если он пришел в патче, не даем его переписать
	delete(updates, "slug")

	res := r.db.Model(&entity.Campaign{}).Where("slug = ?", slug).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, apperrors.ErrConflict
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.GetBySlug(slug)
}

// DeleteBySlug жестко удаляет кампанию по slug
func (r *CampaignRepo) DeleteBySlug(slug string) error {
	res := r.db.Where("slug = ?", slug).Delete(&entity.Campaign{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// isUniqueViolation распознает нарушение уникального индекса у обоих драйверов
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
