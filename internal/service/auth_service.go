package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/campaign-api/internal/domain/entity"
	"github.com/yourusername/campaign-api/internal/domain/repository"
	apperrors "github.com/yourusername/campaign-api/internal/pkg/errors"
	"github.com/yourusername/campaign-api/pkg/auth"
)

// AuthService предоставляет методы аутентификации администраторов
type AuthService struct {
	adminRepo  repository.AdminRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(adminRepo repository.AdminRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if adminRepo == nil {
		return nil, fmt.Errorf("AdminRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	return &AuthService{
		adminRepo:  adminRepo,
		jwtService: jwtService,
	}, nil
}

// Register создает администратора и выпускает токен.
// Дубликат email дает ErrConflict.
func (s *AuthService) Register(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.adminRepo.GetByEmail(email); err == nil {
		return "", apperrors.ErrConflict
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	admin := &entity.Admin{
		Email:    email,
		Password: password, // хешируется хуком BeforeSave
	}
	if err := s.adminRepo.Create(admin); err != nil {
		return "", err
	}

	log.Printf("[AuthService] зарегистрирован администратор %s", email)
	return s.jwtService.GenerateToken(admin.ID, admin.Email)
}

// Login проверяет креденшалы и выпускает токен.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrUnauthorized
		}
		return "", err
	}
	if !admin.CheckPassword(password) {
		return "", apperrors.ErrUnauthorized
	}

	return s.jwtService.GenerateToken(admin.ID, admin.Email)
}

// GetByID возвращает администратора по id (для /admin/me и middleware)
func (s *AuthService) GetByID(id uint) (*entity.Admin, error) {
	return s.adminRepo.GetByID(id)
}
