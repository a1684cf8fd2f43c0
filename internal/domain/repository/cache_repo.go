package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	// DeleteByPattern удаляет все ключи, подходящие под glob-паттерн (например "campaign:*").
	// Разрешение паттерна делегируется самому стору (SCAN).
	DeleteByPattern(pattern string) error
}
