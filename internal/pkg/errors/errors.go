package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, дублирующийся slug или email).
	ErrConflict = errors.New("resource state conflict")

	// ErrFileTooLarge возвращается до любого сетевого вызова, если файл превышает жесткий лимит.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrUploadServiceUnavailable означает сбой bulk-бэкенда (хранилище больших файлов).
	// Хендлеры транслируют его в 502.
	ErrUploadServiceUnavailable = errors.New("upload service unavailable")

	// ErrProcessingServiceUnavailable означает сбой fast-бэкенда (видеохостинг).
	// Хендлеры транслируют его в 503.
	ErrProcessingServiceUnavailable = errors.New("processing service unavailable")
)
