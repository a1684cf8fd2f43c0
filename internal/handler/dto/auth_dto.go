package dto

// RegisterRequest — регистрация администратора
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest — вход администратора
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse — выпущенный bearer-токен
type TokenResponse struct {
	Token string `json:"token"`
}

// AdminResponse — идентичность администратора
type AdminResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}
