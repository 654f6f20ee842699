// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и дату создания.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin проверяет роль администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPatch изменяемые поля профиля. Роль и активность меняет только администратор.
type UserPatch struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// Caller пользователь, от имени которого выполняется запрос.
type Caller struct {
	UserID string
	Role   string
}

// IsAdmin проверяет роль администратора у вызывающего.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Can проверяет доступ к ресурсу владельца ownerID: сам владелец или администратор.
func (c Caller) Can(ownerID string) bool {
	return c.IsAdmin() || (c.UserID != "" && c.UserID == ownerID)
}
