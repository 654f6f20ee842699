// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

var (
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrForbidden недостаточно прав.
	ErrForbidden = errors.New("forbidden")
	// ErrWeakPassword пароль короче допустимого.
	ErrWeakPassword = errors.New("password is too short")
	// ErrEmailInUse email занят другим пользователем.
	ErrEmailInUse = errors.New("email already in use")
	// ErrWrongPassword текущий пароль указан неверно.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrAccountDisabled учётная запись деактивирована администратором.
	ErrAccountDisabled = errors.New("account is disabled")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его с id.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email или repository.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	UpdateUser(ctx context.Context, user models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// DeleteUser удаляет пользователя вместе с подписками и возвращает их id.
	DeleteUser(ctx context.Context, id string) ([]string, error)
}

// CacheInvalidator сбрасывает закешированные подписки удалённого пользователя.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Session результат успешного входа.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	cache    CacheInvalidator
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      slog.Default(),
	}
}

// WithCache подключает кеш подписок, который чистится при удалении пользователя.
func (s *AuthService) WithCache(c CacheInvalidator, log *slog.Logger) *AuthService {
	s.cache = c
	if log != nil {
		s.log = log
	}
	return s
}

// Register создает нового пользователя с хэшированием пароля и ролью "user"
// и сразу выпускает для него токен.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*Session, error) {
	const op = "services.auth.Register"
	if len(rawPassword) < password.MinLength {
		return nil, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Token: token, User: user}, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountDisabled)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Token: token, User: user}, nil
}

// ValidateToken проверяет JWT и возвращает вызывающего пользователя.
// Роль берётся из хранилища, чтобы смена роли и деактивация действовали
// без перевыпуска токена.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (models.Caller, error) {
	const op = "services.auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return models.Caller{}, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Caller{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return models.Caller{}, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return models.Caller{}, fmt.Errorf("%s: %w", op, ErrAccountDisabled)
	}
	return models.Caller{UserID: user.ID, Role: user.Role}, nil
}

// GetUser возвращает пользователя. Доступно самому пользователю и администратору.
func (s *AuthService) GetUser(ctx context.Context, caller models.Caller, id string) (*models.User, error) {
	const op = "services.auth.GetUser"
	if !caller.Can(id) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ListUsers возвращает страницу пользователей и их общее число. Только для администратора.
func (s *AuthService) ListUsers(ctx context.Context, caller models.Caller, limit, offset int) ([]*models.User, int, error) {
	const op = "services.auth.ListUsers"
	if !caller.IsAdmin() {
		return nil, 0, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	users, total, err := s.users.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return users, total, nil
}

// UpdateUser меняет профиль пользователя. Сам пользователь меняет имя и email,
// роль и активность меняет только администратор.
func (s *AuthService) UpdateUser(ctx context.Context, caller models.Caller, id string, patch models.UserPatch) (*models.User, error) {
	const op = "services.auth.UpdateUser"
	if !caller.Can(id) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if (patch.Role != nil || patch.IsActive != nil) && !caller.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	updated, err := s.users.UpdateUser(ctx, *user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailInUse)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteUser удаляет пользователя и все его подписки. Только для администратора.
func (s *AuthService) DeleteUser(ctx context.Context, caller models.Caller, id string) error {
	const op = "services.auth.DeleteUser"
	if !caller.IsAdmin() {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	removed, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.cache == nil {
		return nil
	}
	for _, subID := range removed {
		key := cache.SubscriptionKey(subID)
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
		}
	}
	return nil
}

// ChangePassword меняет пароль вызывающего после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, caller models.Caller, current, next string) error {
	const op = "services.auth.ChangePassword"
	if len(next) < password.MinLength {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}
	user, err := s.users.GetUser(ctx, caller.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, current); err != nil {
		return fmt.Errorf("%s: %w", op, ErrWrongPassword)
	}
	hashed, err := password.GetHash(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
