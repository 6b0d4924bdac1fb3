package service

import (
	"context"
	"errors"
	"strings"

	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
)

type Signup struct {
	repository    UserRepository
	hasher        Hasher
	tokenProvider TokenProvider
}

type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (id int, err error)
	FindByEmail(ctx context.Context, email string) (id int, passwordHash string, err error)
}

type Hasher interface {
	Hash(string) (string, error)
	Compare(password, hash string) bool
}

type TokenProvider interface {
	GrantToken(ctx context.Context, userID int) (string, error)
}

func NewSignup(r UserRepository, h Hasher, p TokenProvider) *Signup {
	return &Signup{
		repository:    r,
		hasher:        h,
		tokenProvider: p,
	}
}

// Register создает нового пользователя с кошельком в UserRepository и выдает ему
// авторизационный токен. Email сравнивается без учёта регистра.
func (s *Signup) Register(ctx context.Context, email, password string) (string, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	id, err := s.repository.Create(ctx, normalizeEmail(email), passwordHash)
	if err != nil {
		return "", err
	}

	return s.tokenProvider.GrantToken(ctx, id)
}

// Login получает данные пользователя из UserRepository, проверяет совпадение хэша пароля
// и выдает новый авторизационный токен пользователю. Неизвестный email и неверный
// пароль не различаются: в обоих случаях возвращается errors.ErrUserNotFound.
func (s *Signup) Login(ctx context.Context, email, password string) (string, error) {
	id, passwordHash, err := s.repository.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, inerr.ErrUserNotFound) {
		return "", inerr.ErrUserNotFound
	} else if err != nil {
		return "", err
	}

	if !s.hasher.Compare(password, passwordHash) {
		return "", inerr.ErrUserNotFound
	}

	return s.tokenProvider.GrantToken(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
