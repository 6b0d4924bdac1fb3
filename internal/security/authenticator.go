package security

import (
	"context"
	"errors"
	"net/http"
)

// Authenticator выдаёт пользователям токены доступа и проверяет их.
// В хранилище сохраняется сам токен, клиенту выдаётся токен с подписью Signer.
type Authenticator struct {
	signer    Signer
	storage   TokenStorage
	tokenSize int
}

type TokenStorage interface {
	Save(ctx context.Context, token string, userID int) error
	FindUserID(ctx context.Context, token string) (int, error)
}

type Signer interface {
	Sign(token string) string
	Parse(signed string) (string, error)
}

type userIDContextKey struct{}

const defaultTokenSize = 32

var ErrUnauthenticated = errors.New("user is not authenticated")

func NewAuthenticator(sgn Signer, store TokenStorage) *Authenticator {
	return &Authenticator{
		signer:    sgn,
		storage:   store,
		tokenSize: defaultTokenSize,
	}
}

// Authenticate проверяет подлинность токена, получает идентификатор пользователя из TokenStorage
// и устанавливает его в контекст запроса. Если не удается проверить подлинность или найти
// соответствующую запись в TokenStorage, возвращает ошибку.
func (a *Authenticator) Authenticate(signed string, r *http.Request) (*http.Request, error) {
	if signed == "" {
		return r, ErrUnauthenticated
	}

	token, err := a.signer.Parse(signed)
	if err != nil {
		return r, err
	}

	userID, err := a.storage.FindUserID(r.Context(), token)
	if err != nil {
		return r, err
	}

	return r.WithContext(context.WithValue(r.Context(), userIDContextKey{}, userID)), nil
}

// GrantToken создает токен для пользователя и сохраняет его в TokenStorage.
// Возвращает токен, подписанный Signer.
func (a *Authenticator) GrantToken(ctx context.Context, userID int) (string, error) {
	token, err := RandomString(a.tokenSize)
	if err != nil {
		return "", err
	}

	if err := a.storage.Save(ctx, token, userID); err != nil {
		return "", err
	}

	return a.signer.Sign(token), nil
}

// UserIdentifier возвращает идентификатор аутентифицированного пользователя из контекста запроса.
func (a *Authenticator) UserIdentifier(r *http.Request) (int, error) {
	userID, ok := r.Context().Value(userIDContextKey{}).(int)
	if !ok {
		return 0, ErrUnauthenticated
	}

	return userID, nil
}
