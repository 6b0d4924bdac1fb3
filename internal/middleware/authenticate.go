package middleware

import (
	"net/http"
)

type Authenticator interface {
	Authenticate(signed string, r *http.Request) (*http.Request, error)
}

// Authenticate возвращает middleware для проверки токена пользователя из заголовка Authorization.
func Authenticate(a Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, err := a.Authenticate(r.Header.Get("Authorization"), r)
			if err != nil {
				http.Error(w, "401 unauthorized", http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
