package handler

import (
	"context"
	"errors"
	"net/http"

	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
)

type Signup struct {
	signuper  Signuper
	validator Validator
}

type Signuper interface {
	Register(ctx context.Context, email, password string) (token string, err error)
	Login(ctx context.Context, email, password string) (token string, err error)
}

func NewSignup(s Signuper, v Validator) *Signup {
	return &Signup{
		signuper:  s,
		validator: v,
	}
}

// Register регистрирует пользователя по паре email/пароль и открывает ему кошелёк.
// В случае успеха возвращает ответ с кодом 200 и токен в заголовке Authorization.
func (h *Signup) Register(w http.ResponseWriter, r *http.Request) {
	req := SignupRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	token, err := h.signuper.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, inerr.ErrUserExists) {
		http.Error(w, err.Error(), http.StatusConflict)

		return
	} else if err != nil {
		serverError(w)

		return
	}

	w.Header().Set("Authorization", token)
	w.WriteHeader(http.StatusOK)
}

// Login аутентифицирует пользователя по паре email/пароль. В случае успешной
// аутентификации возвращает ответ с кодом 200 и токен в заголовке Authorization.
func (h *Signup) Login(w http.ResponseWriter, r *http.Request) {
	req := SignupRequest{}
	if err := readJSONBodyAndValidate(r.Context(), &req, w, r, h.validator); err != nil {
		badRequest(w)

		return
	}

	token, err := h.signuper.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, inerr.ErrUserNotFound) {
		http.Error(w, "401 unauthorized", http.StatusUnauthorized)

		return
	} else if err != nil {
		serverError(w)

		return
	}

	w.Header().Set("Authorization", token)
	w.WriteHeader(http.StatusOK)
}
