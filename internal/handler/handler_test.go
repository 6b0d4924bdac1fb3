package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/ivanpodgorny/walletgate/internal/validator"
	"github.com/stretchr/testify/mock"
)

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) Struct(_ context.Context, s any) error {
	args := m.Called(s)

	return args.Error(0)
}

func (m *ValidatorMock) Var(_ context.Context, field any, tag string) error {
	args := m.Called(field, tag)

	return args.Error(0)
}

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) UserIdentifier(_ *http.Request) (int, error) {
	args := m.Called()

	return args.Int(0), args.Error(1)
}

func sendTestRequest(method string, body io.Reader, handler http.HandlerFunc) *http.Response {
	return sendTestRequestTo(method, "/", body, nil, handler)
}

// sendTestRequestTo отправляет запрос на target, подставляя params как параметры маршрута chi.
func sendTestRequestTo(method, target string, body io.Reader, params map[string]string, handler http.HandlerFunc) *http.Response {
	request := httptest.NewRequest(method, target, body)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		request = request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, rctx))
	}

	w := httptest.NewRecorder()
	handler(w, request)

	return w.Result()
}

func newTestValidator() *validator.Validator {
	engine, err := validator.NewEngine()
	if err != nil {
		panic(err)
	}

	return validator.New(engine)
}
