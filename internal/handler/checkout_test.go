package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type CheckoutProcessorMock struct {
	mock.Mock
}

func (m *CheckoutProcessorMock) Checkout(_ context.Context, buyerID, listingID int, option, reference string) (entity.CheckoutResult, error) {
	args := m.Called(buyerID, listingID, option, reference)

	return args.Get(0).(entity.CheckoutResult), args.Error(1)
}

type ConfirmerMock struct {
	mock.Mock
}

func (m *ConfirmerMock) Release(_ context.Context, buyerID int, reference string) (entity.Transaction, error) {
	args := m.Called(buyerID, reference)

	return args.Get(0).(entity.Transaction), args.Error(1)
}

func newTestCheckoutHandler(p *CheckoutProcessorMock, c *ConfirmerMock) *Checkout {
	a := &AuthenticatorMock{}
	a.On("UserIdentifier").Return(1, nil)

	return NewCheckout(p, c, a, newTestValidator())
}

func TestCheckout_Checkout(t *testing.T) {
	processor := &CheckoutProcessorMock{}
	processor.On("Checkout", 1, 3, "wallet", "").
		Return(entity.CheckoutResult{Reference: "ref-w", Status: entity.TransactionStatusCompleted}, nil).
		Once()
	processor.On("Checkout", 1, 3, "flutterwave", "").
		Return(entity.CheckoutResult{
			Reference: "ref-c",
			Status:    entity.TransactionStatusPending,
			Link:      "https://checkout.flutterwave.com/v3/hosted/pay/abc",
		}, nil).
		Once()
	processor.On("Checkout", 1, 3, "flutterwave", "client-ref").
		Return(entity.CheckoutResult{Reference: "client-ref", Status: entity.TransactionStatusPending}, nil).
		Once()
	processor.On("Checkout", 1, 3, "flutterwave", "failed-ref").
		Return(entity.CheckoutResult{Reference: "failed-ref", Status: entity.TransactionStatusFailed}, nil).
		Once()
	processor.On("Checkout", 1, 3, "stripe", "").
		Return(entity.CheckoutResult{}, &gateway.UnsupportedGatewayError{Name: "stripe"}).
		Once()
	processor.On("Checkout", 1, 4, "wallet", "").Return(entity.CheckoutResult{}, inerr.ErrInsufficientFunds).Once()
	processor.On("Checkout", 1, 5, "wallet", "").Return(entity.CheckoutResult{}, inerr.ErrListingNotFound).Once()
	processor.On("Checkout", 1, 6, "wallet", "").Return(entity.CheckoutResult{}, inerr.ErrListingUnavailable).Once()
	processor.On("Checkout", 1, 7, "wallet", "").Return(entity.CheckoutResult{}, errors.New("")).Once()
	handler := newTestCheckoutHandler(processor, &ConfirmerMock{})

	tests := []struct {
		name           string
		id             string
		body           string
		wantStatusCode int
	}{
		{
			name:           "оплата с кошелька",
			id:             "3",
			body:           `{"payment_option": "wallet"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "ссылка на оплату через шлюз",
			id:             "3",
			body:           `{"payment_option": "flutterwave"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "платёж ожидает подтверждения",
			id:             "3",
			body:           `{"payment_option": "flutterwave", "payment_reference": "client-ref"}`,
			wantStatusCode: http.StatusAccepted,
		},
		{
			name:           "платёж отклонён шлюзом",
			id:             "3",
			body:           `{"payment_option": "flutterwave", "payment_reference": "failed-ref"}`,
			wantStatusCode: http.StatusPaymentRequired,
		},
		{
			name:           "неподдерживаемый шлюз",
			id:             "3",
			body:           `{"payment_option": "stripe"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "недостаточно средств",
			id:             "4",
			body:           `{"payment_option": "wallet"}`,
			wantStatusCode: http.StatusPaymentRequired,
		},
		{
			name:           "объявление не найдено",
			id:             "5",
			body:           `{"payment_option": "wallet"}`,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "объявление уже продано",
			id:             "6",
			body:           `{"payment_option": "wallet"}`,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "ошибка при оплате",
			id:             "7",
			body:           `{"payment_option": "wallet"}`,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "не передан способ оплаты",
			id:             "3",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "некорректный id",
			id:             "x",
			body:           `{"payment_option": "wallet"}`,
			wantStatusCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sendTestRequestTo(
				http.MethodPost,
				"/",
				bytes.NewBufferString(tt.body),
				map[string]string{"id": tt.id},
				handler.Checkout,
			)
			assert.Equal(t, tt.wantStatusCode, result.StatusCode)
			require.NoError(t, result.Body.Close())
		})
	}

	processor.AssertExpectations(t)
}

func TestCheckout_CheckoutUnsupportedGatewayMessage(t *testing.T) {
	processor := &CheckoutProcessorMock{}
	processor.On("Checkout", 1, 3, "stripe", "").
		Return(entity.CheckoutResult{}, &gateway.UnsupportedGatewayError{Name: "stripe"}).
		Once()
	handler := newTestCheckoutHandler(processor, &ConfirmerMock{})

	result := sendTestRequestTo(
		http.MethodPost,
		"/",
		bytes.NewBufferString(`{"payment_option": "stripe"}`),
		map[string]string{"id": "3"},
		handler.Checkout,
	)
	b, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "Unsupported payment gateway: stripe\n", string(b))
	require.NoError(t, result.Body.Close())
	processor.AssertExpectations(t)
}

func TestCheckout_Confirm(t *testing.T) {
	confirmer := &ConfirmerMock{}
	confirmer.On("Release", 1, "ref-1").
		Return(entity.Transaction{Reference: "ref-1-payout", Status: entity.TransactionStatusCompleted}, nil).
		Once()
	confirmer.On("Release", 1, "ref-2").Return(entity.Transaction{}, inerr.ErrTransactionNotFound).Once()
	confirmer.On("Release", 1, "ref-3").Return(entity.Transaction{}, inerr.ErrInvalidTransition).Once()
	handler := newTestCheckoutHandler(&CheckoutProcessorMock{}, confirmer)

	tests := []struct {
		name           string
		reference      string
		wantStatusCode int
	}{
		{
			name:           "получение подтверждено",
			reference:      "ref-1",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "платёж не найден",
			reference:      "ref-2",
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "платёж ещё не проведён",
			reference:      "ref-3",
			wantStatusCode: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sendTestRequestTo(
				http.MethodPost,
				"/",
				nil,
				map[string]string{"reference": tt.reference},
				handler.Confirm,
			)
			assert.Equal(t, tt.wantStatusCode, result.StatusCode)
			require.NoError(t, result.Body.Close())
		})
	}

	confirmer.AssertExpectations(t)
}
