package service

import (
	"context"
	"net/http"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type LedgerMock struct {
	mock.Mock
}

func (m *LedgerMock) Create(_ context.Context, t *entity.Transaction) error {
	args := m.Called(t)
	if args.Error(0) == nil {
		t.Status = entity.TransactionStatusPending
	}

	return args.Error(0)
}

func (m *LedgerMock) Reserve(_ context.Context, t *entity.Transaction) error {
	args := m.Called(t)
	if args.Error(0) == nil {
		t.Status = entity.TransactionStatusPending
	}

	return args.Error(0)
}

func (m *LedgerMock) PayFromWallet(_ context.Context, t *entity.Transaction) error {
	args := m.Called(t)
	if args.Error(0) == nil {
		t.Status = entity.TransactionStatusCompleted
	}

	return args.Error(0)
}

func (m *LedgerMock) Settle(_ context.Context, reference string, status entity.TransactionStatus) (entity.Transaction, error) {
	args := m.Called(reference, status)

	return args.Get(0).(entity.Transaction), args.Error(1)
}

func (m *LedgerMock) Release(_ context.Context, reference string, buyerID int) (entity.Transaction, error) {
	args := m.Called(reference, buyerID)

	return args.Get(0).(entity.Transaction), args.Error(1)
}

func (m *LedgerMock) Withdraw(_ context.Context, userID int, amount decimal.Decimal, reference string) (entity.Transaction, error) {
	args := m.Called(userID, amount, reference)

	return args.Get(0).(entity.Transaction), args.Error(1)
}

func (m *LedgerMock) Transfer(_ context.Context, from, to int, amount decimal.Decimal, reference string) (entity.Transaction, error) {
	args := m.Called(from, to, amount, reference)

	return args.Get(0).(entity.Transaction), args.Error(1)
}

func (m *LedgerMock) FindByReference(_ context.Context, reference string) (entity.Transaction, error) {
	args := m.Called(reference)

	return args.Get(0).(entity.Transaction), args.Error(1)
}

func (m *LedgerMock) FindAllByUserID(_ context.Context, userID int) ([]entity.Transaction, error) {
	args := m.Called(userID)

	return args.Get(0).([]entity.Transaction), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(_ context.Context, e entity.SettlementEvent) error {
	return m.Called(e).Error(0)
}

type MetricsMock struct {
	mock.Mock
}

func (m *MetricsMock) Settlement(gateway string, status entity.TransactionStatus) {
	m.Called(gateway, status)
}

func (m *MetricsMock) Checkout(option string) {
	m.Called(option)
}

func (m *MetricsMock) Webhook(gateway, result string) {
	m.Called(gateway, result)
}

type ListingFinderMock struct {
	mock.Mock
}

func (m *ListingFinderMock) FindByID(_ context.Context, id int) (entity.Listing, error) {
	args := m.Called(id)

	return args.Get(0).(entity.Listing), args.Error(1)
}

type WalletFinderMock struct {
	mock.Mock
}

func (m *WalletFinderMock) FindByUserID(_ context.Context, userID int) (entity.Wallet, error) {
	args := m.Called(userID)

	return args.Get(0).(entity.Wallet), args.Error(1)
}

type GatewayResolverMock struct {
	mock.Mock
}

func (m *GatewayResolverMock) Get(name string) (gateway.Adapter, error) {
	args := m.Called(name)
	if a, ok := args.Get(0).(gateway.Adapter); ok {
		return a, args.Error(1)
	}

	return nil, args.Error(1)
}

type AdapterMock struct {
	mock.Mock
}

func (m *AdapterMock) Name() string {
	return "flutterwave"
}

func (m *AdapterMock) InitializeCharge(_ context.Context, req entity.ChargeRequest) (entity.Charge, error) {
	args := m.Called(req)

	return args.Get(0).(entity.Charge), args.Error(1)
}

func (m *AdapterMock) VerifyPayment(_ context.Context, reference string) (entity.Verification, error) {
	args := m.Called(reference)

	return args.Get(0).(entity.Verification), args.Error(1)
}

func (m *AdapterMock) HandleWebhook(_ context.Context, payload []byte, _ http.Header) (entity.WebhookEvent, error) {
	args := m.Called(payload)

	return args.Get(0).(entity.WebhookEvent), args.Error(1)
}

type SettlerMock struct {
	mock.Mock
}

func (m *SettlerMock) Apply(_ context.Context, gateway string, v entity.Verification) (entity.TransactionStatus, error) {
	args := m.Called(gateway, v)

	return args.Get(0).(entity.TransactionStatus), args.Error(1)
}

func (m *SettlerMock) Fail(_ context.Context, gateway, reference string) error {
	return m.Called(gateway, reference).Error(0)
}

type WebhookEventRepositoryMock struct {
	mock.Mock
}

func (m *WebhookEventRepositoryMock) Insert(_ context.Context, gateway, eventID, reference string, payload []byte) (bool, error) {
	args := m.Called(gateway, eventID, reference, payload)

	return args.Bool(0), args.Error(1)
}

func (m *WebhookEventRepositoryMock) MarkProcessed(_ context.Context, gateway, eventID string) error {
	args := m.Called(gateway, eventID)

	return args.Error(0)
}

type LockerMock struct {
	mock.Mock
}

func (m *LockerMock) Lock(_ context.Context, key string) (func(), error) {
	args := m.Called(key)
	if args.Error(0) != nil {
		return nil, args.Error(0)
	}

	return func() {
		m.MethodCalled("Unlock", key)
	}, nil
}
