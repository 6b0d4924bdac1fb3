package worker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type PendingRepositoryMock struct {
	mock.Mock
}

func (m *PendingRepositoryMock) FindPending(_ context.Context) ([]entity.Transaction, error) {
	args := m.Called()

	return args.Get(0).([]entity.Transaction), args.Error(1)
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

func (m *AdapterMock) InitializeCharge(context.Context, entity.ChargeRequest) (entity.Charge, error) {
	return entity.Charge{}, nil
}

func (m *AdapterMock) VerifyPayment(_ context.Context, reference string) (entity.Verification, error) {
	args := m.Called(reference)

	return args.Get(0).(entity.Verification), args.Error(1)
}

func (m *AdapterMock) HandleWebhook(context.Context, []byte, http.Header) (entity.WebhookEvent, error) {
	return entity.WebhookEvent{}, nil
}

func TestNewPaymentVerifier(t *testing.T) {
	var (
		gw      = "flutterwave"
		pending = []entity.Transaction{
			{Reference: "ref-1", Gateway: &gw},
			{Reference: "dep-1", Gateway: &gw},
		}
		jobs = []entity.VerificationJob{
			{Gateway: gw, Reference: "ref-1"},
			{Gateway: gw, Reference: "dep-1"},
		}
		jobsCh     = make(chan entity.VerificationJob, 4)
		repository = &PendingRepositoryMock{}
	)
	repository.On("FindPending").Return(pending, nil).Once()
	NewPaymentVerifier(
		context.Background(),
		repository,
		&GatewayResolverMock{},
		jobsCh,
		make(chan entity.VerificationResult, 4),
		&sync.WaitGroup{},
		4,
		time.Second,
		zap.NewNop(),
	)

	for i := 0; i < len(pending); i++ {
		assert.Contains(t, jobs, <-jobsCh, "успешная загрузка ожидающих платежей")
	}

	repository.AssertExpectations(t)
}

func TestPaymentVerifier_Do(t *testing.T) {
	var (
		ctx, cancel = context.WithCancel(context.Background())
		adapter     = &AdapterMock{}
		gateways    = &GatewayResolverMock{}
		jobsCh      = make(chan entity.VerificationJob, 4)
		resultsCh   = make(chan entity.VerificationResult, 4)
		successful  = entity.Verification{
			Reference: "ref-1",
			Status:    entity.VerificationStatusSuccessful,
			Amount:    decimal.NewFromInt(1000),
			Currency:  "NGN",
		}
		failed = entity.Verification{
			Reference: "ref-2",
			Status:    entity.VerificationStatusFailed,
		}
		pending = entity.Verification{
			Reference: "ref-3",
			Status:    entity.VerificationStatusPending,
		}
	)

	gateways.On("Get", "flutterwave").Return(adapter, nil)
	gateways.On("Get", "stripe").Return(nil, &gateway.UnsupportedGatewayError{Name: "stripe"}).Once()
	adapter.On("VerifyPayment", "ref-1").Return(successful, nil).Once()
	adapter.On("VerifyPayment", "ref-2").Return(failed, nil).Once()
	adapter.On("VerifyPayment", "ref-3").Return(pending, nil).Once()
	adapter.On("VerifyPayment", "ref-4").Return(entity.Verification{}, errors.New("timeout")).Once()
	adapter.On("VerifyPayment", "ref-3").Return(successful, nil).Once()
	adapter.On("VerifyPayment", "ref-4").Return(failed, nil).Once()

	jobsCh <- entity.VerificationJob{Gateway: "flutterwave", Reference: "ref-1"}
	jobsCh <- entity.VerificationJob{Gateway: "flutterwave", Reference: "ref-2"}
	jobsCh <- entity.VerificationJob{Gateway: "flutterwave", Reference: "ref-3"}
	jobsCh <- entity.VerificationJob{Gateway: "flutterwave", Reference: "ref-4"}

	verifier := PaymentVerifier{
		gateways:     gateways,
		jobs:         jobsCh,
		results:      resultsCh,
		wg:           &sync.WaitGroup{},
		workersCount: 4,
		interval:     10 * time.Millisecond,
		logger:       zap.NewNop(),
	}

	verifier.Do(ctx)

	for i := 0; i < 4; i++ {
		select {
		case res := <-resultsCh:
			assert.Equal(t, "flutterwave", res.Gateway)
			assert.True(t, res.Verification.IsFinal(), "в очередь проведения попадают только окончательные результаты")
		case <-time.After(time.Second):
			t.Fatal("результат проверки не получен")
		}
	}

	jobsCh <- entity.VerificationJob{Gateway: "stripe", Reference: "ref-5"}
	assert.Eventually(
		t,
		func() bool { return len(jobsCh) == 0 },
		100*time.Millisecond,
		10*time.Millisecond,
		"платёж через неизвестный шлюз удаляется из очереди",
	)

	cancel()
	verifier.wg.Wait()
	jobsCh <- entity.VerificationJob{Gateway: "flutterwave", Reference: "ref-6"}
	assert.Never(
		t,
		func() bool { return len(jobsCh) == 0 },
		50*time.Millisecond,
		10*time.Millisecond,
		"корректное завершение работы при отмене контекста",
	)

	adapter.AssertExpectations(t)
	gateways.AssertExpectations(t)
}
