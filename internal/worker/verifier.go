package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"go.uber.org/zap"
)

// PaymentVerifier проверяет статус ожидающих платежей в платёжных шлюзах и передаёт
// окончательные результаты на проведение. Незавершённые платежи возвращаются в очередь
// через PaymentVerifier.interval. Для выполнения проверок создается
// PaymentVerifier.workersCount воркеров. При вызове NewPaymentVerifier добавляет
// в очередь сохраненные ожидающие платежи.
type PaymentVerifier struct {
	gateways     GatewayResolver
	jobs         chan entity.VerificationJob
	results      chan<- entity.VerificationResult
	wg           *sync.WaitGroup
	workersCount int
	interval     time.Duration
	logger       *zap.Logger
}

type PendingRepository interface {
	FindPending(ctx context.Context) ([]entity.Transaction, error)
}

type GatewayResolver interface {
	Get(name string) (gateway.Adapter, error)
}

func NewPaymentVerifier(
	ctx context.Context,
	r PendingRepository,
	g GatewayResolver,
	j chan entity.VerificationJob,
	res chan<- entity.VerificationResult,
	wg *sync.WaitGroup,
	w int,
	interval time.Duration,
	l *zap.Logger,
) *PaymentVerifier {
	verifier := &PaymentVerifier{
		gateways:     g,
		jobs:         j,
		results:      res,
		wg:           wg,
		workersCount: w,
		interval:     interval,
		logger:       l.Named("verifier"),
	}

	pending, err := r.FindPending(ctx)
	if err != nil {
		verifier.logger.Error("ошибка загрузки ожидающих платежей", zap.Error(err))
	}

	for _, t := range pending {
		go func(t entity.Transaction) {
			verifier.jobs <- entity.VerificationJob{
				Gateway:   *t.Gateway,
				Reference: t.Reference,
			}
		}(t)
	}

	return verifier
}

func (v *PaymentVerifier) Do(ctx context.Context) {
	for i := 0; i < v.workersCount; i++ {
		v.wg.Add(1)

		go v.worker(ctx)
	}
}

func (v *PaymentVerifier) worker(ctx context.Context) {
	defer v.wg.Done()

	for {
		select {
		case j, ok := <-v.jobs:
			if !ok {
				return
			}

			v.verify(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

func (v *PaymentVerifier) verify(ctx context.Context, j entity.VerificationJob) {
	adapter, err := v.gateways.Get(j.Gateway)
	if err != nil {
		v.logger.Error("платёж через неизвестный шлюз", zap.String("reference", j.Reference), zap.Error(err))

		return
	}

	verification, err := adapter.VerifyPayment(ctx, j.Reference)
	if err != nil {
		v.logger.Warn("ошибка проверки платежа", zap.String("reference", j.Reference), zap.Error(err))
		v.requeue(ctx, j)

		return
	}

	if !verification.IsFinal() {
		v.requeue(ctx, j)

		return
	}

	select {
	case v.results <- entity.VerificationResult{Gateway: adapter.Name(), Verification: verification}:
	case <-ctx.Done():
	}
}

func (v *PaymentVerifier) requeue(ctx context.Context, j entity.VerificationJob) {
	go func() {
		t := time.NewTimer(v.interval)
		defer t.Stop()

		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}

		select {
		case v.jobs <- j:
		case <-ctx.Done():
		}
	}()
}
