package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	"go.uber.org/zap"
)

// Settler получает результаты проверки платежей и проводит их. Для проведения
// создается Settler.workersCount воркеров. Платёж, который не удалось провести,
// через Settler.interval возвращается в очередь проверки.
type Settler struct {
	settlement   Applier
	queue        <-chan entity.VerificationResult
	jobs         chan<- entity.VerificationJob
	wg           *sync.WaitGroup
	workersCount int
	interval     time.Duration
	logger       *zap.Logger
}

type Applier interface {
	Apply(ctx context.Context, gateway string, v entity.Verification) (entity.TransactionStatus, error)
}

func NewSettler(
	a Applier,
	q <-chan entity.VerificationResult,
	j chan<- entity.VerificationJob,
	wg *sync.WaitGroup,
	w int,
	interval time.Duration,
	l *zap.Logger,
) *Settler {
	return &Settler{
		settlement:   a,
		queue:        q,
		jobs:         j,
		wg:           wg,
		workersCount: w,
		interval:     interval,
		logger:       l.Named("settler"),
	}
}

func (s *Settler) Do(ctx context.Context) {
	for i := 0; i < s.workersCount; i++ {
		s.wg.Add(1)

		go s.worker(ctx)
	}
}

func (s *Settler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case res, ok := <-s.queue:
			if !ok {
				return
			}

			ref := res.Verification.Reference
			if _, err := s.settlement.Apply(ctx, res.Gateway, res.Verification); err != nil {
				s.logger.Error("ошибка проведения платежа", zap.String("reference", ref), zap.Error(err))
				s.requeue(ctx, entity.VerificationJob{Gateway: res.Gateway, Reference: ref})
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Settler) requeue(ctx context.Context, j entity.VerificationJob) {
	go func() {
		t := time.NewTimer(s.interval)
		defer t.Stop()

		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}

		select {
		case s.jobs <- j:
		case <-ctx.Done():
		}
	}()
}
