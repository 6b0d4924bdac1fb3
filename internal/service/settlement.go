package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"go.uber.org/zap"
)

// Settlement переводит результат проверки платежа шлюзом в статус транзакции.
// Через него проходят все проведения: из уведомлений шлюзов, из фоновой проверки
// и из оформления заказа с уже оплаченным референсом.
type Settlement struct {
	ledger    SettlementLedger
	publisher Publisher
	metrics   SettlementRecorder
	logger    *zap.Logger
	now       func() time.Time
}

type SettlementLedger interface {
	FindByReference(ctx context.Context, reference string) (entity.Transaction, error)
	Settle(ctx context.Context, reference string, status entity.TransactionStatus) (entity.Transaction, error)
}

type Publisher interface {
	Publish(ctx context.Context, e entity.SettlementEvent) error
}

type SettlementRecorder interface {
	Settlement(gateway string, status entity.TransactionStatus)
}

func NewSettlement(r SettlementLedger, p Publisher, m SettlementRecorder, l *zap.Logger) *Settlement {
	return &Settlement{
		ledger:    r,
		publisher: p,
		metrics:   m,
		logger:    l.Named("settlement"),
		now:       time.Now,
	}
}

// Apply проводит транзакцию по результату проверки v. Успешный платёж проводится,
// только если подтверждённая сумма не меньше ожидаемой и валюта совпадает, иначе
// транзакция считается неуспешной. Для незавершённого платежа ничего не меняется.
// Повторное проведение не является ошибкой: возвращается текущий статус транзакции.
func (s *Settlement) Apply(ctx context.Context, gateway string, v entity.Verification) (entity.TransactionStatus, error) {
	tx, err := s.ledger.FindByReference(ctx, v.Reference)
	if err != nil {
		return "", err
	}

	if tx.Gateway == nil || !strings.EqualFold(*tx.Gateway, gateway) {
		return "", fmt.Errorf("reference %s is not a %s payment: %w", v.Reference, gateway, inerr.ErrTransactionNotFound)
	}

	if tx.Status.IsFinal() || !v.IsFinal() {
		return tx.Status, nil
	}

	status := s.resolve(tx, v)
	settled, err := s.ledger.Settle(ctx, v.Reference, status)
	if errors.Is(err, inerr.ErrAlreadySettled) {
		current, err := s.ledger.FindByReference(ctx, v.Reference)

		return current.Status, err
	}

	if err != nil {
		return "", err
	}

	s.logger.Info(
		"платёж проведён",
		zap.String("reference", settled.Reference),
		zap.String("gateway", gateway),
		zap.String("type", string(settled.Type)),
		zap.String("status", string(settled.Status)),
	)
	s.metrics.Settlement(gateway, settled.Status)

	event := entity.NewSettlementEvent(settled, gateway, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("ошибка публикации события", zap.String("reference", settled.Reference), zap.Error(err))
	}

	return settled.Status, nil
}

// Fail помечает ожидающую транзакцию неуспешной, например если шлюз не смог
// создать платёж.
func (s *Settlement) Fail(ctx context.Context, gateway, reference string) error {
	_, err := s.Apply(ctx, gateway, entity.Verification{
		Reference: reference,
		Status:    entity.VerificationStatusFailed,
	})

	return err
}

func (s *Settlement) resolve(tx entity.Transaction, v entity.Verification) entity.TransactionStatus {
	if v.Status != entity.VerificationStatusSuccessful {
		return entity.TransactionStatusFailed
	}

	if v.Amount.LessThan(tx.Amount) || !strings.EqualFold(v.Currency, tx.Currency) {
		s.logger.Warn(
			"подтверждённый платёж не совпадает с ожидаемым",
			zap.String("reference", tx.Reference),
			zap.String("expected_amount", tx.Amount.String()),
			zap.String("expected_currency", tx.Currency),
			zap.String("amount", v.Amount.String()),
			zap.String("currency", v.Currency),
		)

		return entity.TransactionStatusFailed
	}

	return entity.TransactionStatusCompleted
}
