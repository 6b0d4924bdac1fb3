package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Wallet struct {
	wallets    WalletFinder
	users      EmailFinder
	ledger     WalletLedger
	gateways   GatewayResolver
	settlement Settler
	queue      chan<- entity.VerificationJob
	gateway    string
	redirect   string
	logger     *zap.Logger
}

type WalletFinder interface {
	FindByUserID(ctx context.Context, userID int) (entity.Wallet, error)
}

type WalletLedger interface {
	Create(ctx context.Context, t *entity.Transaction) error
	Release(ctx context.Context, reference string, buyerID int) (entity.Transaction, error)
	Withdraw(ctx context.Context, userID int, amount decimal.Decimal, reference string) (entity.Transaction, error)
	Transfer(ctx context.Context, from, to int, amount decimal.Decimal, reference string) (entity.Transaction, error)
	FindAllByUserID(ctx context.Context, userID int) ([]entity.Transaction, error)
}

// WalletOptions содержит шлюз для пополнения кошельков и адрес возврата
// пользователя после оплаты.
type WalletOptions struct {
	Gateway     string
	RedirectURL string
}

func NewWallet(
	wf WalletFinder,
	ef EmailFinder,
	r WalletLedger,
	g GatewayResolver,
	s Settler,
	q chan<- entity.VerificationJob,
	opts WalletOptions,
	l *zap.Logger,
) *Wallet {
	return &Wallet{
		wallets:    wf,
		users:      ef,
		ledger:     r,
		gateways:   g,
		settlement: s,
		queue:      q,
		gateway:    opts.Gateway,
		redirect:   opts.RedirectURL,
		logger:     l.Named("wallet"),
	}
}

// Get возвращает кошелёк пользователя.
func (s *Wallet) Get(ctx context.Context, userID int) (entity.Wallet, error) {
	return s.wallets.FindByUserID(ctx, userID)
}

// Transactions возвращает историю операций по кошельку пользователя.
func (s *Wallet) Transactions(ctx context.Context, userID int) ([]entity.Transaction, error) {
	return s.ledger.FindAllByUserID(ctx, userID)
}

// Withdraw списывает amount с кошелька пользователя.
func (s *Wallet) Withdraw(ctx context.Context, userID int, amount decimal.Decimal) (entity.Transaction, error) {
	if !amount.IsPositive() {
		return entity.Transaction{}, inerr.ErrInvalidArgument
	}

	return s.ledger.Withdraw(ctx, userID, amount, uuid.NewString())
}

// Transfer переводит amount с кошелька пользователя from на кошелёк пользователя to.
func (s *Wallet) Transfer(ctx context.Context, from, to int, amount decimal.Decimal) (entity.Transaction, error) {
	if !amount.IsPositive() || from == to {
		return entity.Transaction{}, inerr.ErrInvalidArgument
	}

	return s.ledger.Transfer(ctx, from, to, amount, uuid.NewString())
}

// Release подтверждает получение товара по платежу reference и делает выплату
// продавцу доступной для вывода.
func (s *Wallet) Release(ctx context.Context, buyerID int, reference string) (entity.Transaction, error) {
	return s.ledger.Release(ctx, reference, buyerID)
}

// Deposit создаёт платёж на пополнение кошелька через шлюз по умолчанию и
// возвращает ссылку на страницу оплаты. Кошелёк пополняется после подтверждения
// платежа шлюзом.
func (s *Wallet) Deposit(ctx context.Context, userID int, amount decimal.Decimal) (entity.Charge, error) {
	if !amount.IsPositive() {
		return entity.Charge{}, inerr.ErrInvalidArgument
	}

	w, err := s.wallets.FindByUserID(ctx, userID)
	if err != nil {
		return entity.Charge{}, err
	}

	email, err := s.users.FindEmailByID(ctx, userID)
	if err != nil {
		return entity.Charge{}, err
	}

	adapter, err := s.gateways.Get(s.gateway)
	if err != nil {
		return entity.Charge{}, err
	}

	name := adapter.Name()
	tx := entity.Transaction{
		Reference:   uuid.NewString(),
		Type:        entity.TransactionTypeDeposit,
		Amount:      amount,
		Fee:         decimal.Zero,
		Currency:    w.Currency,
		RecipientID: &userID,
		Gateway:     &name,
	}
	if err = s.ledger.Create(ctx, &tx); err != nil {
		return entity.Charge{}, err
	}

	charge, err := adapter.InitializeCharge(ctx, entity.ChargeRequest{
		Reference:   tx.Reference,
		Amount:      amount,
		Currency:    w.Currency,
		Email:       email,
		RedirectURL: s.redirect,
		Title:       "Wallet deposit",
	})
	if err != nil {
		if err := s.settlement.Fail(ctx, name, tx.Reference); err != nil {
			s.logger.Error("ошибка отмены пополнения", zap.String("reference", tx.Reference), zap.Error(err))
		}

		return entity.Charge{}, err
	}

	go func() {
		s.queue <- entity.VerificationJob{
			Gateway:   name,
			Reference: tx.Reference,
		}
	}()

	return charge, nil
}
