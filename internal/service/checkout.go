package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"go.uber.org/zap"
)

// Checkout оформляет покупку объявления с оплатой с кошелька или через платёжный шлюз.
type Checkout struct {
	listings    ListingFinder
	users       EmailFinder
	ledger      CheckoutLedger
	gateways    GatewayResolver
	settlement  Settler
	queue       chan<- entity.VerificationJob
	fees        entity.FeeSettings
	redirectURL string
	metrics     CheckoutRecorder
	logger      *zap.Logger
}

type ListingFinder interface {
	FindByID(ctx context.Context, id int) (entity.Listing, error)
}

type EmailFinder interface {
	FindEmailByID(ctx context.Context, id int) (string, error)
}

type CheckoutLedger interface {
	Reserve(ctx context.Context, t *entity.Transaction) error
	PayFromWallet(ctx context.Context, t *entity.Transaction) error
}

type GatewayResolver interface {
	Get(name string) (gateway.Adapter, error)
}

type Settler interface {
	Apply(ctx context.Context, gateway string, v entity.Verification) (entity.TransactionStatus, error)
	Fail(ctx context.Context, gateway, reference string) error
}

type CheckoutRecorder interface {
	Checkout(option string)
}

// CheckoutOptions содержит настройки оплаты объявлений.
type CheckoutOptions struct {
	Fees        entity.FeeSettings
	RedirectURL string
}

func NewCheckout(
	lf ListingFinder,
	ef EmailFinder,
	r CheckoutLedger,
	g GatewayResolver,
	s Settler,
	q chan<- entity.VerificationJob,
	m CheckoutRecorder,
	opts CheckoutOptions,
	l *zap.Logger,
) *Checkout {
	return &Checkout{
		listings:    lf,
		users:       ef,
		ledger:      r,
		gateways:    g,
		settlement:  s,
		queue:       q,
		fees:        opts.Fees,
		redirectURL: opts.RedirectURL,
		metrics:     m,
		logger:      l.Named("checkout"),
	}
}

// Checkout оплачивает объявление listingID покупателем buyerID. Вариант оплаты
// entity.PaymentOptionWallet списывает средства с кошелька сразу, любой другой
// вариант считается именем платёжного шлюза. Если покупатель передал reference
// уже проведённого шлюзом платежа, платёж проверяется в шлюзе и проводится сразу,
// иначе создаётся новый платёж и возвращается ссылка на страницу оплаты.
func (s *Checkout) Checkout(ctx context.Context, buyerID, listingID int, option, reference string) (entity.CheckoutResult, error) {
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return entity.CheckoutResult{}, err
	}

	if l.SellerID == buyerID {
		return entity.CheckoutResult{}, inerr.ErrOwnListing
	}

	if l.Status != entity.ListingStatusAvailable {
		return entity.CheckoutResult{}, inerr.ErrListingUnavailable
	}

	tx := entity.Transaction{
		Type:        entity.TransactionTypePayment,
		Amount:      l.Price,
		Fee:         s.fees.Compute(l.Price),
		Currency:    l.Currency,
		SenderID:    &buyerID,
		RecipientID: &l.SellerID,
		ListingID:   &l.ID,
	}

	if strings.EqualFold(option, entity.PaymentOptionWallet) {
		s.metrics.Checkout(entity.PaymentOptionWallet)

		return s.payFromWallet(ctx, tx)
	}

	adapter, err := s.gateways.Get(option)
	if err != nil {
		return entity.CheckoutResult{}, err
	}

	name := adapter.Name()
	tx.Gateway = &name
	s.metrics.Checkout(name)

	if reference != "" {
		return s.payWithReference(ctx, adapter, tx, reference)
	}

	return s.payWithCharge(ctx, adapter, tx, buyerID, l.Title)
}

func (s *Checkout) payFromWallet(ctx context.Context, tx entity.Transaction) (entity.CheckoutResult, error) {
	tx.Reference = uuid.NewString()
	if err := s.ledger.PayFromWallet(ctx, &tx); err != nil {
		return entity.CheckoutResult{}, err
	}

	s.logger.Info("объявление оплачено с кошелька", zap.String("reference", tx.Reference), zap.Int("listing_id", *tx.ListingID))

	return entity.CheckoutResult{
		Reference: tx.Reference,
		Status:    tx.Status,
	}, nil
}

// payWithReference резервирует объявление под переданный референс и сразу
// проверяет платёж в шлюзе. Если шлюз не вернул окончательный результат,
// проверка продолжится в фоне.
func (s *Checkout) payWithReference(
	ctx context.Context,
	adapter gateway.Adapter,
	tx entity.Transaction,
	reference string,
) (entity.CheckoutResult, error) {
	tx.Reference = reference
	if err := s.ledger.Reserve(ctx, &tx); err != nil {
		return entity.CheckoutResult{}, err
	}

	result := entity.CheckoutResult{
		Reference: reference,
		Status:    entity.TransactionStatusPending,
	}

	v, err := adapter.VerifyPayment(ctx, reference)
	if errors.Is(err, inerr.ErrTransactionNotFound) {
		if err := s.settlement.Fail(ctx, adapter.Name(), reference); err != nil {
			s.logger.Error("ошибка отмены платежа", zap.String("reference", reference), zap.Error(err))
		}

		return entity.CheckoutResult{}, err
	}

	if err != nil {
		s.logger.Warn("ошибка проверки платежа", zap.String("reference", reference), zap.Error(err))
		s.enqueue(adapter.Name(), reference)

		return result, nil
	}

	if result.Status, err = s.settlement.Apply(ctx, adapter.Name(), v); err != nil {
		return entity.CheckoutResult{}, err
	}

	if result.Status == entity.TransactionStatusPending {
		s.enqueue(adapter.Name(), reference)
	}

	return result, nil
}

// payWithCharge создаёт платёж в шлюзе. Если шлюз отклонил платёж, транзакция
// помечается неуспешной и объявление снова становится доступным.
func (s *Checkout) payWithCharge(
	ctx context.Context,
	adapter gateway.Adapter,
	tx entity.Transaction,
	buyerID int,
	title string,
) (entity.CheckoutResult, error) {
	email, err := s.users.FindEmailByID(ctx, buyerID)
	if err != nil {
		return entity.CheckoutResult{}, err
	}

	tx.Reference = uuid.NewString()
	if err = s.ledger.Reserve(ctx, &tx); err != nil {
		return entity.CheckoutResult{}, err
	}

	charge, err := adapter.InitializeCharge(ctx, entity.ChargeRequest{
		Reference:   tx.Reference,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Email:       email,
		RedirectURL: s.redirectURL,
		Title:       title,
	})
	if err != nil {
		if err := s.settlement.Fail(ctx, adapter.Name(), tx.Reference); err != nil {
			s.logger.Error("ошибка отмены платежа", zap.String("reference", tx.Reference), zap.Error(err))
		}

		return entity.CheckoutResult{}, err
	}

	s.enqueue(adapter.Name(), tx.Reference)

	return entity.CheckoutResult{
		Reference: tx.Reference,
		Status:    entity.TransactionStatusPending,
		Link:      charge.Link,
	}, nil
}

func (s *Checkout) enqueue(gateway, reference string) {
	go func() {
		s.queue <- entity.VerificationJob{
			Gateway:   gateway,
			Reference: reference,
		}
	}()
}
