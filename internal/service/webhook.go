package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/ivanpodgorny/walletgate/internal/gateway"
	"go.uber.org/zap"
)

// Webhook обрабатывает уведомления платёжных шлюзов. Каждое уведомление
// сохраняется один раз и отмечается обработанным только после проведения
// платежа, а статус платежа перед проведением перепроверяется запросом к API шлюза.
type Webhook struct {
	gateways   GatewayResolver
	events     WebhookEventRepository
	locker     Locker
	settlement Settler
	metrics    WebhookRecorder
	logger     *zap.Logger
}

type WebhookEventRepository interface {
	Insert(ctx context.Context, gateway, eventID, reference string, payload []byte) (bool, error)
	MarkProcessed(ctx context.Context, gateway, eventID string) error
}

type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type WebhookRecorder interface {
	Webhook(gateway, result string)
}

func NewWebhook(
	g GatewayResolver,
	r WebhookEventRepository,
	lk Locker,
	s Settler,
	m WebhookRecorder,
	l *zap.Logger,
) *Webhook {
	return &Webhook{
		gateways:   g,
		events:     r,
		locker:     lk,
		settlement: s,
		metrics:    m,
		logger:     l.Named("webhook"),
	}
}

// Handle проверяет подпись уведомления шлюза gatewayName и проводит платёж.
// Повторно доставленное обработанное уведомление подтверждается без изменения
// баланса. Если платёж не удалось провести, повторная доставка обрабатывается заново.
func (s *Webhook) Handle(ctx context.Context, gatewayName string, payload []byte, headers http.Header) (entity.WebhookResult, error) {
	adapter, err := s.gateways.Get(gatewayName)
	if err != nil {
		return entity.WebhookResult{}, err
	}

	res, err := s.handle(ctx, adapter, payload, headers)
	s.metrics.Webhook(adapter.Name(), webhookMetricResult(res, err))

	return res, err
}

func (s *Webhook) handle(ctx context.Context, adapter gateway.Adapter, payload []byte, headers http.Header) (entity.WebhookResult, error) {
	name := adapter.Name()
	ev, err := adapter.HandleWebhook(ctx, payload, headers)
	if errors.Is(err, inerr.ErrEventIgnored) {
		return entity.WebhookResult{Outcome: entity.WebhookOutcomeIgnored, Reference: ev.Reference}, nil
	}

	if err != nil {
		return entity.WebhookResult{}, err
	}

	log := s.logger.With(zap.String("gateway", name), zap.String("event_id", ev.ID), zap.String("reference", ev.Reference))

	unlock, err := s.locker.Lock(ctx, name+":"+ev.Reference)
	if err != nil {
		return entity.WebhookResult{}, err
	}

	defer unlock()

	inserted, err := s.events.Insert(ctx, name, ev.ID, ev.Reference, payload)
	if err != nil {
		return entity.WebhookResult{}, err
	}

	if !inserted {
		log.Info("повторное уведомление")

		return entity.WebhookResult{Outcome: entity.WebhookOutcomeDuplicate, Reference: ev.Reference}, nil
	}

	res := entity.WebhookResult{
		Outcome:   entity.WebhookOutcomeAccepted,
		Reference: ev.Reference,
		Status:    entity.TransactionStatusPending,
	}

	v, err := adapter.VerifyPayment(ctx, ev.Reference)
	if err != nil {
		log.Warn("ошибка проверки платежа, проверка продолжится в фоне", zap.Error(err))

		return res, nil
	}

	if res.Status, err = s.settlement.Apply(ctx, name, v); err != nil {
		return entity.WebhookResult{}, err
	}

	if !res.Status.IsFinal() {
		log.Info("платёж ещё не завершён", zap.String("status", string(res.Status)))

		return res, nil
	}

	if err := s.events.MarkProcessed(ctx, name, ev.ID); err != nil {
		return entity.WebhookResult{}, err
	}

	log.Info("уведомление обработано", zap.String("status", string(res.Status)))

	return res, nil
}

func webhookMetricResult(res entity.WebhookResult, err error) string {
	switch {
	case err == nil:
		return string(res.Outcome)
	case errors.Is(err, inerr.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, inerr.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, inerr.ErrReferenceLocked):
		return "locked"
	default:
		return "error"
	}
}
