package gateway

import (
	"context"
	"net/http"

	"github.com/ivanpodgorny/walletgate/internal/entity"
)

// Adapter реализует работу с конкретным платёжным шлюзом: создание платежа,
// проверку его статуса и разбор уведомлений, которые шлюз присылает на вебхук.
type Adapter interface {
	Name() string
	InitializeCharge(ctx context.Context, req entity.ChargeRequest) (entity.Charge, error)
	VerifyPayment(ctx context.Context, reference string) (entity.Verification, error)
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (entity.WebhookEvent, error)
}
