package handler

import (
	"context"
	"net/http"

	"github.com/ivanpodgorny/walletgate/internal/entity"
)

type Webhook struct {
	processor      WebhookProcessor
	defaultGateway string
}

type WebhookProcessor interface {
	Handle(ctx context.Context, gateway string, payload []byte, headers http.Header) (entity.WebhookResult, error)
}

func NewWebhook(p WebhookProcessor, defaultGateway string) *Webhook {
	return &Webhook{
		processor:      p,
		defaultGateway: defaultGateway,
	}
}

// Handle принимает уведомление платёжного шлюза. Шлюз задаётся параметром gateway,
// по умолчанию используется шлюз площадки. Повторные и неинтересные уведомления
// подтверждаются кодом 200, чтобы шлюз не присылал их снова. Если платёж в этот момент
// обрабатывается другим уведомлением, возвращается 409 и шлюз повторит доставку позже.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(w, r)
	if err != nil {
		badRequest(w)

		return
	}

	gateway := r.URL.Query().Get("gateway")
	if gateway == "" {
		gateway = h.defaultGateway
	}

	res, err := h.processor.Handle(r.Context(), gateway, payload, r.Header)
	if err != nil {
		errorResponse(w, r, err)

		return
	}

	responseAsJSON(w, res, http.StatusOK)
}
