package repository

import (
	"context"
	"database/sql"
)

type WebhookEvent struct {
	db *sql.DB
}

const (
	insertWebhookEventQuery = `
INSERT INTO webhook_events (gateway, event_id, reference, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (gateway, event_id) DO UPDATE SET payload = EXCLUDED.payload
WHERE webhook_events.processed_at IS NULL`
	markWebhookEventProcessedQuery = `
UPDATE webhook_events SET processed_at = now()
WHERE gateway = $1 AND event_id = $2 AND processed_at IS NULL`
)

func NewWebhookEvent(db *sql.DB) *WebhookEvent {
	return &WebhookEvent{db: db}
}

// Insert сохраняет полученное уведомление платёжного шлюза. Возвращает false,
// если уведомление с таким id от этого шлюза уже было обработано. Сохранённое,
// но не обработанное уведомление считается новым.
func (r *WebhookEvent) Insert(ctx context.Context, gateway, eventID, reference string, payload []byte) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertWebhookEventQuery, gateway, eventID, reference, string(payload))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()

	return n == 1, err
}

// MarkProcessed отмечает уведомление обработанным. После этого повторная
// доставка уведомления не проводит платёж.
func (r *WebhookEvent) MarkProcessed(ctx context.Context, gateway, eventID string) error {
	_, err := r.db.ExecContext(ctx, markWebhookEventProcessedQuery, gateway, eventID)

	return err
}
