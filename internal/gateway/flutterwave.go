package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/imroc/req/v3"
	"github.com/ivanpodgorny/walletgate/internal/entity"
	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"github.com/shopspring/decimal"
)

const (
	FlutterwaveName = "flutterwave"

	flutterwaveChargeCompleted = "charge.completed"
	flutterwaveSignatureHeader = "flutterwave-signature"
	flutterwaveHashHeader      = "verif-hash"
)

// Flutterwave реализует Adapter для платёжного шлюза Flutterwave (API v3).
type Flutterwave struct {
	req        *req.Client
	secretHash string
}

type FlutterwaveConfig struct {
	BaseURL    string
	SecretKey  string
	SecretHash string
}

type flutterwaveTransaction struct {
	ID       int64           `json:"id"`
	TxRef    string          `json:"tx_ref"`
	FlwRef   string          `json:"flw_ref"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

type flutterwaveChargeRequest struct {
	TxRef       string      `json:"tx_ref"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	RedirectURL string      `json:"redirect_url,omitempty"`
	Customer    struct {
		Email string `json:"email"`
	} `json:"customer"`
	Customizations struct {
		Title string `json:"title,omitempty"`
	} `json:"customizations"`
}

var errFlutterwaveNotConfigured = errors.New("flutterwave secret key is not configured")

func NewFlutterwave(cfg FlutterwaveConfig) (*Flutterwave, error) {
	if cfg.SecretKey == "" {
		return nil, errFlutterwaveNotConfigured
	}

	return &Flutterwave{
		req: req.C().
			SetBaseURL(cfg.BaseURL).
			SetCommonBearerAuthToken(cfg.SecretKey).
			SetTimeout(10 * time.Second).
			SetCommonRetryCount(2).
			SetCommonRetryBackoffInterval(time.Second, 5*time.Second).
			SetCommonRetryCondition(func(resp *req.Response, err error) bool {
				return err == nil &&
					(resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError)
			}),
		secretHash: cfg.SecretHash,
	}, nil
}

// NewFlutterwaveFactory возвращает конструктор адаптера Flutterwave для Registry.
func NewFlutterwaveFactory(cfg FlutterwaveConfig) Factory {
	return func() (Adapter, error) {
		return NewFlutterwave(cfg)
	}
}

func (f *Flutterwave) Name() string {
	return FlutterwaveName
}

// InitializeCharge создаёт платёжную страницу Flutterwave для платежа с референсом
// req.Reference и возвращает ссылку на неё.
func (f *Flutterwave) InitializeCharge(ctx context.Context, cr entity.ChargeRequest) (entity.Charge, error) {
	body := flutterwaveChargeRequest{
		TxRef:       cr.Reference,
		Amount:      json.Number(cr.Amount.StringFixed(2)),
		Currency:    cr.Currency,
		RedirectURL: cr.RedirectURL,
	}
	body.Customer.Email = cr.Email
	body.Customizations.Title = cr.Title

	respBody := struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Link string `json:"link"`
		} `json:"data"`
	}{}
	resp, err := f.req.R().
		SetContext(ctx).
		SetBody(&body).
		SetSuccessResult(&respBody).
		SetErrorResult(&respBody).
		Post("/v3/payments")
	if err != nil {
		return entity.Charge{}, err
	}

	if resp.IsErrorState() || respBody.Status != "success" || respBody.Data.Link == "" {
		return entity.Charge{}, fmt.Errorf(
			"%w: %s (status code %d)",
			inerr.ErrGatewayRejected,
			respBody.Message,
			resp.StatusCode,
		)
	}

	return entity.Charge{
		Reference: cr.Reference,
		Link:      respBody.Data.Link,
	}, nil
}

// VerifyPayment запрашивает у Flutterwave статус платежа по референсу. Если платёж
// не найден, возвращает ошибку errors.ErrTransactionNotFound.
func (f *Flutterwave) VerifyPayment(ctx context.Context, reference string) (entity.Verification, error) {
	respBody := struct {
		Status  string                 `json:"status"`
		Message string                 `json:"message"`
		Data    flutterwaveTransaction `json:"data"`
	}{}
	resp, err := f.req.R().
		SetContext(ctx).
		SetQueryParam("tx_ref", reference).
		SetSuccessResult(&respBody).
		Get("/v3/transactions/verify_by_reference")
	if err != nil {
		return entity.Verification{}, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return entity.Verification{}, inerr.ErrTransactionNotFound
	}

	if resp.IsErrorState() {
		return entity.Verification{}, fmt.Errorf("server responded with status code %d", resp.StatusCode)
	}

	return entity.Verification{
		Reference:  reference,
		ProviderID: strconv.FormatInt(respBody.Data.ID, 10),
		Status:     flutterwaveStatus(respBody.Data.Status),
		Amount:     respBody.Data.Amount,
		Currency:   respBody.Data.Currency,
	}, nil
}

// HandleWebhook проверяет подпись уведомления Flutterwave и разбирает его.
// Обрабатываются только события charge.completed, для остальных возвращается
// errors.ErrEventIgnored.
func (f *Flutterwave) HandleWebhook(_ context.Context, payload []byte, headers http.Header) (entity.WebhookEvent, error) {
	if !f.validSignature(payload, headers) {
		return entity.WebhookEvent{}, inerr.ErrInvalidSignature
	}

	body := struct {
		Event string                 `json:"event"`
		Data  flutterwaveTransaction `json:"data"`
	}{}
	if err := json.Unmarshal(payload, &body); err != nil {
		return entity.WebhookEvent{}, fmt.Errorf("%w: %v", inerr.ErrInvalidPayload, err)
	}

	if body.Event != flutterwaveChargeCompleted {
		return entity.WebhookEvent{}, inerr.ErrEventIgnored
	}

	if body.Data.ID == 0 || body.Data.TxRef == "" {
		return entity.WebhookEvent{}, inerr.ErrInvalidPayload
	}

	return entity.WebhookEvent{
		ID:        strconv.FormatInt(body.Data.ID, 10),
		Type:      body.Event,
		Reference: body.Data.TxRef,
		Status:    flutterwaveStatus(body.Data.Status),
		Amount:    body.Data.Amount,
		Currency:  body.Data.Currency,
	}, nil
}

// validSignature проверяет HMAC-SHA256 подпись тела запроса из заголовка
// flutterwave-signature, а при его отсутствии сравнивает заголовок verif-hash
// с секретным хэшем.
func (f *Flutterwave) validSignature(payload []byte, headers http.Header) bool {
	if f.secretHash == "" {
		return false
	}

	if signature := headers.Get(flutterwaveSignatureHeader); signature != "" {
		h := hmac.New(sha256.New, []byte(f.secretHash))
		h.Write(payload)
		expected := base64.StdEncoding.EncodeToString(h.Sum(nil))

		return hmac.Equal([]byte(signature), []byte(expected))
	}

	return subtle.ConstantTimeCompare([]byte(headers.Get(flutterwaveHashHeader)), []byte(f.secretHash)) == 1
}

func flutterwaveStatus(s string) entity.VerificationStatus {
	switch s {
	case "successful":
		return entity.VerificationStatusSuccessful
	case "failed", "cancelled":
		return entity.VerificationStatusFailed
	default:
		return entity.VerificationStatusPending
	}
}
