package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
	"go.uber.org/zap"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{inerr.ErrInvalidArgument, http.StatusBadRequest},
	{inerr.ErrInvalidPayload, http.StatusBadRequest},
	{inerr.ErrInvalidSignature, http.StatusUnauthorized},
	{inerr.ErrInsufficientFunds, http.StatusPaymentRequired},
	{inerr.ErrUserNotFound, http.StatusNotFound},
	{inerr.ErrWalletNotFound, http.StatusNotFound},
	{inerr.ErrListingNotFound, http.StatusNotFound},
	{inerr.ErrTransactionNotFound, http.StatusNotFound},
	{inerr.ErrUserExists, http.StatusConflict},
	{inerr.ErrListingUnavailable, http.StatusConflict},
	{inerr.ErrOwnListing, http.StatusConflict},
	{inerr.ErrCurrencyMismatch, http.StatusConflict},
	{inerr.ErrDuplicateReference, http.StatusConflict},
	{inerr.ErrInvalidTransition, http.StatusConflict},
	{inerr.ErrAlreadySettled, http.StatusConflict},
	{inerr.ErrReferenceLocked, http.StatusConflict},
	{inerr.ErrGatewayRejected, http.StatusBadGateway},
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, "400 bad request", http.StatusBadRequest)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, "404 not found", http.StatusNotFound)
}

func serverError(w http.ResponseWriter) {
	http.Error(w, "500 internal server error", http.StatusInternalServerError)
}

// errorResponse отвечает кодом, соответствующим ошибке сервиса. Текст ошибки
// возвращается клиенту только для известных ошибок, остальные логируются.
func errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			http.Error(w, err.Error(), s.status)

			return
		}
	}

	zap.L().Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	serverError(w)
}

func responseAsJSON(w http.ResponseWriter, v any, code int) {
	respJSON, err := json.Marshal(v)
	if err != nil {
		serverError(w)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(respJSON); err != nil {
		serverError(w)
	}
}
