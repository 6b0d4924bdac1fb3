package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/ivanpodgorny/walletgate/internal/logger"
	"go.uber.org/zap"
)

// maskedHeaders содержат токены и подписи уведомлений, в лог попадают только последние 4 символа.
var maskedHeaders = []string{"Authorization", "Verif-Hash", "Flutterwave-Signature"}

// Logger возвращает middleware, которое пишет в лог каждый запрос: метод, путь,
// код ответа, длительность и идентификатор запроса. Ответы с кодом 5xx
// пишутся с уровнем error.
func Logger(l *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			for _, h := range maskedHeaders {
				if v := r.Header.Get(h); v != "" {
					fields = append(fields, zap.String(h, logger.MaskLast4(v)))
				}
			}

			if status >= http.StatusInternalServerError {
				l.Error("request", fields...)

				return
			}

			l.Info("request", fields...)
		})
	}
}
