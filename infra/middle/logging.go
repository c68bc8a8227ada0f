package middle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mstgnz/stripeconn/infra/logger"
)

// RequestLoggingMiddleware logs one line per request through the system
// logger. Bodies are never logged since they carry card data.
func RequestLoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log := logger.WithContext(logger.LogContext{
				RequestID: middleware.GetReqID(r.Context()),
			}).
				AddField("method", r.Method).
				AddField("path", r.URL.Path).
				AddField("status", status).
				AddField("bytes", ww.BytesWritten()).
				AddField("duration_ms", time.Since(start).Milliseconds()).
				AddField("client_ip", GetClientIP(r))

			switch {
			case status >= http.StatusInternalServerError:
				log.Warn("request completed with server error")
			case status >= http.StatusBadRequest:
				log.Info("request completed with client error")
			default:
				log.Debug("request completed")
			}
		})
	}
}
