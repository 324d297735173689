package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/server/util"
)

// RequestLogging stores a request-scoped logger in the context and logs one
// line per completed request. It expects chi's RequestID middleware to run first.
func RequestLogging(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rl := util.WithRequest(logger, r, chimw.GetReqID(r.Context()))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(util.ContextWithLogger(r.Context(), rl)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			rl.Infow("request completed",
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
