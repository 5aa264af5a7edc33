package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/onnwee/school-dashboard/internal/apierr"
	"github.com/onnwee/school-dashboard/internal/errorreporting"
	"github.com/onnwee/school-dashboard/internal/logger"
)

// RecoverWithSentry turns handler panics into 500 responses, logging the
// stack and reporting to Sentry when it is configured.
func RecoverWithSentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				logger.ErrorContext(r.Context(), "panic recovered",
					"error", err,
					"stack", string(stack),
					"method", r.Method,
					"path", r.URL.Path,
				)

				if errorreporting.IsSentryEnabled() {
					hub := sentry.CurrentHub().Clone()
					hub.Scope().SetRequest(r)
					hub.Scope().SetLevel(sentry.LevelError)
					hub.Scope().SetTag("method", r.Method)
					hub.Scope().SetTag("path", r.URL.Path)

					if e, ok := err.(error); ok {
						hub.CaptureException(e)
					} else {
						hub.CaptureMessage(errorreporting.ScrubPII(string(stack)))
					}
				}

				apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
