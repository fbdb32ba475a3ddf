// telemetry.go: optional Sentry reporting hook for enhanced errors
package errors

import (
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// reportingEnabled gates telemetry so Build stays cheap when reporting is off.
var reportingEnabled atomic.Bool

// EnableReporting turns on error forwarding to Sentry. The caller is
// responsible for having initialized the Sentry SDK beforehand.
func EnableReporting() {
	reportingEnabled.Store(true)
}

// DisableReporting turns off error forwarding.
func DisableReporting() {
	reportingEnabled.Store(false)
}

func report(ee *EnhancedError) {
	if !reportingEnabled.Load() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		if ctx := ee.GetContext(); ctx != nil {
			scope.SetContext("error_context", ctx)
		}
		sentry.CaptureException(ee.Err)
	})
}
