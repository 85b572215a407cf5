// Package monitoring wires error tracking into the service.
package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SentryConfig holds Sentry client settings.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	ServiceName      string
	TracesSampleRate float64
}

// SentryMonitor owns the Sentry client. A monitor without a DSN is inert:
// its middleware still recovers panics but nothing is reported.
type SentryMonitor struct {
	enabled bool
	logger  *zap.Logger
}

// NewSentryMonitor initializes the Sentry client. The returned monitor is
// always usable, even when an error is returned.
func NewSentryMonitor(cfg *SentryConfig, logger *zap.Logger) (*SentryMonitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SentryMonitor{logger: logger}
	if cfg == nil || cfg.DSN == "" {
		return m, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServiceName,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return m, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("service", cfg.ServiceName)
	})
	m.enabled = true
	logger.Info("Sentry initialized", zap.String("environment", cfg.Environment))
	return m, nil
}

// Enabled reports whether events are sent.
func (m *SentryMonitor) Enabled() bool {
	return m != nil && m.enabled
}

// Flush waits for buffered events to be delivered.
func (m *SentryMonitor) Flush(timeout time.Duration) {
	if m.Enabled() {
		sentry.Flush(timeout)
	}
}

// GinMiddleware attaches a request-scoped hub to every request. It must be
// registered before RecoveryMiddleware, which reports panics on that hub.
func (m *SentryMonitor) GinMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// RecoveryMiddleware reports panics to Sentry and converts them into a 500
// JSON response.
func (m *SentryMonitor) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		m.logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		requestHub(c).RecoverWithContext(c.Request.Context(), recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

func requestHub(c *gin.Context) *sentry.Hub {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		return hub
	}
	if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureError reports err on the request hub carried by ctx, falling back to
// the global hub.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// CaptureGinError reports err on the hub sentrygin attached to c.
func CaptureGinError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestHub(c).CaptureException(err)
}
