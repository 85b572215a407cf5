package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/middleware"
	"github.com/niaga-platform/service-revenue-scanner/internal/monitoring"
	"github.com/niaga-platform/service-revenue-scanner/internal/report"
	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
	"github.com/niaga-platform/service-revenue-scanner/internal/services"
)

// App actions selected with the action query parameter.
const (
	ActionSendReminder     = "send_reminder"
	ActionGenerateDiscount = "generate_discount"
	modePDF                = "pdf"
)

// ScanRunner runs a store scan.
type ScanRunner interface {
	Scan(ctx context.Context, session *shopifydomain.Session) scanner.ScanResult
}

// RecoveryActions performs abandoned cart recovery actions.
type RecoveryActions interface {
	SendReminder(ctx context.Context, shop string, req services.ReminderRequest) (*services.ReminderResult, error)
	GenerateDiscount(ctx context.Context, shop string, req services.DiscountRequest) (*services.DiscountResult, error)
}

// ShopLookup fetches the shop identity for the report.
type ShopLookup interface {
	FetchShop(ctx context.Context, session *shopifydomain.Session) (*scanner.Shop, error)
}

// AppHandler serves the embedded app endpoint
type AppHandler struct {
	scans    ScanRunner
	recovery RecoveryActions
	shops    ShopLookup
	logger   *zap.Logger
}

// NewAppHandler creates a new AppHandler
func NewAppHandler(scans ScanRunner, recovery RecoveryActions, shops ShopLookup, logger *zap.Logger) *AppHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppHandler{
		scans:    scans,
		recovery: recovery,
		shops:    shops,
		logger:   logger,
	}
}

// Load serves document loads and the PDF report
// GET /api/v1/app
func (h *AppHandler) Load(c *gin.Context) {
	if c.Query("mode") == modePDF {
		h.Report(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Action runs a scan, or a recovery action when ?action= is set
// POST /api/v1/app
func (h *AppHandler) Action(c *gin.Context) {
	switch action := c.Query("action"); action {
	case "":
		h.Scan(c)
	case ActionSendReminder:
		h.SendReminder(c)
	case ActionGenerateDiscount:
		h.GenerateDiscount(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action: " + action})
	}
}

// Scan runs a fresh revenue leak scan. Structural failures are reported in
// the body with scanned=false, never as an HTTP error.
func (h *AppHandler) Scan(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result := h.scans.Scan(c.Request.Context(), session)
	c.JSON(http.StatusOK, result)
}

// SendReminder requests a reminder email for an abandoned cart
func (h *AppHandler) SendReminder(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.ReminderRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid reminder request"})
		return
	}

	result, err := h.recovery.SendReminder(c.Request.Context(), session.Shop(), req)
	if err != nil {
		status := recoveryStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to send reminder", zap.String("shop", session.Shop()), zap.Error(err))
			monitoring.CaptureGinError(c, err)
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": recoveryMessage(err),
			"cartId":  req.CartID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateDiscount requests a discount code for an abandoned cart
func (h *AppHandler) GenerateDiscount(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.DiscountRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid discount request"})
		return
	}

	result, err := h.recovery.GenerateDiscount(c.Request.Context(), session.Shop(), req)
	if err != nil {
		status := recoveryStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to generate discount", zap.String("shop", session.Shop()), zap.Error(err))
			monitoring.CaptureGinError(c, err)
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": recoveryMessage(err),
			"cartId":  req.CartID,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Report renders the PDF report
// GET /api/v1/app?mode=pdf
func (h *AppHandler) Report(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	shopName := ""
	shop, err := h.shops.FetchShop(c.Request.Context(), session)
	if err != nil {
		h.logger.Error("Failed to fetch shop for report", zap.String("shop", session.Shop()), zap.Error(err))
		monitoring.CaptureGinError(c, err)
		c.String(http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	if shop != nil {
		shopName = shop.Name
	}

	doc, err := report.RenderShopReport(shopName, time.Now())
	if err != nil {
		h.logger.Error("Failed to render report", zap.String("shop", session.Shop()), zap.Error(err))
		monitoring.CaptureGinError(c, err)
		c.String(http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	c.Header("Content-Disposition", doc.ContentDisposition())
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func recoveryStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrCartIDRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidDiscount):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrReminderCooldown):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func recoveryMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrCartIDRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidDiscount),
		errors.Is(err, services.ErrReminderCooldown):
		return err.Error()
	default:
		return "Recovery service is unavailable. Please try again."
	}
}
