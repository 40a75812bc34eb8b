package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/usecase"
)

const (
	serviceName    = "kitchenledger-backend"
	serviceVersion = "1.0.0"
)

// Services are the usecases the handlers call. A nil service answers 501.
type Services struct {
	Match     *usecase.MatchService
	Invoices  *usecase.InvoiceService
	Recipes   *usecase.RecipeCostService
	Converter *usecase.UnitConverter
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, log *zap.Logger) *Handler {
	return &Handler{
		services: services,
		logger:   logger.OrNop(log),
	}
}

type packSizeRequest struct {
	PackSize string `json:"packSize" binding:"required"`
}

type packSizeResponse struct {
	Pack          domain.ParsedPackSize `json:"pack"`
	TotalQuantity decimal.Decimal       `json:"totalQuantity"`
	BaseUnit      string                `json:"baseUnit"`
}

type unitCostRequest struct {
	PackPrice decimal.Decimal `json:"packPrice"`
	PackSize  string          `json:"packSize"`
}

type convertRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	FromUnit string          `json:"fromUnit" binding:"required"`
	ToUnit   string          `json:"toUnit" binding:"required"`
}

type convertResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

type invoiceRequest struct {
	VendorID string                  `json:"vendorId" binding:"required"`
	Lines    []domain.VendorLineItem `json:"lines" binding:"required,min=1,dive"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// FindSimilarItems previews the inventory items a name would match
func (h *Handler) FindSimilarItems(c *gin.Context) {
	if h.services.Match == nil {
		notConfigured(c, "matching")
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req usecase.SimilarItemsRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.services.Match.FindSimilarItems(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MatchRecommendation maps the score query parameter onto a match action
func (h *Handler) MatchRecommendation(c *gin.Context) {
	if h.services.Match == nil {
		notConfigured(c, "matching")
		return
	}

	score, err := strconv.ParseFloat(c.Query("score"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be a number"})
		return
	}
	rec, err := h.services.Match.Recommendation(score)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ParsePackSize returns the structured form of a pack-size string
func (h *Handler) ParsePackSize(c *gin.Context) {
	if h.services.Converter == nil {
		notConfigured(c, "unit conversion")
		return
	}

	var req packSizeRequest
	if !h.bind(c, &req) {
		return
	}

	pack, ok := h.services.Converter.ParsePackSize(req.PackSize)
	if !ok {
		h.writeError(c, domain.ErrUnparseablePackSize)
		return
	}
	total, base, err := h.services.Converter.CalculateTotalQuantity(req.PackSize, 1)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, packSizeResponse{Pack: pack, TotalQuantity: total, BaseUnit: base})
}

// UnitCost derives the cost per base unit from a pack price
func (h *Handler) UnitCost(c *gin.Context) {
	if h.services.Converter == nil {
		notConfigured(c, "unit conversion")
		return
	}

	var req unitCostRequest
	if !h.bind(c, &req) {
		return
	}

	cost, err := h.services.Converter.CalculateUnitCostFromPack(req.PackPrice, req.PackSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cost)
}

// ConvertUnits converts a quantity between two units of the same category
func (h *Handler) ConvertUnits(c *gin.Context) {
	if h.services.Converter == nil {
		notConfigured(c, "unit conversion")
		return
	}

	var req convertRequest
	if !h.bind(c, &req) {
		return
	}

	qty, err := h.services.Converter.ConvertRecipeToPackUnit(req.Quantity, req.FromUnit, req.ToUnit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertResponse{Quantity: qty, Unit: req.ToUnit})
}

// MapInvoice maps every line of a vendor invoice onto the caller's inventory
func (h *Handler) MapInvoice(c *gin.Context) {
	if h.services.Invoices == nil {
		notConfigured(c, "invoice mapping")
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req invoiceRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.services.Invoices.MapInvoice(c.Request.Context(), userID, req.VendorID, req.Lines)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CostRecipe prices a recipe from the packs its ingredients are bought in
func (h *Handler) CostRecipe(c *gin.Context) {
	if h.services.Recipes == nil {
		notConfigured(c, "recipe costing")
		return
	}

	var req domain.Recipe
	if !h.bind(c, &req) {
		return
	}

	cost, err := h.services.Recipes.CostRecipe(req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cost)
}

// userID reads the tenant from the X-User-ID header. It writes a 400 and
// returns false when the header is missing or not a UUID.
func (h *Handler) userID(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": UserIDHeader + " header must be a valid UUID"})
		return "", false
	}
	return id.String(), true
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return false
	}
	return true
}

// writeError maps a usecase error onto a status code
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("requestId", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnparseablePackSize),
		errors.Is(err, domain.ErrMissingPackSize),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrUnknownUnit),
		errors.Is(err, domain.ErrIncompatibleUnits):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrMappingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": feature + " service not configured"})
}
