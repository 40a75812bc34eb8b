package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

// LineStatus summarizes what happened to one invoice line
type LineStatus string

const (
	LineMapped             LineStatus = "mapped"
	LineNeedsReview        LineStatus = "needs_review"
	LineCreated            LineStatus = "created"
	LineNeedsManualPricing LineStatus = "needs_manual_pricing"
)

// InvoiceLineResult is the outcome of mapping and pricing one vendor line
type InvoiceLineResult struct {
	Line          domain.VendorLineItem  `json:"line"`
	Decision      domain.MappingDecision `json:"decision"`
	MappingID     string                 `json:"mappingId,omitempty"`
	Status        LineStatus             `json:"status"`
	UnitCost      *domain.UnitCost       `json:"unitCost,omitempty"`
	TotalQuantity *decimal.Decimal       `json:"totalQuantity,omitempty"`
	BaseUnit      string                 `json:"baseUnit,omitempty"`
	PricingError  string                 `json:"pricingError,omitempty"`
}

// InvoiceResult is the outcome of mapping a whole invoice
type InvoiceResult struct {
	VendorID string              `json:"vendorId"`
	Lines    []InvoiceLineResult `json:"lines"`
	Created  int                 `json:"created"`
	Review   int                 `json:"needsReview"`
}

// InvoiceService maps vendor invoice lines onto inventory items and performs
// the item and mapping writes the mapper delegates.
type InvoiceService struct {
	mapper    *VendorItemMapper
	converter *UnitConverter
	items     domain.CandidateRepository
	mappings  domain.MappingRepository
	previews  *MatchService
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewInvoiceService creates an invoice service. previews may be nil; when set,
// the user's cached match previews are dropped whenever an item is created.
func NewInvoiceService(
	mapper *VendorItemMapper,
	converter *UnitConverter,
	items domain.CandidateRepository,
	mappings domain.MappingRepository,
	previews *MatchService,
	log *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		mapper:    mapper,
		converter: converter,
		items:     items,
		mappings:  mappings,
		previews:  previews,
		logger:    logger.OrNop(log),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// MapInvoice resolves lines in order so items created for earlier lines can
// match later ones. A store failure aborts the invoice; a pricing failure only
// marks its line.
func (s *InvoiceService) MapInvoice(
	ctx context.Context,
	userID, vendorID string,
	lines []domain.VendorLineItem,
) (*InvoiceResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(vendorID) == "" {
		return nil, fmt.Errorf("%w: user and vendor are required", domain.ErrInvalidRequest)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: invoice has no lines", domain.ErrInvalidRequest)
	}
	for i, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			return nil, fmt.Errorf("%w: line %d has no description", domain.ErrInvalidRequest, i+1)
		}
	}

	result := &InvoiceResult{VendorID: vendorID, Lines: make([]InvoiceLineResult, 0, len(lines))}
	for i, line := range lines {
		lr, err := s.mapLine(ctx, userID, vendorID, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if lr.Decision.CreateItem {
			result.Created++
		}
		if lr.Decision.NeedsReview {
			result.Review++
		}
		result.Lines = append(result.Lines, lr)
	}

	s.logger.Info("invoice mapped",
		zap.String("vendorId", vendorID),
		zap.Int("lines", len(result.Lines)),
		zap.Int("created", result.Created),
		zap.Int("needsReview", result.Review),
	)
	return result, nil
}

func (s *InvoiceService) mapLine(
	ctx context.Context,
	userID, vendorID string,
	line domain.VendorLineItem,
) (InvoiceLineResult, error) {
	decision, err := s.mapper.Resolve(ctx, userID, vendorID, line)
	if err != nil {
		return InvoiceLineResult{}, err
	}
	lr := InvoiceLineResult{Line: line, Decision: decision}

	cost, costErr := s.price(line)
	if costErr == nil {
		lr.UnitCost = &cost
	} else if line.PackPrice != nil {
		lr.PricingError = costErr.Error()
	}

	if line.PackSize != "" {
		count := line.Quantity
		if count < 1 {
			count = 1
		}
		if total, unit, err := s.converter.CalculateTotalQuantity(line.PackSize, count); err == nil {
			lr.TotalQuantity = &total
			lr.BaseUnit = unit
		}
	}

	if decision.CreateItem {
		item, err := s.createItem(ctx, userID, line, lr.UnitCost)
		if err != nil {
			return InvoiceLineResult{}, err
		}
		lr.Decision.Item = &item
	}

	if decision.NeedsWrite() {
		id, err := s.createMapping(ctx, userID, vendorID, line, lr.Decision)
		if err != nil {
			return InvoiceLineResult{}, err
		}
		lr.MappingID = id
	} else if decision.Existing != nil {
		lr.MappingID = decision.Existing.ID
	}

	lr.Status = lineStatus(lr)
	return lr, nil
}

func (s *InvoiceService) price(line domain.VendorLineItem) (domain.UnitCost, error) {
	if line.PackPrice == nil {
		return domain.UnitCost{}, domain.ErrInvalidPrice
	}
	return s.converter.CalculateUnitCostFromPack(decimal.NewFromFloat(*line.PackPrice), line.PackSize)
}

func (s *InvoiceService) createItem(
	ctx context.Context,
	userID string,
	line domain.VendorLineItem,
	cost *domain.UnitCost,
) (domain.CandidateItem, error) {
	item := domain.NewInventoryItem{
		ID:             s.newID(),
		UserID:         userID,
		Name:           strings.TrimSpace(line.Description),
		NormalizedName: s.mapper.MappingKey(line.Description),
		Category:       line.Category,
		CreatedAt:      s.now(),
	}
	if ps := strings.TrimSpace(line.PackSize); ps != "" {
		item.PackSize = &ps
	}
	if cost != nil {
		price := cost.CostPerUnit.InexactFloat64()
		item.UnitPrice = &price
	}

	if err := s.items.CreateItem(ctx, item); err != nil {
		return domain.CandidateItem{}, fmt.Errorf("create item: %w", err)
	}
	if s.previews != nil {
		if err := s.previews.InvalidateUser(ctx, userID); err != nil {
			s.logger.Warn("match preview invalidation failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	return item.Candidate(), nil
}

func (s *InvoiceService) createMapping(
	ctx context.Context,
	userID, vendorID string,
	line domain.VendorLineItem,
	decision domain.MappingDecision,
) (string, error) {
	if decision.Item == nil {
		return "", fmt.Errorf("%w: decision %s has no item", domain.ErrInvalidRequest, decision.State)
	}
	mapping := domain.VendorMapping{
		ID:                    s.newID(),
		UserID:                userID,
		VendorID:              vendorID,
		VendorDescription:     line.Description,
		NormalizedDescription: s.mapper.MappingKey(line.Description),
		InventoryItemID:       decision.Item.ID,
		Confidence:            decision.Confidence,
		MatchMethod:           decision.Method,
		NeedsReview:           decision.NeedsReview,
		CreatedAt:             s.now(),
	}
	if err := s.mappings.CreateMapping(ctx, mapping); err != nil {
		return "", fmt.Errorf("create mapping: %w", err)
	}
	return mapping.ID, nil
}

func lineStatus(lr InvoiceLineResult) LineStatus {
	switch {
	case lr.PricingError != "":
		return LineNeedsManualPricing
	case lr.Decision.CreateItem:
		return LineCreated
	case lr.Decision.NeedsReview:
		return LineNeedsReview
	default:
		return LineMapped
	}
}
