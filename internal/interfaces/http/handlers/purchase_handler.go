package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/interfaces/http/response"
	"agentmart.backend/pkg/utils"
)

var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9:_-]{8,128}$`)

type PurchaseService interface {
	CreatePurchase(ctx context.Context, input *entities.CreatePurchaseInput, expCtx *entities.ExperimentContext) (*entities.PurchaseResult, error)
	ListPurchases(ctx context.Context, filters *entities.PurchaseListFilters) ([]*entities.Purchase, int64, error)
}

// PurchaseHandler handles purchase endpoints
type PurchaseHandler struct {
	purchaseUsecase PurchaseService
}

func NewPurchaseHandler(purchaseUsecase PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseUsecase: purchaseUsecase}
}

type createPurchaseRequest struct {
	ListingID      string `json:"listingId" binding:"required"`
	BuyerWallet    string `json:"buyerWallet" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey" binding:"required"`

	Experiment *struct {
		ExperimentID string `json:"experimentId"`
		Condition    string `json:"condition"`
		AgentID      string `json:"agentId"`
		SessionID    string `json:"sessionId"`
	} `json:"experiment,omitempty"`
}

// CreatePurchase buys one listing
// POST /api/purchases
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req createPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid listing ID"))
		return
	}

	if !idempotencyKeyPattern.MatchString(req.IdempotencyKey) {
		response.Error(c, domainerrors.BadRequest("Idempotency key must be 8-128 characters of A-Za-z0-9:_-"))
		return
	}

	var expCtx *entities.ExperimentContext
	if req.Experiment != nil && req.Experiment.ExperimentID != "" {
		expCtx = &entities.ExperimentContext{
			ExperimentID: req.Experiment.ExperimentID,
			Condition:    req.Experiment.Condition,
			AgentID:      req.Experiment.AgentID,
			SessionID:    req.Experiment.SessionID,
		}
	}

	result, err := h.purchaseUsecase.CreatePurchase(c.Request.Context(), &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    req.BuyerWallet,
		IdempotencyKey: req.IdempotencyKey,
	}, expCtx)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		// Replays return the stored purchase, not a new resource.
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"purchase": result.Purchase})
}

// ListPurchases lists purchases, newest first
// GET /api/purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	filters := &entities.PurchaseListFilters{
		Status:      c.Query("status"),
		BuyerWallet: c.Query("buyerWallet"),
	}

	if filters.Status != "" && !validPurchaseStatus(filters.Status) {
		response.Error(c, domainerrors.BadRequest("Invalid status filter"))
		return
	}

	if raw := c.Query("listingId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid listing ID"))
			return
		}
		filters.ListingID = &id
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	page := utils.ClampPagination(limit, offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset

	items, total, err := h.purchaseUsecase.ListPurchases(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"purchases": items,
		"pagination": utils.PaginationMeta{
			Limit:  filters.Limit,
			Offset: filters.Offset,
			Count:  len(items),
			Total:  total,
		},
	})
}

func validPurchaseStatus(s string) bool {
	switch entities.PurchaseStatus(s) {
	case entities.PurchaseStatusPending, entities.PurchaseStatusCompleted, entities.PurchaseStatusFailed:
		return true
	}
	return false
}
