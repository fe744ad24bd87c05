package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/interfaces/http/response"
)

// Schedules shorter than a minute would turn the poller into a tight loop.
const minAutoPaymentIntervalSeconds = 60

type AutoPaymentService interface {
	CreateAutoPayment(ctx context.Context, input *entities.CreateAutoPaymentInput) (*entities.AutoPayment, error)
	GetAutoPayment(ctx context.Context, id uuid.UUID) (*entities.AutoPayment, error)
}

// AutoPaymentHandler handles auto-payment endpoints
type AutoPaymentHandler struct {
	autoPaymentUsecase AutoPaymentService
}

func NewAutoPaymentHandler(autoPaymentUsecase AutoPaymentService) *AutoPaymentHandler {
	return &AutoPaymentHandler{autoPaymentUsecase: autoPaymentUsecase}
}

type createAutoPaymentRequest struct {
	AgentID          string          `json:"agentId" binding:"required"`
	RecipientAddress string          `json:"recipientAddress" binding:"required"`
	AmountUSDC       decimal.Decimal `json:"amountUsdc"`
	IntervalSeconds  int             `json:"intervalSeconds" binding:"required"`
	Description      string          `json:"description"`
}

// CreateAutoPayment registers a recurring payment schedule
// POST /api/auto-payments
func (h *AutoPaymentHandler) CreateAutoPayment(c *gin.Context) {
	var req createAutoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid agent ID"))
		return
	}

	if !req.AmountUSDC.IsPositive() {
		response.Error(c, domainerrors.BadRequest("Amount must be greater than zero"))
		return
	}

	if req.IntervalSeconds < minAutoPaymentIntervalSeconds {
		response.Error(c, domainerrors.BadRequest("Interval must be at least 60 seconds"))
		return
	}

	created, err := h.autoPaymentUsecase.CreateAutoPayment(c.Request.Context(), &entities.CreateAutoPaymentInput{
		AgentID:          agentID,
		RecipientAddress: req.RecipientAddress,
		AmountUSDC:       req.AmountUSDC,
		IntervalSeconds:  req.IntervalSeconds,
		Description:      null.NewString(req.Description, req.Description != ""),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"autoPayment": created})
}

// GetAutoPayment gets a schedule by ID
// GET /api/auto-payments/:id
func (h *AutoPaymentHandler) GetAutoPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid auto-payment ID"))
		return
	}

	found, err := h.autoPaymentUsecase.GetAutoPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"autoPayment": found})
}
