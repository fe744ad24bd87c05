package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	domainRepos "agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/models"
	"agentmart.backend/pkg/utils"
)

const idempotencyConstraint = "idx_purchases_idempotency_key"

// PurchaseRepository implements purchase data operations
type PurchaseRepository struct {
	db  *gorm.DB
	uow domainRepos.UnitOfWork
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *gorm.DB, uow domainRepos.UnitOfWork) *PurchaseRepository {
	return &PurchaseRepository{db: db, uow: uow}
}

// isIdempotencyConflict reports whether err is a unique violation of the
// purchases idempotency-key constraint specifically. Any other constraint
// violation must propagate instead of being mistaken for a replay.
func isIdempotencyConflict(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == idempotencyConstraint
	}
	// pgx reports the violated constraint by name in the message; sqlite
	// (tests) names the column instead.
	msg := err.Error()
	return strings.Contains(msg, idempotencyConstraint) ||
		strings.Contains(msg, "purchases.idempotency_key")
}

// PreparePurchase runs the read-then-decide-then-insert transaction. The
// database unique constraint is the sole serialization point between
// concurrent requests sharing an idempotency key: the loser's insert is
// rejected and resolved by re-reading the winner's row.
func (r *PurchaseRepository) PreparePurchase(ctx context.Context, input *entities.CreatePurchaseInput) (*domainRepos.PreparePurchaseResult, error) {
	var result *domainRepos.PreparePurchaseResult

	err := r.uow.Do(ctx, func(txCtx context.Context) error {
		db := GetDB(txCtx, r.db)

		var existing models.Purchase
		findErr := db.WithContext(txCtx).
			Where("idempotency_key = ?", input.IdempotencyKey).
			First(&existing).Error
		if findErr == nil {
			result = &domainRepos.PreparePurchaseResult{
				Outcome:  domainRepos.PrepareExisting,
				Purchase: toPurchaseEntity(&existing),
			}
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		var listing models.Listing
		if err := db.WithContext(txCtx).
			Where("id = ? AND status = ?", input.ListingID, entities.ListingStatusActive).
			First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = &domainRepos.PreparePurchaseResult{Outcome: domainRepos.PrepareListingNotFound}
				return nil
			}
			return err
		}

		var agent models.Agent
		if err := db.WithContext(txCtx).
			Where("id = ?", listing.AgentID).
			First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = &domainRepos.PreparePurchaseResult{Outcome: domainRepos.PrepareAgentNotFound}
				return nil
			}
			return err
		}

		m := &models.Purchase{
			ID:             utils.GenerateUUIDv7(),
			ListingID:      listing.ID,
			BuyerWallet:    input.BuyerWallet,
			SellerAgentID:  agent.ID,
			AmountUSDC:     listing.PriceUSDC,
			Status:         string(entities.PurchaseStatusPending),
			IdempotencyKey: input.IdempotencyKey,
		}
		if err := db.WithContext(txCtx).Create(m).Error; err != nil {
			return err
		}

		result = &domainRepos.PreparePurchaseResult{
			Outcome:     domainRepos.PrepareCreated,
			Purchase:    toPurchaseEntity(m),
			Listing:     toListingEntity(&listing),
			SellerAgent: toAgentEntity(&agent),
		}
		return nil
	})

	if err != nil {
		if isIdempotencyConflict(err) {
			// Lost the insert race. The committed row is the purchase the
			// caller asked for.
			var existing models.Purchase
			if findErr := r.db.WithContext(ctx).
				Where("idempotency_key = ?", input.IdempotencyKey).
				First(&existing).Error; findErr == nil {
				return &domainRepos.PreparePurchaseResult{
					Outcome:  domainRepos.PrepareExisting,
					Purchase: toPurchaseEntity(&existing),
				}, nil
			}
		}
		return nil, err
	}

	return result, nil
}

// MarkFailed moves a pending purchase to failed. Terminal rows are left
// untouched.
func (r *PurchaseRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, entities.PurchaseStatusPending).
		Update("status", entities.PurchaseStatusFailed)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Complete finalizes a pending purchase with the settlement reference and
// the wallet that actually paid.
func (r *PurchaseRepository) Complete(ctx context.Context, id uuid.UUID, txHash, buyerWallet string) (*entities.Purchase, error) {
	result := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, entities.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":       entities.PurchaseStatusCompleted,
			"tx_hash":      txHash,
			"buyer_wallet": buyerWallet,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domainerrors.ErrNotFound
	}

	var m models.Purchase
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toPurchaseEntity(&m), nil
}

// List returns purchases matching the filters, newest first, plus the total
// match count.
func (r *PurchaseRepository) List(ctx context.Context, filters *entities.PurchaseListFilters) ([]*entities.Purchase, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Purchase{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.ListingID != nil {
		query = query.Where("listing_id = ?", *filters.ListingID)
	}
	if filters.BuyerWallet != "" {
		query = query.Where("buyer_wallet = ?", filters.BuyerWallet)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Purchase
	if err := query.
		Preload("Listing").Preload("SellerAgent").
		Order("created_at DESC").
		Limit(filters.Limit).Offset(filters.Offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	purchases := make([]*entities.Purchase, 0, len(ms))
	for i := range ms {
		p := toPurchaseEntity(&ms[i])
		p.ListingTitle = ms[i].Listing.Title
		p.SellerName = ms[i].SellerAgent.Name
		purchases = append(purchases, p)
	}

	return purchases, total, nil
}

func toPurchaseEntity(m *models.Purchase) *entities.Purchase {
	return &entities.Purchase{
		ID:             m.ID,
		ListingID:      m.ListingID,
		BuyerWallet:    m.BuyerWallet,
		SellerAgentID:  m.SellerAgentID,
		AmountUSDC:     m.AmountUSDC,
		Status:         entities.PurchaseStatus(m.Status),
		TxHash:         null.StringFromPtr(m.TxHash),
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
	}
}

func toListingEntity(m *models.Listing) *entities.Listing {
	return &entities.Listing{
		ID:          m.ID,
		AgentID:     m.AgentID,
		Title:       m.Title,
		ProductType: m.ProductType,
		PriceUSDC:   m.PriceUSDC,
		Status:      entities.ListingStatus(m.Status),
		CreatedAt:   m.CreatedAt,
	}
}

func toAgentEntity(m *models.Agent) *entities.Agent {
	return &entities.Agent{
		ID:            m.ID,
		Name:          m.Name,
		WalletAddress: m.WalletAddress,
		CreatedAt:     m.CreatedAt,
	}
}
