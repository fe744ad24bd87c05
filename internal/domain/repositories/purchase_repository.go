package repositories

import (
	"context"

	"github.com/google/uuid"

	"agentmart.backend/internal/domain/entities"
)

// PrepareOutcome tags the four possible results of PreparePurchase.
type PrepareOutcome string

const (
	PrepareExisting        PrepareOutcome = "existing"
	PrepareListingNotFound PrepareOutcome = "listing_not_found"
	PrepareAgentNotFound   PrepareOutcome = "agent_not_found"
	PrepareCreated         PrepareOutcome = "created"
)

// PreparePurchaseResult carries the outcome of the prepare transaction.
// Purchase is set for Existing and Created; Listing and SellerAgent only
// for Created.
type PreparePurchaseResult struct {
	Outcome     PrepareOutcome
	Purchase    *entities.Purchase
	Listing     *entities.Listing
	SellerAgent *entities.Agent
}

// PurchaseRepository implements the read-then-decide-then-write sequences
// of the purchase path.
type PurchaseRepository interface {
	// PreparePurchase runs one transaction: replay lookup by idempotency
	// key, active-listing and seller-agent loads, then insert of a pending
	// purchase priced from the listing. A unique-violation race on the
	// idempotency key resolves to the existing row, never an error.
	PreparePurchase(ctx context.Context, input *entities.CreatePurchaseInput) (*PreparePurchaseResult, error)

	// MarkFailed moves a pending purchase to failed.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// Complete moves a pending purchase to completed, recording the
	// settlement reference and the wallet that actually paid. Returns the
	// updated row.
	Complete(ctx context.Context, id uuid.UUID, txHash, buyerWallet string) (*entities.Purchase, error)

	// List returns purchases matching the filters, newest first, plus the
	// total match count.
	List(ctx context.Context, filters *entities.PurchaseListFilters) ([]*entities.Purchase, int64, error)
}

// AgentRepository exposes the agent reads the settlement core needs.
type AgentRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
