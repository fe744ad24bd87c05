package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	domainRepos "agentmart.backend/internal/domain/repositories"
)

func TestPurchaseRepository_PreparePurchase_Created(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "12.50", "active")

	result, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:0001",
	})
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareCreated, result.Outcome)
	require.Equal(t, entities.PurchaseStatusPending, result.Purchase.Status)
	require.Equal(t, "12.5", result.Purchase.AmountUSDC.String())
	require.Equal(t, "0xbuyer", result.Purchase.BuyerWallet)
	require.Equal(t, agentID, result.Purchase.SellerAgentID)
	require.NotNil(t, result.Listing)
	require.NotNil(t, result.SellerAgent)
	require.Equal(t, "0xseller", result.SellerAgent.WalletAddress)
}

func TestPurchaseRepository_PreparePurchase_Replay(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "3.00", "active")

	input := &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:replay",
	}

	first, err := repo.PreparePurchase(ctx, input)
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareCreated, first.Outcome)

	// Same key replays the stored purchase even if the listing would now
	// be rejected.
	mustExec(t, db, `UPDATE listings SET status = 'archived' WHERE id = ?`, listingID.String())

	second, err := repo.PreparePurchase(ctx, input)
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareExisting, second.Outcome)
	require.Equal(t, first.Purchase.ID, second.Purchase.ID)

	var count int64
	require.NoError(t, db.Table("purchases").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPurchaseRepository_PreparePurchase_ListingNotFound(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	result, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      uuid.New(),
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:missing",
	})
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareListingNotFound, result.Outcome)
}

func TestPurchaseRepository_PreparePurchase_ArchivedListing(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "5.00", "archived")

	result, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:archived",
	})
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareListingNotFound, result.Outcome)
}

func TestPurchaseRepository_PreparePurchase_AgentNotFound(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	listingID := seedListing(t, db, uuid.New(), "5.00", "active")

	result, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:orphan",
	})
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareAgentNotFound, result.Outcome)
}

func TestPurchaseRepository_StatusTransitions(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "1.00", "active")

	prep, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:final",
	})
	require.NoError(t, err)
	id := prep.Purchase.ID

	completed, err := repo.Complete(ctx, id, "0xhash", "0xrealbuyer")
	require.NoError(t, err)
	require.Equal(t, entities.PurchaseStatusCompleted, completed.Status)
	require.Equal(t, "0xhash", completed.TxHash.String)
	require.Equal(t, "0xrealbuyer", completed.BuyerWallet)

	// Terminal states never move again.
	require.ErrorIs(t, repo.MarkFailed(ctx, id), domainerrors.ErrNotFound)
	_, err = repo.Complete(ctx, id, "0xother", "0xbuyer")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestPurchaseRepository_MarkFailed(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "1.00", "active")

	prep, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:fail",
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkFailed(ctx, prep.Purchase.ID))

	_, err = repo.Complete(ctx, prep.Purchase.ID, "0xhash", "0xbuyer")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.ErrorIs(t, repo.MarkFailed(ctx, uuid.New()), domainerrors.ErrNotFound)
}

func TestPurchaseRepository_List(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	repo := NewPurchaseRepository(db, NewUnitOfWork(db))
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingA := seedListing(t, db, agentID, "1.00", "active")
	listingB := seedListing(t, db, agentID, "2.00", "active")

	for i, lid := range []uuid.UUID{listingA, listingA, listingB} {
		prep, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
			ListingID:      lid,
			BuyerWallet:    "0xbuyer",
			IdempotencyKey: "purchase:test:list:" + string(rune('a'+i)),
		})
		require.NoError(t, err)
		require.Equal(t, domainRepos.PrepareCreated, prep.Outcome)
	}

	all, total, err := repo.List(ctx, &entities.PurchaseListFilters{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.EqualValues(t, 3, total)

	byListing, total, err := repo.List(ctx, &entities.PurchaseListFilters{ListingID: &listingA, Limit: 50})
	require.NoError(t, err)
	require.Len(t, byListing, 2)
	require.EqualValues(t, 2, total)

	paged, total, err := repo.List(ctx, &entities.PurchaseListFilters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	require.EqualValues(t, 3, total)

	byStatus, _, err := repo.List(ctx, &entities.PurchaseListFilters{Status: "completed", Limit: 50})
	require.NoError(t, err)
	require.Empty(t, byStatus)
}

// failingUnitOfWork never runs the transaction body and surfaces a fixed
// error, standing in for a commit-time failure.
type failingUnitOfWork struct {
	err error
}

func (u *failingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.err
}

func TestPurchaseRepository_PreparePurchase_InsertRaceReturnsWinner(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "5.00", "active")

	input := &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:race",
	}

	winner, err := NewPurchaseRepository(db, NewUnitOfWork(db)).PreparePurchase(ctx, input)
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareCreated, winner.Outcome)

	// The loser's transaction fails at commit with a unique violation on the
	// idempotency key; it must recover by reading the committed row.
	conflict := &pq.Error{Code: "23505", Constraint: "idx_purchases_idempotency_key"}
	loser := NewPurchaseRepository(db, &failingUnitOfWork{err: conflict})

	result, err := loser.PreparePurchase(ctx, input)
	require.NoError(t, err)
	require.Equal(t, domainRepos.PrepareExisting, result.Outcome)
	require.Equal(t, winner.Purchase.ID, result.Purchase.ID)
}

func TestPurchaseRepository_PreparePurchase_OtherConstraintViolationPropagates(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createListingTable(t, db)
	createPurchaseTable(t, db)
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xseller")
	listingID := seedListing(t, db, agentID, "5.00", "active")

	violation := &pq.Error{Code: "23505", Constraint: "idx_purchases_tx_hash"}
	repo := NewPurchaseRepository(db, &failingUnitOfWork{err: violation})

	result, err := repo.PreparePurchase(ctx, &entities.CreatePurchaseInput{
		ListingID:      listingID,
		BuyerWallet:    "0xbuyer",
		IdempotencyKey: "purchase:test:other-constraint",
	})
	require.Nil(t, result)
	require.ErrorIs(t, err, violation)
}

func TestIsIdempotencyConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
			want: false,
		},
		{
			name: "postgres unique violation on the idempotency key",
			err:  &pq.Error{Code: "23505", Constraint: "idx_purchases_idempotency_key"},
			want: true,
		},
		{
			name: "postgres unique violation on another constraint",
			err:  &pq.Error{Code: "23505", Constraint: "idx_purchases_tx_hash"},
			want: false,
		},
		{
			name: "postgres error with a different code",
			err:  &pq.Error{Code: "23503", Constraint: "idx_purchases_idempotency_key"},
			want: false,
		},
		{
			name: "pgx-style message naming the constraint",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "idx_purchases_idempotency_key" (SQLSTATE 23505)`),
			want: true,
		},
		{
			name: "sqlite unique violation on the idempotency column",
			err:  errors.New("UNIQUE constraint failed: purchases.idempotency_key"),
			want: true,
		},
		{
			name: "sqlite unique violation on another column",
			err:  errors.New("UNIQUE constraint failed: purchases.tx_hash"),
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection reset by peer"),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isIdempotencyConflict(tc.err))
		})
	}
}
