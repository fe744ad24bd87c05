package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
)

func TestAutoPaymentRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createAutoPaymentTable(t, db)
	repo := NewAutoPaymentRepository(db)
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xagent")

	created, err := repo.Create(ctx, &entities.CreateAutoPaymentInput{
		AgentID:          agentID,
		RecipientAddress: "0xrecipient",
		AmountUSDC:       decimal.RequireFromString("1.25"),
		IntervalSeconds:  3600,
		Description:      null.StringFrom("hourly retainer"),
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.False(t, created.LastExecutedAt.Valid)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "hourly retainer", got.Description.String)
	require.Equal(t, 3600, got.IntervalSeconds)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAutoPaymentRepository_FindDue(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createAutoPaymentTable(t, db)
	repo := NewAutoPaymentRepository(db)
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xagent")
	now := time.Now().UTC()

	insert := func(lastExecuted *time.Time, active bool, interval int) uuid.UUID {
		id := uuid.New()
		mustExec(t, db, `INSERT INTO auto_payments(id,agent_id,recipient_address,amount_usdc,interval_seconds,is_active,last_executed_at,created_at)
			VALUES (?,?,?,?,?,?,?,?)`,
			id.String(), agentID.String(), "0xrecipient", "1.00", interval, active, lastExecuted, now)
		return id
	}

	neverExecuted := insert(nil, true, 3600)
	elapsed := now.Add(-2 * time.Hour)
	overdue := insert(&elapsed, true, 3600)
	recent := now.Add(-time.Minute)
	insert(&recent, true, 3600)
	insert(nil, false, 3600)
	// Clock skew: a last execution in the future is never due.
	future := now.Add(time.Hour)
	insert(&future, true, 3600)

	due, err := repo.FindDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)

	dueIDs := map[uuid.UUID]string{}
	for _, d := range due {
		dueIDs[d.ID] = d.AgentWalletAddress
	}
	require.Contains(t, dueIDs, neverExecuted)
	require.Contains(t, dueIDs, overdue)
	require.Equal(t, "0xagent", dueIDs[overdue])
}

func TestAutoPaymentRepository_TouchExecuted(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	createAutoPaymentTable(t, db)
	repo := NewAutoPaymentRepository(db)
	ctx := context.Background()

	agentID := seedAgent(t, db, "0xagent")
	created, err := repo.Create(ctx, &entities.CreateAutoPaymentInput{
		AgentID:          agentID,
		RecipientAddress: "0xrecipient",
		AmountUSDC:       decimal.RequireFromString("2.00"),
		IntervalSeconds:  600,
	})
	require.NoError(t, err)

	at := time.Now().UTC()
	require.NoError(t, repo.TouchExecuted(ctx, created.ID, at))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, got.LastExecutedAt.Valid)

	// A schedule just executed is not due until its interval elapses.
	due, err := repo.FindDue(ctx, at.Add(time.Minute))
	require.NoError(t, err)
	require.Empty(t, due)

	due, err = repo.FindDue(ctx, at.Add(11*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.ErrorIs(t, repo.TouchExecuted(ctx, uuid.New(), at), domainerrors.ErrNotFound)
}
