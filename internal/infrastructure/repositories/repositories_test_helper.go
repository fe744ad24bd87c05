package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createAgentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		wallet_address TEXT NOT NULL,
		created_at DATETIME
	);`)
}

func createListingTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE listings (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		product_type TEXT NOT NULL,
		price_usdc NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME
	);`)
}

func createPurchaseTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE purchases (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL,
		buyer_wallet TEXT NOT NULL,
		seller_agent_id TEXT NOT NULL,
		amount_usdc NUMERIC NOT NULL,
		tx_hash TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		idempotency_key TEXT NOT NULL UNIQUE,
		created_at DATETIME
	);`)
}

func createAutoPaymentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE auto_payments (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		recipient_address TEXT NOT NULL,
		amount_usdc NUMERIC NOT NULL,
		interval_seconds INTEGER NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT true,
		last_executed_at DATETIME,
		created_at DATETIME
	);`)
}

func createTxVerificationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE tx_verifications (
		id TEXT PRIMARY KEY,
		tx_hash TEXT NOT NULL UNIQUE,
		experiment_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		gas_used NUMERIC,
		revert_reason TEXT,
		block_number INTEGER,
		attempts INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createWebhookTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		url TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at DATETIME
	);`)
}

func createAuditLogTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		agent_id TEXT,
		action TEXT NOT NULL,
		metadata TEXT DEFAULT '{}',
		created_at DATETIME
	);`)
}

func createExperimentEventTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE experiment_events (
		id TEXT PRIMARY KEY,
		ts DATETIME NOT NULL,
		experiment_id TEXT NOT NULL,
		condition TEXT NOT NULL DEFAULT 'A',
		agent_id TEXT,
		session_id TEXT,
		event TEXT NOT NULL,
		product_id TEXT,
		price_usdc NUMERIC,
		tx_hash TEXT,
		status TEXT,
		reason TEXT,
		metadata TEXT DEFAULT '{}'
	);`)
}

func seedAgent(t *testing.T, db *gorm.DB, wallet string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	mustExec(t, db, `INSERT INTO agents(id,name,wallet_address,created_at) VALUES (?,?,?,?)`,
		id.String(), "agent-"+id.String()[:8], wallet, time.Now())
	return id
}

func seedListing(t *testing.T, db *gorm.DB, agentID uuid.UUID, price string, status string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	mustExec(t, db, `INSERT INTO listings(id,agent_id,title,product_type,price_usdc,status,created_at) VALUES (?,?,?,?,?,?,?)`,
		id.String(), agentID.String(), "listing-"+id.String()[:8], "dataset", price, status, time.Now())
	return id
}
