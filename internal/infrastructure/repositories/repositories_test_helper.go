package repositories

import (
	"fmt"
	"testing"
	"time"

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

func createSettlementRequestTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settlement_requests (
		id TEXT PRIMARY KEY,
		idempotency_key TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		rune_key TEXT NOT NULL,
		rune_name TEXT,
		amount INTEGER NOT NULL,
		destination_address TEXT NOT NULL,
		mode TEXT NOT NULL,
		custom_fee_rate REAL,
		fee_rate_sat_per_vb REAL NOT NULL DEFAULT 0,
		fee_total_sats INTEGER NOT NULL DEFAULT 0,
		fee_usd REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		batch_id TEXT,
		txid TEXT,
		confirmations INTEGER NOT NULL DEFAULT 0,
		failure_reason TEXT,
		archived BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		UNIQUE (owner_id, idempotency_key)
	);`)
}

func createSettlementEventTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settlement_events (
		id TEXT PRIMARY KEY,
		settlement_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME
	);`)
}

func createBatchTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE batch_windows (
		id TEXT PRIMARY KEY,
		fee_cohort TEXT NOT NULL,
		target_size INTEGER NOT NULL,
		max_wait_ms INTEGER NOT NULL,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE batch_members (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		settlement_id TEXT NOT NULL UNIQUE,
		join_index INTEGER NOT NULL,
		fee_share_sats INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME
	);`)
}

func createRuneBalanceTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE rune_balances (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		rune_key TEXT NOT NULL,
		rune_name TEXT,
		total_amount INTEGER NOT NULL DEFAULT 0,
		held_amount INTEGER NOT NULL DEFAULT 0,
		settled_amount INTEGER NOT NULL DEFAULT 0,
		native_txid TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (owner_id, rune_key)
	);`)
}

func createSavedAddressTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE saved_addresses (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		address TEXT NOT NULL,
		label TEXT NOT NULL,
		type TEXT,
		network TEXT,
		is_primary BOOLEAN NOT NULL DEFAULT 0,
		use_count INTEGER NOT NULL DEFAULT 0,
		last_used_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		UNIQUE (owner_id, address)
	);`)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}
