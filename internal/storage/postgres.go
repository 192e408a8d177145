package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/and161185/gamewallet/internal/approval"
	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStorage struct {
	db *pgxpool.Pool
}

func (store *PostgresStorage) initSchema(ctx context.Context) error {
	const initSchemaQuery = `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		display_name TEXT,
		real_balance NUMERIC(18,2) NOT NULL DEFAULT 0,
		bonus_balance NUMERIC(18,2) NOT NULL DEFAULT 0,
		deposit_count INT NOT NULL DEFAULT 0,
		total_deposited NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_withdrawn NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		order_type TEXT NOT NULL DEFAULT 'deposit',
		status TEXT NOT NULL DEFAULT 'pending',
		amount NUMERIC(18,2) NOT NULL,
		bonus_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		payment_method TEXT,
		amount_adjusted BOOLEAN NOT NULL DEFAULT FALSE,
		original_amount NUMERIC(18,2),
		rejection_reason TEXT,
		approved_by TEXT,
		approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS wallet_load_requests (
		request_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		amount NUMERIC(18,2) NOT NULL,
		payment_method TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		amount_adjusted BOOLEAN NOT NULL DEFAULT FALSE,
		original_amount NUMERIC(18,2),
		rejection_reason TEXT,
		reviewed_by TEXT,
		reviewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS wallet_ledger (
		ledger_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		transaction_type TEXT NOT NULL CHECK (transaction_type IN ('credit', 'debit')),
		amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
		balance_before NUMERIC(18,2) NOT NULL,
		balance_after NUMERIC(18,2) NOT NULL,
		reference_type TEXT NOT NULL,
		reference_id TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS wallet_ledger_reference_idx ON wallet_ledger (reference_type, reference_id);
	CREATE TABLE IF NOT EXISTS telegram_bots (
		bot_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		can_approve_payments BOOLEAN NOT NULL DEFAULT FALSE,
		can_approve_wallet_loads BOOLEAN NOT NULL DEFAULT FALSE,
		can_approve_withdrawals BOOLEAN NOT NULL DEFAULT FALSE,
		api_secret_hash TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS events (
		event_id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		reference_id TEXT NOT NULL,
		reference_type TEXT NOT NULL,
		user_id TEXT,
		title TEXT,
		message TEXT,
		amount NUMERIC(18,2),
		extra_data JSONB,
		requires_action BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);`

	_, err := store.db.Exec(ctx, initSchemaQuery)
	return err
}

func NewPostgreStorage(ctx context.Context, DatabaseURI string) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, DatabaseURI)
	if err != nil {
		return nil, err
	}

	storage := &PostgresStorage{db: db}

	if err := storage.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := storage.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

func (store *PostgresStorage) Close() {
	store.db.Close()
}

func (s *PostgresStorage) InTx(ctx context.Context, fn func(tx approval.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetRequest(ctx context.Context, source model.Source, id string) (model.Request, error) {
	t, err := tableFor(source)
	if err != nil {
		return model.Request{}, err
	}

	req, err := scanRequest(s.db.QueryRow(ctx, t.selectQuery()+" WHERE r."+t.idColumn+" = $1", id), source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Request{}, errs.ErrRequestNotFound
		}
		return model.Request{}, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// ListPending returns every open order and wallet load request, newest first.
func (s *PostgresStorage) ListPending(ctx context.Context) ([]model.Request, error) {
	var list []model.Request
	for _, source := range []model.Source{model.Orders, model.WalletLoads} {
		t, _ := tableFor(source)
		query := t.selectQuery() + " WHERE r.status = ANY($1) ORDER BY r.created_at DESC"

		rows, err := s.db.Query(ctx, query, openStatuses())
		if err != nil {
			return nil, fmt.Errorf("list pending %s: %w", source, err)
		}

		for rows.Next() {
			req, err := scanRequest(rows, source)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan request: %w", err)
			}
			list = append(list, req)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows error: %w", err)
		}
	}

	slices.SortStableFunc(list, func(a, b model.Request) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list, nil
}

func (s *PostgresStorage) GetBot(ctx context.Context, botID string) (model.Bot, error) {
	const query = `
		SELECT bot_id, name, is_active, can_approve_payments, can_approve_wallet_loads,
			can_approve_withdrawals, COALESCE(api_secret_hash, '')
		FROM telegram_bots
		WHERE bot_id = $1`

	var b model.Bot
	err := s.db.QueryRow(ctx, query, botID).Scan(
		&b.ID, &b.Name, &b.IsActive, &b.CanApprovePayments, &b.CanApproveWalletLoads,
		&b.CanApproveWithdrawals, &b.SecretHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bot{}, errs.ErrBotNotFound
		}
		return model.Bot{}, fmt.Errorf("get bot: %w", err)
	}
	return b, nil
}

func (s *PostgresStorage) SaveEvent(ctx context.Context, e model.Event) error {
	const query = `
		INSERT INTO events (event_id, event_type, reference_id, reference_type, user_id, title,
			message, amount, extra_data, requires_action, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8::text::numeric, $9, $10, $11)
		ON CONFLICT (event_id) DO NOTHING`

	_, err := s.db.Exec(ctx, query, e.ID, string(e.Type), e.ReferenceID, e.ReferenceType, e.UserID,
		e.Title, e.Message, e.Amount.String(), e.Extra, e.RequiresAction, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}
