package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		v := r.values[i]
		switch p := d.(type) {
		case *string:
			*p = v.(string)
		case *bool:
			*p = v.(bool)
		case *int:
			*p = v.(int)
		case **string:
			*p = nil
			if v != nil {
				s := v.(string)
				*p = &s
			}
		case **time.Time:
			*p = nil
			if v != nil {
				ts := v.(time.Time)
				*p = &ts
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type call struct {
	sql  string
	args []any
}

// fakePgTx answers Exec with queued command tags and QueryRow with queued rows.
type fakePgTx struct {
	pgx.Tx
	tags    []string
	rows    []fakeRow
	execs   []call
	queries []call
}

func (f *fakePgTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, call{sql, args})
	if len(f.tags) == 0 {
		return pgconn.CommandTag{}, errors.New("unexpected exec")
	}
	tag := f.tags[0]
	f.tags = f.tags[1:]
	return pgconn.NewCommandTag(tag), nil
}

func (f *fakePgTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, call{sql, args})
	if len(f.rows) == 0 {
		return fakeRow{err: errors.New("unexpected query")}
	}
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row
}

var created = time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)

func requestRow(original any, createdAt any) []any {
	return []any{"o1", "u1", "player1", "deposit", "pending", "100.50", "5.00",
		"GCash", false, original, "", "", nil, createdAt}
}

func TestSelectQueryColumns(t *testing.T) {
	tests := []struct {
		source model.Source
		want   []string
	}{
		{model.Orders, []string{
			"SELECT r.order_id,", "COALESCE(r.order_type, 'deposit')", "(r.bonus_amount)::text",
			"COALESCE(r.approved_by, '')", "r.approved_at", "FROM orders r",
		}},
		{model.WalletLoads, []string{
			"SELECT r.request_id,", "'wallet_load'", "(0)::text",
			"COALESCE(r.reviewed_by, '')", "r.reviewed_at", "FROM wallet_load_requests r",
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			table, err := tableFor(tt.source)
			require.NoError(t, err)
			query := table.selectQuery()
			for _, fragment := range tt.want {
				require.Contains(t, query, fragment)
			}
			require.Contains(t, query, "r.amount::text")
			require.Contains(t, query, "LEFT JOIN users u ON u.user_id = r.user_id")
		})
	}

	_, err := tableFor(model.Source("refunds"))
	require.Error(t, err)
}

func TestScanRequest(t *testing.T) {
	scanErr := errors.New("conn closed")
	tests := []struct {
		name    string
		row     fakeRow
		wantErr error
		check   func(t *testing.T, req model.Request)
	}{
		{
			name: "adjusted amount",
			row:  fakeRow{values: requestRow("120.00", created)},
			check: func(t *testing.T, req model.Request) {
				require.Equal(t, model.Orders, req.Source)
				require.Equal(t, model.Deposit, req.Kind)
				require.Equal(t, model.Pending, req.Status)
				require.True(t, decimal.RequireFromString("100.5").Equal(req.Amount))
				require.True(t, decimal.RequireFromString("5").Equal(req.BonusAmount))
				require.NotNil(t, req.OriginalAmount)
				require.True(t, decimal.RequireFromString("120").Equal(*req.OriginalAmount))
				require.Equal(t, created, req.CreatedAt)
				require.Nil(t, req.ReviewedAt)
			},
		},
		{
			name: "null original amount",
			row:  fakeRow{values: requestRow(nil, nil)},
			check: func(t *testing.T, req model.Request) {
				require.Nil(t, req.OriginalAmount)
				require.True(t, req.CreatedAt.IsZero())
			},
		},
		{
			name:    "scan failure",
			row:     fakeRow{err: scanErr},
			wantErr: scanErr,
		},
		{
			name: "malformed amount",
			row: fakeRow{values: []any{"o1", "u1", "", "deposit", "pending", "abc", "0",
				"", false, nil, "", "", nil, nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := scanRequest(tt.row, model.Orders)
			if tt.check == nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, req)
		})
	}
}

func TestLockRequestLocksRequestRow(t *testing.T) {
	ctx := context.Background()

	fake := &fakePgTx{rows: []fakeRow{{values: requestRow(nil, created)}}}
	req, err := (&pgTx{tx: fake}).LockRequest(ctx, model.Orders, "o1")
	require.NoError(t, err)
	require.Equal(t, "o1", req.ID)
	require.Len(t, fake.queries, 1)
	require.Contains(t, fake.queries[0].sql, "WHERE r.order_id = $1 FOR UPDATE OF r")
	require.Equal(t, []any{"o1"}, fake.queries[0].args)

	fake = &fakePgTx{rows: []fakeRow{{err: pgx.ErrNoRows}}}
	_, err = (&pgTx{tx: fake}).LockRequest(ctx, model.WalletLoads, "missing")
	require.ErrorIs(t, err, errs.ErrRequestNotFound)
	require.Contains(t, fake.queries[0].sql, "WHERE r.request_id = $1 FOR UPDATE OF r")
}

func TestTransitionRequest(t *testing.T) {
	original := decimal.RequireFromString("120")
	tr := model.Transition{
		Status:         model.Approved,
		Amount:         decimal.RequireFromString("100.5"),
		AmountAdjusted: true,
		OriginalAmount: &original,
		ReviewedBy:     "admin-1",
		ReviewedAt:     created,
	}

	tests := []struct {
		name        string
		tag         string
		rows        []fakeRow
		wantApplied bool
		wantStatus  model.Status
		wantErr     error
	}{
		{name: "open row updated", tag: "UPDATE 1", wantApplied: true, wantStatus: model.Approved},
		{name: "decided concurrently", tag: "UPDATE 0", rows: []fakeRow{{values: []any{"rejected"}}}, wantStatus: model.Rejected},
		{name: "row vanished", tag: "UPDATE 0", rows: []fakeRow{{err: pgx.ErrNoRows}}, wantErr: errs.ErrRequestNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePgTx{tags: []string{tt.tag}, rows: tt.rows}
			applied, status, err := (&pgTx{tx: fake}).TransitionRequest(context.Background(), model.Orders, "o1", tr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantApplied, applied)
			require.Equal(t, tt.wantStatus, status)

			require.Len(t, fake.execs, 1)
			update := fake.execs[0]
			require.Contains(t, update.sql, "WHERE order_id = $8 AND status = ANY($9)")
			require.Contains(t, update.sql, "amount = $2::text::numeric")
			require.Contains(t, update.sql, "approved_by = $6, approved_at = $7")
			require.Equal(t, "approved", update.args[0])
			require.Equal(t, "100.5", update.args[1])
			require.Equal(t, "120", *update.args[3].(*string))
			require.Equal(t, []string{"pending", "pending_review", "initiated", "awaiting_payment_proof"}, update.args[8])

			if tt.wantApplied {
				require.Empty(t, fake.queries)
			} else {
				require.Len(t, fake.queries, 1)
				require.Equal(t, "SELECT status FROM orders WHERE order_id = $1", fake.queries[0].sql)
			}
		})
	}
}

func TestLockAccountParsesNumericText(t *testing.T) {
	fake := &fakePgTx{rows: []fakeRow{{values: []any{"u1", "player1", "1000.25", "10.00", 3, "2500.00", "400.75"}}}}
	a, err := (&pgTx{tx: fake}).LockAccount(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "player1", a.Username)
	require.Equal(t, 3, a.DepositCount)
	require.Equal(t, "1000.25", a.RealBalance.String())
	require.Equal(t, "400.75", a.TotalWithdrawn.String())
	require.Contains(t, fake.queries[0].sql, "real_balance::text")
	require.Contains(t, fake.queries[0].sql, "FOR UPDATE")

	fake = &fakePgTx{rows: []fakeRow{{err: pgx.ErrNoRows}}}
	_, err = (&pgTx{tx: fake}).LockAccount(context.Background(), "ghost")
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestSaveAccountWritesNumericText(t *testing.T) {
	a := model.Account{
		UserID:         "u1",
		RealBalance:    decimal.RequireFromString("1100.5"),
		BonusBalance:   decimal.RequireFromString("5"),
		DepositCount:   4,
		TotalDeposited: decimal.RequireFromString("2600.5"),
		TotalWithdrawn: decimal.Zero,
	}

	fake := &fakePgTx{tags: []string{"UPDATE 1"}}
	require.NoError(t, (&pgTx{tx: fake}).SaveAccount(context.Background(), a))
	require.Contains(t, fake.execs[0].sql, "real_balance = $1::text::numeric")
	require.Equal(t, []any{"1100.5", "5", 4, "2600.5", "0", "u1"}, fake.execs[0].args)

	fake = &fakePgTx{tags: []string{"UPDATE 0"}}
	require.ErrorIs(t, (&pgTx{tx: fake}).SaveAccount(context.Background(), a), errs.ErrUserNotFound)
}

func TestInsertLedgerEntryWritesNumericText(t *testing.T) {
	fake := &fakePgTx{tags: []string{"INSERT 0 1"}}
	err := (&pgTx{tx: fake}).InsertLedgerEntry(context.Background(), model.LedgerEntry{
		ID:            "l1",
		UserID:        "u1",
		Direction:     model.Credit,
		Amount:        decimal.RequireFromString("100.5"),
		BalanceBefore: decimal.RequireFromString("1000"),
		BalanceAfter:  decimal.RequireFromString("1100.5"),
		ReferenceType: "order",
		ReferenceID:   "o1",
		Description:   "Wallet top-up via GCash",
		CreatedAt:     created,
	})
	require.NoError(t, err)
	args := fake.execs[0].args
	require.Equal(t, "credit", args[2])
	require.Equal(t, []any{"100.5", "1000", "1100.5"}, args[3:6])
}
