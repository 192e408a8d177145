package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// requestTable maps the columns a request source keeps under different names.
type requestTable struct {
	name          string
	idColumn      string
	kindExpr      string
	bonusExpr     string
	reviewerCol   string
	reviewedAtCol string
}

var requestTables = map[model.Source]requestTable{
	model.Orders: {
		name:          "orders",
		idColumn:      "order_id",
		kindExpr:      "COALESCE(r.order_type, 'deposit')",
		bonusExpr:     "r.bonus_amount",
		reviewerCol:   "approved_by",
		reviewedAtCol: "approved_at",
	},
	model.WalletLoads: {
		name:          "wallet_load_requests",
		idColumn:      "request_id",
		kindExpr:      "'wallet_load'",
		bonusExpr:     "0",
		reviewerCol:   "reviewed_by",
		reviewedAtCol: "reviewed_at",
	},
}

func tableFor(source model.Source) (requestTable, error) {
	t, ok := requestTables[source]
	if !ok {
		return requestTable{}, fmt.Errorf("unknown request source %q", source)
	}
	return t, nil
}

func (t requestTable) selectQuery() string {
	return fmt.Sprintf(`
		SELECT r.%[2]s, r.user_id, COALESCE(u.username, ''), %[3]s, r.status, r.amount::text,
			(%[4]s)::text, COALESCE(r.payment_method, ''), r.amount_adjusted, r.original_amount::text,
			COALESCE(r.rejection_reason, ''), COALESCE(r.%[5]s, ''), r.%[6]s, r.created_at
		FROM %[1]s r
		LEFT JOIN users u ON u.user_id = r.user_id`,
		t.name, t.idColumn, t.kindExpr, t.bonusExpr, t.reviewerCol, t.reviewedAtCol)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner, source model.Source) (model.Request, error) {
	var (
		req                   model.Request
		kind, status          string
		amount, bonus         string
		original              *string
		reviewedAt, createdAt *time.Time
	)
	err := row.Scan(&req.ID, &req.UserID, &req.Username, &kind, &status, &amount, &bonus,
		&req.PaymentMethod, &req.AmountAdjusted, &original, &req.RejectionReason, &req.ReviewedBy,
		&reviewedAt, &createdAt)
	if err != nil {
		return model.Request{}, err
	}

	req.Source = source
	req.Kind = model.Kind(kind)
	req.Status = model.Status(status)
	req.ReviewedAt = reviewedAt
	if createdAt != nil {
		req.CreatedAt = *createdAt
	}
	if req.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Request{}, fmt.Errorf("parse amount: %w", err)
	}
	if req.BonusAmount, err = decimal.NewFromString(bonus); err != nil {
		return model.Request{}, fmt.Errorf("parse bonus amount: %w", err)
	}
	if original != nil {
		d, err := decimal.NewFromString(*original)
		if err != nil {
			return model.Request{}, fmt.Errorf("parse original amount: %w", err)
		}
		req.OriginalAmount = &d
	}
	return req, nil
}

func openStatuses() []string {
	open := model.OpenStatuses()
	list := make([]string, 0, len(open))
	for _, s := range open {
		list = append(list, string(s))
	}
	return list
}

// pgTx implements approval.Tx on top of one pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockRequest(ctx context.Context, source model.Source, id string) (model.Request, error) {
	table, err := tableFor(source)
	if err != nil {
		return model.Request{}, err
	}

	query := table.selectQuery() + " WHERE r." + table.idColumn + " = $1 FOR UPDATE OF r"
	req, err := scanRequest(t.tx.QueryRow(ctx, query, id), source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Request{}, errs.ErrRequestNotFound
		}
		return model.Request{}, fmt.Errorf("select request for update: %w", err)
	}
	return req, nil
}

func (t *pgTx) TransitionRequest(ctx context.Context, source model.Source, id string, tr model.Transition) (bool, model.Status, error) {
	table, err := tableFor(source)
	if err != nil {
		return false, "", err
	}

	var original *string
	if tr.OriginalAmount != nil {
		s := tr.OriginalAmount.String()
		original = &s
	}

	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET status = $1, amount = $2::text::numeric, amount_adjusted = $3,
			original_amount = $4::text::numeric, rejection_reason = NULLIF($5, ''),
			%[3]s = $6, %[4]s = $7, updated_at = NOW()
		WHERE %[2]s = $8 AND status = ANY($9)`,
		table.name, table.idColumn, table.reviewerCol, table.reviewedAtCol)

	cmdTag, err := t.tx.Exec(ctx, query, string(tr.Status), tr.Amount.String(), tr.AmountAdjusted,
		original, tr.RejectionReason, tr.ReviewedBy, tr.ReviewedAt, id, openStatuses())
	if err != nil {
		return false, "", fmt.Errorf("update request status: %w", err)
	}
	if cmdTag.RowsAffected() == 1 {
		return true, tr.Status, nil
	}

	var current string
	statusQuery := fmt.Sprintf(`SELECT status FROM %s WHERE %s = $1`, table.name, table.idColumn)
	err = t.tx.QueryRow(ctx, statusQuery, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", errs.ErrRequestNotFound
		}
		return false, "", fmt.Errorf("select request status: %w", err)
	}
	return false, model.Status(current), nil
}

func (t *pgTx) LockAccount(ctx context.Context, userID string) (model.Account, error) {
	const query = `
		SELECT user_id, username, real_balance::text, bonus_balance::text, deposit_count,
			total_deposited::text, total_withdrawn::text
		FROM users
		WHERE user_id = $1
		FOR UPDATE`

	var (
		a                              model.Account
		realBal, bonus, dep, withdrawn string
	)
	err := t.tx.QueryRow(ctx, query, userID).Scan(&a.UserID, &a.Username, &realBal, &bonus,
		&a.DepositCount, &dep, &withdrawn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, errs.ErrUserNotFound
		}
		return model.Account{}, fmt.Errorf("select user for update: %w", err)
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&a.RealBalance, realBal},
		{&a.BonusBalance, bonus},
		{&a.TotalDeposited, dep},
		{&a.TotalWithdrawn, withdrawn},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return model.Account{}, fmt.Errorf("parse balance: %w", err)
		}
	}
	return a, nil
}

func (t *pgTx) SaveAccount(ctx context.Context, a model.Account) error {
	const query = `
		UPDATE users
		SET real_balance = $1::text::numeric, bonus_balance = $2::text::numeric, deposit_count = $3,
			total_deposited = $4::text::numeric, total_withdrawn = $5::text::numeric, updated_at = NOW()
		WHERE user_id = $6`

	cmdTag, err := t.tx.Exec(ctx, query, a.RealBalance.String(), a.BonusBalance.String(), a.DepositCount,
		a.TotalDeposited.String(), a.TotalWithdrawn.String(), a.UserID)
	if err != nil {
		return fmt.Errorf("update user balance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (t *pgTx) InsertLedgerEntry(ctx context.Context, e model.LedgerEntry) error {
	const query = `
		INSERT INTO wallet_ledger (ledger_id, user_id, transaction_type, amount, balance_before,
			balance_after, reference_type, reference_id, description, created_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6::text::numeric, $7, $8, $9, $10)`

	_, err := t.tx.Exec(ctx, query, e.ID, e.UserID, string(e.Direction), e.Amount.String(),
		e.BalanceBefore.String(), e.BalanceAfter.String(), e.ReferenceType, e.ReferenceID,
		e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}
