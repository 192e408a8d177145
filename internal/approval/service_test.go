package approval_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/and161185/gamewallet/internal/approval"
	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/metrics"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/and161185/gamewallet/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)

type recordingEmitter struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEmitter) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, model.Event) error {
	return errors.New("broker unavailable")
}

type panickingEmitter struct{}

func (panickingEmitter) Emit(context.Context, model.Event) error {
	panic("sink exploded")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func setup(t *testing.T, emitter approval.Emitter, opts ...approval.Option) (*approval.Service, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	store.AddAccount(model.Account{UserID: "u1", Username: "player1", RealBalance: dec("1000"), BonusBalance: dec("0")})
	store.AddAccount(model.Account{UserID: "u2", Username: "player2", RealBalance: dec("1500"), BonusBalance: dec("0")})

	opts = append([]approval.Option{approval.WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := approval.NewService(store, store, emitter, zaptest.NewLogger(t).Sugar(), opts...)
	return svc, store
}

func order(id, userID string, kind model.Kind, amount string) model.Request {
	return model.Request{
		ID:            id,
		Source:        model.Orders,
		UserID:        userID,
		Kind:          kind,
		Status:        model.Pending,
		Amount:        dec(amount),
		PaymentMethod: "GCash",
		CreatedAt:     fixedNow.Add(-time.Hour),
	}
}

func walletLoad(id, userID, amount string) model.Request {
	return model.Request{
		ID:            id,
		Source:        model.WalletLoads,
		UserID:        userID,
		Kind:          model.WalletLoad,
		Status:        model.Pending,
		Amount:        dec(amount),
		PaymentMethod: "GCash",
		CreatedAt:     fixedNow.Add(-time.Hour),
	}
}

func approve(source model.Source, id string) model.Decision {
	return model.Decision{Source: source, RequestID: id, Action: model.Approve, Actor: model.Admin("admin-1")}
}

func TestWalletLoadApprovedOnce(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	store.AddRequest(walletLoad("wl-1", "u1", "500"))

	out, err := svc.Decide(context.Background(), approve(model.WalletLoads, "wl-1"))
	require.NoError(t, err)
	require.True(t, out.Success)
	require.False(t, out.AlreadyProcessed)
	require.Equal(t, model.Approved, out.Status)
	require.Equal(t, "Wallet load approved", out.Message)
	require.NotNil(t, out.NewBalance)
	requireAmount(t, "1500", *out.NewBalance)

	account, _ := store.Account("u1")
	requireAmount(t, "1500", account.RealBalance)
	require.Equal(t, 1, account.DepositCount)
	requireAmount(t, "500", account.TotalDeposited)

	entries := store.LedgerEntries("u1")
	require.Len(t, entries, 1)
	require.Equal(t, model.Credit, entries[0].Direction)
	requireAmount(t, "500", entries[0].Amount)
	requireAmount(t, "1000", entries[0].BalanceBefore)
	requireAmount(t, "1500", entries[0].BalanceAfter)
	require.Equal(t, "wallet_load", entries[0].ReferenceType)
	require.Equal(t, "wl-1", entries[0].ReferenceID)
	require.Equal(t, "Wallet load via GCash", entries[0].Description)

	again, err := svc.Decide(context.Background(), approve(model.WalletLoads, "wl-1"))
	require.NoError(t, err)
	require.False(t, again.Success)
	require.True(t, again.AlreadyProcessed)
	require.Equal(t, model.Approved, again.Status)

	account, _ = store.Account("u1")
	requireAmount(t, "1500", account.RealBalance)
	require.Len(t, store.LedgerEntries("u1"), 1)

	evs := emitter.Events()
	require.Len(t, evs, 1)
	require.Equal(t, model.WalletLoadApproved, evs[0].Type)
	require.Equal(t, "wallet_load", evs[0].ReferenceType)
	require.Equal(t, "1500", evs[0].Extra["new_balance"])
}

func TestWithdrawalInsufficientBalanceLeavesRequestOpen(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	store.AddRequest(order("o-1", "u2", model.Withdrawal, "2000"))

	_, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)

	req, _ := store.Request(model.Orders, "o-1")
	require.Equal(t, model.Pending, req.Status)
	require.Empty(t, req.ReviewedBy)

	account, _ := store.Account("u2")
	requireAmount(t, "1500", account.RealBalance)
	require.True(t, account.TotalWithdrawn.IsZero())
	require.Empty(t, store.LedgerEntries("u2"))
	require.Empty(t, emitter.Events())
}

func TestWithdrawalApproved(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	req := order("o-1", "u2", model.Withdrawal, "500")
	req.PaymentMethod = "Bank"
	store.AddRequest(req)

	out, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
	require.NoError(t, err)
	require.Equal(t, "Order approved successfully", out.Message)
	requireAmount(t, "1000", *out.NewBalance)

	account, _ := store.Account("u2")
	requireAmount(t, "1000", account.RealBalance)
	requireAmount(t, "500", account.TotalWithdrawn)
	require.Zero(t, account.DepositCount)

	entries := store.LedgerEntries("u2")
	require.Len(t, entries, 1)
	require.Equal(t, model.Debit, entries[0].Direction)
	require.Equal(t, "withdrawal", entries[0].ReferenceType)
	require.Equal(t, "Withdrawal to Bank", entries[0].Description)

	evs := emitter.Events()
	require.Len(t, evs, 1)
	require.Equal(t, model.WithdrawalApproved, evs[0].Type)
}

func TestCreditKindsConserveBalance(t *testing.T) {
	tests := []struct {
		name      string
		kind      model.Kind
		wantEvent model.EventType
	}{
		{"deposit", model.Deposit, model.OrderApproved},
		{"wallet topup", model.WalletTopup, model.WalletTopupApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emitter := &recordingEmitter{}
			svc, store := setup(t, emitter)
			req := order("o-1", "u1", tt.kind, "100")
			req.BonusAmount = dec("20")
			req.PaymentMethod = ""
			store.AddRequest(req)

			_, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
			require.NoError(t, err)

			account, _ := store.Account("u1")
			requireAmount(t, "1100", account.RealBalance)
			requireAmount(t, "20", account.BonusBalance)
			require.Equal(t, 1, account.DepositCount)

			entries := store.LedgerEntries("u1")
			require.Len(t, entries, 1)
			require.Equal(t, "order", entries[0].ReferenceType)
			require.Equal(t, "Wallet top-up via N/A", entries[0].Description)
			requireAmount(t, "100", entries[0].BalanceAfter.Sub(entries[0].BalanceBefore))

			evs := emitter.Events()
			require.Len(t, evs, 1)
			require.Equal(t, tt.wantEvent, evs[0].Type)
		})
	}
}

func TestGameLoadOnlyTransitions(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	store.AddRequest(order("o-1", "u1", model.GameLoad, "300"))

	out, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Nil(t, out.NewBalance)

	req, _ := store.Request(model.Orders, "o-1")
	require.Equal(t, model.Approved, req.Status)

	account, _ := store.Account("u1")
	requireAmount(t, "1000", account.RealBalance)
	require.Empty(t, store.LedgerEntries("u1"))

	evs := emitter.Events()
	require.Len(t, evs, 1)
	require.Equal(t, model.GameLoadApproved, evs[0].Type)
}

func TestRejectHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name       string
		req        model.Request
		reason     string
		wantReason string
		wantEvent  model.EventType
		wantMsg    string
	}{
		{"order default reason", order("o-1", "u1", model.Deposit, "100"), "", "Rejected by reviewer", model.OrderRejected, "Order rejected"},
		{"withdrawal", order("o-1", "u1", model.Withdrawal, "100"), "Suspicious", "Suspicious", model.WithdrawalRejected, "Order rejected"},
		{"game load", order("o-1", "u1", model.GameLoad, "100"), "", "Rejected by reviewer", model.GameLoadRejected, "Order rejected"},
		{"wallet load", walletLoad("o-1", "u1", "100"), "Blurry proof", "Blurry proof", model.WalletLoadRejected, "Wallet load rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emitter := &recordingEmitter{}
			svc, store := setup(t, emitter)
			store.AddRequest(tt.req)

			out, err := svc.Decide(context.Background(), model.Decision{
				Source:          tt.req.Source,
				RequestID:       tt.req.ID,
				Action:          model.Reject,
				Actor:           model.Admin("admin-1"),
				RejectionReason: tt.reason,
			})
			require.NoError(t, err)
			require.True(t, out.Success)
			require.Equal(t, model.Rejected, out.Status)
			require.Equal(t, tt.wantReason, out.Reason)
			require.Equal(t, tt.wantMsg, out.Message)

			req, _ := store.Request(tt.req.Source, tt.req.ID)
			require.Equal(t, model.Rejected, req.Status)
			require.Equal(t, tt.wantReason, req.RejectionReason)
			require.Equal(t, "admin-1", req.ReviewedBy)
			require.NotNil(t, req.ReviewedAt)

			account, _ := store.Account("u1")
			requireAmount(t, "1000", account.RealBalance)
			require.Zero(t, account.DepositCount)
			require.Empty(t, store.LedgerEntries("u1"))

			evs := emitter.Events()
			require.Len(t, evs, 1)
			require.Equal(t, tt.wantEvent, evs[0].Type)
			require.Equal(t, tt.wantReason, evs[0].Extra["reason"])
			require.Equal(t, "admin-1", evs[0].Extra["rejected_by"])
		})
	}
}

func TestAmountAdjustment(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	store.AddRequest(order("o-1", "u1", model.WalletTopup, "100"))

	d := approve(model.Orders, "o-1")
	d.FinalAmount = ptr(dec("80"))
	out, err := svc.Decide(context.Background(), d)
	require.NoError(t, err)
	require.True(t, out.AmountAdjusted)
	requireAmount(t, "80", out.Amount)
	require.NotNil(t, out.OriginalAmount)
	requireAmount(t, "100", *out.OriginalAmount)

	req, _ := store.Request(model.Orders, "o-1")
	require.True(t, req.AmountAdjusted)
	requireAmount(t, "80", req.Amount)
	requireAmount(t, "100", *req.OriginalAmount)

	account, _ := store.Account("u1")
	requireAmount(t, "1080", account.RealBalance)

	evs := emitter.Events()
	require.Len(t, evs, 2)
	require.Equal(t, model.WalletTopupApproved, evs[0].Type)
	require.Equal(t, true, evs[0].Extra["amount_adjusted"])
	require.Equal(t, "100", evs[0].Extra["original_amount"])
	require.Equal(t, model.OrderAmountAdjusted, evs[1].Type)
	require.Equal(t, "100", evs[1].Extra["old_amount"])
	require.Equal(t, "80", evs[1].Extra["new_amount"])
	require.Equal(t, "admin-1", evs[1].Extra["adjusted_by"])
}

func TestFinalAmountEqualToRequestedIsNotAdjustment(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	store.AddRequest(order("o-1", "u1", model.WalletTopup, "100"))

	d := approve(model.Orders, "o-1")
	d.FinalAmount = ptr(dec("100.00"))
	out, err := svc.Decide(context.Background(), d)
	require.NoError(t, err)
	require.False(t, out.AmountAdjusted)
	require.Nil(t, out.OriginalAmount)
	require.Len(t, emitter.Events(), 1)
}

func TestBotPermissions(t *testing.T) {
	tests := []struct {
		name    string
		bot     *model.Bot
		wantErr error
	}{
		{"missing bot", nil, errs.ErrBotNotFound},
		{"inactive bot", &model.Bot{ID: "b1", IsActive: false, CanApproveWithdrawals: true}, errs.ErrBotInactive},
		{"lacking capability", &model.Bot{ID: "b1", IsActive: true, CanApprovePayments: true}, errs.ErrBotLacksPermission},
		{"allowed", &model.Bot{ID: "b1", IsActive: true, CanApproveWithdrawals: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emitter := &recordingEmitter{}
			svc, store := setup(t, emitter)
			if tt.bot != nil {
				store.AddBot(*tt.bot)
			}
			store.AddRequest(order("o-1", "u2", model.Withdrawal, "100"))

			out, err := svc.Decide(context.Background(), model.Decision{
				Source:    model.Orders,
				RequestID: "o-1",
				Action:    model.Approve,
				Actor:     model.TelegramBot("b1"),
			})

			req, _ := store.Request(model.Orders, "o-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, errs.ErrPermissionDenied)
				require.Equal(t, model.Pending, req.Status)
				require.Empty(t, store.LedgerEntries("u2"))
				require.Empty(t, emitter.Events())
				return
			}
			require.NoError(t, err)
			require.True(t, out.Success)
			require.Equal(t, model.Approved, req.Status)
			require.Equal(t, "b1", req.ReviewedBy)
		})
	}
}

func TestDecideValidation(t *testing.T) {
	svc, store := setup(t, &recordingEmitter{})
	store.AddRequest(order("o-1", "u1", model.Deposit, "100"))
	store.AddRequest(order("o-orphan", "ghost", model.Deposit, "100"))

	tests := []struct {
		name     string
		decision model.Decision
		wantErr  error
	}{
		{"invalid action", model.Decision{Source: model.Orders, RequestID: "o-1", Action: "hold", Actor: model.Admin("a")}, errs.ErrInvalidAction},
		{"zero final amount", model.Decision{Source: model.Orders, RequestID: "o-1", Action: model.Approve, Actor: model.Admin("a"), FinalAmount: ptr(dec("0"))}, errs.ErrInvalidAmount},
		{"negative final amount", model.Decision{Source: model.Orders, RequestID: "o-1", Action: model.Approve, Actor: model.Admin("a"), FinalAmount: ptr(dec("-5"))}, errs.ErrInvalidAmount},
		{"sub-cent final amount", model.Decision{Source: model.Orders, RequestID: "o-1", Action: model.Approve, Actor: model.Admin("a"), FinalAmount: ptr(dec("100.005"))}, errs.ErrInvalidAmount},
		{"final amount below one cent", model.Decision{Source: model.Orders, RequestID: "o-1", Action: model.Approve, Actor: model.Admin("a"), FinalAmount: ptr(dec("0.001"))}, errs.ErrInvalidAmount},
		{"missing request", approve(model.Orders, "nope"), errs.ErrRequestNotFound},
		{"wrong source", approve(model.WalletLoads, "o-1"), errs.ErrNotFound},
		{"missing user", approve(model.Orders, "o-orphan"), errs.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Decide(context.Background(), tt.decision)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	req, _ := store.Request(model.Orders, "o-1")
	require.Equal(t, model.Pending, req.Status)
	orphan, _ := store.Request(model.Orders, "o-orphan")
	require.Equal(t, model.Pending, orphan.Status)
}

func TestUnknownKindIsRejected(t *testing.T) {
	svc, store := setup(t, &recordingEmitter{})
	store.AddRequest(order("o-1", "u1", model.Kind("refund"), "100"))

	_, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
	require.ErrorIs(t, err, errs.ErrUnknownKind)
}

func TestAlreadyTerminalRequest(t *testing.T) {
	svc, store := setup(t, &recordingEmitter{})
	req := order("o-1", "u1", model.Deposit, "100")
	req.Status = model.Rejected
	store.AddRequest(req)

	out, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
	require.NoError(t, err)
	require.False(t, out.Success)
	require.True(t, out.AlreadyProcessed)
	require.Equal(t, model.Rejected, out.Status)
	require.Equal(t, "Order already rejected", out.Message)
}

func TestOpenSubStatusesAreDecidable(t *testing.T) {
	for _, status := range model.OpenStatuses() {
		t.Run(string(status), func(t *testing.T) {
			svc, store := setup(t, &recordingEmitter{})
			req := walletLoad("wl-1", "u1", "10")
			req.Status = status
			store.AddRequest(req)

			out, err := svc.Decide(context.Background(), approve(model.WalletLoads, "wl-1"))
			require.NoError(t, err)
			require.True(t, out.Success)
		})
	}
}

func TestEmitterFailureDoesNotFailDecision(t *testing.T) {
	for name, emitter := range map[string]approval.Emitter{
		"error": failingEmitter{},
		"panic": panickingEmitter{},
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			svc, store := setup(t, emitter)
			store.AddRequest(walletLoad("wl-1", "u1", "500"))

			out, err := svc.Decide(context.Background(), approve(model.WalletLoads, "wl-1"))
			require.NoError(t, err)
			require.True(t, out.Success)

			account, _ := store.Account("u1")
			requireAmount(t, "1500", account.RealBalance)
		})
	}
}

func TestCancelledCallerStillCommits(t *testing.T) {
	svc, store := setup(t, &recordingEmitter{})
	store.AddRequest(walletLoad("wl-1", "u1", "500"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := svc.Decide(ctx, approve(model.WalletLoads, "wl-1"))
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Len(t, store.LedgerEntries("u1"), 1)
}

func TestConcurrentDecisionsApplyOnce(t *testing.T) {
	emitter := &recordingEmitter{}
	svc, store := setup(t, emitter)
	store.AddRequest(walletLoad("wl-1", "u1", "500"))

	const callers = 16
	outcomes := make([]model.Outcome, callers)
	errList := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := approve(model.WalletLoads, "wl-1")
			if i%2 == 1 {
				d.Action = model.Reject
			}
			outcomes[i], errList[i] = svc.Decide(context.Background(), d)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := range outcomes {
		require.NoError(t, errList[i])
		if outcomes[i].Success {
			winners++
		} else {
			require.True(t, outcomes[i].AlreadyProcessed)
		}
	}
	require.Equal(t, 1, winners)
	require.Len(t, emitter.Events(), 1)

	req, _ := store.Request(model.WalletLoads, "wl-1")
	account, _ := store.Account("u1")
	if req.Status == model.Approved {
		require.Len(t, store.LedgerEntries("u1"), 1)
		requireAmount(t, "1500", account.RealBalance)
	} else {
		require.Equal(t, model.Rejected, req.Status)
		require.Empty(t, store.LedgerEntries("u1"))
		requireAmount(t, "1000", account.RealBalance)
	}
}

func TestConcurrentRequestsForOneUser(t *testing.T) {
	svc, store := setup(t, &recordingEmitter{})
	ids := []string{"wl-1", "wl-2", "wl-3", "wl-4"}
	for _, id := range ids {
		store.AddRequest(walletLoad(id, "u1", "100"))
	}

	errList := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errList[i] = svc.Decide(context.Background(), approve(model.WalletLoads, id))
		}(i, id)
	}
	wg.Wait()
	for _, err := range errList {
		require.NoError(t, err)
	}

	account, _ := store.Account("u1")
	requireAmount(t, "1400", account.RealBalance)
	require.Equal(t, 4, account.DepositCount)

	entries := store.LedgerEntries("u1")
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		require.True(t, entries[i].BalanceBefore.Equal(entries[i-1].BalanceAfter))
	}
}

func TestDecisionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, store := setup(t, &recordingEmitter{}, approval.WithMetrics(metrics.New(reg)))
	store.AddRequest(order("o-1", "u2", model.Withdrawal, "5000"))
	store.AddRequest(order("o-2", "u2", model.Withdrawal, "50"))

	_, err := svc.Decide(context.Background(), approve(model.Orders, "o-1"))
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
	_, err = svc.Decide(context.Background(), approve(model.Orders, "o-2"))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "gamewallet_approval_decisions_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
