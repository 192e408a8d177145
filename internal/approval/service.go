package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/events"
	"github.com/and161185/gamewallet/internal/metrics"
	"github.com/and161185/gamewallet/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRejectReason = "Rejected by reviewer"

	// amountScale is the number of fractional digits money columns keep.
	amountScale = 2
)

// Service decides pending orders and wallet load requests.
type Service struct {
	store    Store
	gate     *Gate
	handlers map[model.Kind]kindHandler
	mutator  BalanceMutator
	ledger   *LedgerWriter
	emitter  Emitter
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
	now      func() time.Time
	timeout  time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout bounds the decision transaction. The bound holds even when the caller's
// context is cancelled earlier.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewService(store Store, bots BotDirectory, emitter Emitter, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		gate:    NewGate(bots),
		emitter: emitter,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = NewLedgerWriter(s.now)
	s.handlers = newHandlers(s.mutator, s.ledger)
	return s
}

// decided carries the committed result of a transaction out to the caller.
type decided struct {
	outcome model.Outcome
	events  []model.Event
}

// Decide approves or rejects one request. A request that is already terminal yields a
// non-failing outcome with AlreadyProcessed set. Events are emitted only after commit.
func (s *Service) Decide(ctx context.Context, d model.Decision) (outcome model.Outcome, err error) {
	started := time.Now()
	var kind model.Kind
	defer func() {
		s.metrics.ObserveDecision(string(kind), string(d.Action), resultLabel(outcome, err), time.Since(started))
	}()

	if !d.Action.Valid() {
		return model.Outcome{}, fmt.Errorf("%w: %q", errs.ErrInvalidAction, d.Action)
	}
	if d.FinalAmount != nil && !validAmount(*d.FinalAmount) {
		return model.Outcome{}, fmt.Errorf("%w: final amount %s", errs.ErrInvalidAmount, d.FinalAmount)
	}

	req, err := s.store.GetRequest(ctx, d.Source, d.RequestID)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("get request: %w", err)
	}
	kind = req.Kind

	handler, err := s.handlerFor(req.Kind)
	if err != nil {
		return model.Outcome{}, err
	}

	if err := s.gate.Authorize(ctx, d.Actor, req.Kind); err != nil {
		s.logger.Warnw("decision denied",
			"request_id", req.ID, "kind", req.Kind, "actor_type", d.Actor.Type, "actor_id", d.Actor.ID, "error", err)
		return model.Outcome{}, err
	}

	if !req.Status.IsOpen() {
		return alreadyProcessed(req, req.Status), nil
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var res decided
	err = s.store.InTx(txCtx, func(tx Tx) error {
		locked, err := tx.LockRequest(txCtx, d.Source, d.RequestID)
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}
		if err := checkOpen(locked); err != nil {
			return err
		}
		account, err := tx.LockAccount(txCtx, locked.UserID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}
		if locked.Username == "" {
			locked.Username = account.Username
		}

		if d.Action == model.Approve {
			res, err = s.approve(txCtx, tx, handler, locked, d)
		} else {
			res, err = s.reject(txCtx, tx, handler, locked, d)
		}
		return err
	})

	var processed *alreadyProcessedError
	if errors.As(err, &processed) {
		s.logger.Infow("request already processed",
			"request_id", req.ID, "kind", req.Kind, "status", processed.status, "actor_id", d.Actor.ID)
		return alreadyProcessed(req, processed.status), nil
	}
	if err != nil {
		s.logger.Errorw("decision failed",
			"request_id", req.ID, "kind", req.Kind, "action", d.Action, "actor_id", d.Actor.ID, "error", err)
		return model.Outcome{}, err
	}

	s.logger.Infow("request decided",
		"request_id", req.ID, "kind", req.Kind, "action", d.Action,
		"actor_type", d.Actor.Type, "actor_id", d.Actor.ID, "amount", res.outcome.Amount)

	s.emit(ctx, res.events)
	return res.outcome, nil
}

func (s *Service) approve(ctx context.Context, tx Tx, h kindHandler, req model.Request, d model.Decision) (decided, error) {
	now := s.now()
	amount := req.Amount
	t := model.Transition{
		Status:     model.Approved,
		Amount:     req.Amount,
		ReviewedBy: d.Actor.ID,
		ReviewedAt: now,
	}

	adjusted := d.FinalAmount != nil && !d.FinalAmount.Equal(req.Amount)
	var original *decimal.Decimal
	if adjusted {
		amount = *d.FinalAmount
		prev := req.Amount
		original = &prev
		t.Amount = amount
		t.AmountAdjusted = true
		t.OriginalAmount = original
	}

	if err := transition(ctx, tx, req, t); err != nil {
		return decided{}, err
	}

	st, err := h.settle(ctx, tx, req, amount)
	if err != nil {
		return decided{}, err
	}

	outcome := model.Outcome{
		Success:        true,
		Message:        approvedMessage(req.Source),
		RequestID:      req.ID,
		Kind:           req.Kind,
		Status:         model.Approved,
		Amount:         amount,
		AmountAdjusted: adjusted,
		OriginalAmount: original,
	}

	ev := s.newEvent(h.approvedEvent(), req, amount)
	ev.Title = "Request Approved"
	ev.Message = fmt.Sprintf("%s of %s for @%s approved by %s", req.Kind, amount.StringFixed(2), req.Username, d.Actor.Type)
	ev.Extra["kind"] = string(req.Kind)
	ev.Extra["approved_by"] = d.Actor.ID
	ev.Extra["actor_type"] = string(d.Actor.Type)
	ev.Extra["amount_adjusted"] = adjusted
	if adjusted {
		ev.Extra["original_amount"] = original.String()
	}
	if st.entry != nil {
		after := st.entry.BalanceAfter
		outcome.NewBalance = &after
		ev.Extra["new_balance"] = after.String()
	}

	evs := []model.Event{ev}
	if adjusted {
		adj := s.newEvent(model.OrderAmountAdjusted, req, amount)
		adj.Title = "Amount Adjusted"
		adj.Message = fmt.Sprintf("Amount changed from %s to %s", original.StringFixed(2), amount.StringFixed(2))
		adj.Extra["old_amount"] = original.String()
		adj.Extra["new_amount"] = amount.String()
		adj.Extra["adjusted_by"] = d.Actor.ID
		evs = append(evs, adj)
	}

	return decided{outcome: outcome, events: evs}, nil
}

func (s *Service) reject(ctx context.Context, tx Tx, h kindHandler, req model.Request, d model.Decision) (decided, error) {
	reason := d.RejectionReason
	if reason == "" {
		reason = defaultRejectReason
	}

	err := transition(ctx, tx, req, model.Transition{
		Status:          model.Rejected,
		Amount:          req.Amount,
		RejectionReason: reason,
		ReviewedBy:      d.Actor.ID,
		ReviewedAt:      s.now(),
	})
	if err != nil {
		return decided{}, err
	}

	ev := s.newEvent(h.rejectedEvent(), req, req.Amount)
	ev.Title = "Request Rejected"
	ev.Message = fmt.Sprintf("%s for @%s rejected. Reason: %s", req.Kind, req.Username, reason)
	ev.Extra["kind"] = string(req.Kind)
	ev.Extra["rejected_by"] = d.Actor.ID
	ev.Extra["actor_type"] = string(d.Actor.Type)
	ev.Extra["reason"] = reason

	return decided{
		outcome: model.Outcome{
			Success:   true,
			Message:   rejectedMessage(req.Source),
			RequestID: req.ID,
			Kind:      req.Kind,
			Status:    model.Rejected,
			Amount:    req.Amount,
			Reason:    reason,
		},
		events: []model.Event{ev},
	}, nil
}

func (s *Service) newEvent(t model.EventType, req model.Request, amount decimal.Decimal) model.Event {
	ev := events.New(t, referenceType(req.Source), req.ID, req.UserID, amount, s.now())
	ev.Username = req.Username
	return ev
}

// emit hands events to the emitter. Failures never reach the caller; the decision is
// already committed.
func (s *Service) emit(ctx context.Context, evs []model.Event) {
	if s.emitter == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, ev := range evs {
		s.emitOne(ctx, ev)
	}
}

func (s *Service) emitOne(ctx context.Context, ev model.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("event emitter panicked", "event_type", ev.Type, "reference_id", ev.ReferenceID, "panic", r)
		}
	}()
	if err := s.emitter.Emit(ctx, ev); err != nil {
		s.logger.Errorw("emit event", "event_type", ev.Type, "reference_id", ev.ReferenceID, "error", err)
	}
}

func alreadyProcessed(req model.Request, status model.Status) model.Outcome {
	noun := "Request"
	if req.Source == model.Orders {
		noun = "Order"
	}
	return model.Outcome{
		Success:          false,
		Message:          fmt.Sprintf("%s already %s", noun, status),
		AlreadyProcessed: true,
		RequestID:        req.ID,
		Kind:             req.Kind,
		Status:           status,
		Amount:           req.Amount,
	}
}

// validAmount reports whether d is a positive amount storable without rounding.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(amountScale))
}

func referenceType(source model.Source) string {
	if source == model.WalletLoads {
		return "wallet_load"
	}
	return "order"
}

func approvedMessage(source model.Source) string {
	if source == model.WalletLoads {
		return "Wallet load approved"
	}
	return "Order approved successfully"
}

func rejectedMessage(source model.Source) string {
	if source == model.WalletLoads {
		return "Wallet load rejected"
	}
	return "Order rejected"
}

func resultLabel(outcome model.Outcome, err error) string {
	switch {
	case err == nil && outcome.AlreadyProcessed:
		return "already_processed"
	case err == nil:
		return string(outcome.Status)
	case errors.Is(err, errs.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, errs.ErrInvalidAction), errors.Is(err, errs.ErrInvalidAmount):
		return "invalid"
	}
	return "error"
}
