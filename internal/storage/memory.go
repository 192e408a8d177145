package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/and161185/gamewallet/internal/approval"
	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/model"
)

type requestKey struct {
	source model.Source
	id     string
}

// MemoryStorage keeps everything in process. Transactions run one at a time and their
// writes become visible only on commit.
type MemoryStorage struct {
	txMu sync.Mutex

	mu       sync.RWMutex
	accounts map[string]model.Account
	requests map[requestKey]model.Request
	bots     map[string]model.Bot
	ledger   []model.LedgerEntry
	events   []model.Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		accounts: make(map[string]model.Account),
		requests: make(map[requestKey]model.Request),
		bots:     make(map[string]model.Bot),
	}
}

func (m *MemoryStorage) Ping(context.Context) error { return nil }

func (m *MemoryStorage) AddAccount(a model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.UserID] = a
}

func (m *MemoryStorage) AddRequest(r model.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[requestKey{r.Source, r.ID}] = r
}

func (m *MemoryStorage) AddBot(b model.Bot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bots[b.ID] = b
}

func (m *MemoryStorage) Account(userID string) (model.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[userID]
	return a, ok
}

func (m *MemoryStorage) Request(source model.Source, id string) (model.Request, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[requestKey{source, id}]
	return r, ok
}

// LedgerEntries returns the committed entries of one user in insertion order.
func (m *MemoryStorage) LedgerEntries(userID string) []model.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []model.LedgerEntry
	for _, e := range m.ledger {
		if e.UserID == userID {
			list = append(list, e)
		}
	}
	return list
}

func (m *MemoryStorage) Events() []model.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

func (m *MemoryStorage) GetRequest(_ context.Context, source model.Source, id string) (model.Request, error) {
	r, ok := m.Request(source, id)
	if !ok {
		return model.Request{}, errs.ErrRequestNotFound
	}
	return r, nil
}

func (m *MemoryStorage) ListPending(context.Context) ([]model.Request, error) {
	m.mu.RLock()
	var list []model.Request
	for _, r := range m.requests {
		if r.Status.IsOpen() {
			list = append(list, r)
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(list, func(a, b model.Request) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return list, nil
}

func (m *MemoryStorage) GetBot(_ context.Context, botID string) (model.Bot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bots[botID]
	if !ok {
		return model.Bot{}, errs.ErrBotNotFound
	}
	return b, nil
}

func (m *MemoryStorage) SaveEvent(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// InTx runs fn under a store-wide lock, so transactions never overlap.
func (m *MemoryStorage) InTx(ctx context.Context, fn func(tx approval.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:    m,
		accounts: make(map[string]model.Account),
		requests: make(map[requestKey]model.Request),
	}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range tx.accounts {
		m.accounts[id] = a
	}
	for k, r := range tx.requests {
		m.requests[k] = r
	}
	m.ledger = append(m.ledger, tx.ledger...)
	return nil
}

// memTx stages writes until the surrounding InTx commits.
type memTx struct {
	store    *MemoryStorage
	accounts map[string]model.Account
	requests map[requestKey]model.Request
	ledger   []model.LedgerEntry
}

func (t *memTx) LockRequest(_ context.Context, source model.Source, id string) (model.Request, error) {
	key := requestKey{source, id}
	if r, ok := t.requests[key]; ok {
		return r, nil
	}
	r, ok := t.store.Request(source, id)
	if !ok {
		return model.Request{}, errs.ErrRequestNotFound
	}
	return r, nil
}

func (t *memTx) TransitionRequest(ctx context.Context, source model.Source, id string, tr model.Transition) (bool, model.Status, error) {
	r, err := t.LockRequest(ctx, source, id)
	if err != nil {
		return false, "", err
	}
	if !r.Status.IsOpen() {
		return false, r.Status, nil
	}

	reviewedAt := tr.ReviewedAt
	r.Status = tr.Status
	r.Amount = tr.Amount
	r.AmountAdjusted = tr.AmountAdjusted
	r.OriginalAmount = tr.OriginalAmount
	r.RejectionReason = tr.RejectionReason
	r.ReviewedBy = tr.ReviewedBy
	r.ReviewedAt = &reviewedAt
	t.requests[requestKey{source, id}] = r
	return true, r.Status, nil
}

func (t *memTx) LockAccount(_ context.Context, userID string) (model.Account, error) {
	if a, ok := t.accounts[userID]; ok {
		return a, nil
	}
	a, ok := t.store.Account(userID)
	if !ok {
		return model.Account{}, errs.ErrUserNotFound
	}
	return a, nil
}

func (t *memTx) SaveAccount(ctx context.Context, a model.Account) error {
	if _, err := t.LockAccount(ctx, a.UserID); err != nil {
		return err
	}
	t.accounts[a.UserID] = a
	return nil
}

func (t *memTx) InsertLedgerEntry(_ context.Context, e model.LedgerEntry) error {
	t.ledger = append(t.ledger, e)
	return nil
}
