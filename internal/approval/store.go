package approval

import (
	"context"

	"github.com/and161185/gamewallet/internal/model"
)

// Store is the transactional backing store of the approval core.
type Store interface {
	GetRequest(ctx context.Context, source model.Source, id string) (model.Request, error)
	// InTx runs fn inside one transaction. The transaction commits when fn returns nil
	// and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the handle shared by the state machine, the balance mutator and the ledger
// writer for the duration of one decision.
type Tx interface {
	// LockRequest reads the request and holds a row lock until the transaction ends.
	LockRequest(ctx context.Context, source model.Source, id string) (model.Request, error)
	// TransitionRequest moves an open request to a terminal status. applied is false
	// when the stored status was no longer open; current then holds the stored status.
	TransitionRequest(ctx context.Context, source model.Source, id string, t model.Transition) (applied bool, current model.Status, err error)
	LockAccount(ctx context.Context, userID string) (model.Account, error)
	SaveAccount(ctx context.Context, account model.Account) error
	InsertLedgerEntry(ctx context.Context, entry model.LedgerEntry) error
}

type BotDirectory interface {
	GetBot(ctx context.Context, botID string) (model.Bot, error)
}

type Emitter interface {
	Emit(ctx context.Context, event model.Event) error
}
