package approval

import (
	"context"
	"fmt"

	"github.com/and161185/gamewallet/internal/model"
)

// alreadyProcessedError aborts a transaction whose request turned out to be terminal.
// Decide turns it into a non-failing outcome.
type alreadyProcessedError struct {
	status model.Status
}

func (e *alreadyProcessedError) Error() string {
	return fmt.Sprintf("request already %s", e.status)
}

func checkOpen(req model.Request) error {
	if req.Status.IsOpen() {
		return nil
	}
	return &alreadyProcessedError{status: req.Status}
}

// transition performs the conditional status write. A write that matches no open row
// means a concurrent decision won.
func transition(ctx context.Context, tx Tx, req model.Request, t model.Transition) error {
	applied, current, err := tx.TransitionRequest(ctx, req.Source, req.ID, t)
	if err != nil {
		return fmt.Errorf("transition request: %w", err)
	}
	if !applied {
		return &alreadyProcessedError{status: current}
	}
	return nil
}
