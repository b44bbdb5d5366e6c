package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/scholaris/scholaris-api/internal/models"
)

// TransactionFSM wraps a payment transaction with its reversal lifecycle.
// Transactions are immutable records; the only transitions are toward
// partially or fully reversed.
type TransactionFSM struct {
	txn *models.PaymentTransaction
	fsm *fsm.FSM
}

// NewTransactionFSM creates a state machine seeded with the transaction's
// current status.
func NewTransactionFSM(txn *models.PaymentTransaction) *TransactionFSM {
	t := &TransactionFSM{txn: txn}

	t.fsm = fsm.NewFSM(
		txn.Status,
		fsm.Events{
			// recorded/partially_reversed → partially_reversed
			{Name: "reverse_partial", Src: []string{models.TransactionStatusRecorded, models.TransactionStatusPartiallyReversed}, Dst: models.TransactionStatusPartiallyReversed},

			// recorded/partially_reversed → reversed
			{Name: "reverse_full", Src: []string{models.TransactionStatusRecorded, models.TransactionStatusPartiallyReversed}, Dst: models.TransactionStatusReversed},
		},
		fsm.Callbacks{},
	)

	return t
}

// MarkReversed transitions the transaction after a reversal has been applied.
// full indicates no allocated amount remains standing.
func (t *TransactionFSM) MarkReversed(ctx context.Context, full bool) error {
	if !t.txn.MayReverse() {
		return fmt.Errorf("transaction cannot be reversed in current state: %s", t.txn.Status)
	}

	event := "reverse_partial"
	if full {
		event = "reverse_full"
	}
	if err := t.fsm.Event(ctx, event); err != nil {
		// A repeated partial reversal keeps the same state, which fsm
		// reports as a no-transition event rather than a failure.
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return fmt.Errorf("failed to mark transaction reversed: %w", err)
		}
	}

	t.txn.Status = t.fsm.Current()
	return nil
}

// Current returns the state machine's current state.
func (t *TransactionFSM) Current() string {
	return t.fsm.Current()
}
