package statemachine

import (
	"context"
	"testing"

	"github.com/scholaris/scholaris-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionFSM_PartialThenFull(t *testing.T) {
	txn := &models.PaymentTransaction{Status: models.TransactionStatusRecorded}

	machine := NewTransactionFSM(txn)
	require.NoError(t, machine.MarkReversed(context.Background(), false))
	assert.Equal(t, models.TransactionStatusPartiallyReversed, txn.Status)

	// A second reversal that consumes the rest completes the lifecycle.
	machine = NewTransactionFSM(txn)
	require.NoError(t, machine.MarkReversed(context.Background(), true))
	assert.Equal(t, models.TransactionStatusReversed, txn.Status)
}

func TestTransactionFSM_RepeatedPartialStaysPartial(t *testing.T) {
	txn := &models.PaymentTransaction{Status: models.TransactionStatusPartiallyReversed}

	machine := NewTransactionFSM(txn)
	require.NoError(t, machine.MarkReversed(context.Background(), false))
	assert.Equal(t, models.TransactionStatusPartiallyReversed, txn.Status)
}

func TestTransactionFSM_DirectFullReversal(t *testing.T) {
	txn := &models.PaymentTransaction{Status: models.TransactionStatusRecorded}

	machine := NewTransactionFSM(txn)
	require.NoError(t, machine.MarkReversed(context.Background(), true))
	assert.Equal(t, models.TransactionStatusReversed, txn.Status)
}

func TestTransactionFSM_ReversedIsTerminal(t *testing.T) {
	txn := &models.PaymentTransaction{Status: models.TransactionStatusReversed}

	machine := NewTransactionFSM(txn)
	err := machine.MarkReversed(context.Background(), false)
	assert.Error(t, err)
	assert.Equal(t, models.TransactionStatusReversed, txn.Status)
}
