package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrylov/coinledger/internal/domain/errors"
	"github.com/dkrylov/coinledger/internal/domain/valueobjects"
)

func newUserWallet(t *testing.T, balance string) *Wallet {
	t.Helper()
	w := NewWallet(uuid.New(), uuid.New(), "GOLD_COINS", false)
	if balance != "0" {
		require.NoError(t, w.Credit(valueobjects.MustAmount(balance)))
	}
	return w
}

func TestWallet_CreditDebit(t *testing.T) {
	w := newUserWallet(t, "1000")

	require.NoError(t, w.Debit(valueobjects.MustAmount("250.5")))
	assert.Equal(t, "749.5000", w.Balance().String())

	require.NoError(t, w.Credit(valueobjects.MustAmount("0.5")))
	assert.Equal(t, "750.0000", w.Balance().String())
}

func TestWallet_DebitInsufficient(t *testing.T) {
	w := newUserWallet(t, "50")

	err := w.Debit(valueobjects.MustAmount("999"))
	require.ErrorIs(t, err, errors.ErrInsufficientBalance)

	var insufficientErr *errors.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "50.0000", insufficientErr.Available.String())
	assert.Equal(t, "999.0000", insufficientErr.Required.String())

	// Balance untouched on failure.
	assert.Equal(t, "50.0000", w.Balance().String())
}

func TestWallet_TreasuryMayGoNegative(t *testing.T) {
	treasury := NewWallet(uuid.New(), uuid.New(), "GOLD_COINS", true)

	require.NoError(t, treasury.Debit(valueobjects.MustAmount("100")))
	assert.Equal(t, "-100.0000", treasury.Balance().String())
	assert.True(t, treasury.Balance().IsNegative())
}

func TestWallet_NonPositiveOperations(t *testing.T) {
	w := newUserWallet(t, "10")

	assert.ErrorIs(t, w.Credit(valueobjects.ZeroAmount()), errors.ErrNonPositiveAmount)
	assert.ErrorIs(t, w.Debit(valueobjects.MustAmount("-1")), errors.ErrNonPositiveAmount)
}

func TestWallet_CanCover(t *testing.T) {
	w := newUserWallet(t, "100")

	assert.True(t, w.CanCover(valueobjects.MustAmount("100")))
	assert.False(t, w.CanCover(valueobjects.MustAmount("100.0001")))
}
