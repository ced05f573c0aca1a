package system

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T) *chain.Chain {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	c := chain.New(l, clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0)), utils.NopLog())
	c.Register(NewProgram(utils.NopLog()))
	return c
}

func TestMinimumBalanceForRentExemption(t *testing.T) {
	// 165-byte token account is 2039280 lamports on mainnet
	assert.Equal(t, uint64(2_039_280), MinimumBalanceForRentExemption(165))
	assert.Equal(t, uint64(890_880), MinimumBalanceForRentExemption(0))
}

func TestProgram_CreateAccount(t *testing.T) {
	c := newTestChain(t)
	payer := solana.NewWallet().PublicKey()
	newKey := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	require.NoError(t, c.Ledger().Update(func(tx *ledger.Tx) error {
		return Fund(tx, payer, 10_000_000)
	}))

	rent := MinimumBalanceForRentExemption(100)
	_, err := c.Execute([]solana.PublicKey{payer, newKey}, InstructionCreateAccount(payer, newKey, rent, 100, owner))
	require.NoError(t, err)

	acc, err := c.Ledger().Account(newKey)
	require.NoError(t, err)
	assert.Equal(t, owner, acc.Owner)
	assert.Equal(t, rent, acc.Lamports)
	assert.Len(t, acc.Data, 100)

	from, err := c.Ledger().Account(payer)
	require.NoError(t, err)
	assert.Equal(t, 10_000_000-rent, from.Lamports)

	_, err = c.Execute([]solana.PublicKey{payer, newKey}, InstructionCreateAccount(payer, newKey, rent, 100, owner))
	assert.ErrorIs(t, err, ErrAccountInUse)
}

func TestProgram_CreateAccountInsufficientLamports(t *testing.T) {
	c := newTestChain(t)
	payer := solana.NewWallet().PublicKey()
	newKey := solana.NewWallet().PublicKey()
	require.NoError(t, c.Ledger().Update(func(tx *ledger.Tx) error {
		return Fund(tx, payer, 10)
	}))

	_, err := c.Execute([]solana.PublicKey{payer, newKey}, InstructionCreateAccount(payer, newKey, 11, 0, solana.NewWallet().PublicKey()))
	assert.ErrorIs(t, err, ErrInsufficientLamports)

	_, err = c.Ledger().Account(newKey)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestProgram_CreateAccountRequiresSigners(t *testing.T) {
	c := newTestChain(t)
	payer := solana.NewWallet().PublicKey()
	newKey := solana.NewWallet().PublicKey()
	require.NoError(t, c.Ledger().Update(func(tx *ledger.Tx) error {
		return Fund(tx, payer, 1_000_000)
	}))

	_, err := c.Execute([]solana.PublicKey{payer}, InstructionCreateAccount(payer, newKey, 1, 0, solana.NewWallet().PublicKey()))
	assert.ErrorIs(t, err, chain.ErrMissingSignature)
}
