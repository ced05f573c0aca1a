package cpamm

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscriminators(t *testing.T) {
	assert.Equal(t, [8]byte{0xf1, 0x9a, 0x6d, 0x04, 0x11, 0xb1, 0x6d, 0xbc}, PoolDiscriminator)
	assert.Equal(t, [8]byte{0xaa, 0xbc, 0x8f, 0xe4, 0x7a, 0x40, 0xf7, 0xd0}, PositionDiscriminator)
	assert.Equal(t, [8]byte{0xb4, 0x26, 0x9a, 0x11, 0x85, 0x21, 0xa2, 0xd3}, ClaimPositionFeeDiscriminator)
}

func TestLayoutSizes(t *testing.T) {
	assert.Len(t, (&PoolLayout{}).pack(), PoolLayoutSize)
	assert.Len(t, (&PositionLayout{}).pack(), PositionLayoutSize)
}

func TestAuthorities(t *testing.T) {
	authority, _, err := PoolAuthority(program.CpAmm)
	require.NoError(t, err)
	assert.Equal(t, program.CpAmmAuthority, authority)

	eventAuthority, _, err := EventAuthority(program.CpAmm)
	require.NoError(t, err)
	assert.Equal(t, program.CpAmmEvent, eventAuthority)
}

func TestDecodePool(t *testing.T) {
	quote := solana.NewWallet().PublicKey()
	pool := &PoolLayout{Discriminator: PoolDiscriminator, TokenBMint: quote, CollectFeeMode: uint8(CollectFeeModeOnlyQuote)}
	decoded, err := DecodePool(pool.pack())
	require.NoError(t, err)
	assert.Equal(t, quote, decoded.TokenBMint)
	require.NoError(t, AssertQuoteOnlyPool(decoded, quote, CollectFeeModeOnlyQuote))

	err = AssertQuoteOnlyPool(decoded, solana.NewWallet().PublicKey(), CollectFeeModeOnlyQuote)
	assert.ErrorIs(t, err, program.ErrQuoteMintMismatch)

	decoded.CollectFeeMode = uint8(CollectFeeModeBoth)
	err = AssertQuoteOnlyPool(decoded, quote, CollectFeeModeOnlyQuote)
	assert.ErrorIs(t, err, program.ErrInvalidFeeMode)

	bad := pool.pack()
	bad[0] ^= 0xff
	_, err = DecodePool(bad)
	assert.ErrorIs(t, err, ErrInvalidPool)

	_, err = DecodePool(pool.pack()[:100])
	assert.ErrorIs(t, err, ErrInvalidPool)

	_, err = ParsePool(&ledger.Account{Owner: program.System, Data: pool.pack()}, program.CpAmm)
	assert.ErrorIs(t, err, ErrInvalidPool)
}

func TestDecodePosition(t *testing.T) {
	position := &PositionLayout{Discriminator: PositionDiscriminator, FeeBPending: 9}
	decoded, err := DecodePosition(position.pack())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), decoded.FeeBPending)
	assert.True(t, decoded.IsEmpty())

	decoded.VestedLiquidity = Uint128{Hi: 1}
	assert.False(t, decoded.IsEmpty())
	assert.Equal(t, "18446744073709551616", decoded.VestedLiquidity.BigInt().String())

	_, err = DecodePosition((&PoolLayout{Discriminator: PoolDiscriminator}).pack())
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

type claimFixture struct {
	chain    *chain.Chain
	pool     *Program
	owner    solana.PublicKey
	accounts ClaimPositionFeeAccounts
}

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	c := chain.New(l, clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0)), utils.NopLog())
	c.Register(spltoken.NewProgram(utils.NopLog()))
	p, err := NewProgram(utils.NopLog(), program.CpAmm)
	require.NoError(t, err)
	c.Register(p)

	f := &claimFixture{chain: c, pool: p, owner: solana.NewWallet().PublicKey()}
	a := ClaimPositionFeeAccounts{
		PoolAuthority:      p.Authority(),
		Pool:               solana.NewWallet().PublicKey(),
		Position:           solana.NewWallet().PublicKey(),
		TokenAAccount:      solana.NewWallet().PublicKey(),
		TokenBAccount:      solana.NewWallet().PublicKey(),
		TokenAVault:        solana.NewWallet().PublicKey(),
		TokenBVault:        solana.NewWallet().PublicKey(),
		TokenAMint:         solana.NewWallet().PublicKey(),
		TokenBMint:         solana.NewWallet().PublicKey(),
		PositionNftAccount: solana.NewWallet().PublicKey(),
		Owner:              f.owner,
		TokenAProgram:      program.Token,
		TokenBProgram:      program.Token,
		EventAuthority:     program.CpAmmEvent,
	}
	f.accounts = a
	nftMint := solana.NewWallet().PublicKey()
	require.NoError(t, l.Update(func(tx *ledger.Tx) error {
		steps := []func() error{
			func() error {
				return PutPool(tx, a.Pool, program.CpAmm, &PoolLayout{
					TokenAMint:     a.TokenAMint,
					TokenBMint:     a.TokenBMint,
					TokenAVault:    a.TokenAVault,
					TokenBVault:    a.TokenBVault,
					CollectFeeMode: uint8(CollectFeeModeOnlyQuote),
				})
			},
			func() error {
				return PutPosition(tx, a.Position, program.CpAmm, &PositionLayout{Pool: a.Pool, NftMint: nftMint})
			},
			func() error { return spltoken.PutAccount(tx, a.TokenAVault, a.TokenAMint, p.Authority(), 0) },
			func() error { return spltoken.PutAccount(tx, a.TokenBVault, a.TokenBMint, p.Authority(), 0) },
			func() error { return spltoken.PutAccount(tx, a.TokenAAccount, a.TokenAMint, f.owner, 0) },
			func() error { return spltoken.PutAccount(tx, a.TokenBAccount, a.TokenBMint, f.owner, 0) },
			func() error { return spltoken.PutAccount(tx, a.PositionNftAccount, nftMint, f.owner, 1) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	}))
	return f
}

func (f *claimFixture) balance(t *testing.T, key solana.PublicKey) uint64 {
	t.Helper()
	var amount uint64
	require.NoError(t, f.chain.Ledger().View(func(tx *ledger.Tx) error {
		var err error
		amount, err = spltoken.Balance(tx, key)
		return err
	}))
	return amount
}

func TestProgram_ClaimPositionFee(t *testing.T) {
	f := newClaimFixture(t)
	require.NoError(t, f.chain.Ledger().Update(func(tx *ledger.Tx) error {
		return AccrueFee(tx, program.CpAmm, f.accounts.Position, 3, 500)
	}))

	receipt, err := f.chain.Execute([]solana.PublicKey{f.owner}, InstructionClaimPositionFee(program.CpAmm, f.accounts))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), f.balance(t, f.accounts.TokenAAccount))
	assert.Equal(t, uint64(500), f.balance(t, f.accounts.TokenBAccount))
	assert.Zero(t, f.balance(t, f.accounts.TokenBVault))

	require.Len(t, receipt.Events, 1)
	ev, ok := receipt.Events[0].Payload.(*ClaimPositionFeeEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(500), ev.FeeB)

	acc, err := f.chain.Ledger().Account(f.accounts.Position)
	require.NoError(t, err)
	position, err := DecodePosition(acc.Data)
	require.NoError(t, err)
	assert.Zero(t, position.FeeAPending)
	assert.Zero(t, position.FeeBPending)
	assert.Equal(t, uint64(500), position.Metrics.TotalClaimedBFee)

	// nothing pending is a successful no-op
	_, err = f.chain.Execute([]solana.PublicKey{f.owner}, InstructionClaimPositionFee(program.CpAmm, f.accounts))
	require.NoError(t, err)
	assert.Equal(t, uint64(500), f.balance(t, f.accounts.TokenBAccount))
}

func TestProgram_ClaimPositionFeeRejectsWrongOwner(t *testing.T) {
	f := newClaimFixture(t)
	stranger := solana.NewWallet().PublicKey()
	accounts := f.accounts
	accounts.Owner = stranger
	_, err := f.chain.Execute([]solana.PublicKey{stranger}, InstructionClaimPositionFee(program.CpAmm, accounts))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestProgram_ClaimPositionFeeRejectsForeignVault(t *testing.T) {
	f := newClaimFixture(t)
	accounts := f.accounts
	accounts.TokenBVault = solana.NewWallet().PublicKey()
	_, err := f.chain.Execute([]solana.PublicKey{f.owner}, InstructionClaimPositionFee(program.CpAmm, accounts))
	assert.ErrorIs(t, err, ErrInvalidVault)
}
