package distributor

import (
	"path/filepath"
	"testing"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/streamflow"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type investorFixture struct {
	scratch   *ledger.Ledger
	quoteMint solana.PublicKey
	accounts  []*ledger.Account
}

func newInvestorFixture(t *testing.T) *investorFixture {
	l, err := ledger.Open(filepath.Join(t.TempDir(), "scratch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return &investorFixture{scratch: l, quoteMint: newKey()}
}

func (f *investorFixture) add(t *testing.T, c *streamflow.Contract, tokenAccount *spltoken.AccountLayout) (*ledger.Account, *ledger.Account) {
	t.Helper()
	data, err := c.Encode()
	require.NoError(t, err)
	stream := &ledger.Account{Key: newKey(), Owner: program.Streamflow, Data: data}
	dest := f.tokenAccountRecord(t, c.RecipientTokens, tokenAccount)
	f.accounts = append(f.accounts, stream, dest)
	return stream, dest
}

// tokenAccountRecord renders a token account through the scratch ledger.
func (f *investorFixture) tokenAccountRecord(t *testing.T, key solana.PublicKey, user *spltoken.AccountLayout) *ledger.Account {
	t.Helper()
	require.NoError(t, f.scratch.Update(func(tx *ledger.Tx) error {
		return spltoken.PutAccount(tx, key, user.Mint, user.Owner, user.Amount)
	}))
	acc, err := f.scratch.Account(key)
	require.NoError(t, err)
	return acc
}

func (f *investorFixture) contract(deposited, withdrawn uint64) (*streamflow.Contract, *spltoken.AccountLayout) {
	recipient := newKey()
	c := &streamflow.Contract{
		AmountWithdrawn: withdrawn,
		EndTime:         2_000,
		Recipient:       recipient,
		RecipientTokens: newKey(),
		Mint:            f.quoteMint,
		Ix: streamflow.CreateParams{
			StartTime:          1_000,
			NetAmountDeposited: deposited,
			Period:             1,
			AmountPerPeriod:    deposited / 1_000,
		},
	}
	return c, &spltoken.AccountLayout{Mint: f.quoteMint, Owner: recipient}
}

func TestCollectInvestors(t *testing.T) {
	f := newInvestorFixture(t)
	c1, ta1 := f.contract(100_000, 0)
	f.add(t, c1, ta1)
	c2, ta2 := f.contract(50_000, 10_000)
	f.add(t, c2, ta2)

	// 250 seconds into a 1000 second linear stream
	investors, err := CollectInvestors(1_250, f.accounts, f.quoteMint)
	require.NoError(t, err)
	assert.Equal(t, []InvestorEntry{
		{LockedAmount: 75_000, TokenAccountIndex: 1},
		{LockedAmount: 37_500, TokenAccountIndex: 3},
	}, investors)

	investors, err = CollectInvestors(500, f.accounts, f.quoteMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), investors[0].LockedAmount)
	assert.Equal(t, uint64(40_000), investors[1].LockedAmount)

	investors, err = CollectInvestors(5_000, f.accounts, f.quoteMint)
	require.NoError(t, err)
	assert.Zero(t, investors[0].LockedAmount)
	assert.Zero(t, investors[1].LockedAmount)

	investors, err = CollectInvestors(5_000, nil, f.quoteMint)
	require.NoError(t, err)
	assert.Empty(t, investors)
}

func TestCollectInvestors_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *investorFixture, c *streamflow.Contract, ta *spltoken.AccountLayout)
		after  func(f *investorFixture, stream, dest *ledger.Account)
		err    error
	}{
		{
			name: "odd length",
			after: func(f *investorFixture, stream, dest *ledger.Account) {
				f.accounts = f.accounts[:1]
			},
			err: program.ErrInvalidInvestorAccount,
		},
		{
			name: "stream not owned by streamflow",
			after: func(f *investorFixture, stream, dest *ledger.Account) {
				stream.Owner = program.Token
			},
			err: program.ErrInvalidInvestorAccount,
		},
		{
			name: "stream not decodable",
			after: func(f *investorFixture, stream, dest *ledger.Account) {
				stream.Data = stream.Data[:10]
			},
			err: program.ErrInvalidInvestorAccount,
		},
		{
			name: "stream of another mint",
			mutate: func(f *investorFixture, c *streamflow.Contract, ta *spltoken.AccountLayout) {
				c.Mint = newKey()
			},
			err: program.ErrStreamflowMintMismatch,
		},
		{
			name: "destination not a token account",
			after: func(f *investorFixture, stream, dest *ledger.Account) {
				dest.Owner = program.Streamflow
			},
			err: program.ErrInvalidInvestorAccount,
		},
		{
			name: "destination of another mint",
			mutate: func(f *investorFixture, c *streamflow.Contract, ta *spltoken.AccountLayout) {
				ta.Mint = newKey()
			},
			err: program.ErrInvestorAtaMintMismatch,
		},
		{
			name: "destination of another owner",
			mutate: func(f *investorFixture, c *streamflow.Contract, ta *spltoken.AccountLayout) {
				ta.Owner = newKey()
			},
			err: program.ErrInvestorAtaOwnerMismatch,
		},
		{
			name: "destination not the recipient tokens",
			after: func(f *investorFixture, stream, dest *ledger.Account) {
				dest.Key = newKey()
			},
			err: program.ErrInvestorAtaOwnerMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInvestorFixture(t)
			c, ta := f.contract(1_000, 0)
			if tt.mutate != nil {
				tt.mutate(f, c, ta)
			}
			stream, dest := f.add(t, c, ta)
			if tt.after != nil {
				tt.after(f, stream, dest)
			}
			_, err := CollectInvestors(1_500, f.accounts, f.quoteMint)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
