package distributor

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/streamflow"
	"github.com/egaotan/honorary-quote-fee/system"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const fixtureStart int64 = 1_700_000_000

type collector struct {
	mu     sync.Mutex
	events []interface{}
}

func (c *collector) OnEvent(event chain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event.Payload)
}

func (c *collector) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type fixture struct {
	t      *testing.T
	chain  *chain.Chain
	clock  *clockwork.FakeClock
	events *collector

	payer     solana.PublicKey
	authority solana.PublicKey
	cranker   solana.PublicKey
	creator   solana.PublicKey

	pool          solana.PublicKey
	poolAuthority solana.PublicKey
	quoteMint     solana.PublicKey
	baseMint      solana.PublicKey
	quoteVault    solana.PublicKey
	baseVault     solana.PublicKey
	creatorAta    solana.PublicKey

	position      solana.PublicKey
	nftMint       solana.PublicKey
	nftAccount    solana.PublicKey
	quoteTreasury solana.PublicKey
	baseFeeCheck  solana.PublicKey

	policy   solana.PublicKey
	progress solana.PublicKey
	honorary solana.PublicKey
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// newFixture seeds a quote-only pool with an empty position whose NFT and
// treasuries are held by the policy's honorary address. Nothing is executed.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	clock := clockwork.NewFakeClockAt(time.Unix(fixtureStart, 0))
	c := chain.New(l, clock, utils.NopLog())
	c.Register(system.NewProgram(utils.NopLog()))
	c.Register(spltoken.NewProgram(utils.NopLog()))
	pool, err := cpamm.NewProgram(utils.NopLog(), program.CpAmm)
	require.NoError(t, err)
	c.Register(pool)
	c.Register(NewProgram(utils.NopLog(), program.HonoraryQuoteFee))
	events := &collector{}
	c.Subscribe(events)

	f := &fixture{
		t:             t,
		chain:         c,
		clock:         clock,
		events:        events,
		payer:         newKey(),
		authority:     newKey(),
		cranker:       newKey(),
		creator:       newKey(),
		pool:          newKey(),
		poolAuthority: pool.Authority(),
		quoteMint:     newKey(),
		baseMint:      newKey(),
		quoteVault:    newKey(),
		baseVault:     newKey(),
		creatorAta:    newKey(),
		position:      newKey(),
		nftMint:       newKey(),
		nftAccount:    newKey(),
		quoteTreasury: newKey(),
		baseFeeCheck:  newKey(),
	}
	f.policy, _, err = PolicyAddress(program.HonoraryQuoteFee, f.pool)
	require.NoError(t, err)
	f.progress, _, err = ProgressAddress(program.HonoraryQuoteFee, f.pool)
	require.NoError(t, err)
	f.honorary, _, err = HonoraryPositionAddress(program.HonoraryQuoteFee, f.policy)
	require.NoError(t, err)

	f.update(func(tx *ledger.Tx) error {
		steps := []func() error{
			func() error { return system.Fund(tx, f.payer, 10_000_000_000) },
			func() error { return system.Fund(tx, f.authority, 10_000_000_000) },
			func() error { return spltoken.PutMint(tx, f.quoteMint, newKey(), 6, 1_000_000_000_000) },
			func() error { return spltoken.PutMint(tx, f.baseMint, newKey(), 9, 1_000_000_000_000) },
			func() error { return spltoken.PutMint(tx, f.nftMint, newKey(), 0, 1) },
			func() error {
				return cpamm.PutPool(tx, f.pool, program.CpAmm, &cpamm.PoolLayout{
					TokenAMint:     f.baseMint,
					TokenBMint:     f.quoteMint,
					TokenAVault:    f.baseVault,
					TokenBVault:    f.quoteVault,
					CollectFeeMode: uint8(cpamm.CollectFeeModeOnlyQuote),
				})
			},
			func() error {
				return cpamm.PutPosition(tx, f.position, program.CpAmm, &cpamm.PositionLayout{Pool: f.pool, NftMint: f.nftMint})
			},
			func() error { return spltoken.PutAccount(tx, f.quoteVault, f.quoteMint, f.poolAuthority, 0) },
			func() error { return spltoken.PutAccount(tx, f.baseVault, f.baseMint, f.poolAuthority, 0) },
			func() error { return spltoken.PutAccount(tx, f.creatorAta, f.quoteMint, f.creator, 0) },
			func() error { return spltoken.PutAccount(tx, f.nftAccount, f.nftMint, f.honorary, 1) },
			func() error { return spltoken.PutAccount(tx, f.quoteTreasury, f.quoteMint, f.honorary, 0) },
			func() error { return spltoken.PutAccount(tx, f.baseFeeCheck, f.baseMint, f.honorary, 0) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	return f
}

func (f *fixture) update(fn func(tx *ledger.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.chain.Ledger().Update(fn))
}

func (f *fixture) initializeAccounts() InitializePolicyAccounts {
	return InitializePolicyAccounts{
		Payer:           f.payer,
		Authority:       f.authority,
		Pool:            f.pool,
		PoolAuthority:   f.poolAuthority,
		CpAmmProgram:    program.CpAmm,
		QuoteMint:       f.quoteMint,
		BaseMint:        f.baseMint,
		QuoteVault:      f.quoteVault,
		BaseVault:       f.baseVault,
		CreatorQuoteAta: f.creatorAta,
	}
}

func (f *fixture) initialize(params InitializePolicyParams) error {
	f.t.Helper()
	return f.initializeWith(f.initializeAccounts(), params)
}

func (f *fixture) initializeWith(a InitializePolicyAccounts, params InitializePolicyParams) error {
	f.t.Helper()
	ix, err := InstructionInitializePolicy(program.HonoraryQuoteFee, a, params)
	require.NoError(f.t, err)
	_, err = f.chain.Execute([]solana.PublicKey{a.Payer, a.Authority}, ix)
	return err
}

func (f *fixture) configureAccounts() ConfigureHonoraryPositionAccounts {
	return ConfigureHonoraryPositionAccounts{
		Authority:          f.authority,
		Policy:             f.policy,
		Position:           f.position,
		PositionNftMint:    f.nftMint,
		PositionNftAccount: f.nftAccount,
		QuoteMint:          f.quoteMint,
		QuoteTreasury:      f.quoteTreasury,
		BaseMint:           f.baseMint,
		BaseFeeCheck:       f.baseFeeCheck,
	}
}

func (f *fixture) configure() error {
	f.t.Helper()
	return f.configureWith(f.configureAccounts())
}

func (f *fixture) configureWith(a ConfigureHonoraryPositionAccounts) error {
	f.t.Helper()
	ix, err := InstructionConfigureHonoraryPosition(program.HonoraryQuoteFee, a)
	require.NoError(f.t, err)
	_, err = f.chain.Execute([]solana.PublicKey{a.Authority}, ix)
	return err
}

// setup initializes and configures the policy.
func (f *fixture) setup(params InitializePolicyParams) {
	f.t.Helper()
	require.NoError(f.t, f.initialize(params))
	require.NoError(f.t, f.configure())
}

// addInvestor creates a stream whose whole deposit stays locked until
// unlockAt and unlocks linearly over the following 1000 seconds.
func (f *fixture) addInvestor(deposited uint64, unlockAt int64) InvestorAccounts {
	f.t.Helper()
	investor := InvestorAccounts{Stream: newKey(), TokenAccount: newKey()}
	recipient := newKey()
	f.update(func(tx *ledger.Tx) error {
		if err := spltoken.PutAccount(tx, investor.TokenAccount, f.quoteMint, recipient, 0); err != nil {
			return err
		}
		return streamflow.PutContract(tx, investor.Stream, &streamflow.Contract{
			EndTime:         uint64(unlockAt) + 1_000,
			Recipient:       recipient,
			RecipientTokens: investor.TokenAccount,
			Mint:            f.quoteMint,
			Ix: streamflow.CreateParams{
				StartTime:          uint64(unlockAt),
				NetAmountDeposited: deposited,
				Period:             1,
				AmountPerPeriod:    deposited/1_000 + 1,
			},
		})
	})
	return investor
}

func (f *fixture) addLockedInvestors(n int, deposited uint64) []InvestorAccounts {
	investors := make([]InvestorAccounts, 0, n)
	for i := 0; i < n; i++ {
		investors = append(investors, f.addInvestor(deposited, fixtureStart+1_000_000_000))
	}
	return investors
}

func (f *fixture) accrue(quoteFee, baseFee uint64) {
	f.t.Helper()
	f.update(func(tx *ledger.Tx) error {
		return cpamm.AccrueFee(tx, program.CpAmm, f.position, baseFee, quoteFee)
	})
}

func (f *fixture) crank(cursor, maxCursor uint32, last bool, investors []InvestorAccounts) error {
	f.t.Helper()
	ix, err := InstructionCrankQuoteFeeDistribution(program.HonoraryQuoteFee, f.cranker, f.policy, f.loadPolicy(),
		CrankQuoteFeeParams{ExpectedPageCursor: cursor, MaxPageCursor: maxCursor, IsLastPage: last}, investors)
	require.NoError(f.t, err)
	_, err = f.chain.Execute([]solana.PublicKey{f.cranker}, ix)
	return err
}

func (f *fixture) loadPolicy() *Policy {
	f.t.Helper()
	acc, err := f.chain.Ledger().Account(f.policy)
	require.NoError(f.t, err)
	policy, err := DecodePolicy(acc, program.HonoraryQuoteFee)
	require.NoError(f.t, err)
	return policy
}

func (f *fixture) loadProgress() *DistributionProgress {
	f.t.Helper()
	acc, err := f.chain.Ledger().Account(f.progress)
	require.NoError(f.t, err)
	progress, err := DecodeProgress(acc, program.HonoraryQuoteFee)
	require.NoError(f.t, err)
	return progress
}

func (f *fixture) balance(key solana.PublicKey) uint64 {
	f.t.Helper()
	var amount uint64
	require.NoError(f.t, f.chain.Ledger().View(func(tx *ledger.Tx) error {
		var err error
		amount, err = spltoken.Balance(tx, key)
		return err
	}))
	return amount
}
