package env

import (
	"github.com/egaotan/honorary-quote-fee/config"
	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/streamflow"
	"github.com/egaotan/honorary-quote-fee/system"
	"github.com/gagliardetto/solana-go"
)

const (
	QuoteDecimals = 6
	BaseDecimals  = 9

	seedLamports = 10_000_000_000
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// SeedPool writes a quote-only pool with an empty position into the ledger and
// points the config at it. The position NFT is already held by the honorary
// address; treasuries are left for InitializePolicy to create.
func (e *Env) SeedPool() error {
	cfg := e.cfg
	cfg.Payer = newKey()
	cfg.Authority = newKey()
	cfg.Cranker = newKey()
	creator := newKey()
	cfg.Accounts = NewAccounts()
	if err := e.bind(); err != nil {
		return err
	}
	poolAuthority, _, err := cpamm.PoolAuthority(cfg.CpAmmProgram)
	if err != nil {
		return err
	}
	a := cfg.Accounts
	err = e.ledger.Update(func(tx *ledger.Tx) error {
		steps := []func() error{
			func() error { return system.Fund(tx, cfg.Payer, seedLamports) },
			func() error { return system.Fund(tx, cfg.Authority, seedLamports) },
			func() error { return spltoken.PutMint(tx, a.QuoteMint, newKey(), QuoteDecimals, 0) },
			func() error { return spltoken.PutMint(tx, a.BaseMint, newKey(), BaseDecimals, 0) },
			func() error { return spltoken.PutMint(tx, a.PositionNftMint, poolAuthority, 0, 1) },
			func() error {
				return cpamm.PutPool(tx, a.Pool, cfg.CpAmmProgram, &cpamm.PoolLayout{
					TokenAMint:     a.BaseMint,
					TokenBMint:     a.QuoteMint,
					TokenAVault:    a.BaseVault,
					TokenBVault:    a.QuoteVault,
					CollectFeeMode: uint8(cpamm.CollectFeeModeOnlyQuote),
				})
			},
			func() error {
				return cpamm.PutPosition(tx, a.Position, cfg.CpAmmProgram, &cpamm.PositionLayout{Pool: a.Pool, NftMint: a.PositionNftMint})
			},
			func() error { return spltoken.PutAccount(tx, a.QuoteVault, a.QuoteMint, poolAuthority, 0) },
			func() error { return spltoken.PutAccount(tx, a.BaseVault, a.BaseMint, poolAuthority, 0) },
			func() error { return spltoken.PutAccount(tx, a.CreatorQuoteAta, a.QuoteMint, creator, 0) },
			func() error { return spltoken.PutAccount(tx, a.PositionNftAccount, a.PositionNftMint, e.honorary, 1) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.log.Info("pool seeded", "pool", a.Pool, "quote_mint", a.QuoteMint, "position", a.Position)
	return nil
}

// NewAccounts returns a fresh set of keys for a local pool.
func NewAccounts() config.Accounts {
	return config.Accounts{
		Pool:               newKey(),
		QuoteMint:          newKey(),
		BaseMint:           newKey(),
		QuoteVault:         newKey(),
		BaseVault:          newKey(),
		CreatorQuoteAta:    newKey(),
		Position:           newKey(),
		PositionNftMint:    newKey(),
		PositionNftAccount: newKey(),
		QuoteTreasury:      newKey(),
		BaseFeeCheck:       newKey(),
	}
}

// AddStream writes a linear streamflow contract of deposited quote tokens
// unlocking over [start, end) and registers it as an investor.
func (e *Env) AddStream(deposited uint64, start, end int64) (solana.PublicKey, error) {
	key := newKey()
	recipient := newKey()
	recipientTokens := newKey()
	duration := uint64(end - start)
	if duration == 0 {
		duration = 1
	}
	err := e.ledger.Update(func(tx *ledger.Tx) error {
		if err := spltoken.PutAccount(tx, recipientTokens, e.cfg.Accounts.QuoteMint, recipient, 0); err != nil {
			return err
		}
		return streamflow.PutContract(tx, key, &streamflow.Contract{
			CreatedAt:       uint64(start),
			EndTime:         uint64(end),
			Recipient:       recipient,
			RecipientTokens: recipientTokens,
			Mint:            e.cfg.Accounts.QuoteMint,
			Ix: streamflow.CreateParams{
				StartTime:          uint64(start),
				NetAmountDeposited: deposited,
				Period:             1,
				AmountPerPeriod:    (deposited + duration - 1) / duration,
			},
		})
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	e.cfg.Accounts.Streams = append(e.cfg.Accounts.Streams, key)
	return key, nil
}

// AccrueFees credits trading fees to the honorary position as swaps would.
func (e *Env) AccrueFees(quote, base uint64) error {
	return e.ledger.Update(func(tx *ledger.Tx) error {
		return cpamm.AccrueFee(tx, e.cfg.CpAmmProgram, e.cfg.Accounts.Position, base, quote)
	})
}
