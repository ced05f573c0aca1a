package env

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/config"
	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/distributor"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/streamflow"
	"github.com/egaotan/honorary-quote-fee/system"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
)

var ErrPolicyNotFound = errors.New("env: policy not initialized")

// Env is a local runtime with every program the distributor talks to, bound
// to the accounts of one configured pool.
type Env struct {
	log    *slog.Logger
	cfg    *config.Config
	ledger *ledger.Ledger
	chain  *chain.Chain

	policy   solana.PublicKey
	progress solana.PublicKey
	honorary solana.PublicKey
}

func NewEnv(cfg *config.Config, clock clockwork.Clock, log *slog.Logger) (*Env, error) {
	if dir := filepath.Dir(cfg.Ledger); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return nil, err
	}
	c := chain.New(l, clock, log)
	c.Register(system.NewProgram(log))
	c.Register(spltoken.NewProgram(log))
	amm, err := cpamm.NewProgram(log, cfg.CpAmmProgram)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	c.Register(amm)
	c.Register(distributor.NewProgram(log, cfg.Program))

	e := &Env{
		log:    log,
		cfg:    cfg,
		ledger: l,
		chain:  c,
	}
	if err := e.bind(); err != nil {
		_ = l.Close()
		return nil, err
	}
	return e, nil
}

// bind derives the program addresses of the configured pool.
func (e *Env) bind() error {
	var err error
	e.policy, _, err = distributor.PolicyAddress(e.cfg.Program, e.cfg.Accounts.Pool)
	if err != nil {
		return err
	}
	e.progress, _, err = distributor.ProgressAddress(e.cfg.Program, e.cfg.Accounts.Pool)
	if err != nil {
		return err
	}
	e.honorary, _, err = distributor.HonoraryPositionAddress(e.cfg.Program, e.policy)
	return err
}

func (e *Env) Close() error {
	return e.ledger.Close()
}

func (e *Env) Config() *config.Config { return e.cfg }

func (e *Env) Chain() *chain.Chain { return e.chain }

func (e *Env) Ledger() *ledger.Ledger { return e.ledger }

func (e *Env) PolicyKey() solana.PublicKey { return e.policy }

func (e *Env) ProgressKey() solana.PublicKey { return e.progress }

func (e *Env) HonoraryKey() solana.PublicKey { return e.honorary }

func (e *Env) Policy() (*distributor.Policy, error) {
	acc, err := e.ledger.Account(e.policy)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, e.policy)
	}
	if err != nil {
		return nil, err
	}
	return distributor.DecodePolicy(acc, e.cfg.Program)
}

func (e *Env) Progress() (*distributor.DistributionProgress, error) {
	acc, err := e.ledger.Account(e.progress)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, e.progress)
	}
	if err != nil {
		return nil, err
	}
	return distributor.DecodeProgress(acc, e.cfg.Program)
}

func (e *Env) Balance(key solana.PublicKey) (uint64, error) {
	var amount uint64
	err := e.ledger.View(func(tx *ledger.Tx) error {
		var err error
		amount, err = spltoken.Balance(tx, key)
		return err
	})
	return amount, err
}

// Investors resolves the configured streams to (stream, recipient tokens)
// pairs, in configuration order.
func (e *Env) Investors() ([]distributor.InvestorAccounts, error) {
	investors := make([]distributor.InvestorAccounts, 0, len(e.cfg.Accounts.Streams))
	err := e.ledger.View(func(tx *ledger.Tx) error {
		for _, key := range e.cfg.Accounts.Streams {
			acc, err := tx.Account(key)
			if err != nil {
				return fmt.Errorf("stream %s: %w", key, err)
			}
			contract, err := streamflow.ParseContract(acc)
			if err != nil {
				return err
			}
			investors = append(investors, distributor.InvestorAccounts{
				Stream:       key,
				TokenAccount: contract.RecipientTokens,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return investors, nil
}

func (e *Env) MintDecimals(key solana.PublicKey) (uint8, error) {
	acc, err := e.ledger.Account(key)
	if err != nil {
		return 0, err
	}
	mint, err := spltoken.ParseMint(acc)
	if err != nil {
		return 0, err
	}
	return mint.Decimals, nil
}
