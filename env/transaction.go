package env

import (
	"errors"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/distributor"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/system"
	"github.com/gagliardetto/solana-go"
)

// InitializePolicy creates whichever treasury accounts are missing, owned by
// the honorary address, and initializes the policy in the same transaction.
func (e *Env) InitializePolicy() (*chain.Receipt, error) {
	cfg := e.cfg
	poolAuthority, _, err := cpamm.PoolAuthority(cfg.CpAmmProgram)
	if err != nil {
		return nil, err
	}
	ixs := make([]solana.Instruction, 0, 5)
	signers := []solana.PublicKey{cfg.Payer, cfg.Authority}
	treasuries := []struct {
		key  solana.PublicKey
		mint solana.PublicKey
	}{
		{cfg.Accounts.QuoteTreasury, cfg.Accounts.QuoteMint},
		{cfg.Accounts.BaseFeeCheck, cfg.Accounts.BaseMint},
	}
	for _, treasury := range treasuries {
		if treasury.key.IsZero() {
			continue
		}
		exists, err := e.exists(treasury.key)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		ixs = append(ixs,
			system.InstructionCreateAccount(cfg.Payer, treasury.key, system.MinimumBalanceForRentExemption(uint64(spltoken.TokenLayoutSize)), uint64(spltoken.TokenLayoutSize), program.Token),
			spltoken.InstructionInitializeAccount(treasury.key, treasury.mint, e.honorary),
		)
		signers = append(signers, treasury.key)
	}
	ix, err := distributor.InstructionInitializePolicy(cfg.Program, distributor.InitializePolicyAccounts{
		Payer:           cfg.Payer,
		Authority:       cfg.Authority,
		Pool:            cfg.Accounts.Pool,
		PoolAuthority:   poolAuthority,
		CpAmmProgram:    cfg.CpAmmProgram,
		QuoteMint:       cfg.Accounts.QuoteMint,
		BaseMint:        cfg.Accounts.BaseMint,
		QuoteVault:      cfg.Accounts.QuoteVault,
		BaseVault:       cfg.Accounts.BaseVault,
		CreatorQuoteAta: cfg.Accounts.CreatorQuoteAta,
	}, distributor.InitializePolicyParams{
		InvestorFeeShareBps: cfg.Policy.InvestorFeeShareBps,
		Y0:                  cfg.Policy.Y0,
		DailyCapQuote:       cfg.Policy.DailyCapQuote,
		MinPayoutLamports:   cfg.Policy.MinPayoutLamports,
	})
	if err != nil {
		return nil, err
	}
	ixs = append(ixs, ix)
	receipt, err := e.chain.Execute(signers, ixs...)
	if err != nil {
		return nil, err
	}
	e.log.Info("policy initialized", "policy", e.policy, "pool", cfg.Accounts.Pool, "slot", receipt.Slot)
	return receipt, nil
}

func (e *Env) ConfigurePosition() (*chain.Receipt, error) {
	cfg := e.cfg
	ix, err := distributor.InstructionConfigureHonoraryPosition(cfg.Program, distributor.ConfigureHonoraryPositionAccounts{
		Authority:          cfg.Authority,
		Policy:             e.policy,
		Position:           cfg.Accounts.Position,
		PositionNftMint:    cfg.Accounts.PositionNftMint,
		PositionNftAccount: cfg.Accounts.PositionNftAccount,
		QuoteMint:          cfg.Accounts.QuoteMint,
		QuoteTreasury:      cfg.Accounts.QuoteTreasury,
		BaseMint:           cfg.Accounts.BaseMint,
		BaseFeeCheck:       cfg.Accounts.BaseFeeCheck,
	})
	if err != nil {
		return nil, err
	}
	receipt, err := e.chain.Execute([]solana.PublicKey{cfg.Authority}, ix)
	if err != nil {
		return nil, err
	}
	e.log.Info("honorary position configured", "policy", e.policy, "position", cfg.Accounts.Position, "slot", receipt.Slot)
	return receipt, nil
}

// Crank submits one page of the distribution crank.
func (e *Env) Crank(params distributor.CrankQuoteFeeParams, investors []distributor.InvestorAccounts) (*chain.Receipt, error) {
	policy, err := e.Policy()
	if err != nil {
		return nil, err
	}
	ix, err := distributor.InstructionCrankQuoteFeeDistribution(e.cfg.Program, e.cfg.Cranker, e.policy, policy, params, investors)
	if err != nil {
		return nil, err
	}
	return e.chain.Execute([]solana.PublicKey{e.cfg.Cranker}, ix)
}

func (e *Env) exists(key solana.PublicKey) (bool, error) {
	_, err := e.ledger.Account(key)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}
