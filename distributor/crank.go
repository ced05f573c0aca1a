package distributor

import (
	"errors"
	"fmt"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
)

// CrankFixedAccountsLen is the number of accounts before the investor pairs.
const CrankFixedAccountsLen = 20

type crankAccounts struct {
	cranker            solana.PublicKey
	policy             solana.PublicKey
	honoraryPosition   solana.PublicKey
	progress           solana.PublicKey
	quoteTreasury      solana.PublicKey
	baseFeeCheck       solana.PublicKey
	creatorQuoteAta    solana.PublicKey
	pool               solana.PublicKey
	poolAuthority      solana.PublicKey
	position           solana.PublicKey
	positionNftAccount solana.PublicKey
	baseVault          solana.PublicKey
	quoteVault         solana.PublicKey
	baseMint           solana.PublicKey
	quoteMint          solana.PublicKey
	eventAuthority     solana.PublicKey
	cpAmmProgram       solana.PublicKey
	tokenProgramA      solana.PublicKey
	tokenProgramB      solana.PublicKey
	tokenProgram       solana.PublicKey
	remaining          []*solana.AccountMeta
}

func parseCrankAccounts(accounts []*solana.AccountMeta) (*crankAccounts, error) {
	if err := requireAccounts(accounts, CrankFixedAccountsLen); err != nil {
		return nil, err
	}
	return &crankAccounts{
		cranker:            accounts[0].PublicKey,
		policy:             accounts[1].PublicKey,
		honoraryPosition:   accounts[2].PublicKey,
		progress:           accounts[3].PublicKey,
		quoteTreasury:      accounts[4].PublicKey,
		baseFeeCheck:       accounts[5].PublicKey,
		creatorQuoteAta:    accounts[6].PublicKey,
		pool:               accounts[7].PublicKey,
		poolAuthority:      accounts[8].PublicKey,
		position:           accounts[9].PublicKey,
		positionNftAccount: accounts[10].PublicKey,
		baseVault:          accounts[11].PublicKey,
		quoteVault:         accounts[12].PublicKey,
		baseMint:           accounts[13].PublicKey,
		quoteMint:          accounts[14].PublicKey,
		eventAuthority:     accounts[15].PublicKey,
		cpAmmProgram:       accounts[16].PublicKey,
		tokenProgramA:      accounts[17].PublicKey,
		tokenProgramB:      accounts[18].PublicKey,
		tokenProgram:       accounts[19].PublicKey,
		remaining:          accounts[CrankFixedAccountsLen:],
	}, nil
}

// checkAddresses pins every fixed account to what the policy recorded.
func (a *crankAccounts) checkAddresses(policy *Policy, progressKey solana.PublicKey) error {
	checks := []struct {
		name     string
		expected solana.PublicKey
		actual   solana.PublicKey
	}{
		{"progress", progressKey, a.progress},
		{"quote treasury", policy.QuoteTreasury, a.quoteTreasury},
		{"base fee check", policy.BaseFeeCheck, a.baseFeeCheck},
		{"creator quote ata", policy.CreatorQuoteAta, a.creatorQuoteAta},
		{"pool", policy.Pool, a.pool},
		{"pool authority", policy.PoolAuthority, a.poolAuthority},
		{"position", policy.Position, a.position},
		{"position nft account", policy.PositionNftAccount, a.positionNftAccount},
		{"base vault", policy.BaseVault, a.baseVault},
		{"quote vault", policy.QuoteVault, a.quoteVault},
		{"base mint", policy.BaseMint, a.baseMint},
		{"quote mint", policy.QuoteMint, a.quoteMint},
		{"cp amm program", policy.CpAmmProgram, a.cpAmmProgram},
		{"token program", program.Token, a.tokenProgram},
	}
	for _, c := range checks {
		if err := requireAddress(c.name, c.expected, c.actual); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) crankQuoteFeeDistribution(ctx *chain.Context, accounts []*solana.AccountMeta, params CrankQuoteFeeParams) error {
	a, err := parseCrankAccounts(accounts)
	if err != nil {
		return err
	}
	if !ctx.IsSigner(a.cranker) {
		return fmt.Errorf("%w: cranker %s did not sign", program.ErrUnauthorized, a.cranker)
	}
	now := ctx.UnixTimestamp
	if now < 0 {
		return fmt.Errorf("%w: %d", program.ErrInvalidTimestamp, now)
	}

	policyAcc, policy, err := p.loadPolicy(ctx, a.policy)
	if err != nil {
		return err
	}
	expectedProgress, _, err := ProgressAddress(p.id, policy.Pool)
	if err != nil {
		return err
	}
	if err := a.checkAddresses(policy, expectedProgress); err != nil {
		return err
	}
	honoraryAcc, err := ctx.Account(a.honoraryPosition)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fmt.Errorf("%w: account(%s) not found", program.ErrHonoraryPositionNotReady, a.honoraryPosition)
		}
		return err
	}
	honorary, err := DecodeHonoraryPosition(honoraryAcc, p.id)
	if err != nil {
		return err
	}
	signerSeeds := [][]byte{HonoraryPositionSeed, a.policy[:], {honorary.Bump}}
	honoraryKey, err := solana.CreateProgramAddress(signerSeeds, p.id)
	if err != nil {
		return fmt.Errorf("%w: honorary position seeds: %v", program.ErrConstraintAddress, err)
	}
	if err := requireAddress("honorary position", honoraryKey, a.honoraryPosition); err != nil {
		return err
	}

	progressAcc, err := ctx.Account(a.progress)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return fmt.Errorf("%w: account(%s) not found", program.ErrInvalidProgressAccount, a.progress)
		}
		return err
	}
	progress, err := DecodeProgress(progressAcc, p.id)
	if err != nil {
		return err
	}

	if !policy.Ready() {
		return program.ErrHonoraryPositionNotReady
	}
	if !progress.Policy.Equals(a.policy) {
		return fmt.Errorf("%w: progress belongs to %s", program.ErrDayNotOpen, progress.Policy)
	}

	if !progress.DayOpen {
		// the sentinel is far enough from the int64 bounds for this to not wrap
		if now < policy.LastDayCloseTs+DaySeconds {
			return fmt.Errorf("%w: next window opens at %d", program.ErrDayNotReady, policy.LastDayCloseTs+DaySeconds)
		}
		progress.DayOpen = true
		progress.DayStartTs = now
		progress.PageCursor = 0
		progress.ClaimedQuote = 0
		progress.InvestorDistributed = 0
	}

	if params.ExpectedPageCursor != progress.PageCursor {
		return fmt.Errorf("%w: expected: %d, actual: %d", program.ErrUnexpectedPageCursor, progress.PageCursor, params.ExpectedPageCursor)
	}

	quoteClaimed, err := p.claimFees(ctx, a, signerSeeds)
	if err != nil {
		return err
	}
	if progress.ClaimedQuote, err = utils.CheckedAdd(progress.ClaimedQuote, quoteClaimed); err != nil {
		return err
	}

	remaining := make([]*ledger.Account, 0, len(a.remaining))
	for _, meta := range a.remaining {
		acc, err := ctx.Account(meta.PublicKey)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) {
				return fmt.Errorf("%w: account(%s) not found", program.ErrInvalidInvestorAccount, meta.PublicKey)
			}
			return err
		}
		remaining = append(remaining, acc)
	}
	investors, err := CollectInvestors(uint64(now), remaining, policy.QuoteMint)
	if err != nil {
		return err
	}
	plan, err := BuildInvestorPayoutPlan(investors, policy.PayoutParams(progress))
	if err != nil {
		return err
	}

	if plan.InvestorCount == 0 && !params.IsLastPage {
		return program.ErrEmptyPageWithoutLastFlag
	}
	maxCursor := uint64(params.MaxPageCursor)
	if maxCursor == 0 {
		maxCursor = uint64(^uint32(0))
	}
	if uint64(plan.InvestorCount)+uint64(progress.PageCursor) > maxCursor {
		return fmt.Errorf("%w: cursor %d + %d > %d", program.ErrPageOverflow, progress.PageCursor, plan.InvestorCount, maxCursor)
	}

	progress.CarryQuote = plan.CarryQuoteAfter
	if progress.InvestorDistributed, err = utils.CheckedAdd(progress.InvestorDistributed, plan.TotalPaid); err != nil {
		return err
	}
	for _, transfer := range plan.Transfers {
		if transfer.Amount == 0 {
			continue
		}
		dest := a.remaining[transfer.TokenAccountIndex].PublicKey
		ix := spltoken.InstructionTransfer(policy.QuoteTreasury, dest, a.honoraryPosition, transfer.Amount)
		if err := ctx.InvokeSigned(ix, signerSeeds); err != nil {
			return err
		}
	}
	// bounded by maxCursor above
	progress.PageCursor += plan.InvestorCount

	ctx.Emit(&QuoteFeesClaimed{
		Policy:            a.policy,
		DayStartTs:        progress.DayStartTs,
		QuoteFeesClaimed:  quoteClaimed,
		CumulativeClaimed: progress.ClaimedQuote,
		EligibleShareBps:  plan.ShareBps,
	})
	ctx.Emit(&InvestorPayoutPage{
		Policy:             a.policy,
		DayStartTs:         progress.DayStartTs,
		PageStart:          params.ExpectedPageCursor,
		InvestorsProcessed: plan.InvestorCount,
		TotalPaidQuote:     plan.TotalPaid,
		CarryQuote:         progress.CarryQuote,
	})
	p.log.Info("investor payout page", "policy", a.policy, "cursor", params.ExpectedPageCursor,
		"investors", plan.InvestorCount, "claimed", quoteClaimed, "paid", plan.TotalPaid, "carry", progress.CarryQuote)

	if params.IsLastPage {
		if err := p.closeDay(ctx, a, policy, progress, plan, signerSeeds); err != nil {
			return err
		}
	}

	if err := storeAccount(progressAcc, DistributionProgressDiscriminator, progress); err != nil {
		return err
	}
	if err := ctx.Store(progressAcc); err != nil {
		return err
	}
	if err := storeAccount(policyAcc, PolicyDiscriminator, policy); err != nil {
		return err
	}
	return ctx.Store(policyAcc)
}

// claimFees pulls pending position fees into the treasuries and returns the
// quote amount received. Any base-side movement fails the crank.
func (p *Program) claimFees(ctx *chain.Context, a *crankAccounts, signerSeeds [][]byte) (uint64, error) {
	quoteBefore, err := p.balance(ctx, a.quoteTreasury)
	if err != nil {
		return 0, err
	}
	baseBefore, err := p.balance(ctx, a.baseFeeCheck)
	if err != nil {
		return 0, err
	}

	ix := cpamm.InstructionClaimPositionFee(a.cpAmmProgram, cpamm.ClaimPositionFeeAccounts{
		PoolAuthority:      a.poolAuthority,
		Pool:               a.pool,
		Position:           a.position,
		TokenAAccount:      a.baseFeeCheck,
		TokenBAccount:      a.quoteTreasury,
		TokenAVault:        a.baseVault,
		TokenBVault:        a.quoteVault,
		TokenAMint:         a.baseMint,
		TokenBMint:         a.quoteMint,
		PositionNftAccount: a.positionNftAccount,
		Owner:              a.honoraryPosition,
		TokenAProgram:      a.tokenProgramA,
		TokenBProgram:      a.tokenProgramB,
		EventAuthority:     a.eventAuthority,
	})
	if err := ctx.InvokeSigned(ix, signerSeeds); err != nil {
		return 0, err
	}

	quoteAfter, err := p.balance(ctx, a.quoteTreasury)
	if err != nil {
		return 0, err
	}
	baseAfter, err := p.balance(ctx, a.baseFeeCheck)
	if err != nil {
		return 0, err
	}
	if quoteAfter < quoteBefore {
		return 0, fmt.Errorf("%w: quote treasury decreased from %d to %d", program.ErrArithmeticOverflow, quoteBefore, quoteAfter)
	}
	if baseAfter != baseBefore {
		return 0, fmt.Errorf("%w: before: %d, after: %d", program.ErrBaseFeeDetected, baseBefore, baseAfter)
	}
	return quoteAfter - quoteBefore, nil
}

func (p *Program) closeDay(ctx *chain.Context, a *crankAccounts, policy *Policy, progress *DistributionProgress, plan *InvestorPayoutPlan, signerSeeds [][]byte) error {
	creatorTransfer := utils.SaturatingSub(progress.ClaimedQuote, plan.TargetInvestorQuote)
	if plan.ShareBps == 0 {
		var err error
		if creatorTransfer, err = utils.CheckedAdd(creatorTransfer, plan.CarryForCreator); err != nil {
			return err
		}
		progress.CarryQuote = 0
	}
	if creatorTransfer > 0 {
		ix := spltoken.InstructionTransfer(policy.QuoteTreasury, policy.CreatorQuoteAta, a.honoraryPosition, creatorTransfer)
		if err := ctx.InvokeSigned(ix, signerSeeds); err != nil {
			return err
		}
	}

	ctx.Emit(&CreatorPayoutDayClosed{
		Policy:            a.policy,
		DayStartTs:        progress.DayStartTs,
		CreatorQuotePaid:  creatorTransfer,
		InvestorQuotePaid: progress.InvestorDistributed,
		ClaimedQuote:      progress.ClaimedQuote,
		ShareBps:          plan.ShareBps,
	})
	p.log.Info("creator payout day closed", "policy", a.policy, "day_start", progress.DayStartTs,
		"creator", creatorTransfer, "investors", progress.InvestorDistributed, "claimed", progress.ClaimedQuote)

	policy.LastDayCloseTs = progress.DayStartTs
	progress.DayOpen = false
	progress.ClaimedQuote = 0
	progress.InvestorDistributed = 0
	progress.PageCursor = 0
	return nil
}

func (p *Program) balance(ctx *chain.Context, key solana.PublicKey) (uint64, error) {
	user, err := p.tokenAccount(ctx, key)
	if err != nil {
		return 0, err
	}
	return user.Amount, nil
}
