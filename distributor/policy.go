package distributor

import (
	"errors"
	"fmt"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/gagliardetto/solana-go"
)

const (
	initializePolicyAccountsLen          = 13
	configureHonoraryPositionAccountsLen = 12
)

func (p *Program) initializePolicy(ctx *chain.Context, accounts []*solana.AccountMeta, params InitializePolicyParams) error {
	if err := requireAccounts(accounts, initializePolicyAccountsLen); err != nil {
		return err
	}
	payer := accounts[0].PublicKey
	authority := accounts[1].PublicKey
	policyKey := accounts[2].PublicKey
	progressKey := accounts[3].PublicKey
	poolKey := accounts[4].PublicKey
	poolAuthority := accounts[5].PublicKey
	dammProgram := accounts[6].PublicKey
	quoteMint := accounts[7].PublicKey
	baseMint := accounts[8].PublicKey
	quoteVault := accounts[9].PublicKey
	baseVault := accounts[10].PublicKey
	creatorQuoteAta := accounts[11].PublicKey

	if err := requireAddress("system program", program.System, accounts[12].PublicKey); err != nil {
		return err
	}
	if params.InvestorFeeShareBps > MaxBasisPoints {
		return fmt.Errorf("%w: %d", program.ErrInvalidInvestorShare, params.InvestorFeeShareBps)
	}
	if params.Y0 == 0 {
		return program.ErrInvalidY0
	}

	expectedPolicy, policyBump, err := PolicyAddress(p.id, poolKey)
	if err != nil {
		return err
	}
	if err := requireAddress("policy", expectedPolicy, policyKey); err != nil {
		return err
	}
	expectedProgress, progressBump, err := ProgressAddress(p.id, poolKey)
	if err != nil {
		return err
	}
	if err := requireAddress("progress", expectedProgress, progressKey); err != nil {
		return err
	}

	if _, err := p.mint(ctx, quoteMint); err != nil {
		return err
	}
	if _, err := p.mint(ctx, baseMint); err != nil {
		return err
	}
	for _, key := range []solana.PublicKey{quoteVault, baseVault} {
		if _, err := p.tokenAccount(ctx, key); err != nil {
			return err
		}
	}
	creatorAta, err := p.tokenAccount(ctx, creatorQuoteAta)
	if err != nil {
		return err
	}

	poolAcc, err := ctx.Account(poolKey)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: pool(%s) not found", program.ErrInvalidPoolAccount, poolKey)
	}
	pool, err := cpamm.ParsePool(poolAcc, dammProgram)
	if err != nil {
		return fmt.Errorf("%w: %v", program.ErrInvalidPoolAccount, err)
	}
	if err := cpamm.AssertQuoteOnlyPool(pool, quoteMint, cpamm.CollectFeeModeOnlyQuote); err != nil {
		return err
	}
	if !pool.Partner.IsZero() {
		return fmt.Errorf("%w: partner %s", program.ErrUnsupportedPartnerPool, pool.Partner)
	}
	if !creatorAta.Mint.Equals(quoteMint) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrCreatorAtaMintMismatch, quoteMint, creatorAta.Mint)
	}
	if !pool.TokenAMint.Equals(baseMint) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrBaseMintMismatch, pool.TokenAMint, baseMint)
	}
	if !pool.TokenAVault.Equals(baseVault) {
		return fmt.Errorf("%w: base vault expected: %s, actual: %s", program.ErrVaultMismatch, pool.TokenAVault, baseVault)
	}
	if !pool.TokenBVault.Equals(quoteVault) {
		return fmt.Errorf("%w: quote vault expected: %s, actual: %s", program.ErrVaultMismatch, pool.TokenBVault, quoteVault)
	}

	policyAcc, err := p.createPda(ctx, payer, policyKey, PolicySpace, [][]byte{PolicySeed, poolKey[:], {policyBump}})
	if err != nil {
		return err
	}
	progressAcc, err := p.createPda(ctx, payer, progressKey, DistributionProgressSpace, [][]byte{ProgressSeed, poolKey[:], {progressBump}})
	if err != nil {
		return err
	}

	policy := &Policy{
		Authority:           authority,
		Pool:                poolKey,
		PoolAuthority:       poolAuthority,
		CpAmmProgram:        dammProgram,
		QuoteMint:           quoteMint,
		BaseMint:            baseMint,
		QuoteVault:          quoteVault,
		BaseVault:           baseVault,
		CreatorQuoteAta:     creatorQuoteAta,
		Y0:                  params.Y0,
		DailyCapQuote:       params.DailyCapQuote,
		MinPayoutLamports:   params.MinPayoutLamports,
		LastDayCloseTs:      InitialLastDayCloseTs,
		InvestorFeeShareBps: params.InvestorFeeShareBps,
		Bump:                policyBump,
	}
	progress := &DistributionProgress{
		Policy: policyKey,
		Bump:   progressBump,
	}
	if err := storeAccount(policyAcc, PolicyDiscriminator, policy); err != nil {
		return err
	}
	if err := storeAccount(progressAcc, DistributionProgressDiscriminator, progress); err != nil {
		return err
	}
	if err := ctx.Store(policyAcc); err != nil {
		return err
	}
	if err := ctx.Store(progressAcc); err != nil {
		return err
	}
	p.log.Info("initialize policy", "policy", policyKey, "pool", poolKey, "share_bps", params.InvestorFeeShareBps, "y0", params.Y0)
	return nil
}

func (p *Program) configureHonoraryPosition(ctx *chain.Context, accounts []*solana.AccountMeta) error {
	if err := requireAccounts(accounts, configureHonoraryPositionAccountsLen); err != nil {
		return err
	}
	authority := accounts[0].PublicKey
	policyKey := accounts[1].PublicKey
	honoraryKey := accounts[2].PublicKey
	positionKey := accounts[3].PublicKey
	nftMintKey := accounts[4].PublicKey
	nftAccountKey := accounts[5].PublicKey
	quoteMint := accounts[6].PublicKey
	quoteTreasuryKey := accounts[7].PublicKey
	baseMint := accounts[8].PublicKey
	baseFeeCheckKey := accounts[9].PublicKey

	if err := requireAddress("system program", program.System, accounts[10].PublicKey); err != nil {
		return err
	}
	if err := requireAddress("token program", program.Token, accounts[11].PublicKey); err != nil {
		return err
	}

	policyAcc, policy, err := p.loadPolicy(ctx, policyKey)
	if err != nil {
		return err
	}
	if !policy.Authority.Equals(authority) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrUnauthorized, policy.Authority, authority)
	}
	if !policy.Position.IsZero() {
		return fmt.Errorf("%w: position %s", program.ErrHonoraryPositionAlreadyConfigured, policy.Position)
	}
	expectedHonorary, honoraryBump, err := HonoraryPositionAddress(p.id, policyKey)
	if err != nil {
		return err
	}
	if err := requireAddress("honorary position", expectedHonorary, honoraryKey); err != nil {
		return err
	}
	if err := requireAddress("quote mint", policy.QuoteMint, quoteMint); err != nil {
		return err
	}
	if err := requireAddress("base mint", policy.BaseMint, baseMint); err != nil {
		return err
	}

	positionAcc, err := ctx.Account(positionKey)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: position(%s) not found", program.ErrInvalidPositionAccount, positionKey)
	}
	position, err := cpamm.ParsePosition(positionAcc, policy.CpAmmProgram)
	if err != nil {
		return fmt.Errorf("%w: %v", program.ErrInvalidPositionAccount, err)
	}
	if !position.Pool.Equals(policy.Pool) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrPositionPoolMismatch, policy.Pool, position.Pool)
	}
	if position.FeeAPending != 0 || position.FeeBPending != 0 {
		return fmt.Errorf("%w: fee a: %d, fee b: %d", program.ErrPositionHasUnclaimedFees, position.FeeAPending, position.FeeBPending)
	}
	if !position.IsEmpty() {
		return program.ErrPositionNotEmpty
	}

	nftMint, err := p.mint(ctx, nftMintKey)
	if err != nil {
		return err
	}
	if nftMint.Decimals != 0 {
		return fmt.Errorf("%w: decimals %d", program.ErrInvalidPositionMint, nftMint.Decimals)
	}
	nft, err := p.tokenAccount(ctx, nftAccountKey)
	if err != nil {
		return err
	}
	if !nft.Mint.Equals(nftMintKey) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrInvalidPositionNft, nftMintKey, nft.Mint)
	}
	if !nft.Owner.Equals(honoraryKey) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrInvalidPositionNftOwner, honoraryKey, nft.Owner)
	}
	if nft.Amount != 1 {
		return fmt.Errorf("%w: amount %d", program.ErrInvalidPositionNftAmount, nft.Amount)
	}

	treasuries := []struct {
		key  solana.PublicKey
		mint solana.PublicKey
	}{
		{quoteTreasuryKey, policy.QuoteMint},
		{baseFeeCheckKey, policy.BaseMint},
	}
	for _, treasury := range treasuries {
		user, err := p.tokenAccount(ctx, treasury.key)
		if err != nil {
			return err
		}
		if !user.Mint.Equals(treasury.mint) {
			return fmt.Errorf("%w: account(%s) expected: %s, actual: %s", program.ErrTreasuryMintMismatch, treasury.key, treasury.mint, user.Mint)
		}
		if !user.Owner.Equals(honoraryKey) {
			return fmt.Errorf("%w: account(%s) expected: %s, actual: %s", program.ErrTreasuryOwnerMismatch, treasury.key, honoraryKey, user.Owner)
		}
	}

	honoraryAcc, err := p.createPda(ctx, authority, honoraryKey, HonoraryPositionSpace, [][]byte{HonoraryPositionSeed, policyKey[:], {honoraryBump}})
	if err != nil {
		return err
	}
	honorary := &HonoraryPosition{Policy: policyKey, Bump: honoraryBump}
	if err := storeAccount(honoraryAcc, HonoraryPositionDiscriminator, honorary); err != nil {
		return err
	}
	if err := ctx.Store(honoraryAcc); err != nil {
		return err
	}

	policy.Position = positionKey
	policy.PositionNftMint = nftMintKey
	policy.PositionNftAccount = nftAccountKey
	policy.QuoteTreasury = quoteTreasuryKey
	policy.BaseFeeCheck = baseFeeCheckKey
	policy.Status |= StatusHonoraryReady
	if err := storeAccount(policyAcc, PolicyDiscriminator, policy); err != nil {
		return err
	}
	if err := ctx.Store(policyAcc); err != nil {
		return err
	}

	ctx.Emit(&HonoraryPositionInitialized{
		Policy:        policyKey,
		Position:      positionKey,
		QuoteTreasury: quoteTreasuryKey,
	})
	p.log.Info("configure honorary position", "policy", policyKey, "position", positionKey, "honorary", honoraryKey)
	return nil
}
