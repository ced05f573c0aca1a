package cpamm

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/gagliardetto/solana-go"
)

var (
	PoolAuthoritySeed  = []byte("pool_authority")
	EventAuthoritySeed = []byte("__event_authority")
)

var (
	ErrInvalidPool          = errors.New("cpamm: invalid pool account")
	ErrInvalidPosition      = errors.New("cpamm: invalid position account")
	ErrInvalidInstruction   = errors.New("cpamm: invalid instruction")
	ErrNotEnoughAccountKeys = errors.New("cpamm: not enough account keys")
	ErrInvalidAuthority     = errors.New("cpamm: invalid pool authority")
	ErrInvalidVault         = errors.New("cpamm: vault does not belong to pool")
	ErrInvalidPositionNft   = errors.New("cpamm: invalid position nft account")
	ErrUnauthorized         = errors.New("cpamm: position owner did not sign")
)

// DecodePool checks the leading discriminator before reading the rest.
func DecodePool(data []byte) (*PoolLayout, error) {
	if len(data) < len(PoolDiscriminator) || !bytes.Equal(data[:8], PoolDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidPool)
	}
	if len(data) < PoolLayoutSize {
		return nil, fmt.Errorf("%w: data size is not valid, expected: %d, actual: %d", ErrInvalidPool, PoolLayoutSize, len(data))
	}
	pool := &PoolLayout{}
	if err := pool.unpack(data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPool, err)
	}
	return pool, nil
}

func DecodePosition(data []byte) (*PositionLayout, error) {
	if len(data) < len(PositionDiscriminator) || !bytes.Equal(data[:8], PositionDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidPosition)
	}
	if len(data) < PositionLayoutSize {
		return nil, fmt.Errorf("%w: data size is not valid, expected: %d, actual: %d", ErrInvalidPosition, PositionLayoutSize, len(data))
	}
	position := &PositionLayout{}
	if err := position.unpack(data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPosition, err)
	}
	return position, nil
}

// ParsePool decodes a pool account owned by programID.
func ParsePool(account *ledger.Account, programID solana.PublicKey) (*PoolLayout, error) {
	if !account.Owner.Equals(programID) {
		return nil, fmt.Errorf("%w: account(%s) is not cp amm program account, expected: %s, actual: %s", ErrInvalidPool, account.Key, programID, account.Owner)
	}
	return DecodePool(account.Data)
}

func ParsePosition(account *ledger.Account, programID solana.PublicKey) (*PositionLayout, error) {
	if !account.Owner.Equals(programID) {
		return nil, fmt.Errorf("%w: account(%s) is not cp amm program account, expected: %s, actual: %s", ErrInvalidPosition, account.Key, programID, account.Owner)
	}
	return DecodePosition(account.Data)
}

// AssertQuoteOnlyPool requires the pool to collect fees in token b only and
// token b to be the expected quote mint.
func AssertQuoteOnlyPool(pool *PoolLayout, expectedQuoteMint solana.PublicKey, requiredMode CollectFeeMode) error {
	if pool.CollectFeeMode != uint8(requiredMode) {
		return fmt.Errorf("%w: expected: %d, actual: %d", program.ErrInvalidFeeMode, requiredMode, pool.CollectFeeMode)
	}
	if !pool.TokenBMint.Equals(expectedQuoteMint) {
		return fmt.Errorf("%w: expected: %s, actual: %s", program.ErrQuoteMintMismatch, expectedQuoteMint, pool.TokenBMint)
	}
	return nil
}

func PoolAuthority(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{PoolAuthoritySeed}, programID)
}

func EventAuthority(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{EventAuthoritySeed}, programID)
}

type ClaimPositionFeeAccounts struct {
	PoolAuthority      solana.PublicKey
	Pool               solana.PublicKey
	Position           solana.PublicKey
	TokenAAccount      solana.PublicKey
	TokenBAccount      solana.PublicKey
	TokenAVault        solana.PublicKey
	TokenBVault        solana.PublicKey
	TokenAMint         solana.PublicKey
	TokenBMint         solana.PublicKey
	PositionNftAccount solana.PublicKey
	Owner              solana.PublicKey
	TokenAProgram      solana.PublicKey
	TokenBProgram      solana.PublicKey
	EventAuthority     solana.PublicKey
}

const claimPositionFeeAccountsLen = 15

func InstructionClaimPositionFee(programID solana.PublicKey, a ClaimPositionFeeAccounts) solana.Instruction {
	return program.NewInstruction(programID, ClaimPositionFeeDiscriminator[:],
		program.Readonly(a.PoolAuthority),
		program.Writable(a.Pool),
		program.Writable(a.Position),
		program.Writable(a.TokenAAccount),
		program.Writable(a.TokenBAccount),
		program.Writable(a.TokenAVault),
		program.Writable(a.TokenBVault),
		program.Readonly(a.TokenAMint),
		program.Readonly(a.TokenBMint),
		program.Writable(a.PositionNftAccount),
		program.Signer(a.Owner, true),
		program.Readonly(a.TokenAProgram),
		program.Readonly(a.TokenBProgram),
		program.Readonly(a.EventAuthority),
		program.Readonly(programID),
	)
}

// ClaimPositionFeeEvent mirrors the pool program's own claim log.
type ClaimPositionFeeEvent struct {
	Pool     solana.PublicKey
	Position solana.PublicKey
	Owner    solana.PublicKey
	FeeA     uint64
	FeeB     uint64
}

// Program is a local implementation of the fee-claim entry point of the
// constant-product pool program.
type Program struct {
	log       *slog.Logger
	id        solana.PublicKey
	authority solana.PublicKey
	bump      uint8
}

func NewProgram(log *slog.Logger, id solana.PublicKey) (*Program, error) {
	authority, bump, err := PoolAuthority(id)
	if err != nil {
		return nil, err
	}
	return &Program{
		log:       log,
		id:        id,
		authority: authority,
		bump:      bump,
	}, nil
}

func (p *Program) Name() string {
	return "cp amm"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) Authority() solana.PublicKey {
	return p.authority
}

func (p *Program) Process(ctx *chain.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) < 8 {
		return ErrInvalidInstruction
	}
	if bytes.Equal(data[:8], ClaimPositionFeeDiscriminator[:]) {
		return p.claimPositionFee(ctx, accounts)
	}
	return fmt.Errorf("%w: unknown discriminator %x", ErrInvalidInstruction, data[:8])
}

func (p *Program) claimPositionFee(ctx *chain.Context, accounts []*solana.AccountMeta) error {
	if len(accounts) < claimPositionFeeAccountsLen {
		return ErrNotEnoughAccountKeys
	}
	authorityKey := accounts[0].PublicKey
	poolKey := accounts[1].PublicKey
	positionKey := accounts[2].PublicKey
	tokenAAccount := accounts[3].PublicKey
	tokenBAccount := accounts[4].PublicKey
	tokenAVault := accounts[5].PublicKey
	tokenBVault := accounts[6].PublicKey
	nftKey := accounts[9].PublicKey
	owner := accounts[10].PublicKey

	if !authorityKey.Equals(p.authority) {
		return fmt.Errorf("%w: expected: %s, actual: %s", ErrInvalidAuthority, p.authority, authorityKey)
	}
	poolAcc, err := ctx.Account(poolKey)
	if err != nil {
		return err
	}
	pool, err := ParsePool(poolAcc, p.id)
	if err != nil {
		return err
	}
	positionAcc, err := ctx.Account(positionKey)
	if err != nil {
		return err
	}
	position, err := ParsePosition(positionAcc, p.id)
	if err != nil {
		return err
	}
	if !position.Pool.Equals(poolKey) {
		return fmt.Errorf("%w: position(%s) belongs to pool %s", ErrInvalidPosition, positionKey, position.Pool)
	}
	if !pool.TokenAVault.Equals(tokenAVault) || !pool.TokenBVault.Equals(tokenBVault) {
		return ErrInvalidVault
	}
	nftAcc, err := ctx.Account(nftKey)
	if err != nil {
		return err
	}
	nft, err := spltoken.ParseAccount(nftAcc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPositionNft, err)
	}
	if !nft.Mint.Equals(position.NftMint) || nft.Amount != 1 {
		return fmt.Errorf("%w: %s", ErrInvalidPositionNft, nftKey)
	}
	if !nft.Owner.Equals(owner) || !ctx.IsSigner(owner) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, owner)
	}

	feeA, feeB := position.FeeAPending, position.FeeBPending
	seeds := [][]byte{PoolAuthoritySeed, {p.bump}}
	if feeA > 0 {
		if err := ctx.InvokeSigned(spltoken.InstructionTransfer(tokenAVault, tokenAAccount, p.authority, feeA), seeds); err != nil {
			return err
		}
	}
	if feeB > 0 {
		if err := ctx.InvokeSigned(spltoken.InstructionTransfer(tokenBVault, tokenBAccount, p.authority, feeB), seeds); err != nil {
			return err
		}
	}
	position.FeeAPending = 0
	position.FeeBPending = 0
	position.Metrics.TotalClaimedAFee += feeA
	position.Metrics.TotalClaimedBFee += feeB
	positionAcc.Data = position.pack()
	if err := ctx.Store(positionAcc); err != nil {
		return err
	}
	ctx.Emit(&ClaimPositionFeeEvent{Pool: poolKey, Position: positionKey, Owner: owner, FeeA: feeA, FeeB: feeB})
	p.log.Debug("claim position fee", "position", positionKey, "fee_a", feeA, "fee_b", feeB)
	return nil
}
