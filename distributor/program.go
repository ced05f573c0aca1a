package distributor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/system"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Program is the honorary quote-fee distributor.
type Program struct {
	log *slog.Logger
	id  solana.PublicKey
}

func NewProgram(log *slog.Logger, id solana.PublicKey) *Program {
	return &Program{
		log: log,
		id:  id,
	}
}

func (p *Program) Name() string {
	return "honorary quote fee"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) Process(ctx *chain.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: data too short", program.ErrInvalidInstruction)
	}
	var disc [8]byte
	copy(disc[:], data[:8])
	switch disc {
	case InitializePolicyDiscriminator:
		params := InitializePolicyParams{}
		if err := decodeParams(data[8:], &params); err != nil {
			return err
		}
		return p.initializePolicy(ctx, accounts, params)
	case ConfigureHonoraryPositionDiscriminator:
		return p.configureHonoraryPosition(ctx, accounts)
	case CrankQuoteFeeDistributionDiscriminator:
		params := CrankQuoteFeeParams{}
		if err := decodeParams(data[8:], &params); err != nil {
			return err
		}
		return p.crankQuoteFeeDistribution(ctx, accounts, params)
	default:
		return fmt.Errorf("%w: unknown discriminator %x", program.ErrInvalidInstruction, data[:8])
	}
}

func decodeParams(data []byte, v interface{}) error {
	if err := bin.NewBorshDecoder(data).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", program.ErrInvalidInstruction, err)
	}
	return nil
}

func requireAccounts(accounts []*solana.AccountMeta, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: expected: %d, actual: %d", program.ErrNotEnoughAccounts, n, len(accounts))
	}
	return nil
}

func requireAddress(name string, expected, actual solana.PublicKey) error {
	if !expected.Equals(actual) {
		return fmt.Errorf("%w: %s expected: %s, actual: %s", program.ErrConstraintAddress, name, expected, actual)
	}
	return nil
}

// createPda allocates an account at a derived address owned by this program.
// seeds must include the bump.
func (p *Program) createPda(ctx *chain.Context, payer, key solana.PublicKey, space uint64, seeds [][]byte) (*ledger.Account, error) {
	lamports := system.MinimumBalanceForRentExemption(space)
	ix := system.InstructionCreateAccount(payer, key, lamports, space, p.id)
	if err := ctx.InvokeSigned(ix, seeds); err != nil {
		return nil, err
	}
	return ctx.Account(key)
}

func (p *Program) tokenAccount(ctx *chain.Context, key solana.PublicKey) (*spltoken.AccountLayout, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account(%s) not found", program.ErrInvalidTokenAccount, key)
		}
		return nil, err
	}
	user, err := spltoken.ParseAccount(acc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", program.ErrInvalidTokenAccount, err)
	}
	return user, nil
}

func (p *Program) mint(ctx *chain.Context, key solana.PublicKey) (*spltoken.MintLayout, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: mint(%s) not found", program.ErrInvalidTokenAccount, key)
		}
		return nil, err
	}
	m, err := spltoken.ParseMint(acc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", program.ErrInvalidTokenAccount, err)
	}
	return m, nil
}

func (p *Program) loadPolicy(ctx *chain.Context, key solana.PublicKey) (*ledger.Account, *Policy, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, nil, fmt.Errorf("%w: account(%s) not found", program.ErrInvalidPolicyAccount, key)
		}
		return nil, nil, err
	}
	policy, err := DecodePolicy(acc, p.id)
	if err != nil {
		return nil, nil, err
	}
	return acc, policy, nil
}
