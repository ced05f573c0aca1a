package system

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/gagliardetto/solana-go"
)

const (
	InstructionCreateAccountTag uint32 = 0
	createAccountDataSize              = 52

	// rent-exempt minimum as the runtime computes it for the default rent
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionThreshold     = 2
)

var (
	ErrInvalidInstruction   = errors.New("system: invalid instruction data")
	ErrNotEnoughAccountKeys = errors.New("system: not enough account keys")
	ErrMissingSigner        = errors.New("system: missing required signer")
	ErrAccountInUse         = errors.New("system: account already in use")
	ErrInsufficientLamports = errors.New("system: insufficient lamports")
	ErrInvalidOwner         = errors.New("system: funding account is not a system account")
)

func MinimumBalanceForRentExemption(space uint64) uint64 {
	return (space + accountStorageOverhead) * lamportsPerByteYear * exemptionThreshold
}

type Program struct {
	log *slog.Logger
	id  solana.PublicKey
}

func NewProgram(log *slog.Logger) *Program {
	return &Program{
		log: log,
		id:  program.System,
	}
}

func (p *Program) Name() string {
	return "system"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func InstructionCreateAccount(fromKey solana.PublicKey, newKey solana.PublicKey, lamports uint64, space uint64, ownerId solana.PublicKey) solana.Instruction {
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data[0:], InstructionCreateAccountTag)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[12:], space)
	copy(data[20:], ownerId.Bytes())
	return program.NewInstruction(program.System, data,
		program.Signer(fromKey, true),
		program.Signer(newKey, true),
	)
}

func (p *Program) Process(ctx *chain.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidInstruction
	}
	switch tag := binary.LittleEndian.Uint32(data[0:4]); tag {
	case InstructionCreateAccountTag:
		return p.createAccount(ctx, accounts, data)
	default:
		return fmt.Errorf("%w: unsupported tag %d", ErrInvalidInstruction, tag)
	}
}

func (p *Program) createAccount(ctx *chain.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) != createAccountDataSize {
		return fmt.Errorf("%w: create account data size, expected: %d, actual: %d", ErrInvalidInstruction, createAccountDataSize, len(data))
	}
	if len(accounts) < 2 {
		return ErrNotEnoughAccountKeys
	}
	lamports := binary.LittleEndian.Uint64(data[4:12])
	space := binary.LittleEndian.Uint64(data[12:20])
	owner := solana.PublicKeyFromBytes(data[20:52])
	fromKey, newKey := accounts[0].PublicKey, accounts[1].PublicKey

	if !ctx.IsSigner(fromKey) {
		return fmt.Errorf("%w: %s", ErrMissingSigner, fromKey)
	}
	if !ctx.IsSigner(newKey) {
		return fmt.Errorf("%w: %s", ErrMissingSigner, newKey)
	}
	if existing, err := ctx.Account(newKey); err == nil {
		if existing.Lamports > 0 || len(existing.Data) > 0 || !existing.Owner.Equals(p.id) {
			return fmt.Errorf("%w: %s", ErrAccountInUse, newKey)
		}
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	from, err := ctx.Account(fromKey)
	if err != nil {
		return err
	}
	if !from.Owner.Equals(p.id) {
		return fmt.Errorf("%w: %s owned by %s", ErrInvalidOwner, fromKey, from.Owner)
	}
	if from.Lamports < lamports {
		return fmt.Errorf("%w: account(%s) expected: %d, actual: %d", ErrInsufficientLamports, fromKey, lamports, from.Lamports)
	}
	from.Lamports -= lamports
	if err := ctx.Store(from); err != nil {
		return err
	}
	err = ctx.Store(&ledger.Account{
		Key:      newKey,
		Owner:    owner,
		Lamports: lamports,
		Data:     make([]byte, space),
	})
	if err != nil {
		return err
	}
	p.log.Debug("create account", "account", newKey, "owner", owner, "space", space)
	return nil
}

// Fund credits lamports to a system-owned account, creating it if needed.
// It stands in for an airdrop on a local ledger.
func Fund(tx *ledger.Tx, key solana.PublicKey, lamports uint64) error {
	acc, err := tx.Account(key)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		acc = &ledger.Account{Key: key, Owner: program.System}
	} else if err != nil {
		return err
	}
	acc.Lamports += lamports
	return tx.PutAccount(acc)
}
