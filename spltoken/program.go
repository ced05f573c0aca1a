package spltoken

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
)

const (
	InstructionInitializeAccountTag byte = 1
	InstructionTransferTag          byte = 3
	transferDataSize                     = 9
)

var (
	ErrInvalidInstruction   = errors.New("spltoken: invalid instruction data")
	ErrNotEnoughAccountKeys = errors.New("spltoken: not enough account keys")
	ErrInvalidAccount       = errors.New("spltoken: invalid token account")
	ErrInvalidMint          = errors.New("spltoken: invalid mint")
	ErrOwnerMismatch        = errors.New("spltoken: owner does not match")
	ErrMissingSigner        = errors.New("spltoken: owner did not sign")
	ErrMintMismatch         = errors.New("spltoken: account not associated with this mint")
	ErrInsufficientFunds    = errors.New("spltoken: insufficient funds")
	ErrOverflow             = errors.New("spltoken: operation overflowed")
	ErrAccountFrozen        = errors.New("spltoken: account is frozen")
	ErrAlreadyInUse         = errors.New("spltoken: account already in use")
)

type Program struct {
	log *slog.Logger
	id  solana.PublicKey
}

func NewProgram(log *slog.Logger) *Program {
	return &Program{
		log: log,
		id:  program.Token,
	}
}

func (p *Program) Name() string {
	return "spl token"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

// ParseAccount decodes a token account owned by the token program.
func ParseAccount(account *ledger.Account) (*AccountLayout, error) {
	if !account.Owner.Equals(program.Token) {
		return nil, fmt.Errorf("%w: account(%s) is not spl token program account, expected: %s, actual: %s", ErrInvalidAccount, account.Key, program.Token, account.Owner)
	}
	if len(account.Data) != TokenLayoutSize {
		return nil, fmt.Errorf("%w: spl token account(%s) data size is not valid, expected: %d, actual: %d", ErrInvalidAccount, account.Key, TokenLayoutSize, len(account.Data))
	}
	user := &AccountLayout{}
	if err := user.unpack(account.Data); err != nil {
		return nil, fmt.Errorf("%w: spl token account(%s) data is not valid, err: %s", ErrInvalidAccount, account.Key, err)
	}
	if user.State == AccountStateUninitialized {
		return nil, fmt.Errorf("%w: spl token account(%s) is not initialized", ErrInvalidAccount, account.Key)
	}
	return user, nil
}

func ParseMint(account *ledger.Account) (*MintLayout, error) {
	if !account.Owner.Equals(program.Token) {
		return nil, fmt.Errorf("%w: account(%s) is not spl token program account", ErrInvalidMint, account.Key)
	}
	if len(account.Data) != MintLayoutSize {
		return nil, fmt.Errorf("%w: account(%s) data size is not valid", ErrInvalidMint, account.Key)
	}
	mint := &MintLayout{}
	if err := mint.unpack(account.Data); err != nil {
		return nil, fmt.Errorf("%w: account(%s) data is not valid, err: %s", ErrInvalidMint, account.Key, err)
	}
	if mint.IsInitialized == 0 {
		return nil, fmt.Errorf("%w: account(%s) is not initialized", ErrInvalidMint, account.Key)
	}
	return mint, nil
}

// Balance reads the amount of a token account inside tx.
func Balance(tx *ledger.Tx, key solana.PublicKey) (uint64, error) {
	acc, err := tx.Account(key)
	if err != nil {
		return 0, err
	}
	user, err := ParseAccount(acc)
	if err != nil {
		return 0, err
	}
	return user.Amount, nil
}

// PutAccount and PutMint write token program state directly, for seeding a
// local ledger.
func PutAccount(tx *ledger.Tx, key, mint, owner solana.PublicKey, amount uint64) error {
	user := &AccountLayout{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  AccountStateInitialized,
	}
	return tx.PutAccount(&ledger.Account{Key: key, Owner: program.Token, Lamports: 2_039_280, Data: user.pack()})
}

func PutMint(tx *ledger.Tx, key, authority solana.PublicKey, decimals uint8, supply uint64) error {
	mint := &MintLayout{
		MintAuthorityOption: [4]byte{1},
		MintAuthority:       authority,
		Supply:              supply,
		Decimals:            decimals,
		IsInitialized:       1,
	}
	return tx.PutAccount(&ledger.Account{Key: key, Owner: program.Token, Lamports: 1_461_600, Data: mint.pack()})
}

func InstructionInitializeAccount(account, mint, owner solana.PublicKey) solana.Instruction {
	return program.NewInstruction(program.Token, []byte{InstructionInitializeAccountTag},
		program.Writable(account),
		program.Readonly(mint),
		program.Readonly(owner),
		program.Readonly(program.SysRent),
	)
}

func InstructionTransfer(source, destination, owner solana.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, transferDataSize)
	data[0] = InstructionTransferTag
	binary.LittleEndian.PutUint64(data[1:], amount)
	return program.NewInstruction(program.Token, data,
		program.Writable(source),
		program.Writable(destination),
		program.Signer(owner, false),
	)
}

// DecodeTransfer returns source, destination and amount of a transfer.
func DecodeTransfer(accounts []*solana.AccountMeta, data []byte) (solana.PublicKey, solana.PublicKey, uint64, error) {
	if len(data) != transferDataSize {
		return solana.PublicKey{}, solana.PublicKey{}, 0, fmt.Errorf("%w: data is invalid", ErrInvalidInstruction)
	}
	if data[0] != InstructionTransferTag {
		return solana.PublicKey{}, solana.PublicKey{}, 0, fmt.Errorf("%w: is not transfer", ErrInvalidInstruction)
	}
	if len(accounts) < 3 {
		return solana.PublicKey{}, solana.PublicKey{}, 0, ErrNotEnoughAccountKeys
	}
	return accounts[0].PublicKey, accounts[1].PublicKey, binary.LittleEndian.Uint64(data[1:]), nil
}

func (p *Program) Process(ctx *chain.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInstruction
	}
	switch data[0] {
	case InstructionInitializeAccountTag:
		return p.initializeAccount(ctx, accounts)
	case InstructionTransferTag:
		return p.transfer(ctx, accounts, data)
	default:
		return fmt.Errorf("%w: unsupported instruction %d", ErrInvalidInstruction, data[0])
	}
}

func (p *Program) load(ctx *chain.Context, key solana.PublicKey) (*ledger.Account, *AccountLayout, error) {
	acc, err := ctx.Account(key)
	if err != nil {
		return nil, nil, err
	}
	user, err := ParseAccount(acc)
	if err != nil {
		return nil, nil, err
	}
	if user.State == AccountStateFrozen {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountFrozen, key)
	}
	return acc, user, nil
}

func (p *Program) transfer(ctx *chain.Context, accounts []*solana.AccountMeta, data []byte) error {
	sourceKey, destKey, amount, err := DecodeTransfer(accounts, data)
	if err != nil {
		return err
	}
	authority := accounts[2].PublicKey

	sourceAcc, source, err := p.load(ctx, sourceKey)
	if err != nil {
		return err
	}
	destAcc, dest, err := p.load(ctx, destKey)
	if err != nil {
		return err
	}
	if !source.Owner.Equals(authority) {
		return fmt.Errorf("%w: account(%s) expected: %s, actual: %s", ErrOwnerMismatch, sourceKey, source.Owner, authority)
	}
	if !ctx.IsSigner(authority) {
		return fmt.Errorf("%w: %s", ErrMissingSigner, authority)
	}
	if !source.Mint.Equals(dest.Mint) {
		return fmt.Errorf("%w: expected: %s, actual: %s", ErrMintMismatch, source.Mint, dest.Mint)
	}
	if source.Amount < amount {
		return fmt.Errorf("%w: account(%s) expected: %d, actual: %d", ErrInsufficientFunds, sourceKey, amount, source.Amount)
	}
	if sourceKey.Equals(destKey) {
		return nil
	}
	credited, err := utils.CheckedAdd(dest.Amount, amount)
	if err != nil {
		return fmt.Errorf("%w: account(%s) balance: %d, amount: %d", ErrOverflow, destKey, dest.Amount, amount)
	}
	source.Amount -= amount
	dest.Amount = credited
	sourceAcc.Data = source.pack()
	destAcc.Data = dest.pack()
	if err := ctx.Store(sourceAcc); err != nil {
		return err
	}
	if err := ctx.Store(destAcc); err != nil {
		return err
	}
	p.log.Debug("transfer", "source", sourceKey, "destination", destKey, "amount", amount)
	return nil
}

// initializeAccount expects an account already allocated to the token
// program by the system program.
func (p *Program) initializeAccount(ctx *chain.Context, accounts []*solana.AccountMeta) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccountKeys
	}
	key, mintKey, owner := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
	acc, err := ctx.Account(key)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(p.id) || len(acc.Data) != TokenLayoutSize {
		return fmt.Errorf("%w: account(%s) is not allocated for the token program", ErrInvalidAccount, key)
	}
	user := &AccountLayout{}
	if err := user.unpack(acc.Data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAccount, err)
	}
	if user.State != AccountStateUninitialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInUse, key)
	}
	mintAcc, err := ctx.Account(mintKey)
	if err != nil {
		return err
	}
	if _, err := ParseMint(mintAcc); err != nil {
		return err
	}
	user.Mint = mintKey
	user.Owner = owner
	user.State = AccountStateInitialized
	acc.Data = user.pack()
	if err := ctx.Store(acc); err != nil {
		return err
	}
	p.log.Debug("initialize account", "account", key, "mint", mintKey, "owner", owner)
	return nil
}
