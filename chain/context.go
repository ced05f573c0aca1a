package chain

import (
	"fmt"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/gagliardetto/solana-go"
)

// Context is what a Processor sees while handling one instruction.
type Context struct {
	Tx            *ledger.Tx
	UnixTimestamp int64
	Slot          uint64

	programID solana.PublicKey
	signers   map[solana.PublicKey]bool
	depth     int
	chain     *Chain
	receipt   *Receipt
}

func (c *Context) ProgramID() solana.PublicKey { return c.programID }

func (c *Context) IsSigner(key solana.PublicKey) bool { return c.signers[key] }

// Emit records an event. It reaches listeners only if the transaction commits.
func (c *Context) Emit(payload interface{}) {
	c.receipt.Events = append(c.receipt.Events, Event{
		ProgramID: c.programID,
		Slot:      c.Slot,
		Payload:   payload,
	})
}

func (c *Context) Account(key solana.PublicKey) (*ledger.Account, error) {
	return c.Tx.Account(key)
}

// Store writes acc back. Existing accounts may only be written by their owner.
func (c *Context) Store(acc *ledger.Account) error {
	prev, err := c.Tx.Account(acc.Key)
	if err == nil && !prev.Owner.Equals(c.programID) {
		return fmt.Errorf("%w: %s owned by %s", ErrAccountNotOwned, acc.Key, prev.Owner)
	}
	return c.Tx.PutAccount(acc)
}

func (c *Context) Invoke(ix solana.Instruction) error {
	return c.InvokeSigned(ix)
}

// InvokeSigned calls another program. Each seed set must derive, under the
// calling program, an address that is then treated as a signer.
func (c *Context) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	signers := make(map[solana.PublicKey]bool, len(c.signers)+len(signerSeeds))
	for k, v := range c.signers {
		signers[k] = v
	}
	for _, seeds := range signerSeeds {
		if len(seeds) == 0 {
			return ErrInvalidSignerSeed
		}
		key, err := solana.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		signers[key] = true
	}
	return c.chain.dispatch(c, ix, signers, c.depth+1)
}
