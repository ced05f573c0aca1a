package chain

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
)

const MaxInvokeDepth = 4

var (
	ErrUnknownProgram    = errors.New("chain: unknown program")
	ErrMissingSignature  = errors.New("chain: missing required signature")
	ErrInvalidSeeds      = errors.New("chain: signer seeds do not derive a program address")
	ErrInvokeDepth       = errors.New("chain: max invoke depth exceeded")
	ErrAccountNotOwned   = errors.New("chain: program modified an account it does not own")
	ErrEmptyTransaction  = errors.New("chain: transaction has no instructions")
	ErrInvalidSignerSeed = errors.New("chain: signer seed set is empty")
)

// Processor is an on-chain program the runtime dispatches instructions to.
type Processor interface {
	Name() string
	Id() solana.PublicKey
	Process(ctx *Context, accounts []*solana.AccountMeta, data []byte) error
}

// EventListener receives events of committed transactions only.
type EventListener interface {
	OnEvent(event Event)
}

type Event struct {
	ProgramID solana.PublicKey
	Slot      uint64
	Payload   interface{}
}

type Receipt struct {
	Slot          uint64
	UnixTimestamp int64
	Events        []Event
}

// Chain executes transactions against the ledger. Each transaction is one
// ledger write transaction: either every instruction commits or none does.
type Chain struct {
	log       *slog.Logger
	ledger    *ledger.Ledger
	clock     clockwork.Clock
	mu        sync.RWMutex
	programs  map[solana.PublicKey]Processor
	listeners []EventListener
}

func New(l *ledger.Ledger, clock clockwork.Clock, log *slog.Logger) *Chain {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Chain{
		log:      log,
		ledger:   l,
		clock:    clock,
		programs: make(map[solana.PublicKey]Processor),
	}
}

func (c *Chain) Ledger() *ledger.Ledger { return c.ledger }

func (c *Chain) Clock() clockwork.Clock { return c.clock }

func (c *Chain) Register(p Processor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[p.Id()] = p
	c.log.Debug("register program", "name", p.Name(), "id", p.Id())
}

func (c *Chain) Subscribe(l EventListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Chain) program(id solana.PublicKey) (Processor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.programs[id]
	return p, ok
}

// Execute runs ixs as a single atomic transaction signed by signers.
func (c *Chain) Execute(signers []solana.PublicKey, ixs ...solana.Instruction) (*Receipt, error) {
	if len(ixs) == 0 {
		return nil, ErrEmptyTransaction
	}
	signed := make(map[solana.PublicKey]bool, len(signers))
	for _, s := range signers {
		signed[s] = true
	}
	receipt := &Receipt{UnixTimestamp: c.clock.Now().Unix()}
	err := c.ledger.Update(func(tx *ledger.Tx) error {
		receipt.Slot = tx.Meta("slot") + 1
		if err := tx.SetMeta("slot", receipt.Slot); err != nil {
			return err
		}
		root := &Context{
			Tx:            tx,
			UnixTimestamp: receipt.UnixTimestamp,
			Slot:          receipt.Slot,
			chain:         c,
			receipt:       receipt,
		}
		for i, ix := range ixs {
			if err := c.dispatch(root, ix, signed, 0); err != nil {
				return fmt.Errorf("instruction %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		c.log.Debug("transaction failed", "error", err)
		return nil, err
	}
	c.mu.RLock()
	listeners := append([]EventListener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, ev := range receipt.Events {
		for _, l := range listeners {
			l.OnEvent(ev)
		}
	}
	return receipt, nil
}

func (c *Chain) dispatch(parent *Context, ix solana.Instruction, signers map[solana.PublicKey]bool, depth int) error {
	if depth > MaxInvokeDepth {
		return ErrInvokeDepth
	}
	p, ok := c.program(ix.ProgramID())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID())
	}
	accounts := ix.Accounts()
	for _, meta := range accounts {
		if meta.IsSigner && !signers[meta.PublicKey] {
			return fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)
		}
	}
	data, err := ix.Data()
	if err != nil {
		return err
	}
	ctx := &Context{
		Tx:            parent.Tx,
		UnixTimestamp: parent.UnixTimestamp,
		Slot:          parent.Slot,
		programID:     p.Id(),
		signers:       signers,
		depth:         depth,
		chain:         c,
		receipt:       parent.receipt,
	}
	if err := p.Process(ctx, accounts, data); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}
