package streamflow

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ContractLayoutSize is the size streamflow allocates for a stream account.
// The borsh-encoded contract is shorter; the tail is zero.
var ContractLayoutSize = 1104

var ErrInvalidContract = errors.New("streamflow: invalid contract account")

type CreateParams struct {
	StartTime               uint64
	NetAmountDeposited      uint64
	Period                  uint64
	AmountPerPeriod         uint64
	Cliff                   uint64
	CliffAmount             uint64
	CancelableBySender      bool
	CancelableByRecipient   bool
	AutomaticWithdrawal     bool
	TransferableBySender    bool
	TransferableByRecipient bool
	CanTopup                bool
	StreamName              [64]byte
	WithdrawFrequency       uint64
	Ghost                   uint32
	Pausable                bool
	CanUpdateRate           bool
}

type Contract struct {
	Magic                         uint64
	Version                       uint8
	CreatedAt                     uint64
	AmountWithdrawn               uint64
	CanceledAt                    uint64
	EndTime                       uint64
	LastWithdrawnAt               uint64
	Sender                        solana.PublicKey
	SenderTokens                  solana.PublicKey
	Recipient                     solana.PublicKey
	RecipientTokens               solana.PublicKey
	Mint                          solana.PublicKey
	EscrowTokens                  solana.PublicKey
	StreamflowTreasury            solana.PublicKey
	StreamflowTreasuryTokens      solana.PublicKey
	StreamflowFeeTotal            uint64
	StreamflowFeeWithdrawn        uint64
	StreamflowFeePercent          float32
	Partner                       solana.PublicKey
	PartnerTokens                 solana.PublicKey
	PartnerFeeTotal               uint64
	PartnerFeeWithdrawn           uint64
	PartnerFeePercent             float32
	Ix                            CreateParams
	IxPadding                     []byte
	Closed                        bool
	CurrentPauseStart             uint64
	PauseCumulative               uint64
	LastRateChangeTime            uint64
	FundsUnlockedAtLastRateChange uint64
}

func Decode(data []byte) (*Contract, error) {
	c := &Contract{}
	if err := bin.NewBorshDecoder(data).Decode(c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContract, err)
	}
	return c, nil
}

func (c *Contract) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(c); err != nil {
		return nil, err
	}
	out := make([]byte, ContractLayoutSize)
	if buf.Len() > len(out) {
		return nil, fmt.Errorf("%w: encoded size %d exceeds %d", ErrInvalidContract, buf.Len(), len(out))
	}
	copy(out, buf.Bytes())
	return out, nil
}

// ParseContract decodes a stream account owned by the streamflow program.
func ParseContract(account *ledger.Account) (*Contract, error) {
	if !account.Owner.Equals(program.Streamflow) {
		return nil, fmt.Errorf("%w: account(%s) is not streamflow program account, expected: %s, actual: %s", ErrInvalidContract, account.Key, program.Streamflow, account.Owner)
	}
	return Decode(account.Data)
}

// PutContract writes a stream account directly into a local ledger.
func PutContract(tx *ledger.Tx, key solana.PublicKey, c *Contract) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return tx.PutAccount(&ledger.Account{Key: key, Owner: program.Streamflow, Lamports: 8_574_720, Data: data})
}
