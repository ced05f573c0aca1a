package distributor

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type Event interface {
	EventName() string
}

type HonoraryPositionInitialized struct {
	Policy        solana.PublicKey
	Position      solana.PublicKey
	QuoteTreasury solana.PublicKey
}

type QuoteFeesClaimed struct {
	Policy            solana.PublicKey
	DayStartTs        int64
	QuoteFeesClaimed  uint64
	CumulativeClaimed uint64
	EligibleShareBps  uint16
}

type InvestorPayoutPage struct {
	Policy             solana.PublicKey
	DayStartTs         int64
	PageStart          uint32
	InvestorsProcessed uint32
	TotalPaidQuote     uint64
	CarryQuote         uint64
}

type CreatorPayoutDayClosed struct {
	Policy            solana.PublicKey
	DayStartTs        int64
	CreatorQuotePaid  uint64
	InvestorQuotePaid uint64
	ClaimedQuote      uint64
	ShareBps          uint16
}

func (*HonoraryPositionInitialized) EventName() string { return "HonoraryPositionInitialized" }
func (*QuoteFeesClaimed) EventName() string            { return "QuoteFeesClaimed" }
func (*InvestorPayoutPage) EventName() string          { return "InvestorPayoutPage" }
func (*CreatorPayoutDayClosed) EventName() string      { return "CreatorPayoutDayClosed" }

func eventDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("event:" + name))
	return sum[:8]
}

// EncodeEvent renders an event the way it appears in a "Program data:" log
// line: base64 of discriminator and borsh body.
func EncodeEvent(ev Event) (string, error) {
	buf := new(bytes.Buffer)
	buf.Write(eventDiscriminator(ev.EventName()))
	if err := bin.NewBorshEncoder(buf).Encode(ev); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
