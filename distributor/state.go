package distributor

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	DaySeconds          int64  = 86_400
	MaxBasisPoints      uint16 = 10_000
	StatusHonoraryReady uint8  = 1

	// far enough in the past that the first day is always ready
	InitialLastDayCloseTs int64 = -4_611_686_018_427_387_904
)

var (
	PolicySeed           = []byte("policy")
	HonoraryPositionSeed = []byte("honorary")
	ProgressSeed         = []byte("progress")
)

var (
	PolicyDiscriminator               = accountDiscriminator("Policy")
	HonoraryPositionDiscriminator     = accountDiscriminator("HonoraryPosition")
	DistributionProgressDiscriminator = accountDiscriminator("DistributionProgress")
)

func accountDiscriminator(name string) [8]byte {
	var disc [8]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(disc[:], sum[:8])
	return disc
}

// Policy is the per-pool configuration, at PDA ["policy", pool].
type Policy struct {
	Authority           solana.PublicKey
	Pool                solana.PublicKey
	PoolAuthority       solana.PublicKey
	CpAmmProgram        solana.PublicKey
	QuoteMint           solana.PublicKey
	BaseMint            solana.PublicKey
	QuoteVault          solana.PublicKey
	BaseVault           solana.PublicKey
	Position            solana.PublicKey
	PositionNftMint     solana.PublicKey
	PositionNftAccount  solana.PublicKey
	QuoteTreasury       solana.PublicKey
	BaseFeeCheck        solana.PublicKey
	CreatorQuoteAta     solana.PublicKey
	Y0                  uint64
	DailyCapQuote       uint64
	MinPayoutLamports   uint64
	LastDayCloseTs      int64
	InvestorFeeShareBps uint16
	Bump                uint8
	Status              uint8
}

func (p *Policy) Ready() bool {
	return p.Status&StatusHonoraryReady != 0
}

// HonoraryPosition is the derived signing authority, at PDA
// ["honorary", policy]. It owns the treasuries and the position NFT.
type HonoraryPosition struct {
	Policy solana.PublicKey
	Bump   uint8
}

// DistributionProgress is the per-day cursor, at PDA ["progress", pool].
// PageCursor, ClaimedQuote and InvestorDistributed are zero whenever
// DayOpen is false.
type DistributionProgress struct {
	Policy              solana.PublicKey
	DayStartTs          int64
	PageCursor          uint32
	ClaimedQuote        uint64
	InvestorDistributed uint64
	CarryQuote          uint64
	DayOpen             bool
	Bump                uint8
}

var (
	PolicySpace               = accountSpace(&Policy{})
	HonoraryPositionSpace     = accountSpace(&HonoraryPosition{})
	DistributionProgressSpace = accountSpace(&DistributionProgress{})
)

func accountSpace(v interface{}) uint64 {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		panic(err)
	}
	return uint64(8 + buf.Len())
}

func PolicyAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{PolicySeed, pool[:]}, programID)
}

func ProgressAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{ProgressSeed, pool[:]}, programID)
}

func HonoraryPositionAddress(programID, policy solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{HonoraryPositionSeed, policy[:]}, programID)
}

func encodeAccount(disc [8]byte, v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAccount(data []byte, disc [8]byte, v interface{}) error {
	if len(data) < 8 || !bytes.Equal(data[:8], disc[:]) {
		return fmt.Errorf("discriminator mismatch")
	}
	return bin.NewBorshDecoder(data[8:]).Decode(v)
}

func DecodePolicy(account *ledger.Account, programID solana.PublicKey) (*Policy, error) {
	if !account.Owner.Equals(programID) {
		return nil, fmt.Errorf("%w: account(%s) owner expected: %s, actual: %s", program.ErrInvalidPolicyAccount, account.Key, programID, account.Owner)
	}
	policy := &Policy{}
	if err := decodeAccount(account.Data, PolicyDiscriminator, policy); err != nil {
		return nil, fmt.Errorf("%w: account(%s) %s", program.ErrInvalidPolicyAccount, account.Key, err)
	}
	return policy, nil
}

func DecodeHonoraryPosition(account *ledger.Account, programID solana.PublicKey) (*HonoraryPosition, error) {
	if !account.Owner.Equals(programID) {
		return nil, fmt.Errorf("%w: account(%s) owner expected: %s, actual: %s", program.ErrHonoraryPositionNotReady, account.Key, programID, account.Owner)
	}
	honorary := &HonoraryPosition{}
	if err := decodeAccount(account.Data, HonoraryPositionDiscriminator, honorary); err != nil {
		return nil, fmt.Errorf("%w: account(%s) %s", program.ErrHonoraryPositionNotReady, account.Key, err)
	}
	return honorary, nil
}

func DecodeProgress(account *ledger.Account, programID solana.PublicKey) (*DistributionProgress, error) {
	if !account.Owner.Equals(programID) {
		return nil, fmt.Errorf("%w: account(%s) owner expected: %s, actual: %s", program.ErrInvalidProgressAccount, account.Key, programID, account.Owner)
	}
	progress := &DistributionProgress{}
	if err := decodeAccount(account.Data, DistributionProgressDiscriminator, progress); err != nil {
		return nil, fmt.Errorf("%w: account(%s) %s", program.ErrInvalidProgressAccount, account.Key, err)
	}
	return progress, nil
}

// storeAccount re-encodes v into account's existing allocation.
func storeAccount(account *ledger.Account, disc [8]byte, v interface{}) error {
	data, err := encodeAccount(disc, v)
	if err != nil {
		return err
	}
	if len(data) > len(account.Data) {
		return fmt.Errorf("account(%s) too small, expected: %d, actual: %d", account.Key, len(data), len(account.Data))
	}
	copy(account.Data, data)
	return nil
}
