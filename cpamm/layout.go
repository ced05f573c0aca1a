package cpamm

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

var (
	PoolLayoutSize     = 1112
	PositionLayoutSize = 408
)

var (
	PoolDiscriminator             = accountDiscriminator("Pool")
	PositionDiscriminator         = accountDiscriminator("Position")
	ClaimPositionFeeDiscriminator = instructionDiscriminator("claim_position_fee")
)

func accountDiscriminator(name string) [8]byte {
	var disc [8]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(disc[:], sum[:8])
	return disc
}

func instructionDiscriminator(name string) [8]byte {
	var disc [8]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(disc[:], sum[:8])
	return disc
}

type CollectFeeMode uint8

const (
	CollectFeeModeBoth CollectFeeMode = iota
	CollectFeeModeOnlyBase
	CollectFeeModeOnlyQuote
)

// Uint128 is a little-endian u128 as laid out on chain.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

func (u Uint128) BigInt() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(u.Lo))
}

type BaseFeeLayout struct {
	CliffFeeNumerator uint64
	FeeSchedulerMode  uint8
	Padding0          [5]byte
	NumberOfPeriod    uint16
	PeriodFrequency   uint64
	ReductionFactor   uint64
	Padding1          uint64
}

type DynamicFeeLayout struct {
	Initialized              uint8
	Padding                  [7]byte
	MaxVolatilityAccumulator uint32
	VariableFeeControl       uint32
	BinStep                  uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	LastUpdateTimestamp      uint64
	BinStepU128              Uint128
	SqrtPriceReference       Uint128
	VolatilityAccumulator    Uint128
	VolatilityReference      Uint128
}

type PoolFeesLayout struct {
	BaseFee            BaseFeeLayout
	ProtocolFeePercent uint8
	PartnerFeePercent  uint8
	ReferralFeePercent uint8
	Padding0           [5]byte
	DynamicFee         DynamicFeeLayout
	Padding1           [2]uint64
}

type PoolMetricsLayout struct {
	TotalLpAFee       Uint128
	TotalLpBFee       Uint128
	TotalProtocolAFee uint64
	TotalProtocolBFee uint64
	TotalPartnerAFee  uint64
	TotalPartnerBFee  uint64
	TotalPosition     uint64
	Padding           uint64
}

type RewardInfoLayout struct {
	Initialized                               uint8
	RewardTokenFlag                           uint8
	Padding0                                  [6]byte
	Padding1                                  [8]byte
	Mint                                      solana.PublicKey
	Vault                                     solana.PublicKey
	Funder                                    solana.PublicKey
	RewardDuration                            uint64
	RewardDurationEnd                         uint64
	RewardRate                                Uint128
	RewardPerTokenStored                      [32]byte
	LastUpdateTime                            uint64
	CumulativeSecondsWithEmptyLiquidityReward uint64
}

// PoolLayout: token a is the base asset, token b the quote asset.
type PoolLayout struct {
	Discriminator          [8]byte
	PoolFees               PoolFeesLayout
	TokenAMint             solana.PublicKey
	TokenBMint             solana.PublicKey
	TokenAVault            solana.PublicKey
	TokenBVault            solana.PublicKey
	WhitelistedVault       solana.PublicKey
	Partner                solana.PublicKey
	Liquidity              Uint128
	Padding                Uint128
	ProtocolAFee           uint64
	ProtocolBFee           uint64
	PartnerAFee            uint64
	PartnerBFee            uint64
	SqrtMinPrice           Uint128
	SqrtMaxPrice           Uint128
	SqrtPrice              Uint128
	ActivationPoint        uint64
	ActivationType         uint8
	PoolStatus             uint8
	TokenAFlag             uint8
	TokenBFlag             uint8
	CollectFeeMode         uint8
	PoolType               uint8
	Padding0               [2]byte
	FeeAPerLiquidity       [32]byte
	FeeBPerLiquidity       [32]byte
	PermanentLockLiquidity Uint128
	Metrics                PoolMetricsLayout
	Padding1               [10]uint64
	RewardInfos            [2]RewardInfoLayout
}

type PositionMetricsLayout struct {
	TotalClaimedAFee uint64
	TotalClaimedBFee uint64
}

type UserRewardInfoLayout struct {
	RewardPerTokenCheckpoint [32]byte
	RewardPendings           uint64
	TotalClaimedRewards      uint64
}

type PositionLayout struct {
	Discriminator            [8]byte
	Pool                     solana.PublicKey
	NftMint                  solana.PublicKey
	FeeAPerTokenCheckpoint   [32]byte
	FeeBPerTokenCheckpoint   [32]byte
	FeeAPending              uint64
	FeeBPending              uint64
	UnlockedLiquidity        Uint128
	VestedLiquidity          Uint128
	PermanentLockedLiquidity Uint128
	Metrics                  PositionMetricsLayout
	RewardInfos              [2]UserRewardInfoLayout
	Padding                  [6]Uint128
}

func (p *PositionLayout) IsEmpty() bool {
	return p.UnlockedLiquidity.IsZero() && p.VestedLiquidity.IsZero() && p.PermanentLockedLiquidity.IsZero()
}

func (pool *PoolLayout) unpack(data []byte) error {
	buf := bytes.NewReader(data)
	return binary.Read(buf, binary.LittleEndian, pool)
}

func (pool *PoolLayout) pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PoolLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, pool)
	return buf.Bytes()
}

func (p *PositionLayout) unpack(data []byte) error {
	buf := bytes.NewReader(data)
	return binary.Read(buf, binary.LittleEndian, p)
}

func (p *PositionLayout) pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PositionLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, p)
	return buf.Bytes()
}
