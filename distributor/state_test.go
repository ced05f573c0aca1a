package distributor

import (
	"encoding/binary"
	"testing"

	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscriminators(t *testing.T) {
	assert.Equal(t, [8]byte{0xde, 0x87, 0x07, 0xa3, 0xeb, 0xb1, 0x21, 0x44}, PolicyDiscriminator)
	assert.Equal(t, [8]byte{0xee, 0xa4, 0x25, 0x6c, 0x54, 0x83, 0xf5, 0x19}, HonoraryPositionDiscriminator)
	assert.Equal(t, [8]byte{0x52, 0x24, 0x30, 0x74, 0x67, 0x4a, 0xd4, 0x44}, DistributionProgressDiscriminator)

	assert.Equal(t, [8]byte{0x09, 0xba, 0x56, 0xe1, 0x81, 0xa2, 0xe7, 0x38}, InitializePolicyDiscriminator)
	assert.Equal(t, [8]byte{0x73, 0xcb, 0x4e, 0xa6, 0x4c, 0x5e, 0xa4, 0xfa}, ConfigureHonoraryPositionDiscriminator)
	assert.Equal(t, [8]byte{0x4a, 0x1c, 0xed, 0x5c, 0x8b, 0x2e, 0x4c, 0x09}, CrankQuoteFeeDistributionDiscriminator)
}

func TestAccountSpaces(t *testing.T) {
	assert.Equal(t, uint64(8+14*32+4*8+2+1+1), PolicySpace)
	assert.Equal(t, uint64(8+32+1), HonoraryPositionSpace)
	assert.Equal(t, uint64(8+32+8+4+3*8+1+1), DistributionProgressSpace)
}

func TestAddresses(t *testing.T) {
	pool := newKey()
	policy, bump, err := PolicyAddress(program.HonoraryQuoteFee, pool)
	require.NoError(t, err)
	derived, err := solana.CreateProgramAddress([][]byte{[]byte("policy"), pool[:], {bump}}, program.HonoraryQuoteFee)
	require.NoError(t, err)
	assert.Equal(t, policy, derived)

	progress, _, err := ProgressAddress(program.HonoraryQuoteFee, pool)
	require.NoError(t, err)
	assert.NotEqual(t, policy, progress)

	honorary, _, err := HonoraryPositionAddress(program.HonoraryQuoteFee, policy)
	require.NoError(t, err)
	assert.NotEqual(t, policy, honorary)

	other, _, err := PolicyAddress(program.HonoraryQuoteFee, newKey())
	require.NoError(t, err)
	assert.NotEqual(t, policy, other)
}

func TestPolicyAccountRoundTrip(t *testing.T) {
	policy := &Policy{
		Authority:           newKey(),
		Pool:                newKey(),
		QuoteMint:           newKey(),
		Y0:                  1_000_000,
		DailyCapQuote:       7,
		MinPayoutLamports:   3,
		LastDayCloseTs:      InitialLastDayCloseTs,
		InvestorFeeShareBps: 2_500,
		Bump:                254,
		Status:              StatusHonoraryReady,
	}
	account := &ledger.Account{Key: newKey(), Owner: program.HonoraryQuoteFee, Data: make([]byte, PolicySpace)}
	require.NoError(t, storeAccount(account, PolicyDiscriminator, policy))
	assert.Equal(t, PolicyDiscriminator[:], account.Data[:8])
	// y0 follows the fourteen keys
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(account.Data[8+14*32:]))

	decoded, err := DecodePolicy(account, program.HonoraryQuoteFee)
	require.NoError(t, err)
	assert.Equal(t, policy, decoded)
	assert.True(t, decoded.Ready())
}

func TestDecodeErrors(t *testing.T) {
	progress := &DistributionProgress{Policy: newKey(), DayOpen: true, PageCursor: 4}
	account := &ledger.Account{Key: newKey(), Owner: program.HonoraryQuoteFee, Data: make([]byte, DistributionProgressSpace)}
	require.NoError(t, storeAccount(account, DistributionProgressDiscriminator, progress))

	decoded, err := DecodeProgress(account, program.HonoraryQuoteFee)
	require.NoError(t, err)
	assert.Equal(t, progress, decoded)

	_, err = DecodePolicy(account, program.HonoraryQuoteFee)
	assert.ErrorIs(t, err, program.ErrInvalidPolicyAccount)
	_, err = DecodeHonoraryPosition(account, program.HonoraryQuoteFee)
	assert.ErrorIs(t, err, program.ErrHonoraryPositionNotReady)

	foreign := account.Clone()
	foreign.Owner = program.System
	_, err = DecodeProgress(foreign, program.HonoraryQuoteFee)
	assert.ErrorIs(t, err, program.ErrInvalidProgressAccount)

	small := &ledger.Account{Key: newKey(), Owner: program.HonoraryQuoteFee, Data: make([]byte, 10)}
	assert.Error(t, storeAccount(small, DistributionProgressDiscriminator, progress))
}

func TestInstructionData(t *testing.T) {
	ix, err := InstructionCrankQuoteFeeDistribution(program.HonoraryQuoteFee, newKey(), newKey(), &Policy{Pool: newKey(), CpAmmProgram: program.CpAmm},
		CrankQuoteFeeParams{ExpectedPageCursor: 4, MaxPageCursor: 10, IsLastPage: true},
		[]InvestorAccounts{{Stream: newKey(), TokenAccount: newKey()}})
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, append(CrankQuoteFeeDistributionDiscriminator[:], 4, 0, 0, 0, 10, 0, 0, 0, 1), data)
	require.Len(t, ix.Accounts(), CrankFixedAccountsLen+2)
	assert.True(t, ix.Accounts()[0].IsSigner)
	eventAuthority, _, err := cpamm.EventAuthority(program.CpAmm)
	require.NoError(t, err)
	assert.Equal(t, eventAuthority, ix.Accounts()[15].PublicKey)
	assert.True(t, ix.Accounts()[CrankFixedAccountsLen+1].IsWritable)

	ix, err = InstructionInitializePolicy(program.HonoraryQuoteFee, InitializePolicyAccounts{Pool: newKey()},
		InitializePolicyParams{InvestorFeeShareBps: 1, Y0: 2, DailyCapQuote: 3, MinPayoutLamports: 4})
	require.NoError(t, err)
	data, err = ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+2+3*8)
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[8:]))
	assert.Equal(t, uint64(4), binary.LittleEndian.Uint64(data[26:]))
	assert.Len(t, ix.Accounts(), initializePolicyAccountsLen)
}

func TestProcess_InvalidInstruction(t *testing.T) {
	f := newFixture(t)
	bad := program.NewInstruction(program.HonoraryQuoteFee, []byte{1, 2, 3})
	_, err := f.chain.Execute(nil, bad)
	assert.ErrorIs(t, err, program.ErrInvalidInstruction)

	unknown := program.NewInstruction(program.HonoraryQuoteFee, make([]byte, 8))
	_, err = f.chain.Execute(nil, unknown)
	assert.ErrorIs(t, err, program.ErrInvalidInstruction)

	short := program.NewInstruction(program.HonoraryQuoteFee, CrankQuoteFeeDistributionDiscriminator[:])
	_, err = f.chain.Execute(nil, short)
	assert.ErrorIs(t, err, program.ErrInvalidInstruction)
}
