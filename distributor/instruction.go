package distributor

import (
	"bytes"
	"crypto/sha256"

	"github.com/egaotan/honorary-quote-fee/cpamm"
	"github.com/egaotan/honorary-quote-fee/program"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	InitializePolicyDiscriminator          = instructionDiscriminator("initialize_policy")
	ConfigureHonoraryPositionDiscriminator = instructionDiscriminator("configure_honorary_position")
	CrankQuoteFeeDistributionDiscriminator = instructionDiscriminator("crank_quote_fee_distribution")
)

func instructionDiscriminator(name string) [8]byte {
	var disc [8]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(disc[:], sum[:8])
	return disc
}

type InitializePolicyParams struct {
	InvestorFeeShareBps uint16
	Y0                  uint64
	DailyCapQuote       uint64
	MinPayoutLamports   uint64
}

type CrankQuoteFeeParams struct {
	ExpectedPageCursor uint32
	// MaxPageCursor bounds the cursor after this page; 0 means unbounded.
	MaxPageCursor uint32
	IsLastPage    bool
}

func instructionData(disc [8]byte, params interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if params != nil {
		if err := bin.NewBorshEncoder(buf).Encode(params); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

type InitializePolicyAccounts struct {
	Payer           solana.PublicKey
	Authority       solana.PublicKey
	Pool            solana.PublicKey
	PoolAuthority   solana.PublicKey
	CpAmmProgram    solana.PublicKey
	QuoteMint       solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseVault       solana.PublicKey
	CreatorQuoteAta solana.PublicKey
}

func InstructionInitializePolicy(programID solana.PublicKey, a InitializePolicyAccounts, params InitializePolicyParams) (solana.Instruction, error) {
	policy, _, err := PolicyAddress(programID, a.Pool)
	if err != nil {
		return nil, err
	}
	progress, _, err := ProgressAddress(programID, a.Pool)
	if err != nil {
		return nil, err
	}
	data, err := instructionData(InitializePolicyDiscriminator, &params)
	if err != nil {
		return nil, err
	}
	return program.NewInstruction(programID, data,
		program.Signer(a.Payer, true),
		program.Signer(a.Authority, true),
		program.Writable(policy),
		program.Writable(progress),
		program.Writable(a.Pool),
		program.Readonly(a.PoolAuthority),
		program.Readonly(a.CpAmmProgram),
		program.Readonly(a.QuoteMint),
		program.Readonly(a.BaseMint),
		program.Writable(a.QuoteVault),
		program.Writable(a.BaseVault),
		program.Writable(a.CreatorQuoteAta),
		program.Readonly(program.System),
	), nil
}

type ConfigureHonoraryPositionAccounts struct {
	Authority          solana.PublicKey
	Policy             solana.PublicKey
	Position           solana.PublicKey
	PositionNftMint    solana.PublicKey
	PositionNftAccount solana.PublicKey
	QuoteMint          solana.PublicKey
	QuoteTreasury      solana.PublicKey
	BaseMint           solana.PublicKey
	BaseFeeCheck       solana.PublicKey
}

func InstructionConfigureHonoraryPosition(programID solana.PublicKey, a ConfigureHonoraryPositionAccounts) (solana.Instruction, error) {
	honorary, _, err := HonoraryPositionAddress(programID, a.Policy)
	if err != nil {
		return nil, err
	}
	data, err := instructionData(ConfigureHonoraryPositionDiscriminator, nil)
	if err != nil {
		return nil, err
	}
	return program.NewInstruction(programID, data,
		program.Signer(a.Authority, true),
		program.Writable(a.Policy),
		program.Writable(honorary),
		program.Writable(a.Position),
		program.Readonly(a.PositionNftMint),
		program.Writable(a.PositionNftAccount),
		program.Readonly(a.QuoteMint),
		program.Writable(a.QuoteTreasury),
		program.Readonly(a.BaseMint),
		program.Writable(a.BaseFeeCheck),
		program.Readonly(program.System),
		program.Readonly(program.Token),
	), nil
}

// InvestorAccounts is one (stream, destination) pair of a crank page.
type InvestorAccounts struct {
	Stream       solana.PublicKey
	TokenAccount solana.PublicKey
}

func InstructionCrankQuoteFeeDistribution(programID, cranker, policyKey solana.PublicKey, policy *Policy, params CrankQuoteFeeParams, investors []InvestorAccounts) (solana.Instruction, error) {
	honorary, _, err := HonoraryPositionAddress(programID, policyKey)
	if err != nil {
		return nil, err
	}
	progress, _, err := ProgressAddress(programID, policy.Pool)
	if err != nil {
		return nil, err
	}
	eventAuthority, _, err := cpamm.EventAuthority(policy.CpAmmProgram)
	if err != nil {
		return nil, err
	}
	data, err := instructionData(CrankQuoteFeeDistributionDiscriminator, &params)
	if err != nil {
		return nil, err
	}
	accounts := []*solana.AccountMeta{
		program.Signer(cranker, false),
		program.Writable(policyKey),
		program.Writable(honorary),
		program.Writable(progress),
		program.Writable(policy.QuoteTreasury),
		program.Writable(policy.BaseFeeCheck),
		program.Writable(policy.CreatorQuoteAta),
		program.Readonly(policy.Pool),
		program.Readonly(policy.PoolAuthority),
		program.Writable(policy.Position),
		program.Writable(policy.PositionNftAccount),
		program.Writable(policy.BaseVault),
		program.Writable(policy.QuoteVault),
		program.Readonly(policy.BaseMint),
		program.Readonly(policy.QuoteMint),
		program.Readonly(eventAuthority),
		program.Readonly(policy.CpAmmProgram),
		program.Readonly(program.Token),
		program.Readonly(program.Token),
		program.Readonly(program.Token),
	}
	for _, investor := range investors {
		accounts = append(accounts, program.Readonly(investor.Stream), program.Writable(investor.TokenAccount))
	}
	return program.NewInstruction(programID, data, accounts...), nil
}
