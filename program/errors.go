package program

import "fmt"

// ErrorCode is a custom program error. Codes start at 6000 like Anchor's
// user-defined errors so they can be matched against on-chain logs.
type ErrorCode uint32

const (
	ErrInvalidInvestorShare ErrorCode = iota + 6000
	ErrInvalidY0
	ErrInvalidPoolAccount
	ErrInvalidFeeMode
	ErrQuoteMintMismatch
	ErrBaseMintMismatch
	ErrVaultMismatch
	ErrUnsupportedPartnerPool
	ErrUnauthorized
	ErrInvalidPositionAccount
	ErrPositionPoolMismatch
	ErrPositionHasUnclaimedFees
	ErrPositionNotEmpty
	ErrInvalidPositionNft
	ErrInvalidPositionMint
	ErrInvalidPositionNftOwner
	ErrInvalidPositionNftAmount
	ErrInvalidTimestamp
	ErrDayNotReady
	ErrUnexpectedPageCursor
	ErrArithmeticOverflow
	ErrBaseFeeDetected
	ErrEmptyPageWithoutLastFlag
	ErrPageOverflow
	ErrInvalidInvestorAccount
	ErrStreamflowMintMismatch
	ErrInvestorAtaOwnerMismatch
	ErrInvestorAtaMintMismatch
	ErrCreatorAtaMintMismatch
	ErrDayNotOpen
	ErrHonoraryPositionNotReady
	ErrHonoraryPositionAlreadyConfigured
	ErrTreasuryMintMismatch
	ErrTreasuryOwnerMismatch
	ErrInvalidTokenAccount
	ErrInvalidPolicyAccount
	ErrInvalidProgressAccount
	ErrConstraintAddress
	ErrInvalidInstruction
	ErrNotEnoughAccounts
)

var errorNames = map[ErrorCode]string{
	ErrInvalidInvestorShare:              "InvalidInvestorShare",
	ErrInvalidY0:                         "InvalidY0",
	ErrInvalidPoolAccount:                "InvalidPoolAccount",
	ErrInvalidFeeMode:                    "InvalidFeeMode",
	ErrQuoteMintMismatch:                 "QuoteMintMismatch",
	ErrBaseMintMismatch:                  "BaseMintMismatch",
	ErrVaultMismatch:                     "VaultMismatch",
	ErrUnsupportedPartnerPool:            "UnsupportedPartnerPool",
	ErrUnauthorized:                      "Unauthorized",
	ErrInvalidPositionAccount:            "InvalidPositionAccount",
	ErrPositionPoolMismatch:              "PositionPoolMismatch",
	ErrPositionHasUnclaimedFees:          "PositionHasUnclaimedFees",
	ErrPositionNotEmpty:                  "PositionNotEmpty",
	ErrInvalidPositionNft:                "InvalidPositionNft",
	ErrInvalidPositionMint:               "InvalidPositionMint",
	ErrInvalidPositionNftOwner:           "InvalidPositionNftOwner",
	ErrInvalidPositionNftAmount:          "InvalidPositionNftAmount",
	ErrInvalidTimestamp:                  "InvalidTimestamp",
	ErrDayNotReady:                       "DayNotReady",
	ErrUnexpectedPageCursor:              "UnexpectedPageCursor",
	ErrArithmeticOverflow:                "ArithmeticOverflow",
	ErrBaseFeeDetected:                   "BaseFeeDetected",
	ErrEmptyPageWithoutLastFlag:          "EmptyPageWithoutLastFlag",
	ErrPageOverflow:                      "PageOverflow",
	ErrInvalidInvestorAccount:            "InvalidInvestorAccount",
	ErrStreamflowMintMismatch:            "StreamflowMintMismatch",
	ErrInvestorAtaOwnerMismatch:          "InvestorAtaOwnerMismatch",
	ErrInvestorAtaMintMismatch:           "InvestorAtaMintMismatch",
	ErrCreatorAtaMintMismatch:            "CreatorAtaMintMismatch",
	ErrDayNotOpen:                        "DayNotOpen",
	ErrHonoraryPositionNotReady:          "HonoraryPositionNotReady",
	ErrHonoraryPositionAlreadyConfigured: "HonoraryPositionAlreadyConfigured",
	ErrTreasuryMintMismatch:              "TreasuryMintMismatch",
	ErrTreasuryOwnerMismatch:             "TreasuryOwnerMismatch",
	ErrInvalidTokenAccount:               "InvalidTokenAccount",
	ErrInvalidPolicyAccount:              "InvalidPolicyAccount",
	ErrInvalidProgressAccount:            "InvalidProgressAccount",
	ErrConstraintAddress:                 "ConstraintAddress",
	ErrInvalidInstruction:                "InvalidInstruction",
	ErrNotEnoughAccounts:                 "NotEnoughAccounts",
}

var errorMessages = map[ErrorCode]string{
	ErrInvalidInvestorShare:              "investor share basis points must be <= 10,000",
	ErrInvalidY0:                         "initial investor allocation y0 must be greater than zero",
	ErrInvalidPoolAccount:                "invalid or unreadable pool account",
	ErrInvalidFeeMode:                    "pool must be configured for quote-only fee collection",
	ErrQuoteMintMismatch:                 "pool quote mint does not match policy quote mint",
	ErrBaseMintMismatch:                  "pool base mint does not match policy base mint",
	ErrVaultMismatch:                     "pool vault configuration mismatch",
	ErrUnsupportedPartnerPool:            "unsupported partner configuration on pool",
	ErrUnauthorized:                      "unauthorized authority for this policy",
	ErrInvalidPositionAccount:            "invalid or unreadable position account",
	ErrPositionPoolMismatch:              "position does not belong to the configured pool",
	ErrPositionHasUnclaimedFees:          "honorary position must start with zero pending fees",
	ErrPositionNotEmpty:                  "honorary position must start with zero liquidity",
	ErrInvalidPositionNft:                "position nft account mint mismatch",
	ErrInvalidPositionMint:               "position nft mint must have zero decimals",
	ErrInvalidPositionNftOwner:           "position nft account owner must be the honorary pda",
	ErrInvalidPositionNftAmount:          "position nft account must hold exactly one token",
	ErrInvalidTimestamp:                  "unix timestamp must be non-negative",
	ErrDayNotReady:                       "24h distribution window not yet available",
	ErrUnexpectedPageCursor:              "pagination cursor mismatch",
	ErrArithmeticOverflow:                "arithmetic overflow",
	ErrBaseFeeDetected:                   "claim produced base-denominated fees unexpectedly",
	ErrEmptyPageWithoutLastFlag:          "pagination page contains no investors but not marked final",
	ErrPageOverflow:                      "pagination cursor would overflow configured bound",
	ErrInvalidInvestorAccount:            "invalid investor inputs",
	ErrStreamflowMintMismatch:            "streamflow contract mint mismatch",
	ErrInvestorAtaOwnerMismatch:          "investor token account owner mismatch",
	ErrInvestorAtaMintMismatch:           "investor token account mint mismatch",
	ErrCreatorAtaMintMismatch:            "creator quote ata mint mismatch",
	ErrDayNotOpen:                        "day not initialized",
	ErrHonoraryPositionNotReady:          "honorary position not yet configured for policy",
	ErrHonoraryPositionAlreadyConfigured: "honorary position already configured",
	ErrTreasuryMintMismatch:              "treasury account mint mismatch",
	ErrTreasuryOwnerMismatch:             "treasury account owner mismatch",
	ErrInvalidTokenAccount:               "invalid or unreadable token account",
	ErrInvalidPolicyAccount:              "invalid or unreadable policy account",
	ErrInvalidProgressAccount:            "invalid or unreadable progress account",
	ErrConstraintAddress:                 "account address does not match the policy",
	ErrInvalidInstruction:                "invalid instruction data",
	ErrNotEnoughAccounts:                 "not enough account keys given to the instruction",
}

func (e ErrorCode) Name() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint32(e))
}

func (e ErrorCode) Error() string {
	msg, ok := errorMessages[e]
	if !ok {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s (%d): %s", e.Name(), uint32(e), msg)
}
