package distributor

import (
	sdkmath "cosmossdk.io/math"

	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/utils"
)

// InvestorEntry is one investor of the current page. TokenAccountIndex
// points at the investor's destination in the page's account list.
type InvestorEntry struct {
	LockedAmount      uint64
	TokenAccountIndex int
}

type Transfer struct {
	Amount            uint64
	TokenAccountIndex int
}

type PayoutParams struct {
	ClaimedQuote        uint64
	InvestorDistributed uint64
	CarryQuote          uint64
	Y0                  uint64
	InvestorFeeShareBps uint16
	DailyCapQuote       uint64
	MinPayoutLamports   uint64
}

func (p *Policy) PayoutParams(progress *DistributionProgress) PayoutParams {
	return PayoutParams{
		ClaimedQuote:        progress.ClaimedQuote,
		InvestorDistributed: progress.InvestorDistributed,
		CarryQuote:          progress.CarryQuote,
		Y0:                  p.Y0,
		InvestorFeeShareBps: p.InvestorFeeShareBps,
		DailyCapQuote:       p.DailyCapQuote,
		MinPayoutLamports:   p.MinPayoutLamports,
	}
}

type InvestorPayoutPlan struct {
	Transfers           []Transfer
	InvestorCount       uint32
	ShareBps            uint16
	TotalPaid           uint64
	TargetInvestorQuote uint64
	CarryForCreator     uint64
	CarryQuoteAfter     uint64
	// AvailableToPay is the page budget: unpaid target plus carry.
	AvailableToPay uint64
}

// EligibleShareBps is min(locked*10000/y0, max), or 0 when y0 or locked is 0.
func EligibleShareBps(lockedTotal sdkmath.Int, y0 uint64, maxShareBps uint16) uint16 {
	if y0 == 0 || lockedTotal.IsZero() {
		return 0
	}
	ratio := lockedTotal.Mul(sdkmath.NewInt(int64(MaxBasisPoints))).Quo(utils.Wide(y0))
	if ratio.GT(sdkmath.NewInt(int64(maxShareBps))) {
		return maxShareBps
	}
	return uint16(ratio.Uint64())
}

// BuildInvestorPayoutPlan splits the page budget across investors pro rata
// to their locked amounts. Payouts below the minimum become zero and stay in
// carry.
func BuildInvestorPayoutPlan(investors []InvestorEntry, p PayoutParams) (*InvestorPayoutPlan, error) {
	if uint64(len(investors)) > uint64(^uint32(0)) {
		return nil, program.ErrArithmeticOverflow
	}
	totalLocked := sdkmath.ZeroInt()
	for _, entry := range investors {
		totalLocked = totalLocked.Add(utils.Wide(entry.LockedAmount))
	}
	shareBps := EligibleShareBps(totalLocked, p.Y0, p.InvestorFeeShareBps)

	wideTarget, err := utils.MulDivFloor(utils.Wide(p.ClaimedQuote), sdkmath.NewInt(int64(shareBps)), sdkmath.NewInt(int64(MaxBasisPoints)))
	if err != nil {
		return nil, err
	}
	target, err := utils.NarrowToU64(wideTarget)
	if err != nil {
		return nil, err
	}
	if p.DailyCapQuote > 0 && target > p.DailyCapQuote {
		target = p.DailyCapQuote
	}

	available, err := utils.CheckedAdd(utils.SaturatingSub(target, p.InvestorDistributed), p.CarryQuote)
	if err != nil {
		return nil, err
	}
	carryForCreator := uint64(0)
	if shareBps == 0 {
		carryForCreator = p.CarryQuote
		available = 0
	}

	denom := totalLocked
	if denom.IsZero() {
		denom = sdkmath.OneInt()
	}
	totalPaid := uint64(0)
	transfers := make([]Transfer, 0, len(investors))
	for _, entry := range investors {
		if available == 0 || entry.LockedAmount == 0 {
			transfers = append(transfers, Transfer{Amount: 0, TokenAccountIndex: entry.TokenAccountIndex})
			continue
		}
		widePayout, err := utils.MulDivFloor(utils.Wide(available), utils.Wide(entry.LockedAmount), denom)
		if err != nil {
			return nil, err
		}
		payout, err := utils.NarrowToU64(widePayout)
		if err != nil {
			return nil, err
		}
		if payout < p.MinPayoutLamports {
			payout = 0
		}
		transfers = append(transfers, Transfer{Amount: payout, TokenAccountIndex: entry.TokenAccountIndex})
		if totalPaid, err = utils.CheckedAdd(totalPaid, payout); err != nil {
			return nil, err
		}
	}

	carryAfter := uint64(0)
	if shareBps != 0 {
		carryAfter = utils.SaturatingSub(available, totalPaid)
	}
	return &InvestorPayoutPlan{
		Transfers:           transfers,
		InvestorCount:       uint32(len(investors)),
		ShareBps:            shareBps,
		TotalPaid:           totalPaid,
		TargetInvestorQuote: target,
		CarryForCreator:     carryForCreator,
		CarryQuoteAfter:     carryAfter,
		AvailableToPay:      available,
	}, nil
}
