package streamflow

import (
	"math/bits"

	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/utils"
)

// StartTime is when unlocking begins: the cliff when set, otherwise the
// stream start.
func (c *Contract) StartTime() uint64 {
	if c.Ix.Cliff > 0 {
		return c.Ix.Cliff
	}
	return c.Ix.StartTime
}

// Unlocked is the cumulative amount unlocked at now, ignoring withdrawals.
// Time stops while the stream is paused and paused time is not counted.
func (c *Contract) Unlocked(now uint64) uint64 {
	deposited := c.Ix.NetAmountDeposited
	if c.CurrentPauseStart > 0 && c.CurrentPauseStart < now {
		now = c.CurrentPauseStart
	}
	start := c.StartTime()
	if now < start {
		return 0
	}
	elapsed := utils.SaturatingSub(now-start, c.PauseCumulative)

	unlocked := c.Ix.CliffAmount
	periodStart := start
	if c.LastRateChangeTime > start {
		unlocked = c.FundsUnlockedAtLastRateChange
		periodStart = c.LastRateChangeTime
		elapsed = utils.SaturatingSub(utils.SaturatingSub(now, periodStart), c.PauseCumulative)
	}
	if c.Ix.Period > 0 {
		periods := elapsed / c.Ix.Period
		hi, lo := bits.Mul64(periods, c.Ix.AmountPerPeriod)
		if hi != 0 {
			return deposited
		}
		sum, err := utils.CheckedAdd(unlocked, lo)
		if err != nil {
			return deposited
		}
		unlocked = sum
	}
	if unlocked > deposited {
		return deposited
	}
	return unlocked
}

// AvailableToClaim is what the recipient could withdraw at now.
func (c *Contract) AvailableToClaim(now uint64) uint64 {
	deposited := c.Ix.NetAmountDeposited
	if c.StartTime() > now || deposited == 0 || c.AmountWithdrawn >= deposited {
		return 0
	}
	if c.CurrentPauseStart == 0 && now >= c.EndTime {
		return deposited - c.AmountWithdrawn
	}
	return utils.SaturatingSub(c.Unlocked(now), c.AmountWithdrawn)
}

// LockedAmount is the principal still locked at now:
// deposited - min(deposited, withdrawn + available).
func LockedAmount(c *Contract, now uint64) (uint64, error) {
	unlockedNow, err := utils.CheckedAdd(c.AmountWithdrawn, c.AvailableToClaim(now))
	if err != nil {
		return 0, program.ErrArithmeticOverflow
	}
	deposited := c.Ix.NetAmountDeposited
	if unlockedNow > deposited {
		unlockedNow = deposited
	}
	return utils.SaturatingSub(deposited, unlockedNow), nil
}
