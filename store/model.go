package store

import (
	"fmt"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/distributor"
)

type HonoraryPositionRecord struct {
	Id            uint64 `gorm:"primaryKey;autoIncrement;type:bigint(20);not null"`
	Slot          uint64 `gorm:"type:bigint(20);not null"`
	Policy        string `gorm:"type:varchar(48);not null;index"`
	Position      string `gorm:"type:varchar(48);not null"`
	QuoteTreasury string `gorm:"type:varchar(48);not null"`
	Data          string `gorm:"type:varchar(512);not null"`
}

type QuoteFeesClaimedRecord struct {
	Id                uint64 `gorm:"primaryKey;autoIncrement;type:bigint(20);not null"`
	Slot              uint64 `gorm:"type:bigint(20);not null"`
	Policy            string `gorm:"type:varchar(48);not null;index"`
	DayStartTs        int64  `gorm:"type:bigint(20);not null"`
	QuoteFeesClaimed  uint64 `gorm:"type:bigint(20) unsigned;not null"`
	CumulativeClaimed uint64 `gorm:"type:bigint(20) unsigned;not null"`
	EligibleShareBps  uint16 `gorm:"type:int(11);not null"`
	Data              string `gorm:"type:varchar(512);not null"`
}

type InvestorPayoutPageRecord struct {
	Id                 uint64 `gorm:"primaryKey;autoIncrement;type:bigint(20);not null"`
	Slot               uint64 `gorm:"type:bigint(20);not null"`
	Policy             string `gorm:"type:varchar(48);not null;index"`
	DayStartTs         int64  `gorm:"type:bigint(20);not null"`
	PageStart          uint32 `gorm:"type:int(11) unsigned;not null"`
	InvestorsProcessed uint32 `gorm:"type:int(11) unsigned;not null"`
	TotalPaidQuote     uint64 `gorm:"type:bigint(20) unsigned;not null"`
	CarryQuote         uint64 `gorm:"type:bigint(20) unsigned;not null"`
	Data               string `gorm:"type:varchar(512);not null"`
}

type DayClosedRecord struct {
	Id                uint64 `gorm:"primaryKey;autoIncrement;type:bigint(20);not null"`
	Slot              uint64 `gorm:"type:bigint(20);not null"`
	Policy            string `gorm:"type:varchar(48);not null;index"`
	DayStartTs        int64  `gorm:"type:bigint(20);not null"`
	CreatorQuotePaid  uint64 `gorm:"type:bigint(20) unsigned;not null"`
	InvestorQuotePaid uint64 `gorm:"type:bigint(20) unsigned;not null"`
	ClaimedQuote      uint64 `gorm:"type:bigint(20) unsigned;not null"`
	ShareBps          uint16 `gorm:"type:int(11);not null"`
	Data              string `gorm:"type:varchar(512);not null"`
}

var models = []interface{}{
	&HonoraryPositionRecord{},
	&QuoteFeesClaimedRecord{},
	&InvestorPayoutPageRecord{},
	&DayClosedRecord{},
}

// NewRecord converts a distributor event into its table row. ok is false for
// events of other programs.
func NewRecord(event chain.Event) (record interface{}, ok bool, err error) {
	ev, ok := event.Payload.(distributor.Event)
	if !ok {
		return nil, false, nil
	}
	data, err := distributor.EncodeEvent(ev)
	if err != nil {
		return nil, true, err
	}
	switch ev := ev.(type) {
	case *distributor.HonoraryPositionInitialized:
		return &HonoraryPositionRecord{
			Slot:          event.Slot,
			Policy:        ev.Policy.String(),
			Position:      ev.Position.String(),
			QuoteTreasury: ev.QuoteTreasury.String(),
			Data:          data,
		}, true, nil
	case *distributor.QuoteFeesClaimed:
		return &QuoteFeesClaimedRecord{
			Slot:              event.Slot,
			Policy:            ev.Policy.String(),
			DayStartTs:        ev.DayStartTs,
			QuoteFeesClaimed:  ev.QuoteFeesClaimed,
			CumulativeClaimed: ev.CumulativeClaimed,
			EligibleShareBps:  ev.EligibleShareBps,
			Data:              data,
		}, true, nil
	case *distributor.InvestorPayoutPage:
		return &InvestorPayoutPageRecord{
			Slot:               event.Slot,
			Policy:             ev.Policy.String(),
			DayStartTs:         ev.DayStartTs,
			PageStart:          ev.PageStart,
			InvestorsProcessed: ev.InvestorsProcessed,
			TotalPaidQuote:     ev.TotalPaidQuote,
			CarryQuote:         ev.CarryQuote,
			Data:               data,
		}, true, nil
	case *distributor.CreatorPayoutDayClosed:
		return &DayClosedRecord{
			Slot:              event.Slot,
			Policy:            ev.Policy.String(),
			DayStartTs:        ev.DayStartTs,
			CreatorQuotePaid:  ev.CreatorQuotePaid,
			InvestorQuotePaid: ev.InvestorQuotePaid,
			ClaimedQuote:      ev.ClaimedQuote,
			ShareBps:          ev.ShareBps,
			Data:              data,
		}, true, nil
	default:
		return nil, true, fmt.Errorf("unknown event %s", ev.EventName())
	}
}
