package server

import (
	"github.com/egaotan/honorary-quote-fee/distributor"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
)

type Amount struct {
	Raw uint64 `json:"raw"`
	Ui  string `json:"ui"`
}

func amount(raw uint64, decimals uint8) Amount {
	return Amount{Raw: raw, Ui: utils.UiAmount(raw, decimals).StringFixed(int32(decimals))}
}

type PolicyResponse struct {
	Policy              string `json:"policy"`
	Authority           string `json:"authority"`
	Pool                string `json:"pool"`
	QuoteMint           string `json:"quote_mint"`
	Position            string `json:"position"`
	QuoteTreasury       string `json:"quote_treasury"`
	CreatorQuoteAta     string `json:"creator_quote_ata"`
	InvestorFeeShareBps uint16 `json:"investor_fee_share_bps"`
	Y0                  Amount `json:"y0"`
	DailyCapQuote       Amount `json:"daily_cap_quote"`
	MinPayout           Amount `json:"min_payout"`
	LastDayCloseTs      int64  `json:"last_day_close_ts"`
	Ready               bool   `json:"ready"`
}

func buildPolicy(key solana.PublicKey, policy *distributor.Policy, decimals uint8) *PolicyResponse {
	resp := &PolicyResponse{
		Policy:              key.String(),
		Authority:           policy.Authority.String(),
		Pool:                policy.Pool.String(),
		QuoteMint:           policy.QuoteMint.String(),
		QuoteTreasury:       policy.QuoteTreasury.String(),
		CreatorQuoteAta:     policy.CreatorQuoteAta.String(),
		InvestorFeeShareBps: policy.InvestorFeeShareBps,
		Y0:                  amount(policy.Y0, decimals),
		DailyCapQuote:       amount(policy.DailyCapQuote, decimals),
		MinPayout:           amount(policy.MinPayoutLamports, decimals),
		LastDayCloseTs:      policy.LastDayCloseTs,
		Ready:               policy.Ready(),
	}
	if !policy.Position.IsZero() {
		resp.Position = policy.Position.String()
	}
	return resp
}

type ProgressResponse struct {
	DayOpen             bool   `json:"day_open"`
	DayStartTs          int64  `json:"day_start_ts"`
	PageCursor          uint32 `json:"page_cursor"`
	ClaimedQuote        Amount `json:"claimed_quote"`
	InvestorDistributed Amount `json:"investor_distributed"`
	CarryQuote          Amount `json:"carry_quote"`
	Treasury            Amount `json:"treasury"`
	NextDayTs           int64  `json:"next_day_ts,omitempty"`
}

func buildProgress(progress *distributor.DistributionProgress, policy *distributor.Policy, treasury uint64, decimals uint8) *ProgressResponse {
	resp := &ProgressResponse{
		DayOpen:             progress.DayOpen,
		DayStartTs:          progress.DayStartTs,
		PageCursor:          progress.PageCursor,
		ClaimedQuote:        amount(progress.ClaimedQuote, decimals),
		InvestorDistributed: amount(progress.InvestorDistributed, decimals),
		CarryQuote:          amount(progress.CarryQuote, decimals),
		Treasury:            amount(treasury, decimals),
	}
	if !progress.DayOpen && policy.LastDayCloseTs != distributor.InitialLastDayCloseTs {
		resp.NextDayTs = policy.LastDayCloseTs + distributor.DaySeconds
	}
	return resp
}
