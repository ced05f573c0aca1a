package distributor

import (
	"fmt"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/egaotan/honorary-quote-fee/streamflow"
	"github.com/gagliardetto/solana-go"
)

// CollectInvestors reads (stream, destination) pairs and returns one entry
// per pair, in order. The entry index is the position of the destination in
// accounts.
func CollectInvestors(now uint64, accounts []*ledger.Account, quoteMint solana.PublicKey) ([]InvestorEntry, error) {
	if len(accounts)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of investor accounts (%d)", program.ErrInvalidInvestorAccount, len(accounts))
	}
	investors := make([]InvestorEntry, 0, len(accounts)/2)
	for i := 0; i < len(accounts); i += 2 {
		stream, dest := accounts[i], accounts[i+1]

		if !stream.Owner.Equals(program.Streamflow) {
			return nil, fmt.Errorf("%w: stream(%s) owner expected: %s, actual: %s", program.ErrInvalidInvestorAccount, stream.Key, program.Streamflow, stream.Owner)
		}
		contract, err := streamflow.Decode(stream.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: stream(%s) %v", program.ErrInvalidInvestorAccount, stream.Key, err)
		}
		if !contract.Mint.Equals(quoteMint) {
			return nil, fmt.Errorf("%w: stream(%s) expected: %s, actual: %s", program.ErrStreamflowMintMismatch, stream.Key, quoteMint, contract.Mint)
		}
		locked, err := streamflow.LockedAmount(contract, now)
		if err != nil {
			return nil, err
		}

		tokenAccount, err := spltoken.ParseAccount(dest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", program.ErrInvalidInvestorAccount, err)
		}
		if !tokenAccount.Mint.Equals(quoteMint) {
			return nil, fmt.Errorf("%w: account(%s) expected: %s, actual: %s", program.ErrInvestorAtaMintMismatch, dest.Key, quoteMint, tokenAccount.Mint)
		}
		if !tokenAccount.Owner.Equals(contract.Recipient) {
			return nil, fmt.Errorf("%w: account(%s) owner expected: %s, actual: %s", program.ErrInvestorAtaOwnerMismatch, dest.Key, contract.Recipient, tokenAccount.Owner)
		}
		if !dest.Key.Equals(contract.RecipientTokens) {
			return nil, fmt.Errorf("%w: expected: %s, actual: %s", program.ErrInvestorAtaOwnerMismatch, contract.RecipientTokens, dest.Key)
		}
		investors = append(investors, InvestorEntry{
			LockedAmount:      locked,
			TokenAccountIndex: i + 1,
		})
	}
	return investors, nil
}
