package backend

import (
	"fmt"

	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/gagliardetto/solana-go"
)

// Clone copies the given cluster accounts into the local ledger in one
// transaction and records the highest slot seen under the "clone_slot" meta
// key. Any missing account aborts the clone.
func (backend *Backend) Clone(l *ledger.Ledger, pubkeys []solana.PublicKey) (int, error) {
	accounts, err := backend.Accounts(pubkeys)
	if err != nil {
		return 0, err
	}
	slot := uint64(0)
	for _, account := range accounts {
		if account.Account == nil {
			return 0, fmt.Errorf("%w: %s", ErrAccountMissing, account.PubKey)
		}
		if account.Height > slot {
			slot = account.Height
		}
	}
	err = l.Update(func(tx *ledger.Tx) error {
		for _, account := range accounts {
			var data []byte
			if account.Account.Data != nil {
				data = account.Account.Data.GetBinary()
			}
			err := tx.PutAccount(&ledger.Account{
				Key:        account.PubKey,
				Owner:      account.Account.Owner,
				Lamports:   account.Account.Lamports,
				Executable: account.Account.Executable,
				Data:       data,
			})
			if err != nil {
				return err
			}
		}
		return tx.SetMeta(CloneSlotKey, slot)
	})
	if err != nil {
		return 0, err
	}
	backend.log.Info("accounts cloned", "count", len(accounts), "slot", slot)
	return len(accounts), nil
}

const CloneSlotKey = "clone_slot"
