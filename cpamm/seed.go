package cpamm

import (
	"github.com/egaotan/honorary-quote-fee/ledger"
	"github.com/egaotan/honorary-quote-fee/spltoken"
	"github.com/gagliardetto/solana-go"
)

// PutPool and PutPosition write pool program state directly into a local
// ledger. Discriminators are filled in.
func PutPool(tx *ledger.Tx, key, programID solana.PublicKey, pool *PoolLayout) error {
	pool.Discriminator = PoolDiscriminator
	return tx.PutAccount(&ledger.Account{Key: key, Owner: programID, Lamports: 8_630_400, Data: pool.pack()})
}

func PutPosition(tx *ledger.Tx, key, programID solana.PublicKey, position *PositionLayout) error {
	position.Discriminator = PositionDiscriminator
	return tx.PutAccount(&ledger.Account{Key: key, Owner: programID, Lamports: 3_730_560, Data: position.pack()})
}

// AccrueFee simulates swap activity: it adds pending fees to the position and
// credits the same amounts to the pool vaults.
func AccrueFee(tx *ledger.Tx, programID, positionKey solana.PublicKey, feeA, feeB uint64) error {
	positionAcc, err := tx.Account(positionKey)
	if err != nil {
		return err
	}
	position, err := ParsePosition(positionAcc, programID)
	if err != nil {
		return err
	}
	poolAcc, err := tx.Account(position.Pool)
	if err != nil {
		return err
	}
	pool, err := ParsePool(poolAcc, programID)
	if err != nil {
		return err
	}
	if err := credit(tx, pool.TokenAVault, feeA); err != nil {
		return err
	}
	if err := credit(tx, pool.TokenBVault, feeB); err != nil {
		return err
	}
	position.FeeAPending += feeA
	position.FeeBPending += feeB
	positionAcc.Data = position.pack()
	return tx.PutAccount(positionAcc)
}

func credit(tx *ledger.Tx, key solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acc, err := tx.Account(key)
	if err != nil {
		return err
	}
	vault, err := spltoken.ParseAccount(acc)
	if err != nil {
		return err
	}
	return spltoken.PutAccount(tx, key, vault.Mint, vault.Owner, vault.Amount+amount)
}
