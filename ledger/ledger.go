package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"go.etcd.io/bbolt"
)

var (
	bucketAccounts = []byte("accounts")
	bucketMeta     = []byte("meta")
)

var (
	ErrAccountNotFound = errors.New("ledger: account not found")
	ErrReadOnly        = errors.New("ledger: write in read-only transaction")
	ErrCorruptAccount  = errors.New("ledger: corrupt account record")
)

// account record: owner(32) + lamports(8) + executable(1) + data
const accountHeaderSize = 32 + 8 + 1

// Account is the runtime view of a single address.
type Account struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	Lamports   uint64
	Executable bool
	Data       []byte
}

func (a *Account) Clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{
		Key:        a.Key,
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Executable: a.Executable,
		Data:       data,
	}
}

func encodeAccount(a *Account) []byte {
	buf := make([]byte, accountHeaderSize+len(a.Data))
	copy(buf[0:32], a.Owner[:])
	binary.LittleEndian.PutUint64(buf[32:40], a.Lamports)
	if a.Executable {
		buf[40] = 1
	}
	copy(buf[accountHeaderSize:], a.Data)
	return buf
}

func decodeAccount(key solana.PublicKey, raw []byte) (*Account, error) {
	if len(raw) < accountHeaderSize {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrCorruptAccount, key, len(raw))
	}
	a := &Account{Key: key}
	copy(a.Owner[:], raw[0:32])
	a.Lamports = binary.LittleEndian.Uint64(raw[32:40])
	a.Executable = raw[40] == 1
	// bbolt values are only valid for the life of the transaction
	a.Data = make([]byte, len(raw)-accountHeaderSize)
	copy(a.Data, raw[accountHeaderSize:])
	return a, nil
}

// Ledger is the account database. Every Update runs in a single bbolt write
// transaction, so a failing closure leaves no partial state behind.
type Ledger struct {
	db *bbolt.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("ledger: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) Update(fn func(tx *Tx) error) error {
	return l.db.Update(func(btx *bbolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

func (l *Ledger) View(fn func(tx *Tx) error) error {
	return l.db.View(func(btx *bbolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

// Account is a convenience read outside of any caller transaction.
func (l *Ledger) Account(key solana.PublicKey) (*Account, error) {
	var acc *Account
	err := l.View(func(tx *Tx) error {
		var err error
		acc, err = tx.Account(key)
		return err
	})
	return acc, err
}

// Tx is a ledger transaction.
type Tx struct {
	tx *bbolt.Tx
}

func (t *Tx) Writable() bool { return t.tx.Writable() }

func (t *Tx) Account(key solana.PublicKey) (*Account, error) {
	raw := t.tx.Bucket(bucketAccounts).Get(key[:])
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return decodeAccount(key, raw)
}

func (t *Tx) HasAccount(key solana.PublicKey) bool {
	return t.tx.Bucket(bucketAccounts).Get(key[:]) != nil
}

func (t *Tx) PutAccount(a *Account) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	if err := t.tx.Bucket(bucketAccounts).Put(a.Key[:], encodeAccount(a)); err != nil {
		return fmt.Errorf("ledger: put account %s: %w", a.Key, err)
	}
	return nil
}

func (t *Tx) DeleteAccount(key solana.PublicKey) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	return t.tx.Bucket(bucketAccounts).Delete(key[:])
}

// SetMeta and Meta keep small runtime values such as the last executed slot.
func (t *Tx) SetMeta(key string, value uint64) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return t.tx.Bucket(bucketMeta).Put([]byte(key), buf)
}

func (t *Tx) Meta(key string) uint64 {
	raw := t.tx.Bucket(bucketMeta).Get([]byte(key))
	if len(raw) != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(raw)
}
