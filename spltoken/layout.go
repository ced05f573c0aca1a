package spltoken

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	TokenLayoutSize = 165
	MintLayoutSize  = 82
)

const (
	AccountStateUninitialized uint8 = iota
	AccountStateInitialized
	AccountStateFrozen
)

// AccountLayout is a token account.
type AccountLayout struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       [4]byte
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       [4]byte
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption [4]byte
	CloseAuthority       solana.PublicKey
}

// MintLayout is a token mint.
type MintLayout struct {
	MintAuthorityOption   [4]byte
	MintAuthority         solana.PublicKey
	Supply                uint64
	Decimals              byte
	IsInitialized         uint8
	FreezeAuthorityOption [4]byte
	FreezeAuthority       solana.PublicKey
}

func (a *AccountLayout) unpack(data []byte) error {
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, a)
}

func (a *AccountLayout) pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, TokenLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, a)
	return buf.Bytes()
}

func (m *MintLayout) unpack(data []byte) error {
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, m)
}

func (m *MintLayout) pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, MintLayoutSize))
	_ = binary.Write(buf, binary.LittleEndian, m)
	return buf.Bytes()
}
