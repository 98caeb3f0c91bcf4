package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"vaultgame/storage"
)

var (
	// ErrInsufficientBalance is returned when a transfer would overdraw the
	// sender's custody slot.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrBalanceOverflow is returned when a credit would overflow the
	// recipient's balance.
	ErrBalanceOverflow = errors.New("state: balance overflow")
	// ErrInvalidAmount is returned for zero or malformed transfer amounts.
	ErrInvalidAmount = errors.New("state: amount must be positive")
	// ErrSameAccount rejects transfers where sender and recipient coincide.
	ErrSameAccount = errors.New("state: transfer to self")
)

// Manager implements the keyed-storage and ledger collaborator over a
// generic key-value database. Storage slots are addressed by hashing a
// namespace prefix together with the entity key, so no two logical keys can
// collide and addresses derive deterministically from their tags.
//
// A single mutex serializes every balance mutation so the read-then-write
// debit/credit pair of a transfer is atomic with respect to concurrent
// transfers touching the same slots.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager wraps the given database in a state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func storageKey(prefix []byte, parts ...[]byte) []byte {
	buf := append([]byte(nil), prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func uint64Key(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// moduleAddress derives the custody address for a named module slot. Slots
// never reference each other; they are reachable only by re-deriving the
// same tag and key.
func moduleAddress(tag string, parts ...[]byte) [20]byte {
	buf := append([]byte(nil), moduleAddrPrefix...)
	buf = append(buf, tag...)
	for _, part := range parts {
		buf = append(buf, '/')
		buf = append(buf, part...)
	}
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256(buf)[12:])
	return addr
}

// PrizeVaultAddress returns the custody slot holding a vault's locked prize.
func (m *Manager) PrizeVaultAddress(vaultID uint64) [20]byte {
	return moduleAddress("prize", uint64Key(vaultID))
}

// FeePoolAddress returns the custody slot accumulating a vault's winner
// fee pool.
func (m *Manager) FeePoolAddress(vaultID uint64) [20]byte {
	return moduleAddress("pool", uint64Key(vaultID))
}

// RewardVaultAddress returns the custody slot for one (vault, mint) reward
// escrow.
func (m *Manager) RewardVaultAddress(vaultID uint64, mint string) [20]byte {
	return moduleAddress("reward", uint64Key(vaultID), []byte(mint))
}

// JackpotAddress returns the single global jackpot accumulator slot shared
// by every vault.
func (m *Manager) JackpotAddress() [20]byte {
	return moduleAddress("jackpot")
}

func balanceKey(asset string, addr [20]byte) []byte {
	return storageKey(balancePrefix, []byte(asset), []byte("/"), addr[:])
}

// Balance returns the current holdings of an address in the given asset.
// Slots that were never written read as zero; storage failures and
// malformed records surface as errors rather than a zero balance.
func (m *Manager) Balance(asset string, addr [20]byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(asset, addr)
}

func (m *Manager) balance(asset string, addr [20]byte) (uint64, error) {
	data, err := m.db.Get(balanceKey(asset, addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("state: corrupted balance record for asset %q", asset)
	}
	return binary.BigEndian.Uint64(data), nil
}

func (m *Manager) writeBalance(asset string, addr [20]byte, amount uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, amount)
	return m.db.Put(balanceKey(asset, addr), buf)
}

// Mint credits freshly issued units of an asset to an address. Used at
// bootstrap and in tests; gameplay only ever moves existing balances.
func (m *Manager) Mint(asset string, addr [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.balance(asset, addr)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(current, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	return m.writeBalance(asset, addr, sum)
}

// Transfer moves an exact amount of a named asset between two custody
// slots, all-or-nothing. The debit and credit are computed first and only
// written once both succeed; a failed second write restores the first.
func (m *Manager) Transfer(asset string, from, to [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSameAccount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fromBalance, err := m.balance(asset, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientBalance
	}
	toBalance, err := m.balance(asset, to)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(toBalance, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	if err := m.writeBalance(asset, from, fromBalance-amount); err != nil {
		return err
	}
	if err := m.writeBalance(asset, to, sum); err != nil {
		if restoreErr := m.writeBalance(asset, from, fromBalance); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	return nil
}
