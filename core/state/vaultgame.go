package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"vaultgame/native/vault"
	"vaultgame/storage"
)

// Stored records flatten optional fields and carry signed timestamps as
// big.Int so the RLP codec can round-trip them. The persisted layout is the
// on-ledger schema; growing an entity requires a new storage slot rather
// than an in-place resize.

type storedGlobal struct {
	Admin      [20]byte
	FeeMint    string
	VaultCount uint64
}

type storedVault struct {
	ID           uint64
	Creator      [20]byte
	Status       uint8
	CreatedAt    *big.Int
	EndTs        *big.Int
	SecretHash   [32]byte
	PrizeAmount  uint64
	StartingFee  uint64
	CurrentFee   uint64
	AttemptCount uint64
	NativeFee    bool
	FeeMint      string
	TotalFees    uint64
	WinnerPool   uint64
	HasWinner    bool
	Winner       [20]byte
	SettledAt    *big.Int
	PaidOut      bool
}

type storedPlayer struct {
	Player        [20]byte
	Attempts      uint64
	Wins          uint64
	VaultsCreated uint64
	Score         uint64
	LastSeenTs    *big.Int
}

type storedReward struct {
	VaultID      uint64
	Mint         string
	TokenProgram string
	Amount       uint64
	Claimed      bool
}

type storedChallenge struct {
	Authority [20]byte
	VaultID   uint64
}

// getRecord reports whether a record exists under the key. Storage failures
// and undecodable payloads are surfaced as errors; treating either as
// not-found would let a later put silently overwrite live state.
func (m *Manager) getRecord(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: corrupted record: %w", err)
	}
	return true, nil
}

func (m *Manager) putRecord(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// GlobalGet loads the global registry record.
func (m *Manager) GlobalGet() (*vault.GlobalState, bool, error) {
	stored := new(storedGlobal)
	ok, err := m.getRecord(storageKey(globalKeyBytes), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &vault.GlobalState{
		Admin:      stored.Admin,
		FeeMint:    stored.FeeMint,
		VaultCount: stored.VaultCount,
	}, true, nil
}

// GlobalPut persists the global registry record.
func (m *Manager) GlobalPut(gs *vault.GlobalState) error {
	if gs == nil {
		return fmt.Errorf("state: nil global record")
	}
	return m.putRecord(storageKey(globalKeyBytes), &storedGlobal{
		Admin:      gs.Admin,
		FeeMint:    gs.FeeMint,
		VaultCount: gs.VaultCount,
	})
}

func vaultStorageKey(id uint64) []byte {
	return storageKey(vaultRecordPrefix, uint64Key(id))
}

// VaultGet loads a vault by id.
func (m *Manager) VaultGet(id uint64) (*vault.Vault, bool, error) {
	stored := new(storedVault)
	ok, err := m.getRecord(vaultStorageKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	status := vault.VaultStatus(stored.Status)
	if !status.Valid() {
		return nil, false, fmt.Errorf("state: corrupted vault status: %d", stored.Status)
	}
	v := &vault.Vault{
		ID:           stored.ID,
		Creator:      stored.Creator,
		Status:       status,
		SecretHash:   stored.SecretHash,
		PrizeAmount:  stored.PrizeAmount,
		StartingFee:  stored.StartingFee,
		CurrentFee:   stored.CurrentFee,
		AttemptCount: stored.AttemptCount,
		NativeFee:    stored.NativeFee,
		FeeMint:      stored.FeeMint,
		TotalFees:    stored.TotalFees,
		WinnerPool:   stored.WinnerPool,
		PaidOut:      stored.PaidOut,
	}
	if stored.CreatedAt != nil {
		v.CreatedAt = stored.CreatedAt.Int64()
	}
	if stored.EndTs != nil {
		v.EndTs = stored.EndTs.Int64()
	}
	if stored.SettledAt != nil {
		v.SettledAt = stored.SettledAt.Int64()
	}
	if stored.HasWinner {
		winner := stored.Winner
		v.Winner = &winner
	}
	return v, true, nil
}

// VaultPut persists a vault record.
func (m *Manager) VaultPut(v *vault.Vault) error {
	if v == nil {
		return fmt.Errorf("state: nil vault record")
	}
	if !v.Status.Valid() {
		return fmt.Errorf("state: invalid vault status: %d", v.Status)
	}
	stored := &storedVault{
		ID:           v.ID,
		Creator:      v.Creator,
		Status:       uint8(v.Status),
		CreatedAt:    big.NewInt(v.CreatedAt),
		EndTs:        big.NewInt(v.EndTs),
		SecretHash:   v.SecretHash,
		PrizeAmount:  v.PrizeAmount,
		StartingFee:  v.StartingFee,
		CurrentFee:   v.CurrentFee,
		AttemptCount: v.AttemptCount,
		NativeFee:    v.NativeFee,
		FeeMint:      v.FeeMint,
		TotalFees:    v.TotalFees,
		WinnerPool:   v.WinnerPool,
		SettledAt:    big.NewInt(v.SettledAt),
		PaidOut:      v.PaidOut,
	}
	if v.Winner != nil {
		stored.HasWinner = true
		stored.Winner = *v.Winner
	}
	return m.putRecord(vaultStorageKey(v.ID), stored)
}

func playerStorageKey(addr [20]byte) []byte {
	return storageKey(playerPrefix, addr[:])
}

// PlayerGet loads a player profile by address.
func (m *Manager) PlayerGet(addr [20]byte) (*vault.PlayerProfile, bool, error) {
	stored := new(storedPlayer)
	ok, err := m.getRecord(playerStorageKey(addr), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	profile := &vault.PlayerProfile{
		Player:        stored.Player,
		Attempts:      stored.Attempts,
		Wins:          stored.Wins,
		VaultsCreated: stored.VaultsCreated,
		Score:         stored.Score,
	}
	if stored.LastSeenTs != nil {
		profile.LastSeenTs = stored.LastSeenTs.Int64()
	}
	return profile, true, nil
}

// PlayerPut persists a player profile.
func (m *Manager) PlayerPut(p *vault.PlayerProfile) error {
	if p == nil {
		return fmt.Errorf("state: nil player record")
	}
	return m.putRecord(playerStorageKey(p.Player), &storedPlayer{
		Player:        p.Player,
		Attempts:      p.Attempts,
		Wins:          p.Wins,
		VaultsCreated: p.VaultsCreated,
		Score:         p.Score,
		LastSeenTs:    big.NewInt(p.LastSeenTs),
	})
}

func rewardStorageKey(vaultID uint64, mint string) []byte {
	return storageKey(rewardPrefix, uint64Key(vaultID), []byte("/"), []byte(mint))
}

// RewardGet loads one (vault, mint) reward escrow slot.
func (m *Manager) RewardGet(vaultID uint64, mint string) (*vault.RewardEscrow, bool, error) {
	stored := new(storedReward)
	ok, err := m.getRecord(rewardStorageKey(vaultID, mint), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &vault.RewardEscrow{
		VaultID:      stored.VaultID,
		Mint:         stored.Mint,
		TokenProgram: stored.TokenProgram,
		Amount:       stored.Amount,
		Claimed:      stored.Claimed,
	}, true, nil
}

// RewardPut persists a reward escrow slot.
func (m *Manager) RewardPut(r *vault.RewardEscrow) error {
	if r == nil {
		return fmt.Errorf("state: nil reward record")
	}
	return m.putRecord(rewardStorageKey(r.VaultID, r.Mint), &storedReward{
		VaultID:      r.VaultID,
		Mint:         r.Mint,
		TokenProgram: r.TokenProgram,
		Amount:       r.Amount,
		Claimed:      r.Claimed,
	})
}

// ChallengeGet loads the advisory featured-challenge pointer.
func (m *Manager) ChallengeGet() (*vault.MegaChallenge, bool, error) {
	stored := new(storedChallenge)
	ok, err := m.getRecord(storageKey(challengeKeyBytes), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &vault.MegaChallenge{Authority: stored.Authority, VaultID: stored.VaultID}, true, nil
}

// ChallengePut persists the advisory featured-challenge pointer.
func (m *Manager) ChallengePut(c *vault.MegaChallenge) error {
	if c == nil {
		return fmt.Errorf("state: nil challenge record")
	}
	return m.putRecord(storageKey(challengeKeyBytes), &storedChallenge{
		Authority: c.Authority,
		VaultID:   c.VaultID,
	})
}
