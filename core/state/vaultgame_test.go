package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vaultgame/native/vault"
)

func TestGlobalRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.GlobalGet()
	require.NoError(t, err)
	require.False(t, ok)

	gs := &vault.GlobalState{Admin: addr(0xAD), FeeMint: "SKR-MINT", VaultCount: 3}
	require.NoError(t, m.GlobalPut(gs))

	loaded, ok, err := m.GlobalGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, gs, loaded)
}

func TestVaultRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.VaultGet(0)
	require.NoError(t, err)
	require.False(t, ok)

	v := &vault.Vault{
		ID:           9,
		Creator:      addr(0x01),
		Status:       vault.VaultActive,
		CreatedAt:    1_000,
		EndTs:        4_600,
		SecretHash:   [32]byte{0xAA, 0xBB},
		PrizeAmount:  1_000,
		StartingFee:  250,
		CurrentFee:   300,
		AttemptCount: 4,
		NativeFee:    true,
		FeeMint:      "SKR",
		TotalFees:    550,
		WinnerPool:   440,
	}
	require.NoError(t, m.VaultPut(v))

	loaded, ok, err := m.VaultGet(9)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, v, loaded)
	require.False(t, loaded.HasWinner())
}

func TestVaultRoundTripWithWinner(t *testing.T) {
	m := newTestManager(t)
	winner := addr(0x07)
	v := &vault.Vault{
		ID:        2,
		Creator:   addr(0x01),
		Status:    vault.VaultSettled,
		EndTs:     4_600,
		Winner:    &winner,
		SettledAt: 2_000,
		PaidOut:   true,
	}
	require.NoError(t, m.VaultPut(v))

	loaded, ok, err := m.VaultGet(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.HasWinner())
	require.Equal(t, winner, *loaded.Winner)
	require.Equal(t, int64(2_000), loaded.SettledAt)
	require.True(t, loaded.PaidOut)
}

func TestVaultPutRejectsInvalidStatus(t *testing.T) {
	m := newTestManager(t)
	require.Error(t, m.VaultPut(&vault.Vault{ID: 1, Status: vault.VaultStatus(9)}))
	require.Error(t, m.VaultPut(nil))
}

func TestPlayerRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.PlayerGet(addr(0x05))
	require.NoError(t, err)
	require.False(t, ok)

	p := &vault.PlayerProfile{
		Player:        addr(0x05),
		Attempts:      12,
		Wins:          1,
		VaultsCreated: 2,
		Score:         362,
		LastSeenTs:    5_000,
	}
	require.NoError(t, m.PlayerPut(p))

	loaded, ok, err := m.PlayerGet(addr(0x05))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p, loaded)
}

func TestRewardRoundTripAndKeying(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.RewardGet(3, "MINT-A")
	require.NoError(t, err)
	require.False(t, ok)

	r := &vault.RewardEscrow{VaultID: 3, Mint: "MINT-A", TokenProgram: "spl-token", Amount: 25}
	require.NoError(t, m.RewardPut(r))

	loaded, ok, err := m.RewardGet(3, "MINT-A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, r, loaded)

	// Slots are keyed by (vault, mint); neighbours stay empty.
	_, ok, err = m.RewardGet(3, "MINT-B")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = m.RewardGet(4, "MINT-A")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChallengeRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.ChallengeGet()
	require.NoError(t, err)
	require.False(t, ok)

	c := &vault.MegaChallenge{Authority: addr(0xAD), VaultID: 11}
	require.NoError(t, m.ChallengePut(c))

	loaded, ok, err := m.ChallengeGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, c, loaded)

	// The pointer is a singleton; a second put overwrites it.
	require.NoError(t, m.ChallengePut(&vault.MegaChallenge{Authority: addr(0xAD), VaultID: 12}))
	loaded, ok, err = m.ChallengeGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(12), loaded.VaultID)
}
