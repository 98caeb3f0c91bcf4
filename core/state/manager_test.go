package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultgame/storage"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestBalanceDefaultsToZero(t *testing.T) {
	m := newTestManager(t)
	balance, err := m.Balance("SKR", addr(0x01))
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestMintAndBalance(t *testing.T) {
	m := newTestManager(t)
	a := addr(0x01)
	require.NoError(t, m.Mint("SKR", a, 1_000))
	require.NoError(t, m.Mint("SKR", a, 500))

	balance, err := m.Balance("SKR", a)
	require.NoError(t, err)
	require.Equal(t, uint64(1_500), balance)

	require.ErrorIs(t, m.Mint("SKR", a, 0), ErrInvalidAmount)
	require.ErrorIs(t, m.Mint("SKR", a, math.MaxUint64), ErrBalanceOverflow)
}

func TestTransferConservesSupply(t *testing.T) {
	m := newTestManager(t)
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, m.Mint("SKR", from, 1_000))

	require.NoError(t, m.Transfer("SKR", from, to, 400))

	fromBalance, err := m.Balance("SKR", from)
	require.NoError(t, err)
	toBalance, err := m.Balance("SKR", to)
	require.NoError(t, err)
	require.Equal(t, uint64(600), fromBalance)
	require.Equal(t, uint64(400), toBalance)
}

func TestTransferRejections(t *testing.T) {
	m := newTestManager(t)
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, m.Mint("SKR", from, 100))

	require.ErrorIs(t, m.Transfer("SKR", from, to, 0), ErrInvalidAmount)
	require.ErrorIs(t, m.Transfer("SKR", from, from, 10), ErrSameAccount)
	require.ErrorIs(t, m.Transfer("SKR", from, to, 101), ErrInsufficientBalance)

	require.NoError(t, m.Mint("SKR", to, math.MaxUint64))
	require.ErrorIs(t, m.Transfer("SKR", from, to, 1), ErrBalanceOverflow)

	// Failed transfers leave both sides untouched.
	fromBalance, err := m.Balance("SKR", from)
	require.NoError(t, err)
	require.Equal(t, uint64(100), fromBalance)
}

func TestBalancesAreAssetScoped(t *testing.T) {
	m := newTestManager(t)
	a := addr(0x01)
	require.NoError(t, m.Mint("SKR", a, 100))

	other, err := m.Balance("BONUS-MINT", a)
	require.NoError(t, err)
	require.Zero(t, other)
}

func TestModuleAddressesAreStableAndDistinct(t *testing.T) {
	m := newTestManager(t)

	require.Equal(t, m.PrizeVaultAddress(7), m.PrizeVaultAddress(7))
	require.Equal(t, m.RewardVaultAddress(7, "M"), m.RewardVaultAddress(7, "M"))

	all := [][20]byte{
		m.PrizeVaultAddress(0),
		m.PrizeVaultAddress(1),
		m.FeePoolAddress(0),
		m.FeePoolAddress(1),
		m.RewardVaultAddress(0, "A"),
		m.RewardVaultAddress(0, "B"),
		m.RewardVaultAddress(1, "A"),
		m.JackpotAddress(),
	}
	seen := make(map[[20]byte]struct{}, len(all))
	for _, a := range all {
		seen[a] = struct{}{}
	}
	require.Len(t, seen, len(all), "custody addresses must not collide")
}
