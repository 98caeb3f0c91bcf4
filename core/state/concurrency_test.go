package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultgame/native/vault"
	"vaultgame/storage"
)

func TestConcurrentClaimWinSingleWinner(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	engine := vault.NewEngine()
	engine.SetState(manager)
	engine.SetNowFunc(func() int64 { return 1_000 })

	_, err := engine.InitializeGlobal(addr(0xAD), "SKR-MINT")
	require.NoError(t, err)
	v, err := engine.CreateVault(addr(0x01), 4_600, vault.HashSecret([]byte("1234")), 0, 0, 4, "", true)
	require.NoError(t, err)

	const claimants = 16
	start := make(chan struct{})
	errs := make([]error, claimants)
	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = engine.ClaimWin(v.ID, addr(byte(0x10+i)), []byte("1234"))
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, vault.ErrAlreadyHasWinner)
	}
	require.Equal(t, 1, wins, "exactly one reveal may take the win")

	stored, ok, err := manager.VaultGet(v.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, stored.HasWinner())
	require.Equal(t, vault.VaultSettled, stored.Status)
}

func TestConcurrentGuessesAllCounted(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	engine := vault.NewEngine()
	engine.SetState(manager)
	engine.SetNowFunc(func() int64 { return 1_000 })

	_, err := engine.InitializeGlobal(addr(0xAD), "SKR-MINT")
	require.NoError(t, err)
	v, err := engine.CreateVault(addr(0x01), 4_600, vault.HashSecret([]byte("1234")), 0, 0, 4, "", true)
	require.NoError(t, err)

	const players = 12
	start := make(chan struct{})
	errs := make([]error, players)
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = engine.MakeGuess(v.ID, addr(byte(0x20+i)))
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	stored, ok, err := manager.VaultGet(v.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(players), stored.AttemptCount)
}

func TestConcurrentTransfersConserveSupply(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, m.Mint("SKR", from, 1_000))

	const workers = 8
	const transfersPerWorker = 25
	start := make(chan struct{})
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			for j := 0; j < transfersPerWorker; j++ {
				if err := m.Transfer("SKR", from, to, 1); err != nil && !errors.Is(err, ErrInsufficientBalance) {
					errs[i] = err
					return
				}
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	fromBalance, err := m.Balance("SKR", from)
	require.NoError(t, err)
	toBalance, err := m.Balance("SKR", to)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), fromBalance+toBalance, "supply must be conserved")
	require.Equal(t, uint64(workers*transfersPerWorker), toBalance)
}
