package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultgame/native/vault"
	"vaultgame/storage"
)

// faultyDB fails every operation with a fixed error, standing in for a
// broken backend.
type faultyDB struct {
	err error
}

func (db faultyDB) Put(key, value []byte) error    { return db.err }
func (db faultyDB) Get(key []byte) ([]byte, error) { return nil, db.err }
func (db faultyDB) Close()                         {}

func TestBalanceSurfacesStorageFailure(t *testing.T) {
	diskErr := errors.New("disk failure")
	m := NewManager(faultyDB{err: diskErr})

	_, err := m.Balance("SKR", addr(0x01))
	require.ErrorIs(t, err, diskErr)

	require.ErrorIs(t, m.Mint("SKR", addr(0x01), 10), diskErr)
	require.ErrorIs(t, m.Transfer("SKR", addr(0x01), addr(0x02), 10), diskErr)
}

func TestBalanceSurfacesCorruptRecord(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	require.NoError(t, db.Put(balanceKey("SKR", addr(0x01)), []byte("short")))

	_, err := m.Balance("SKR", addr(0x01))
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted balance record")
}

func TestTransferLeavesRecipientIntactOnCorruptSlot(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, m.Mint("SKR", from, 100))

	require.NoError(t, db.Put(balanceKey("SKR", to), []byte("garbage")))

	err := m.Transfer("SKR", from, to, 40)
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted balance record")

	fromBalance, err := m.Balance("SKR", from)
	require.NoError(t, err)
	require.Equal(t, uint64(100), fromBalance, "debit must not land without the credit")
}

func TestGettersSurfaceCorruptRecords(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	require.NoError(t, db.Put(storageKey(globalKeyBytes), []byte{0xFF, 0x00, 0x01}))
	_, _, err := m.GlobalGet()
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted record")

	require.NoError(t, db.Put(vaultStorageKey(5), []byte{0xDE, 0xAD}))
	_, _, err = m.VaultGet(5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted record")

	require.NoError(t, db.Put(playerStorageKey(addr(0x09)), []byte{0x01}))
	_, _, err = m.PlayerGet(addr(0x09))
	require.Error(t, err)
}

func TestVaultGetRejectsInvalidStoredStatus(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	require.NoError(t, m.putRecord(vaultStorageKey(7), &storedVault{ID: 7, Status: 9}))
	_, _, err := m.VaultGet(7)
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted vault status")
}

func TestInitializeGlobalBlockedByStorageFailure(t *testing.T) {
	diskErr := errors.New("disk failure")
	engine := vault.NewEngine()
	engine.SetState(NewManager(faultyDB{err: diskErr}))

	_, err := engine.InitializeGlobal(addr(0xAD), "SKR-MINT")
	require.ErrorIs(t, err, diskErr)
}
