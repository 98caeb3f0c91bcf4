package vault

import "testing"

func TestVaultStatusValid(t *testing.T) {
	for _, status := range []VaultStatus{VaultActive, VaultSettled, VaultCancelled} {
		if !status.Valid() {
			t.Fatalf("status %d should be valid", status)
		}
	}
	if VaultStatus(3).Valid() {
		t.Fatalf("status 3 should be invalid")
	}
}

func TestVaultStatusString(t *testing.T) {
	cases := map[VaultStatus]string{
		VaultActive:    "active",
		VaultSettled:   "settled",
		VaultCancelled: "cancelled",
		VaultStatus(9): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Fatalf("status %d = %q, want %q", status, got, want)
		}
	}
}

func TestVaultCloneIsDeep(t *testing.T) {
	winner := newTestAddress(0x07)
	v := &Vault{ID: 3, Winner: &winner}
	clone := v.Clone()
	clone.Winner[0] = 0xFF
	if v.Winner[0] != 0x07 {
		t.Fatalf("clone shares the winner pointer")
	}
	var nilVault *Vault
	if nilVault.Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
	if nilVault.HasWinner() {
		t.Fatalf("nil vault cannot have a winner")
	}
}

func TestProfileAndRewardClone(t *testing.T) {
	p := &PlayerProfile{Player: newTestAddress(0x01), Score: 5}
	if clone := p.Clone(); clone == p || clone.Score != 5 {
		t.Fatalf("profile clone mismatch")
	}
	r := &RewardEscrow{VaultID: 1, Mint: "M", Amount: 9}
	if clone := r.Clone(); clone == r || clone.Amount != 9 {
		t.Fatalf("reward clone mismatch")
	}
}
