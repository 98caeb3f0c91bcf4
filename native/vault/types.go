package vault

// NativeAsset identifies the chain's native currency in balance and
// transfer operations.
const NativeAsset = "SKR"

// MinPrizeAmount is the smallest non-zero prize a creator may escrow.
// Prizes between 1 and MinPrizeAmount-1 are rejected as dust.
const MinPrizeAmount = 1000

// Score increments applied to player profiles.
const (
	ScorePerAttempt      = 1
	ScorePerVaultCreated = 50
	ScorePerWin          = 250
)

// VaultStatus represents the lifecycle states of a vault. Settled and
// Cancelled are terminal; no operation leaves either state.
type VaultStatus uint8

const (
	VaultActive VaultStatus = iota
	VaultSettled
	VaultCancelled
)

// Valid reports whether the status value is within the supported range.
func (s VaultStatus) Valid() bool {
	switch s {
	case VaultActive, VaultSettled, VaultCancelled:
		return true
	default:
		return false
	}
}

func (s VaultStatus) String() string {
	switch s {
	case VaultActive:
		return "active"
	case VaultSettled:
		return "settled"
	case VaultCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// GlobalState is the process-wide registry: the admin identity, the token
// mint accepted for fees, and the monotonically increasing vault counter
// used to assign the next vault id.
type GlobalState struct {
	Admin      [20]byte
	FeeMint    string
	VaultCount uint64
}

// Clone returns a copy of the global state.
func (g *GlobalState) Clone() *GlobalState {
	if g == nil {
		return nil
	}
	out := *g
	return &out
}

// Vault is one instance of the guessing game: a secret commitment, an
// escrowed prize, a fee ladder position, and a settlement outcome.
type Vault struct {
	ID           uint64
	Creator      [20]byte
	Status       VaultStatus
	CreatedAt    int64
	EndTs        int64
	SecretHash   [32]byte
	PrizeAmount  uint64
	StartingFee  uint64
	CurrentFee   uint64
	AttemptCount uint64
	NativeFee    bool
	FeeMint      string
	TotalFees    uint64
	WinnerPool   uint64
	Winner       *[20]byte
	SettledAt    int64
	PaidOut      bool
}

// Clone returns a deep copy of the vault so callers can safely mutate the
// copy without affecting the stored instance.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	out := *v
	if v.Winner != nil {
		winner := *v.Winner
		out.Winner = &winner
	}
	return &out
}

// HasWinner reports whether a winner has been recorded.
func (v *Vault) HasWinner() bool {
	return v != nil && v.Winner != nil
}

// PlayerProfile accumulates per-actor statistics across every vault. It is
// created lazily on first interaction and never deleted.
type PlayerProfile struct {
	Player        [20]byte
	Attempts      uint64
	Wins          uint64
	VaultsCreated uint64
	Score         uint64
	LastSeenTs    int64
}

// Clone returns a copy of the profile.
func (p *PlayerProfile) Clone() *PlayerProfile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

// RewardEscrow is one bonus-asset deposit slot attached to a vault, keyed
// by (vault id, mint). Amount accumulates across deposits until the single
// claim zeroes it.
type RewardEscrow struct {
	VaultID      uint64
	Mint         string
	TokenProgram string
	Amount       uint64
	Claimed      bool
}

// Clone returns a copy of the reward escrow slot.
func (r *RewardEscrow) Clone() *RewardEscrow {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// MegaChallenge is the admin-settable pointer to a featured vault. It is
// advisory metadata only and has no effect on settlement.
type MegaChallenge struct {
	Authority [20]byte
	VaultID   uint64
}

// Clone returns a copy of the challenge pointer.
func (c *MegaChallenge) Clone() *MegaChallenge {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
