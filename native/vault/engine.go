package vault

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"vaultgame/core/events"
	"vaultgame/core/types"
)

var (
	errNilState = errors.New("vault engine: state not configured")
)

// engineState is the ledger/storage collaborator the engine runs against.
// Every balance it moves is owned by a custody address the state derives
// deterministically; the engine never touches raw storage keys. Getters
// report missing records via the bool and real storage failures via the
// error; the engine never treats a failure as an empty slot.
type engineState interface {
	GlobalGet() (*GlobalState, bool, error)
	GlobalPut(*GlobalState) error
	VaultGet(id uint64) (*Vault, bool, error)
	VaultPut(*Vault) error
	PlayerGet(addr [20]byte) (*PlayerProfile, bool, error)
	PlayerPut(*PlayerProfile) error
	RewardGet(vaultID uint64, mint string) (*RewardEscrow, bool, error)
	RewardPut(*RewardEscrow) error
	ChallengeGet() (*MegaChallenge, bool, error)
	ChallengePut(*MegaChallenge) error

	PrizeVaultAddress(vaultID uint64) [20]byte
	FeePoolAddress(vaultID uint64) [20]byte
	RewardVaultAddress(vaultID uint64, mint string) [20]byte
	JackpotAddress() [20]byte

	Balance(asset string, addr [20]byte) (uint64, error)
	Transfer(asset string, from, to [20]byte, amount uint64) error
}

type vaultEvent struct {
	evt *types.Event
}

func (e vaultEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vaultEvent) Event() *types.Event { return e.evt }

// Engine wires the vault game business logic with external state and event
// emitters. Each exported operation validates against the current state,
// moves escrowed value through the ledger collaborator, and persists the
// transition, leaving no observable intermediate state on failure.
//
// A single mutex serializes every operation, so the load-validate-write
// sequences (registry counter allocation, the write-once winner and
// paid-out latches) cannot interleave across concurrent callers.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a vault engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetNowFunc overrides the time source used by the engine. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(vaultEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// HashSecret computes the commitment digest for a revealed secret.
func HashSecret(secret []byte) [32]byte {
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(secret))
	return out
}

func (e *Engine) loadVault(id uint64) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	v, ok, err := e.state.VaultGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVaultNotFound
	}
	return v, nil
}

func (e *Engine) loadGlobal() (*GlobalState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	gs, ok, err := e.state.GlobalGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return gs, nil
}

// touchProfile returns the caller's profile with the given increments
// applied, creating the record on first interaction. The update is computed
// here and persisted by the caller once every other step has succeeded.
func (e *Engine) touchProfile(addr [20]byte, attempts, wins, created, score uint64, now int64) (*PlayerProfile, error) {
	profile, ok, err := e.state.PlayerGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		profile = &PlayerProfile{Player: addr}
	}
	if profile.Attempts, err = checkedAdd(profile.Attempts, attempts); err != nil {
		return nil, err
	}
	if profile.Wins, err = checkedAdd(profile.Wins, wins); err != nil {
		return nil, err
	}
	if profile.VaultsCreated, err = checkedAdd(profile.VaultsCreated, created); err != nil {
		return nil, err
	}
	if profile.Score, err = checkedAdd(profile.Score, score); err != nil {
		return nil, err
	}
	profile.LastSeenTs = now
	return profile, nil
}

// InitializeGlobal bootstraps the global registry exactly once, recording
// the admin identity and the token mint accepted for fees.
func (e *Engine) InitializeGlobal(admin [20]byte, feeMint string) (*GlobalState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	mint := strings.TrimSpace(feeMint)
	if mint == "" {
		return nil, ErrUnsupportedFeeMint
	}
	_, ok, err := e.state.GlobalGet()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrAlreadyInitialized
	}
	gs := &GlobalState{Admin: admin, FeeMint: mint, VaultCount: 0}
	if err := e.state.GlobalPut(gs); err != nil {
		return nil, err
	}
	return gs.Clone(), nil
}

// CreateVault allocates the next vault id from the registry, locks the
// optional prize into the vault's custody slot, and records the secret
// commitment. A failed prize transfer aborts the whole creation.
func (e *Engine) CreateVault(creator [20]byte, endTs int64, secretHash [32]byte, prizeAmount, baseFee uint64, pinLen uint8, feeMint string, nativeFee bool) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	gs, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	now := e.now()
	if endTs <= now {
		return nil, ErrBadEndTs
	}
	startingFee, err := StartingFee(baseFee, pinLen)
	if err != nil {
		return nil, err
	}
	if prizeAmount > 0 && prizeAmount < MinPrizeAmount {
		return nil, ErrPrizeTooSmall
	}
	asset := NativeAsset
	if !nativeFee {
		mint := strings.TrimSpace(feeMint)
		if mint != gs.FeeMint {
			return nil, ErrUnsupportedFeeMint
		}
		asset = mint
	}

	id := gs.VaultCount
	if gs.VaultCount, err = checkedAdd(gs.VaultCount, 1); err != nil {
		return nil, err
	}
	v := &Vault{
		ID:          id,
		Creator:     creator,
		Status:      VaultActive,
		CreatedAt:   now,
		EndTs:       endTs,
		SecretHash:  secretHash,
		PrizeAmount: prizeAmount,
		StartingFee: startingFee,
		CurrentFee:  startingFee,
		NativeFee:   nativeFee,
		FeeMint:     asset,
	}
	profile, err := e.touchProfile(creator, 0, 0, 1, ScorePerVaultCreated, now)
	if err != nil {
		return nil, err
	}

	if prizeAmount > 0 {
		if err := e.state.Transfer(asset, creator, e.state.PrizeVaultAddress(id), prizeAmount); err != nil {
			return nil, err
		}
	}
	refundPrize := func() {
		if prizeAmount > 0 {
			_ = e.state.Transfer(asset, e.state.PrizeVaultAddress(id), creator, prizeAmount)
		}
	}
	if err := e.state.GlobalPut(gs); err != nil {
		refundPrize()
		return nil, err
	}
	if err := e.state.VaultPut(v); err != nil {
		refundPrize()
		return nil, err
	}
	if err := e.state.PlayerPut(profile); err != nil {
		refundPrize()
		return nil, err
	}
	e.emit(NewCreatedEvent(v))
	return v.Clone(), nil
}

// MakeGuess charges the current attempt fee on a native-currency vault,
// splits it between the winner pool and the global jackpot, and advances
// the fee ladder.
func (e *Engine) MakeGuess(vaultID uint64, player [20]byte) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if !v.NativeFee {
		return nil, ErrWrongFeeMint
	}
	return e.guess(v, player)
}

// MakeGuessToken is the asset-currency guess path. The caller's mint must
// match the vault's configured fee mint; the arithmetic is identical to the
// native path.
func (e *Engine) MakeGuessToken(vaultID uint64, player [20]byte, mint string) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if v.NativeFee || strings.TrimSpace(mint) != v.FeeMint {
		return nil, ErrWrongFeeMint
	}
	return e.guess(v, player)
}

func (e *Engine) guess(v *Vault, player [20]byte) (*Vault, error) {
	if v.Status != VaultActive {
		return nil, ErrVaultNotActive
	}
	now := e.now()
	if now > v.EndTs {
		return nil, ErrVaultExpired
	}
	profile, err := e.touchProfile(player, 1, 0, 0, ScorePerAttempt, now)
	if err != nil {
		return nil, err
	}
	if v.AttemptCount, err = checkedAdd(v.AttemptCount, 1); err != nil {
		return nil, err
	}

	fee := v.CurrentFee
	if fee == 0 {
		// Free-to-play vault: count the attempt, move nothing.
		if err := e.state.VaultPut(v); err != nil {
			return nil, err
		}
		if err := e.state.PlayerPut(profile); err != nil {
			return nil, err
		}
		e.emit(NewGuessEvent(v, player, 0, 0, 0))
		return v.Clone(), nil
	}

	winnerCut, megaCut := SplitFee(fee)
	if v.TotalFees, err = checkedAdd(v.TotalFees, fee); err != nil {
		return nil, err
	}
	if v.WinnerPool, err = checkedAdd(v.WinnerPool, winnerCut); err != nil {
		return nil, err
	}
	if v.CurrentFee, err = NextFee(fee); err != nil {
		return nil, err
	}

	jackpot := e.state.JackpotAddress()
	pool := e.state.FeePoolAddress(v.ID)
	if megaCut > 0 {
		if err := e.state.Transfer(v.FeeMint, player, jackpot, megaCut); err != nil {
			return nil, err
		}
	}
	if winnerCut > 0 {
		if err := e.state.Transfer(v.FeeMint, player, pool, winnerCut); err != nil {
			if megaCut > 0 {
				_ = e.state.Transfer(v.FeeMint, jackpot, player, megaCut)
			}
			return nil, err
		}
	}
	revert := func() {
		if winnerCut > 0 {
			_ = e.state.Transfer(v.FeeMint, pool, player, winnerCut)
		}
		if megaCut > 0 {
			_ = e.state.Transfer(v.FeeMint, jackpot, player, megaCut)
		}
	}
	if err := e.state.VaultPut(v); err != nil {
		revert()
		return nil, err
	}
	if err := e.state.PlayerPut(profile); err != nil {
		revert()
		return nil, err
	}
	e.emit(NewGuessEvent(v, player, fee, winnerCut, megaCut))
	return v.Clone(), nil
}

// ClaimWin records the caller as the vault's winner if the revealed secret
// hashes to the stored commitment. This is a pure bookkeeping transition;
// no funds move until ClaimPrize after expiry. The write-once winner field
// makes the first valid reveal the only one that can ever succeed.
func (e *Engine) ClaimWin(vaultID uint64, player [20]byte, secret []byte) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if v.HasWinner() {
		return nil, ErrAlreadyHasWinner
	}
	if v.Status != VaultActive {
		return nil, ErrVaultNotActive
	}
	now := e.now()
	if now > v.EndTs {
		return nil, ErrVaultExpired
	}
	digest := HashSecret(secret)
	if !bytes.Equal(digest[:], v.SecretHash[:]) {
		return nil, ErrBadSecret
	}
	profile, err := e.touchProfile(player, 0, 1, 0, ScorePerWin, now)
	if err != nil {
		return nil, err
	}
	winner := player
	v.Winner = &winner
	v.Status = VaultSettled
	v.SettledAt = now
	if err := e.state.VaultPut(v); err != nil {
		return nil, err
	}
	if err := e.state.PlayerPut(profile); err != nil {
		return nil, err
	}
	e.emit(NewWinEvent(v))
	return v.Clone(), nil
}

// ClaimPrize pays the recorded winner the locked prize plus the entire
// balance of the winner fee pool, exactly once per vault.
func (e *Engine) ClaimPrize(vaultID uint64, caller [20]byte) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if e.now() <= v.EndTs {
		return nil, ErrVaultNotExpired
	}
	if v.PaidOut {
		return nil, ErrAlreadyPaidOut
	}
	if !v.HasWinner() || *v.Winner != caller {
		return nil, ErrNotWinner
	}
	poolAddr := e.state.FeePoolAddress(v.ID)
	poolBalance, err := e.state.Balance(v.FeeMint, poolAddr)
	if err != nil {
		return nil, err
	}
	if v.PrizeAmount > 0 {
		if err := e.state.Transfer(v.FeeMint, e.state.PrizeVaultAddress(v.ID), caller, v.PrizeAmount); err != nil {
			return nil, err
		}
	}
	if poolBalance > 0 {
		if err := e.state.Transfer(v.FeeMint, poolAddr, caller, poolBalance); err != nil {
			if v.PrizeAmount > 0 {
				_ = e.state.Transfer(v.FeeMint, caller, e.state.PrizeVaultAddress(v.ID), v.PrizeAmount)
			}
			return nil, err
		}
	}
	v.PaidOut = true
	if err := e.state.VaultPut(v); err != nil {
		if poolBalance > 0 {
			_ = e.state.Transfer(v.FeeMint, caller, poolAddr, poolBalance)
		}
		if v.PrizeAmount > 0 {
			_ = e.state.Transfer(v.FeeMint, caller, e.state.PrizeVaultAddress(v.ID), v.PrizeAmount)
		}
		return nil, err
	}
	e.emit(NewPrizeClaimedEvent(v, v.PrizeAmount, poolBalance))
	return v.Clone(), nil
}

// ReclaimPrize returns the locked prize to the creator of an expired,
// unsolved vault and splits the accumulated fee pool 50/50 between the
// creator and the global jackpot. The vault moves to its terminal
// Cancelled state.
func (e *Engine) ReclaimPrize(vaultID uint64, caller [20]byte) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now <= v.EndTs {
		return nil, ErrVaultNotExpired
	}
	if v.PaidOut {
		return nil, ErrAlreadyPaidOut
	}
	if v.HasWinner() {
		return nil, ErrAlreadyHasWinner
	}
	if v.Creator != caller {
		return nil, ErrNotCreator
	}
	poolAddr := e.state.FeePoolAddress(v.ID)
	prizeAddr := e.state.PrizeVaultAddress(v.ID)
	jackpot := e.state.JackpotAddress()
	poolBalance, err := e.state.Balance(v.FeeMint, poolAddr)
	if err != nil {
		return nil, err
	}
	creatorCut, megaCut := SplitReclaim(poolBalance)

	if v.PrizeAmount > 0 {
		if err := e.state.Transfer(v.FeeMint, prizeAddr, caller, v.PrizeAmount); err != nil {
			return nil, err
		}
	}
	if creatorCut > 0 {
		if err := e.state.Transfer(v.FeeMint, poolAddr, caller, creatorCut); err != nil {
			if v.PrizeAmount > 0 {
				_ = e.state.Transfer(v.FeeMint, caller, prizeAddr, v.PrizeAmount)
			}
			return nil, err
		}
	}
	if megaCut > 0 {
		if err := e.state.Transfer(v.FeeMint, poolAddr, jackpot, megaCut); err != nil {
			if creatorCut > 0 {
				_ = e.state.Transfer(v.FeeMint, caller, poolAddr, creatorCut)
			}
			if v.PrizeAmount > 0 {
				_ = e.state.Transfer(v.FeeMint, caller, prizeAddr, v.PrizeAmount)
			}
			return nil, err
		}
	}
	v.PaidOut = true
	v.Status = VaultCancelled
	v.SettledAt = now
	if err := e.state.VaultPut(v); err != nil {
		if megaCut > 0 {
			_ = e.state.Transfer(v.FeeMint, jackpot, poolAddr, megaCut)
		}
		if creatorCut > 0 {
			_ = e.state.Transfer(v.FeeMint, caller, poolAddr, creatorCut)
		}
		if v.PrizeAmount > 0 {
			_ = e.state.Transfer(v.FeeMint, caller, prizeAddr, v.PrizeAmount)
		}
		return nil, err
	}
	e.emit(NewPrizeReclaimedEvent(v, v.PrizeAmount, creatorCut, megaCut))
	return v.Clone(), nil
}

// AddReward escrows bonus assets into a vault's reward slot for the
// eventual winner. The first deposit for a (vault, mint) pair initialises
// the slot; later deposits must match its recorded mint and token program
// and accumulate until the single claim.
func (e *Engine) AddReward(vaultID uint64, caller [20]byte, mint, tokenProgram string, amount uint64) (*RewardEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if v.Creator != caller {
		return nil, ErrNotCreator
	}
	if amount == 0 {
		return nil, ErrBadRewardAmount
	}
	mint = strings.TrimSpace(mint)
	tokenProgram = strings.TrimSpace(tokenProgram)
	if mint == "" {
		return nil, ErrRewardWrongMint
	}
	reward, ok, err := e.state.RewardGet(vaultID, mint)
	if err != nil {
		return nil, err
	}
	if !ok || reward == nil {
		reward = &RewardEscrow{VaultID: vaultID, Mint: mint, TokenProgram: tokenProgram}
	} else {
		if reward.Claimed {
			return nil, ErrRewardAlreadyClaimed
		}
		if reward.Mint != mint {
			return nil, ErrRewardWrongMint
		}
		if reward.TokenProgram != tokenProgram {
			return nil, ErrRewardWrongTokenProgram
		}
	}
	if reward.Amount, err = checkedAdd(reward.Amount, amount); err != nil {
		return nil, err
	}
	custody := e.state.RewardVaultAddress(vaultID, mint)
	if err := e.state.Transfer(mint, caller, custody, amount); err != nil {
		return nil, err
	}
	if err := e.state.RewardPut(reward); err != nil {
		_ = e.state.Transfer(mint, custody, caller, amount)
		return nil, err
	}
	e.emit(NewRewardAddedEvent(reward, amount))
	return reward.Clone(), nil
}

// ClaimReward transfers a reward slot's full balance to the recorded winner
// after expiry. Each slot is claimed at most once.
func (e *Engine) ClaimReward(vaultID uint64, caller [20]byte, mint string) (*RewardEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if e.now() <= v.EndTs {
		return nil, ErrVaultNotExpired
	}
	if !v.HasWinner() || *v.Winner != caller {
		return nil, ErrNotWinner
	}
	return e.payoutReward(vaultID, strings.TrimSpace(mint), caller, NewRewardClaimedEvent)
}

// ReclaimReward returns an unclaimed reward slot to the creator after an
// expired vault resolved without a winner.
func (e *Engine) ReclaimReward(vaultID uint64, caller [20]byte, mint string) (*RewardEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.loadVault(vaultID)
	if err != nil {
		return nil, err
	}
	if e.now() <= v.EndTs {
		return nil, ErrVaultNotExpired
	}
	if v.HasWinner() {
		return nil, ErrAlreadyHasWinner
	}
	if v.Creator != caller {
		return nil, ErrNotCreator
	}
	return e.payoutReward(vaultID, strings.TrimSpace(mint), caller, NewRewardReclaimedEvent)
}

func (e *Engine) payoutReward(vaultID uint64, mint string, recipient [20]byte, eventFn func(*RewardEscrow, [20]byte, uint64) *types.Event) (*RewardEscrow, error) {
	reward, ok, err := e.state.RewardGet(vaultID, mint)
	if err != nil {
		return nil, err
	}
	if !ok || reward == nil {
		return nil, ErrRewardNotFound
	}
	if reward.Claimed {
		return nil, ErrRewardAlreadyClaimed
	}
	amount := reward.Amount
	if amount == 0 {
		return nil, ErrBadRewardAmount
	}
	custody := e.state.RewardVaultAddress(vaultID, mint)
	if err := e.state.Transfer(mint, custody, recipient, amount); err != nil {
		return nil, err
	}
	reward.Amount = 0
	reward.Claimed = true
	if err := e.state.RewardPut(reward); err != nil {
		_ = e.state.Transfer(mint, recipient, custody, amount)
		return nil, err
	}
	e.emit(eventFn(reward, recipient, amount))
	return reward.Clone(), nil
}

// SetMegaChallenge points the advisory featured-challenge record at a
// vault. Only the registry admin may write it; settlement never reads it.
func (e *Engine) SetMegaChallenge(caller [20]byte, vaultID uint64) (*MegaChallenge, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	gs, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}
	if gs.Admin != caller {
		return nil, ErrNotAuthorized
	}
	if _, ok, err := e.state.VaultGet(vaultID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrVaultNotFound
	}
	challenge := &MegaChallenge{Authority: caller, VaultID: vaultID}
	if err := e.state.ChallengePut(challenge); err != nil {
		return nil, err
	}
	e.emit(NewChallengeUpdatedEvent(challenge))
	return challenge.Clone(), nil
}
