package vault

import (
	"encoding/hex"
	"strconv"

	"vaultgame/core/types"
)

const (
	EventTypeVaultCreated     = "vault.created"
	EventTypeGuess            = "vault.guess"
	EventTypeWin              = "vault.win"
	EventTypePrizeClaimed     = "vault.prize_claimed"
	EventTypePrizeReclaimed   = "vault.prize_reclaimed"
	EventTypeRewardAdded      = "vault.reward_added"
	EventTypeRewardClaimed    = "vault.reward_claimed"
	EventTypeRewardReclaimed  = "vault.reward_reclaimed"
	EventTypeChallengeUpdated = "vault.challenge_updated"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// vault.
func NewCreatedEvent(v *Vault) *types.Event {
	return newVaultEvent(EventTypeVaultCreated, v, nil)
}

// NewGuessEvent returns the canonical event payload for a guess attempt,
// including the fee charged and how it was split.
func NewGuessEvent(v *Vault, player [20]byte, fee, winnerCut, megaCut uint64) *types.Event {
	evt := newVaultEvent(EventTypeGuess, v, nil)
	evt.Attributes["player"] = hex.EncodeToString(player[:])
	evt.Attributes["fee"] = strconv.FormatUint(fee, 10)
	evt.Attributes["winnerCut"] = strconv.FormatUint(winnerCut, 10)
	evt.Attributes["megaCut"] = strconv.FormatUint(megaCut, 10)
	return evt
}

// NewWinEvent returns the canonical event payload emitted when the secret is
// first revealed.
func NewWinEvent(v *Vault) *types.Event {
	return newVaultEvent(EventTypeWin, v, nil)
}

// NewPrizeClaimedEvent returns the payload for the winner payout.
func NewPrizeClaimedEvent(v *Vault, prize, pool uint64) *types.Event {
	evt := newVaultEvent(EventTypePrizeClaimed, v, nil)
	evt.Attributes["prize"] = strconv.FormatUint(prize, 10)
	evt.Attributes["pool"] = strconv.FormatUint(pool, 10)
	return evt
}

// NewPrizeReclaimedEvent returns the payload for the creator reclaim path.
func NewPrizeReclaimedEvent(v *Vault, prize, creatorCut, megaCut uint64) *types.Event {
	evt := newVaultEvent(EventTypePrizeReclaimed, v, nil)
	evt.Attributes["prize"] = strconv.FormatUint(prize, 10)
	evt.Attributes["creatorCut"] = strconv.FormatUint(creatorCut, 10)
	evt.Attributes["megaCut"] = strconv.FormatUint(megaCut, 10)
	return evt
}

// NewRewardAddedEvent returns the payload for a bonus-asset deposit.
func NewRewardAddedEvent(r *RewardEscrow, amount uint64) *types.Event {
	evt := newRewardEvent(EventTypeRewardAdded, r)
	evt.Attributes["deposit"] = strconv.FormatUint(amount, 10)
	return evt
}

// NewRewardClaimedEvent returns the payload for a winner reward claim.
func NewRewardClaimedEvent(r *RewardEscrow, recipient [20]byte, amount uint64) *types.Event {
	evt := newRewardEvent(EventTypeRewardClaimed, r)
	evt.Attributes["recipient"] = hex.EncodeToString(recipient[:])
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

// NewRewardReclaimedEvent returns the payload for a creator reward reclaim.
func NewRewardReclaimedEvent(r *RewardEscrow, recipient [20]byte, amount uint64) *types.Event {
	evt := newRewardEvent(EventTypeRewardReclaimed, r)
	evt.Attributes["recipient"] = hex.EncodeToString(recipient[:])
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

// NewChallengeUpdatedEvent returns the payload emitted when the featured
// challenge pointer changes.
func NewChallengeUpdatedEvent(c *MegaChallenge) *types.Event {
	attrs := make(map[string]string)
	if c != nil {
		attrs["authority"] = hex.EncodeToString(c.Authority[:])
		attrs["vaultId"] = strconv.FormatUint(c.VaultID, 10)
	}
	return &types.Event{Type: EventTypeChallengeUpdated, Attributes: attrs}
}

func newVaultEvent(eventType string, v *Vault, extra map[string]string) *types.Event {
	attrs := make(map[string]string)
	if v != nil {
		attrs["vaultId"] = strconv.FormatUint(v.ID, 10)
		attrs["creator"] = hex.EncodeToString(v.Creator[:])
		attrs["status"] = v.Status.String()
		attrs["endTs"] = strconv.FormatInt(v.EndTs, 10)
		attrs["prizeAmount"] = strconv.FormatUint(v.PrizeAmount, 10)
		attrs["currentFee"] = strconv.FormatUint(v.CurrentFee, 10)
		attrs["attemptCount"] = strconv.FormatUint(v.AttemptCount, 10)
		attrs["feeMint"] = v.FeeMint
		if v.Winner != nil {
			attrs["winner"] = hex.EncodeToString(v.Winner[:])
		}
	}
	for k, val := range extra {
		attrs[k] = val
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newRewardEvent(eventType string, r *RewardEscrow) *types.Event {
	attrs := make(map[string]string)
	if r != nil {
		attrs["vaultId"] = strconv.FormatUint(r.VaultID, 10)
		attrs["mint"] = r.Mint
		attrs["tokenProgram"] = r.TokenProgram
		attrs["amount"] = strconv.FormatUint(r.Amount, 10)
		attrs["claimed"] = strconv.FormatBool(r.Claimed)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
