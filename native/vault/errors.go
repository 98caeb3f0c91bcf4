package vault

import "errors"

// Validation errors. The caller supplied bad input and may retry with a
// corrected request.
var (
	ErrBadEndTs        = errors.New("vault: end timestamp must be in the future")
	ErrBadPinLength    = errors.New("vault: unsupported pin length")
	ErrPrizeTooSmall   = errors.New("vault: prize below minimum deposit")
	ErrBadRewardAmount = errors.New("vault: reward amount must be positive")
)

// Authorization errors. The caller is not the party the operation requires.
var (
	ErrNotAuthorized           = errors.New("vault: not authorized")
	ErrNotCreator              = errors.New("vault: caller is not the vault creator")
	ErrNotWinner               = errors.New("vault: caller is not the recorded winner")
	ErrUnsupportedFeeMint      = errors.New("vault: fee mint not accepted by the registry")
	ErrWrongFeeMint            = errors.New("vault: fee mint does not match the vault")
	ErrRewardWrongMint         = errors.New("vault: reward mint does not match the escrow slot")
	ErrRewardWrongTokenProgram = errors.New("vault: reward token program does not match the escrow slot")
)

// State-conflict errors. The caller's view of the vault is stale.
var (
	ErrNotInitialized       = errors.New("vault: global registry not initialized")
	ErrAlreadyInitialized   = errors.New("vault: global registry already initialized")
	ErrVaultNotFound        = errors.New("vault: not found")
	ErrVaultNotActive       = errors.New("vault: not active")
	ErrVaultExpired         = errors.New("vault: expired")
	ErrVaultNotExpired      = errors.New("vault: not expired yet")
	ErrAlreadyHasWinner     = errors.New("vault: winner already recorded")
	ErrAlreadyPaidOut       = errors.New("vault: already paid out")
	ErrRewardNotFound       = errors.New("vault: reward escrow not found")
	ErrRewardAlreadyClaimed = errors.New("vault: reward already claimed")
	ErrChallengeNotFound    = errors.New("vault: featured challenge not set")
)

// Integrity errors. The operation can never succeed as submitted.
var (
	ErrBadSecret    = errors.New("vault: revealed secret does not match commitment")
	ErrMathOverflow = errors.New("vault: arithmetic overflow")
)
