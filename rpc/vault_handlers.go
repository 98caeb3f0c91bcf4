package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"vaultgame/native/vault"
)

const (
	codeVaultInvalidParams = -32061
	codeVaultNotFound      = -32062
	codeVaultForbidden     = -32063
	codeVaultConflict      = -32064
	codeVaultIntegrity     = -32065
	codeVaultInternal      = -32066
)

type initializeGlobalParams struct {
	Admin   string `json:"admin"`
	FeeMint string `json:"feeMint"`
}

type createVaultParams struct {
	Creator     string `json:"creator"`
	EndTs       int64  `json:"endTs"`
	SecretHash  string `json:"secretHash"`
	PrizeAmount uint64 `json:"prizeAmount"`
	BaseFee     uint64 `json:"baseFee"`
	PinLength   uint8  `json:"pinLength"`
	FeeMint     string `json:"feeMint,omitempty"`
	NativeFee   bool   `json:"nativeFee"`
}

type guessParams struct {
	VaultID uint64 `json:"vaultId"`
	Player  string `json:"player"`
	Mint    string `json:"mint,omitempty"`
}

type claimWinParams struct {
	VaultID uint64 `json:"vaultId"`
	Player  string `json:"player"`
	Secret  string `json:"secret"`
}

type settleParams struct {
	VaultID uint64 `json:"vaultId"`
	Caller  string `json:"caller"`
}

type rewardParams struct {
	VaultID      uint64 `json:"vaultId"`
	Caller       string `json:"caller"`
	Mint         string `json:"mint"`
	TokenProgram string `json:"tokenProgram,omitempty"`
	Amount       uint64 `json:"amount,omitempty"`
}

type challengeParams struct {
	Caller  string `json:"caller"`
	VaultID uint64 `json:"vaultId"`
}

type vaultIDParams struct {
	VaultID uint64 `json:"vaultId"`
}

type playerParams struct {
	Player string `json:"player"`
}

type rewardQueryParams struct {
	VaultID uint64 `json:"vaultId"`
	Mint    string `json:"mint"`
}

type vaultJSON struct {
	VaultID      uint64 `json:"vaultId"`
	Creator      string `json:"creator"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"createdAt"`
	EndTs        int64  `json:"endTs"`
	PrizeAmount  uint64 `json:"prizeAmount"`
	StartingFee  uint64 `json:"startingFee"`
	CurrentFee   uint64 `json:"currentFee"`
	AttemptCount uint64 `json:"attemptCount"`
	NativeFee    bool   `json:"nativeFee"`
	FeeMint      string `json:"feeMint"`
	TotalFees    uint64 `json:"totalFees"`
	WinnerPool   uint64 `json:"winnerPool"`
	Winner       string `json:"winner,omitempty"`
	SettledAt    int64  `json:"settledAt,omitempty"`
	PaidOut      bool   `json:"paidOut"`
}

type playerJSON struct {
	Player        string `json:"player"`
	Attempts      uint64 `json:"attempts"`
	Wins          uint64 `json:"wins"`
	VaultsCreated uint64 `json:"vaultsCreated"`
	Score         uint64 `json:"score"`
	Rank          string `json:"rank"`
	LastSeenTs    int64  `json:"lastSeenTs"`
}

type rewardJSON struct {
	VaultID      uint64 `json:"vaultId"`
	Mint         string `json:"mint"`
	TokenProgram string `json:"tokenProgram"`
	Amount       uint64 `json:"amount"`
	Claimed      bool   `json:"claimed"`
}

type globalJSON struct {
	Admin      string `json:"admin"`
	FeeMint    string `json:"feeMint"`
	VaultCount uint64 `json:"vaultCount"`
}

type challengeJSON struct {
	Authority string `json:"authority"`
	VaultID   uint64 `json:"vaultId"`
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func vaultToJSON(v *vault.Vault) *vaultJSON {
	if v == nil {
		return nil
	}
	out := &vaultJSON{
		VaultID:      v.ID,
		Creator:      formatAddress(v.Creator),
		Status:       v.Status.String(),
		CreatedAt:    v.CreatedAt,
		EndTs:        v.EndTs,
		PrizeAmount:  v.PrizeAmount,
		StartingFee:  v.StartingFee,
		CurrentFee:   v.CurrentFee,
		AttemptCount: v.AttemptCount,
		NativeFee:    v.NativeFee,
		FeeMint:      v.FeeMint,
		TotalFees:    v.TotalFees,
		WinnerPool:   v.WinnerPool,
		SettledAt:    v.SettledAt,
		PaidOut:      v.PaidOut,
	}
	if v.Winner != nil {
		out.Winner = formatAddress(*v.Winner)
	}
	return out
}

func rewardToJSON(r *vault.RewardEscrow) *rewardJSON {
	if r == nil {
		return nil
	}
	return &rewardJSON{
		VaultID:      r.VaultID,
		Mint:         r.Mint,
		TokenProgram: r.TokenProgram,
		Amount:       r.Amount,
		Claimed:      r.Claimed,
	}
}

// writeVaultError maps engine errors onto the RPC error families so clients
// can tell "retry with corrected input" apart from "this will never
// succeed".
func writeVaultError(w http.ResponseWriter, id json.RawMessage, err error) {
	switch {
	case errors.Is(err, vault.ErrVaultNotFound) || errors.Is(err, vault.ErrRewardNotFound) ||
		errors.Is(err, vault.ErrChallengeNotFound) || errors.Is(err, vault.ErrNotInitialized):
		writeError(w, http.StatusNotFound, id, codeVaultNotFound, "not_found", err.Error())
	case errors.Is(err, vault.ErrBadEndTs) || errors.Is(err, vault.ErrBadPinLength) ||
		errors.Is(err, vault.ErrPrizeTooSmall) || errors.Is(err, vault.ErrBadRewardAmount):
		writeError(w, http.StatusBadRequest, id, codeVaultInvalidParams, "invalid_params", err.Error())
	case errors.Is(err, vault.ErrNotAuthorized) || errors.Is(err, vault.ErrNotCreator) ||
		errors.Is(err, vault.ErrNotWinner) || errors.Is(err, vault.ErrUnsupportedFeeMint) ||
		errors.Is(err, vault.ErrWrongFeeMint) || errors.Is(err, vault.ErrRewardWrongMint) ||
		errors.Is(err, vault.ErrRewardWrongTokenProgram):
		writeError(w, http.StatusForbidden, id, codeVaultForbidden, "forbidden", err.Error())
	case errors.Is(err, vault.ErrVaultNotActive) || errors.Is(err, vault.ErrVaultExpired) ||
		errors.Is(err, vault.ErrVaultNotExpired) || errors.Is(err, vault.ErrAlreadyHasWinner) ||
		errors.Is(err, vault.ErrAlreadyPaidOut) || errors.Is(err, vault.ErrRewardAlreadyClaimed) ||
		errors.Is(err, vault.ErrAlreadyInitialized):
		writeError(w, http.StatusConflict, id, codeVaultConflict, "conflict", err.Error())
	case errors.Is(err, vault.ErrBadSecret) || errors.Is(err, vault.ErrMathOverflow):
		writeError(w, http.StatusUnprocessableEntity, id, codeVaultIntegrity, "integrity", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeVaultInternal, "internal", err.Error())
	}
}

func (s *Server) handleInitializeGlobal(w http.ResponseWriter, req *RPCRequest) {
	var params initializeGlobalParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	gs, err := s.engine.InitializeGlobal(admin, params.FeeMint)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, globalJSON{Admin: formatAddress(gs.Admin), FeeMint: gs.FeeMint, VaultCount: gs.VaultCount})
}

func (s *Server) handleCreateVault(w http.ResponseWriter, req *RPCRequest) {
	var params createVaultParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	creator, err := parseAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	secretHash, err := parseHash(params.SecretHash)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	v, err := s.engine.CreateVault(creator, params.EndTs, secretHash, params.PrizeAmount, params.BaseFee, params.PinLength, params.FeeMint, params.NativeFee)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, vaultToJSON(v))
}

func (s *Server) handleMakeGuess(w http.ResponseWriter, req *RPCRequest) {
	var params guessParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	var v *vault.Vault
	if params.Mint == "" {
		v, err = s.engine.MakeGuess(params.VaultID, player)
	} else {
		v, err = s.engine.MakeGuessToken(params.VaultID, player, params.Mint)
	}
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, vaultToJSON(v))
}

func (s *Server) handleClaimWin(w http.ResponseWriter, req *RPCRequest) {
	var params claimWinParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	v, err := s.engine.ClaimWin(params.VaultID, player, []byte(params.Secret))
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, vaultToJSON(v))
}

func (s *Server) handleClaimPrize(w http.ResponseWriter, req *RPCRequest) {
	s.handleSettlement(w, req, s.engine.ClaimPrize)
}

func (s *Server) handleReclaimPrize(w http.ResponseWriter, req *RPCRequest) {
	s.handleSettlement(w, req, s.engine.ReclaimPrize)
}

func (s *Server) handleSettlement(w http.ResponseWriter, req *RPCRequest, op func(uint64, [20]byte) (*vault.Vault, error)) {
	var params settleParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	v, err := op(params.VaultID, caller)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, vaultToJSON(v))
}

func (s *Server) handleAddReward(w http.ResponseWriter, req *RPCRequest) {
	var params rewardParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	reward, err := s.engine.AddReward(params.VaultID, caller, params.Mint, params.TokenProgram, params.Amount)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, rewardToJSON(reward))
}

func (s *Server) handleClaimReward(w http.ResponseWriter, req *RPCRequest) {
	s.handleRewardPayout(w, req, s.engine.ClaimReward)
}

func (s *Server) handleReclaimReward(w http.ResponseWriter, req *RPCRequest) {
	s.handleRewardPayout(w, req, s.engine.ReclaimReward)
}

func (s *Server) handleRewardPayout(w http.ResponseWriter, req *RPCRequest, op func(uint64, [20]byte, string) (*vault.RewardEscrow, error)) {
	var params rewardParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	reward, err := op(params.VaultID, caller, params.Mint)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, rewardToJSON(reward))
}

func (s *Server) handleSetMegaChallenge(w http.ResponseWriter, req *RPCRequest) {
	var params challengeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	challenge, err := s.engine.SetMegaChallenge(caller, params.VaultID)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, challengeJSON{Authority: formatAddress(challenge.Authority), VaultID: challenge.VaultID})
}

func (s *Server) handleGetVault(w http.ResponseWriter, req *RPCRequest) {
	var params vaultIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	v, ok, err := s.state.VaultGet(params.VaultID)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	if !ok {
		writeVaultError(w, req.ID, vault.ErrVaultNotFound)
		return
	}
	writeResult(w, req.ID, vaultToJSON(v))
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, req *RPCRequest) {
	var params playerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	profile, ok, err := s.state.PlayerGet(addr)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	if !ok {
		profile = &vault.PlayerProfile{Player: addr}
	}
	writeResult(w, req.ID, playerJSON{
		Player:        formatAddress(profile.Player),
		Attempts:      profile.Attempts,
		Wins:          profile.Wins,
		VaultsCreated: profile.VaultsCreated,
		Score:         profile.Score,
		Rank:          vault.RankForScore(profile.Score).Name,
		LastSeenTs:    profile.LastSeenTs,
	})
}

func (s *Server) handleGetGlobal(w http.ResponseWriter, req *RPCRequest) {
	gs, ok, err := s.state.GlobalGet()
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	if !ok {
		writeVaultError(w, req.ID, vault.ErrNotInitialized)
		return
	}
	writeResult(w, req.ID, globalJSON{Admin: formatAddress(gs.Admin), FeeMint: gs.FeeMint, VaultCount: gs.VaultCount})
}

func (s *Server) handleGetReward(w http.ResponseWriter, req *RPCRequest) {
	var params rewardQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, "invalid_params", err.Error())
		return
	}
	reward, ok, err := s.state.RewardGet(params.VaultID, params.Mint)
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	if !ok {
		writeVaultError(w, req.ID, vault.ErrRewardNotFound)
		return
	}
	writeResult(w, req.ID, rewardToJSON(reward))
}

func (s *Server) handleGetMegaChallenge(w http.ResponseWriter, req *RPCRequest) {
	challenge, ok, err := s.state.ChallengeGet()
	if err != nil {
		writeVaultError(w, req.ID, err)
		return
	}
	if !ok {
		writeVaultError(w, req.ID, vault.ErrChallengeNotFound)
		return
	}
	writeResult(w, req.ID, challengeJSON{Authority: formatAddress(challenge.Authority), VaultID: challenge.VaultID})
}
