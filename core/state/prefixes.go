package state

var (
	globalKeyBytes    = []byte("vaultgame/global")
	challengeKeyBytes = []byte("vaultgame/challenge")
	vaultRecordPrefix = []byte("vaultgame/vault/")
	playerPrefix      = []byte("vaultgame/player/")
	rewardPrefix      = []byte("vaultgame/reward/")
	balancePrefix     = []byte("vaultgame/balance/")
	moduleAddrPrefix  = []byte("vaultgame/module/")
)
