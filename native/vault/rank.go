package vault

// RankTier names a score band for display purposes. Tiers have no effect on
// settlement; thresholds can be tuned without a storage migration.
type RankTier struct {
	Name     string
	MinScore uint64
}

var rankTiers = []RankTier{
	{Name: "TRACE", MinScore: 0},
	{Name: "VECTOR", MinScore: 100},
	{Name: "NODE", MinScore: 500},
	{Name: "CIPHER", MinScore: 1500},
	{Name: "ARCHON", MinScore: 4000},
	{Name: "ROOT", MinScore: 10000},
	// Nearly unobtainable.
	{Name: "NEO", MinScore: 10000000},
}

// RankForScore returns the highest tier whose threshold the score meets.
func RankForScore(score uint64) RankTier {
	for i := len(rankTiers) - 1; i >= 0; i-- {
		if score >= rankTiers[i].MinScore {
			return rankTiers[i]
		}
	}
	return rankTiers[0]
}
