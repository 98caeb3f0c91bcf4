package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"vaultgame/core/events"
	"vaultgame/native/vault"
)

type VaultMetrics struct {
	vaultsCreated   prometheus.Counter
	guesses         prometheus.Counter
	wins            prometheus.Counter
	prizePayouts    *prometheus.CounterVec
	rewardTransfers *prometheus.CounterVec
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			vaultsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vaultgame_vaults_created_total",
				Help: "Count of vaults created.",
			}),
			guesses: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vaultgame_guesses_total",
				Help: "Count of guess attempts accepted.",
			}),
			wins: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vaultgame_wins_total",
				Help: "Count of winning secret reveals.",
			}),
			prizePayouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultgame_prize_settlements_total",
				Help: "Count of terminal prize settlements by path.",
			}, []string{"path"}),
			rewardTransfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultgame_reward_transfers_total",
				Help: "Count of reward escrow movements by kind.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			vaultRegistry.vaultsCreated,
			vaultRegistry.guesses,
			vaultRegistry.wins,
			vaultRegistry.prizePayouts,
			vaultRegistry.rewardTransfers,
		)
	})
	return vaultRegistry
}

// Emitter adapts the metrics registry to the engine's event stream so the
// counters track state transitions without the engine knowing about
// prometheus.
type Emitter struct {
	metrics *VaultMetrics
}

// NewEmitter returns an events.Emitter that updates the vault metrics.
func NewEmitter() *Emitter {
	return &Emitter{metrics: Vault()}
}

var _ events.Emitter = (*Emitter)(nil)

// Emit implements the events.Emitter interface.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || e.metrics == nil || evt == nil {
		return
	}
	switch evt.EventType() {
	case vault.EventTypeVaultCreated:
		e.metrics.vaultsCreated.Inc()
	case vault.EventTypeGuess:
		e.metrics.guesses.Inc()
	case vault.EventTypeWin:
		e.metrics.wins.Inc()
	case vault.EventTypePrizeClaimed:
		e.metrics.prizePayouts.WithLabelValues("claim").Inc()
	case vault.EventTypePrizeReclaimed:
		e.metrics.prizePayouts.WithLabelValues("reclaim").Inc()
	case vault.EventTypeRewardAdded:
		e.metrics.rewardTransfers.WithLabelValues("deposit").Inc()
	case vault.EventTypeRewardClaimed:
		e.metrics.rewardTransfers.WithLabelValues("claim").Inc()
	case vault.EventTypeRewardReclaimed:
		e.metrics.rewardTransfers.WithLabelValues("reclaim").Inc()
	}
}
