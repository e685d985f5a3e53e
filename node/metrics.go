package node

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	transactionsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcoin",
		Name:      "transactions_received_total",
		Help:      "Transactions accepted through POST /transaction, local or gossiped.",
	})

	blocksReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcoin",
		Name:      "blocks_received_total",
		Help:      "Blocks accepted through POST /block from peers.",
	})

	lastMiningDurationSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringcoin",
		Name:      "last_mining_duration_seconds",
		Help:      "Wall-clock time the most recent successful local proof-of-work search took.",
	})
)

func init() {
	prometheus.MustRegister(transactionsReceived, blocksReceived, lastMiningDurationSeconds)
}

// RegisterNodeGauges wires n's live chain length and mempool depth as
// prometheus gauges. Called once from cmd/ringnode after the node is
// constructed.
func RegisterNodeGauges(n *Node) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ringcoin",
			Name:      "chain_length",
			Help:      "Number of blocks on the current longest branch.",
		}, func() float64 {
			n.mu.Lock()
			defer n.mu.Unlock()
			return float64(n.chain.Length())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ringcoin",
			Name:      "mempool_depth",
			Help:      "Pending transactions queued for the next mined block.",
		}, func() float64 {
			n.mu.Lock()
			defer n.mu.Unlock()
			return float64(len(n.miningTransactions))
		}),
	)
}
