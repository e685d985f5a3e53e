package node

import (
	"context"
	"time"

	"github.com/ringcoin/node/blockchain/types"
	"github.com/ringcoin/node/log"
)

// miningIdleTimeout is how long the mining loop waits for a new
// transaction before sealing whatever it already has, mirroring
// original_source/node.py's queue.get(timeout=4).
const miningIdleTimeout = 4 * time.Second

// Run is the node's dedicated mining goroutine: it drains the pending
// transaction queue into mining_state, sealing a block either once
// Capacity transactions have accumulated or after miningIdleTimeout of
// silence, whichever comes first. It returns when ctx is cancelled.
func (n *Node) Run(ctx context.Context) {
	log.Infow("mining loop started", "node", n.nodeID)
	for {
		select {
		case <-ctx.Done():
			return

		case tx := <-n.queue:
			n.mu.Lock()
			if n.miningState.Empty() || !n.miningState.Validate(tx) {
				n.mu.Unlock()
				continue
			}
			n.miningState.Update(tx)
			n.miningTransactions = append(n.miningTransactions, *tx)
			full := len(n.miningTransactions) >= n.cfg.Capacity
			n.mu.Unlock()

			if full {
				n.mine(ctx)
			}

		case <-time.After(miningIdleTimeout):
			n.mu.Lock()
			pending := len(n.miningTransactions) > 0
			n.mu.Unlock()
			if pending {
				n.mine(ctx)
			}
		}
	}
}

// mine seals whatever mining_transactions currently holds into a block,
// runs the preemptible proof-of-work search outside the lock, and
// installs the result if the search wasn't preempted by a foreign
// block arriving in the meantime. mining_state and mining_transactions
// are reset to follow current_state either way, the way node.py's mine()
// resets them unconditionally at the end of every cycle.
func (n *Node) mine(ctx context.Context) {
	n.mu.Lock()
	txs := make([]types.Transaction, len(n.miningTransactions))
	copy(txs, n.miningTransactions)
	block, err := n.chain.CreateBlock(txs)
	n.mu.Unlock()

	if err != nil {
		log.Errorw("create candidate block failed", "node", n.nodeID, "error", err)
		return
	}

	start := time.Now()
	mined := n.chain.MineBlock(block)
	elapsed := time.Since(start)

	n.mu.Lock()
	installed := false
	if mined {
		if err := n.chain.AddBlock(block); err != nil {
			log.Warnw("discarding locally mined block", "node", n.nodeID, "error", err)
		} else {
			n.currentState = n.chain.TipState()
			installed = true
		}
	}
	n.miningState = n.currentState.Clone()
	n.miningTransactions = nil
	n.mu.Unlock()

	if installed {
		lastMiningDurationSeconds.Set(elapsed.Seconds())
		log.Infow("mined block", "node", n.nodeID, "index", block.Index, "hash", block.CurrentHash.String(), "txs", len(txs), "duration", elapsed)
		n.gossip.Broadcast(ctx, "/block", block)
	}
}
