package blockchain

import (
	"github.com/pkg/errors"

	"github.com/ringcoin/node/blockchain/state"
	"github.com/ringcoin/node/blockchain/types"
	"github.com/ringcoin/node/common"
	"github.com/ringcoin/node/errs"
	"github.com/ringcoin/node/miner"
)

// Chain is the block DAG: every installed block keyed by its hash, a
// per-block cached State obtained by replaying that block on its
// parent's, and the hash/length of the current longest branch.
//
// Chain is not internally synchronized — the node orchestrator
// serializes every call that reads or writes chain tip or states
// through its own lock, the way spec'd §5 describes a single
// current_state_lock guarding that region. The mining flag is atomic and
// needs no lock: MineBlock arms it and runs the proof-of-work search
// (Block.Mine) outside that lock, and StopMining may clear it from any
// goroutine.
type Chain struct {
	difficulty int

	blocks map[common.Hash]*Block
	states map[common.Hash]*state.State

	tipHash common.Hash
	length  uint64

	mining *miner.Flag
}

// New returns an empty chain at the given proof-of-work difficulty
// (number of required leading hex zeroes).
func New(difficulty int) *Chain {
	return &Chain{
		difficulty: difficulty,
		blocks:     make(map[common.Hash]*Block),
		states:     make(map[common.Hash]*state.State),
		tipHash:    common.GenesisParentHash,
		mining:     miner.NewFlag(),
	}
}

// Difficulty returns the chain's configured proof-of-work difficulty.
func (c *Chain) Difficulty() int { return c.difficulty }

// Length returns the number of blocks on the current longest branch.
func (c *Chain) Length() uint64 { return c.length }

// TipHash returns the current_hash of the longest-chain head, or the
// genesis sentinel before any block has been installed.
func (c *Chain) TipHash() common.Hash { return c.tipHash }

// Block looks up a block by hash, anywhere in the DAG (not only the
// longest branch).
func (c *Chain) Block(hash common.Hash) (*Block, bool) {
	b, ok := c.blocks[hash]
	return b, ok
}

// TipBlock returns the block at the head of the longest branch.
func (c *Chain) TipBlock() (*Block, bool) {
	return c.Block(c.tipHash)
}

// CreateBlock builds a candidate at the chain's current length, chained
// onto the current tip, ready for mining.
func (c *Chain) CreateBlock(txs []types.Transaction) (*Block, error) {
	return newCandidateBlock(c.length, c.tipHash, txs)
}

// MineBlock runs a preemptible proof-of-work search over b. It arms the
// chain's mining flag before searching; a concurrent StopMining call (or
// one from a prior, still-armed search) preempts it. Returns true iff a
// valid nonce was found.
func (c *Chain) MineBlock(b *Block) bool {
	c.mining.Start()
	return b.Mine(c.mining, c.difficulty)
}

// StopMining preempts any in-progress MineBlock search. Safe to call
// from any goroutine.
func (c *Chain) StopMining() { c.mining.Stop() }

// ValidateBlockProof recomputes b's canonical hash and checks it both
// matches b.CurrentHash and satisfies the chain's difficulty.
func (c *Chain) ValidateBlockProof(b *Block) bool {
	return validateProof(b, c.difficulty)
}

// ValidateBlockPreviousHash reports whether b.PreviousHash names a known
// block one index below b.
func (c *Chain) ValidateBlockPreviousHash(b *Block) bool {
	if b == nil {
		return false
	}
	parent, ok := c.blocks[b.PreviousHash]
	return ok && parent.Index+1 == b.Index
}

// ValidateBlockTransactions reports whether b's parent has a cached
// state and replaying b onto it succeeds.
func (c *Chain) ValidateBlockTransactions(b *Block) bool {
	if b == nil {
		return false
	}
	parentState, ok := c.states[b.PreviousHash]
	if !ok {
		return false
	}
	_, ok = parentState.ConsumeBlock(b.Transactions)
	return ok
}

// ValidateBlock is the conjunction of proof, parent-link, and
// transaction-replay validation.
func (c *Chain) ValidateBlock(b *Block) bool {
	return c.ValidateBlockProof(b) &&
		c.ValidateBlockPreviousHash(b) &&
		c.ValidateBlockTransactions(b)
}

// AddBlock installs b into the DAG unconditionally (callers are
// expected to have validated it first, except for the genesis block
// which is exempt from validation by design). If b extends the current
// longest branch (b.Index == c.Length()), the tip advances. The block's
// state is computed and cached by replaying it onto its parent's state,
// or onto an empty state when b is the genesis block.
func (c *Chain) AddBlock(b *Block) error {
	if c.length == b.Index {
		c.length++
		c.tipHash = b.CurrentHash
	}
	c.blocks[b.CurrentHash] = b

	var parentState *state.State
	if b.Index == 0 {
		parentState = state.New()
	} else {
		ps, ok := c.states[b.PreviousHash]
		if !ok {
			return errors.Wrap(errs.ErrUnknownParent, "no cached state for parent block")
		}
		parentState = ps
	}

	newState, ok := parentState.ConsumeBlock(b.Transactions)
	if !ok {
		return errors.Wrap(errs.ErrStateReplayFailure, "replaying block onto parent state failed")
	}
	c.states[b.CurrentHash] = newState
	return nil
}

// TipState returns the State cached for the current tip, or an empty
// State before any block has been installed.
func (c *Chain) TipState() *state.State {
	if c.length == 0 {
		return state.New()
	}
	if s, ok := c.states[c.tipHash]; ok {
		return s
	}
	return state.New()
}

// ValidateChain walks from the tip back to index 0, validating every
// non-genesis block. The genesis block (index 0) is accepted
// unconditionally by design — see spec design notes on this open
// question.
func (c *Chain) ValidateChain() bool {
	hash := c.tipHash
	for {
		b, ok := c.blocks[hash]
		if !ok {
			return false
		}
		if b.Index == 0 {
			return true
		}
		if !c.ValidateBlock(b) {
			return false
		}
		hash = b.PreviousHash
	}
}

// Equivalent reports whether a and b are the same candidate content: see
// the package-level equivalent helper.
func Equivalent(a, b *Block) bool { return equivalent(a, b) }
