// Package blockchain holds the Block and Chain types: an ordered,
// hash-linked batch of transactions sealed by proof-of-work, and the DAG
// of blocks keyed by hash with per-tip cached state.
//
// Grounded on original_source/blockchain.py, styled after the teacher's
// blockchain/state_transition.go for the replay-against-parent-state shape.
package blockchain

import (
	"sort"
	"time"

	"github.com/ringcoin/node/blockchain/types"
	"github.com/ringcoin/node/canonical"
	"github.com/ringcoin/node/common"
)

// Block is an ordered bundle of transactions sealed by a leading-zero
// hex-prefix proof of work over its own canonical encoding.
type Block struct {
	Index        uint64               `json:"index"`
	Timestamp    string               `json:"timestamp"`
	Transactions []types.Transaction  `json:"transactions"`
	Nonce        uint64               `json:"nonce"`
	PreviousHash common.Hash          `json:"previous_hash"`
	CurrentHash  common.Hash          `json:"current_hash"`
}

// hashableBlock mirrors Block's JSON shape minus current_hash: the field
// the proof-of-work and id computations are hashed over.
type hashableBlock struct {
	Index        uint64              `json:"index"`
	Timestamp    string              `json:"timestamp"`
	Transactions []types.Transaction `json:"transactions"`
	Nonce        uint64              `json:"nonce"`
	PreviousHash common.Hash         `json:"previous_hash"`
}

func (b *Block) hashable() hashableBlock {
	return hashableBlock{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		Nonce:        b.Nonce,
		PreviousHash: b.PreviousHash,
	}
}

// recomputeHash returns the canonical SHA-256 digest of b minus its
// current_hash field.
func (b *Block) recomputeHash() (common.Hash, error) {
	h, err := canonical.Hash(b.hashable())
	if err != nil {
		return "", err
	}
	return common.Hash(h), nil
}

// newCandidateBlock builds an unmined candidate at index, chained onto
// previousHash, carrying txs. Its current_hash is filled in but purely
// informational: mining will overwrite nonce and current_hash.
func newCandidateBlock(index uint64, previousHash common.Hash, txs []types.Transaction) (*Block, error) {
	b := &Block{
		Index:        index,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Transactions: txs,
		Nonce:        0,
		PreviousHash: previousHash,
	}
	h, err := b.recomputeHash()
	if err != nil {
		return nil, err
	}
	b.CurrentHash = h
	return b, nil
}

// ActiveFlag is the cooperative preemption signal a mining search polls
// at every nonce iteration. *miner.Flag implements this.
type ActiveFlag interface {
	Active() bool
}

// Mine searches for a nonce making b.CurrentHash satisfy difficulty
// leading hex zeroes, checking flag at every iteration so a concurrent
// Stop() preempts the search promptly. b.Nonce is bumped in place as the
// search proceeds; b.CurrentHash is only overwritten on success — on
// preemption the block is left with whatever nonce the search reached
// and a current_hash that does not (yet) satisfy the proof.
//
// Mine returns true iff it found a valid nonce before flag went inactive.
func (b *Block) Mine(flag ActiveFlag, difficulty int) bool {
	for flag.Active() {
		h, err := b.recomputeHash()
		if err == nil && satisfiesDifficulty(h, difficulty) {
			b.CurrentHash = h
			return true
		}
		b.Nonce++
	}
	return false
}

// satisfiesDifficulty reports whether hash has difficulty leading '0' hex
// characters.
func satisfiesDifficulty(hash common.Hash, difficulty int) bool {
	s := hash.String()
	if len(s) < difficulty {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}

// validateProof recomputes the canonical hash of b minus current_hash and
// checks it (a) equals current_hash and (b) satisfies difficulty. A nil
// block is never valid.
func validateProof(b *Block, difficulty int) bool {
	if b == nil {
		return false
	}
	h, err := b.recomputeHash()
	if err != nil {
		return false
	}
	return h == b.CurrentHash && satisfiesDifficulty(b.CurrentHash, difficulty)
}

// equivalent reports whether a and b are the same candidate content:
// identical previous_hash, identical index, and identical transaction
// multisets — used to detect a self-mined-vs-foreign collision at the
// same chain position.
func equivalent(a, b *Block) bool {
	if a.PreviousHash != b.PreviousHash || a.Index != b.Index {
		return false
	}
	if len(a.Transactions) != len(b.Transactions) {
		return false
	}
	ah, err := sortedTxIDs(a.Transactions)
	if err != nil {
		return false
	}
	bh, err := sortedTxIDs(b.Transactions)
	if err != nil {
		return false
	}
	for i := range ah {
		if ah[i] != bh[i] {
			return false
		}
	}
	return true
}

func sortedTxIDs(txs []types.Transaction) ([]string, error) {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.Id.String()
	}
	sort.Strings(ids)
	return ids, nil
}
