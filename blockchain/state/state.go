// Package state is the UTXO state engine: two redundant projections of
// the same unspent-output set, both keyed by address, with pure,
// copy-on-write transitions.
//
// Grounded on original_source/state.py.
package state

import (
	"sort"

	"github.com/ringcoin/node/blockchain/types"
	"github.com/ringcoin/node/common"
)

// State holds every address's unspent outputs and cached balance. New
// returns the empty pre-genesis state; the zero value has nil maps and
// cannot be updated.
type State struct {
	utxos    map[common.Address]map[common.Hash]types.TxRef
	balances map[common.Address]uint64
}

// New returns an empty state.
func New() *State {
	return &State{
		utxos:    make(map[common.Address]map[common.Hash]types.TxRef),
		balances: make(map[common.Address]uint64),
	}
}

// Clone returns a deep copy of s so the original is never mutated by a
// subsequent Update/Inflate. A naive full copy is acceptable at the ring
// sizes and block capacities this node targets (see spec design notes on
// state copy-on-write).
func (s *State) Clone() *State {
	out := New()
	for addr, refs := range s.utxos {
		m := make(map[common.Hash]types.TxRef, len(refs))
		for id, ref := range refs {
			m[id] = ref
		}
		out.utxos[addr] = m
	}
	for addr, bal := range s.balances {
		out.balances[addr] = bal
	}
	return out
}

// Empty reports whether s has never had a balance or UTXO installed —
// the pre-genesis condition.
func (s *State) Empty() bool {
	return len(s.utxos) == 0 && len(s.balances) == 0
}

// CheckBalance reports whether addr is known, holds at least amount, and
// amount is itself positive.
func (s *State) CheckBalance(addr common.Address, amount uint64) bool {
	bal, ok := s.balances[addr]
	return ok && bal >= amount && amount > 0
}

// GetBalance returns addr's balance, or 0 if addr is unknown.
func (s *State) GetBalance(addr common.Address) uint64 {
	return s.balances[addr]
}

// UTXOIDsAscending returns the ids, ascending, of addr's unspent outputs — the
// canonical deterministic spend-selection order (spec design notes §9.4).
func (s *State) UTXOIDsAscending(addr common.Address) []common.Hash {
	refs := s.utxos[addr]
	ids := make([]common.Hash, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	sortHashes(ids)
	return ids
}

// UTXO returns addr's unspent output with the given id.
func (s *State) UTXO(addr common.Address, id common.Hash) (types.TxRef, bool) {
	ref, ok := s.utxos[addr][id]
	return ref, ok
}

// Equal reports whether s and other hold identical balances and UTXOs.
func (s *State) Equal(other *State) bool {
	if len(s.balances) != len(other.balances) {
		return false
	}
	for addr, bal := range s.balances {
		if other.balances[addr] != bal {
			return false
		}
	}
	if len(s.utxos) != len(other.utxos) {
		return false
	}
	for addr, refs := range s.utxos {
		oRefs, ok := other.utxos[addr]
		if !ok || len(oRefs) != len(refs) {
			return false
		}
		for id, ref := range refs {
			if oRefs[id] != ref {
				return false
			}
		}
	}
	return true
}

// Validate reports whether tx can be applied to s: the sender can cover
// the amount, every declared input is actually present in the sender's
// UTXO set, and the transaction is internally consistent and signed.
func (s *State) Validate(tx *types.Transaction) bool {
	sender := tx.Data.SenderAddress
	if !s.CheckBalance(sender, tx.Data.Amount) {
		return false
	}
	refs, ok := s.utxos[sender]
	if !ok {
		return false
	}
	for _, id := range tx.Data.InputTxs {
		if _, ok := refs[id]; !ok {
			return false
		}
	}
	return tx.Verify()
}

// Update applies tx to s in place. Callers must have just confirmed
// Validate(tx); Update does not re-check it.
func (s *State) Update(tx *types.Transaction) {
	sender := tx.Data.SenderAddress
	receiver := tx.Data.ReceiverAddress
	amount := tx.Data.Amount

	s.balances[sender] -= amount
	s.balances[receiver] += amount

	refs := s.utxos[sender]
	for _, id := range tx.Data.InputTxs {
		delete(refs, id)
	}

	s.credit(receiver, tx.OutputTxs[0])
	if len(tx.OutputTxs) > 1 {
		s.credit(sender, tx.OutputTxs[1])
	}
}

// Inflate applies the single, signature-less genesis transaction: it
// credits the receiver without debiting any sender or removing any
// input, since "0" owns nothing to begin with.
func (s *State) Inflate(tx *types.Transaction) {
	receiver := tx.Data.ReceiverAddress
	s.balances[receiver] += tx.Data.Amount
	s.credit(receiver, tx.OutputTxs[0])
}

func (s *State) credit(addr common.Address, ref types.TxRef) {
	refs, ok := s.utxos[addr]
	if !ok {
		refs = make(map[common.Hash]types.TxRef)
		s.utxos[addr] = refs
	}
	refs[ref.Id] = ref
}

// ConsumeBlock replays block's transactions against a clone of s,
// left to right. If s starts empty the first transaction is treated as
// the genesis inflation; every following transaction is validated then
// applied. Any validation failure aborts the whole replay and returns
// (nil, false) — the caller's state is never mutated either way.
func (s *State) ConsumeBlock(txs []types.Transaction) (*State, bool) {
	next := s.Clone()
	for i := range txs {
		tx := &txs[i]
		switch {
		case next.Empty():
			next.Inflate(tx)
		case next.Validate(tx):
			next.Update(tx)
		default:
			return nil, false
		}
	}
	return next, true
}

func sortHashes(ids []common.Hash) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
