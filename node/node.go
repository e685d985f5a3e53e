package node

import (
	"context"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/ringcoin/node/blockchain"
	"github.com/ringcoin/node/blockchain/state"
	"github.com/ringcoin/node/blockchain/types"
	"github.com/ringcoin/node/common"
	"github.com/ringcoin/node/errs"
	"github.com/ringcoin/node/log"
)

const seenTransactionCacheSize = 4096

// queueCapacity bounds the mempool channel. The Python original uses an
// unbounded queue.Queue; a generously sized buffered channel is the
// idiomatic Go approximation (see design notes on this substitution).
const queueCapacity = 10000

// Node is the ring peer orchestrator: the chain, the two live state
// projections (current_state and mining_state), the pending-transaction
// queue the mining loop drains, and the fixed ring it gossips to.
//
// current_state, mining_state, mining_transactions and the chain tip are
// all read or written only while holding mu — the single
// current_state_lock region spec'd in SPEC_FULL.md §5. The proof-of-work
// search itself (run from mine, via chain.MineBlock) is the one thing
// that must never run under mu, since it can take arbitrarily long.
type Node struct {
	cfg Config

	nodeID string

	chain *blockchain.Chain

	mu                 sync.Mutex
	currentState       *state.State
	miningState        *state.State
	miningTransactions []types.Transaction

	queue  chan *types.Transaction
	seenTx *lru.Cache

	gossip *Gossip

	// bootstrap-only fields.
	isBootstrap   bool
	nextPeerID    int
	hasDistribute bool
}

// New constructs a Node from cfg. It does not perform network
// registration with a bootstrap; callers (cmd/ringnode) register first
// and pass the id the bootstrap assigned as selfID.
func New(cfg Config, selfID string) (*Node, error) {
	cache, err := lru.New(seenTransactionCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "build transaction dedup cache")
	}

	empty := state.New()
	n := &Node{
		cfg:          cfg,
		nodeID:       selfID,
		chain:        blockchain.New(cfg.Difficulty),
		currentState: empty,
		miningState:  empty.Clone(),
		queue:        make(chan *types.Transaction, queueCapacity),
		seenTx:       cache,
		gossip:       NewGossip(selfID),
		isBootstrap:  cfg.IsBootstrap(),
	}
	if n.isBootstrap {
		// The bootstrap seeds its own address into the ring it will
		// later distribute, the way original_source/node.py's __init__
		// sets self.ring['0'] up front.
		n.gossip.AddPeer(selfID, PeerInfo{IP: cfg.BootstrapIP, Port: cfg.BootstrapPort})
	}
	return n, nil
}

// ID returns this node's ring identifier ("0" for the bootstrap).
func (n *Node) ID() string { return n.nodeID }

// IsBootstrap reports whether this node is the ring's bootstrap.
func (n *Node) IsBootstrap() bool { return n.isBootstrap }

// Info is the JSON shape returned by GET /info.
type Info struct {
	NodeID        string `json:"node_id"`
	NumberOfNodes int    `json:"number_of_nodes"`
	Difficulty    int    `json:"difficulty"`
	Capacity      int    `json:"capacity"`
	ChainLength   uint64 `json:"chain_length"`
	IsBootstrap   bool   `json:"is_bootstrap"`
	HasDistribute bool   `json:"has_distributed"`
}

func (n *Node) Info() Info {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Info{
		NodeID:        n.nodeID,
		NumberOfNodes: n.cfg.NumberOfNodes,
		Difficulty:    n.cfg.Difficulty,
		Capacity:      n.cfg.Capacity,
		ChainLength:   n.chain.Length(),
		IsBootstrap:   n.isBootstrap,
		HasDistribute: n.hasDistribute,
	}
}

// Balance returns addr's current confirmed balance.
func (n *Node) Balance(addr common.Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentState.GetBalance(addr)
}

// ViewTransactions returns a snapshot of every confirmed transaction on
// the current longest branch, for GET /view.
func (n *Node) ViewTransactions() []types.Transaction {
	n.mu.Lock()
	tip := n.chain.TipHash()
	length := n.chain.Length()
	n.mu.Unlock()

	var out []types.Transaction
	hash := tip
	for i := uint64(0); i < length; i++ {
		b, ok := n.chain.Block(hash)
		if !ok {
			break
		}
		out = append(out, b.Transactions...)
		hash = b.PreviousHash
	}
	return out
}

// CreateTransaction builds, but does not sign or commit, a transfer of
// amount from sender to receiver, selecting sender's UTXOs ascending by
// id until amount is covered (spec design notes §9.4).
func (n *Node) CreateTransaction(sender, receiver common.Address, amount uint64) (*types.Transaction, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.currentState.CheckBalance(sender, amount) {
		return nil, errs.ErrInsufficientFunds
	}

	var spent []types.TxRef
	var total uint64
	for _, id := range n.currentState.UTXOIDsAscending(sender) {
		ref, ok := n.currentState.UTXO(sender, id)
		if !ok {
			continue
		}
		spent = append(spent, ref)
		total += ref.Amount
		if total >= amount {
			break
		}
	}

	return types.New(sender, receiver, amount, spent)
}

// CommitTransaction enqueues tx for the mining loop to pick up and, if
// isLocal, gossips it to the rest of the ring. Duplicate ids (a
// transaction this node has already enqueued, whether created locally
// or received over gossip) are dropped silently.
func (n *Node) CommitTransaction(ctx context.Context, tx *types.Transaction, isLocal bool) error {
	key := tx.Id.String()
	if _, seen := n.seenTx.Get(key); seen {
		return nil
	}
	n.seenTx.Add(key, struct{}{})

	n.queue <- tx

	if isLocal {
		envelope, err := NewTransactionEnvelope(tx)
		if err != nil {
			return err
		}
		n.gossip.Broadcast(ctx, "/transaction", envelope)
	}
	return nil
}

// MakeGenesisBlock installs the one-time inflation block crediting
// originalAddr with the configured total coin supply, and broadcasts it.
// Only valid while current_state is still empty.
func (n *Node) MakeGenesisBlock(ctx context.Context, originalAddr common.Address) error {
	n.mu.Lock()
	if !n.currentState.Empty() {
		n.mu.Unlock()
		return errs.ErrNotReady
	}

	tx, err := types.NewInflation(originalAddr, n.cfg.TotalCoins)
	if err != nil {
		n.mu.Unlock()
		return err
	}
	block, err := n.chain.CreateBlock([]types.Transaction{*tx})
	if err != nil {
		n.mu.Unlock()
		return err
	}
	if err := n.chain.AddBlock(block); err != nil {
		n.mu.Unlock()
		return err
	}
	n.currentState = n.chain.TipState()
	n.miningState = n.currentState.Clone()
	n.mu.Unlock()

	log.Infow("genesis block installed", "node", n.nodeID, "receiver_set", true)
	n.gossip.Broadcast(ctx, "/block", block)
	return nil
}

// GetBlock handles a foreign block arriving over gossip: installs it
// directly if this node has no genesis yet (the genesis block is exempt
// from validation, per the chain's documented design), otherwise
// validates it, preempts any in-progress local mining search, and
// installs it, advancing current_state only if it extended the longest
// branch.
func (n *Node) GetBlock(b *blockchain.Block) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.currentState.Empty() {
		if err := n.chain.AddBlock(b); err != nil {
			return err
		}
		n.currentState = n.chain.TipState()
		n.miningState = n.currentState.Clone()
		return nil
	}

	if !n.chain.ValidateBlock(b) {
		return errors.Wrap(errs.ErrInvalidHash, "foreign block failed validation")
	}

	n.chain.StopMining()

	tipBefore := n.chain.Length()
	if err := n.chain.AddBlock(b); err != nil {
		return err
	}
	if n.chain.Length() > tipBefore {
		n.currentState = n.chain.TipState()
	}
	return nil
}

// StoreNode registers a new ring member during bootstrap and returns its
// assigned id. Bootstrap-only.
func (n *Node) StoreNode(ip, port string) (string, error) {
	if !n.isBootstrap {
		return "", errors.New("only the bootstrap node accepts registrations")
	}
	n.mu.Lock()
	n.nextPeerID++
	id := strconv.Itoa(n.nextPeerID)
	n.mu.Unlock()

	n.gossip.AddPeer(id, PeerInfo{IP: ip, Port: port})
	return id, nil
}

// ReadyToDistribute reports whether every expected peer, including the
// bootstrap itself (already seeded into the ring at construction), is
// present.
func (n *Node) ReadyToDistribute() bool {
	return n.gossip.Count() >= n.cfg.NumberOfNodes
}

// Distribute marks the ring as finalized and returns the full peer map
// for the bootstrap's own record; callers push it out to every peer via
// POST /ring. Bootstrap-only.
func (n *Node) Distribute() (map[string]PeerInfo, error) {
	if !n.isBootstrap {
		return nil, errors.New("only the bootstrap node distributes the ring")
	}
	if !n.ReadyToDistribute() {
		return nil, errs.ErrNotReady
	}
	n.mu.Lock()
	n.hasDistribute = true
	n.mu.Unlock()
	return n.gossip.Snapshot(), nil
}

// SetRing installs the full peer set pushed by the bootstrap. Peer-only.
func (n *Node) SetRing(peers map[string]PeerInfo) {
	n.gossip.SetRing(peers)
}

// Gossip exposes the node's broadcaster for the HTTP layer's
// registration handshake and CLI bootstrap dial.
func (n *Node) Gossip() *Gossip { return n.gossip }
