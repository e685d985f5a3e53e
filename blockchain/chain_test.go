package blockchain

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringcoin/node/blockchain/types"
	"github.com/ringcoin/node/common"
)

type testWallet struct {
	priv *rsa.PrivateKey
	addr common.Address
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	addr, err := types.EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	return testWallet{priv: priv, addr: addr}
}

func mineAndAdd(t *testing.T, c *Chain, txs []types.Transaction) *Block {
	t.Helper()
	b, err := c.CreateBlock(txs)
	require.NoError(t, err)
	require.True(t, c.MineBlock(b))
	require.NoError(t, c.AddBlock(b))
	return b
}

func TestGenesisInstallation(t *testing.T) {
	a := newTestWallet(t)
	c := New(1)

	genesisTx, err := types.NewInflation(a.addr, 100)
	require.NoError(t, err)
	mineAndAdd(t, c, []types.Transaction{*genesisTx})

	assert.EqualValues(t, 1, c.Length())
	assert.Equal(t, uint64(100), c.TipState().GetBalance(a.addr))
}

func TestChainMonotonicityAndTipAdvance(t *testing.T) {
	a, b := newTestWallet(t), newTestWallet(t)
	c := New(1)

	genesisTx, err := types.NewInflation(a.addr, 100)
	require.NoError(t, err)
	mineAndAdd(t, c, []types.Transaction{*genesisTx})
	lengthAfterGenesis := c.Length()

	ref, _ := c.TipState().UTXO(a.addr, c.TipState().UTXOIDsAscending(a.addr)[0])
	tx, err := types.New(a.addr, b.addr, 30, []types.TxRef{ref})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(a.priv))

	newTip := mineAndAdd(t, c, []types.Transaction{*tx})

	assert.Greater(t, c.Length(), lengthAfterGenesis)
	assert.Equal(t, newTip.CurrentHash, c.TipHash())
}

func TestValidateBlockRejectsBadProof(t *testing.T) {
	a := newTestWallet(t)
	c := New(4) // high difficulty, easy to fail by construction

	genesisTx, err := types.NewInflation(a.addr, 100)
	require.NoError(t, err)
	mineAndAdd(t, c, []types.Transaction{*genesisTx})

	candidate, err := c.CreateBlock(nil)
	require.NoError(t, err)
	// Not mined: current_hash almost certainly doesn't satisfy difficulty 4.
	assert.False(t, c.ValidateBlockProof(candidate))
}

func TestValidateBlockRejectsUnknownParent(t *testing.T) {
	c := New(1)
	b, err := newCandidateBlock(5, "nonexistent-parent", nil)
	require.NoError(t, err)
	require.True(t, b.Mine(alwaysActive{}, 1))

	assert.False(t, c.ValidateBlockPreviousHash(b))
}

type alwaysActive struct{}

func (alwaysActive) Active() bool { return true }

func TestSideBranchDoesNotAdvanceTip(t *testing.T) {
	a := newTestWallet(t)
	c := New(1)
	genesisTx, err := types.NewInflation(a.addr, 100)
	require.NoError(t, err)
	mineAndAdd(t, c, []types.Transaction{*genesisTx})

	tip := c.TipHash()

	// Two independently mined blocks at the same index: a fork.
	first := mineAndAdd(t, c, nil)
	assert.Equal(t, first.CurrentHash, c.TipHash())

	// A second, differently-shaped block at the same index as `first`
	// (same previous_hash as `first`, but it arrives after the tip has
	// already advanced past it) is stored but does not move the tip.
	second, err := newCandidateBlock(first.Index, tip, nil)
	require.NoError(t, err)
	require.True(t, second.Mine(alwaysActive{}, 1))
	require.NoError(t, c.AddBlock(second))

	assert.NotEqual(t, second.CurrentHash, c.TipHash())
	storedSecond, ok := c.Block(second.CurrentHash)
	require.True(t, ok)
	assert.Equal(t, second.CurrentHash, storedSecond.CurrentHash)
}

func TestValidateChainAcceptsGenesisUnconditionally(t *testing.T) {
	a := newTestWallet(t)
	c := New(1)
	genesisTx, err := types.NewInflation(a.addr, 100)
	require.NoError(t, err)
	// Installed via AddBlock directly, unmined, the way get_block's
	// empty-state path installs a genesis block without validation.
	b, err := newCandidateBlock(0, common.GenesisParentHash, []types.Transaction{*genesisTx})
	require.NoError(t, err)
	require.NoError(t, c.AddBlock(b))

	assert.True(t, c.ValidateChain())
}
