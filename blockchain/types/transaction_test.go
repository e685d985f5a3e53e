package types

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringcoin/node/common"
)

func genKey(t *testing.T) (*rsa.PrivateKey, common.Address) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	addr, err := EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	return priv, addr
}

func TestNewTransactionDeterministicID(t *testing.T) {
	_, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 100}}

	tx1, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)
	tx2, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)

	assert.Equal(t, tx1.Id, tx2.Id)
}

func TestNewTransactionChangeOutput(t *testing.T) {
	_, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 100}}

	tx, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)

	require.Len(t, tx.OutputTxs, 2)
	assert.Equal(t, receiver, tx.OutputTxs[0].Recipient)
	assert.Equal(t, uint64(30), tx.OutputTxs[0].Amount)
	assert.Equal(t, sender, tx.OutputTxs[1].Recipient)
	assert.Equal(t, uint64(70), tx.OutputTxs[1].Amount)
	assert.Equal(t, tx.Id, tx.OutputTxs[0].Id)
	assert.Equal(t, tx.Id, tx.OutputTxs[1].Id, "both outputs intentionally alias the transaction id")
}

func TestNewTransactionNoChangeOutput(t *testing.T) {
	_, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 30}}

	tx, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)
	assert.Len(t, tx.OutputTxs, 1)
}

func TestNewTransactionInsufficientInputs(t *testing.T) {
	_, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 10}}

	_, err := New(sender, receiver, 30, spent)
	assert.Error(t, err)
}

func TestNewTransactionRejectsSelfPayment(t *testing.T) {
	_, sender := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 30}}

	_, err := New(sender, sender, 30, spent)
	assert.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	priv, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 100}}

	tx, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(priv))

	assert.True(t, tx.Verify())
}

func TestVerifyRejectsUnsignedTransaction(t *testing.T) {
	_, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 100}}

	tx, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)
	assert.False(t, tx.Verify())
}

func TestVerifyRejectsTamperedAmount(t *testing.T) {
	priv, sender := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 100}}

	tx, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(priv))

	tx.Data.Amount = 9000 // id no longer matches the (now stale) data hash

	assert.False(t, tx.Verify())
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	_, sender := genKey(t)
	otherPriv, _ := genKey(t)
	_, receiver := genKey(t)
	spent := []TxRef{{Id: "a", Recipient: sender, Amount: 100}}

	tx, err := New(sender, receiver, 30, spent)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(otherPriv))

	assert.False(t, tx.Verify())
}
