// Package types holds the wire-level records the ring node gossips and
// hashes: transactions and their unspent outputs. Blocks live in the
// parent blockchain package.
//
// Grounded on original_source/transaction.py and original_source/wallet.py,
// styled after the teacher's blockchain/types/tx_internal_data_value_transfer.go
// (construct → Sign → Verify → marshal) method layout.
package types

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"

	"github.com/pkg/errors"

	"github.com/ringcoin/node/canonical"
	"github.com/ringcoin/node/common"
	"github.com/ringcoin/node/errs"
)

// TxRef is an unspent output: a coin chunk owned by Recipient, addressable
// by Id within that address's UTXO set.
type TxRef struct {
	Id        common.Hash    `json:"id"`
	Recipient common.Address `json:"recipient"`
	Amount    uint64         `json:"amount"`
}

// TxData is the part of a Transaction that is hashed to produce its id.
// Field order here only affects Go's zero-value literal construction;
// the canonical package sorts keys independently of struct field order.
type TxData struct {
	SenderAddress   common.Address `json:"sender_address"`
	ReceiverAddress common.Address `json:"receiver_address"`
	Amount          uint64         `json:"amount"`
	InputTxs        []common.Hash  `json:"input_txs"`
}

// Transaction is an immutable signed value-transfer record. Construct
// with New, sign with Sign, and check self-consistency with Verify.
type Transaction struct {
	Data      TxData        `json:"data"`
	Id        common.Hash   `json:"id"`
	OutputTxs []TxRef       `json:"output_txs"`
	Signature []byte        `json:"signature"`
}

// New builds an unsigned Transaction spending spentTxs to pay amount to
// receiver. It fails with errs.ErrInvalidParameters if the inputs do not
// cover the amount, if amount is not positive, or if sender == receiver.
func New(sender, receiver common.Address, amount uint64, spentTxs []TxRef) (*Transaction, error) {
	if amount == 0 {
		return nil, errors.Wrap(errs.ErrInvalidParameters, "amount must be positive")
	}
	if sender == receiver {
		return nil, errors.Wrap(errs.ErrInvalidParameters, "sender and receiver must differ")
	}

	var inputValue uint64
	inputIDs := make([]common.Hash, 0, len(spentTxs))
	for _, ref := range spentTxs {
		inputValue += ref.Amount
		inputIDs = append(inputIDs, ref.Id)
	}
	if inputValue < amount {
		return nil, errors.Wrap(errs.ErrInvalidParameters, "spent outputs do not cover amount")
	}

	data := TxData{
		SenderAddress:   sender,
		ReceiverAddress: receiver,
		Amount:          amount,
		InputTxs:        inputIDs,
	}

	idHex, err := canonical.Hash(data)
	if err != nil {
		return nil, errors.Wrap(err, "hash transaction data")
	}
	id := common.Hash(idHex)

	outputs := []TxRef{{Id: id, Recipient: receiver, Amount: amount}}
	if inputValue > amount {
		outputs = append(outputs, TxRef{Id: id, Recipient: sender, Amount: inputValue - amount})
	}

	return &Transaction{
		Data:      data,
		Id:        id,
		OutputTxs: outputs,
	}, nil
}

// NewInflation builds the single, signature-less genesis transaction that
// credits receiver with amount from the synthetic sender "0". The spent
// reference is itself synthetic; nothing ever owns or spends it.
func NewInflation(receiver common.Address, amount uint64) (*Transaction, error) {
	synthetic := TxRef{
		Id:        "FromWhichTransactionDidSender0GetTheseCoins",
		Recipient: common.InflationSender,
		Amount:    amount,
	}
	return New(common.InflationSender, receiver, amount, []TxRef{synthetic})
}

// signOpts is PSS with MGF1-SHA256 and the maximum possible salt length,
// matching padding.PSS(mgf=padding.MGF1(SHA256), salt_length=MAX_LENGTH)
// in original_source/transaction.py.
var signOpts = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}

// Sign binds a PSS-SHA256 signature over tx.Id to priv.
func (tx *Transaction) Sign(priv *rsa.PrivateKey) error {
	digest := sha256.Sum256([]byte(tx.Id.String()))
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], signOpts)
	if err != nil {
		return errors.Wrap(err, "sign transaction")
	}
	tx.Signature = sig
	return nil
}

// Verify reports whether tx is internally consistent: its id matches a
// fresh hash of its data, a signature is present, and that signature
// verifies under the public key encoded in the sender address. Genesis
// transactions (sender == "0") are never run through Verify; State.Inflate
// installs them directly.
func (tx *Transaction) Verify() bool {
	idHex, err := canonical.Hash(tx.Data)
	if err != nil || common.Hash(idHex) != tx.Id {
		return false
	}
	if len(tx.Signature) == 0 {
		return false
	}
	pub, err := ParsePublicKey(tx.Data.SenderAddress)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(tx.Id.String()))
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], tx.Signature, signOpts) == nil
}

// ParsePublicKey decodes a PEM SubjectPublicKeyInfo Address into an RSA
// public key.
func ParsePublicKey(addr common.Address) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(addr))
	if block == nil {
		return nil, errors.New("address is not a PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse SubjectPublicKeyInfo")
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("address does not encode an RSA public key")
	}
	return rsaPub, nil
}

// EncodePublicKeyPEM renders pub as a PEM SubjectPublicKeyInfo Address,
// the canonical form produced by a wallet when it logs in or registers.
func EncodePublicKeyPEM(pub *rsa.PublicKey) (common.Address, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", errors.Wrap(err, "marshal SubjectPublicKeyInfo")
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return common.Address(pem.EncodeToMemory(block)), nil
}
