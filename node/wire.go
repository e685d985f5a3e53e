package node

import (
	"encoding/json"

	"github.com/ringcoin/node/blockchain/types"
)

// TransactionEnvelope is the wire shape POSTed to /transaction: the
// transaction carried as its own serialized JSON text rather than
// nested, matching original_source/node.py's transaction_json field, plus
// the flag distinguishing a locally-originated submission (which must
// still be re-broadcast) from a gossiped one (which must not be).
type TransactionEnvelope struct {
	TransactionJSON string `json:"transaction_json"`
	IsLocal         bool   `json:"is_local"`
}

// NewTransactionEnvelope serializes tx into an envelope ready to gossip.
func NewTransactionEnvelope(tx *types.Transaction) (TransactionEnvelope, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return TransactionEnvelope{}, err
	}
	return TransactionEnvelope{TransactionJSON: string(body), IsLocal: false}, nil
}

// Transaction decodes the envelope's embedded JSON text back into a
// Transaction.
func (e TransactionEnvelope) Transaction() (*types.Transaction, error) {
	var tx types.Transaction
	if err := json.Unmarshal([]byte(e.TransactionJSON), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
