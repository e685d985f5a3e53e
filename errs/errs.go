// Package errs enumerates the error kinds the node core must
// distinguish, per the node's validation and ingress design. Callers
// wrap these sentinels with github.com/pkg/errors to attach call-site
// context without losing errors.Is/Cause compatibility.
package errs

import "errors"

var (
	// ErrInvalidParameters: transaction inputs do not cover the amount,
	// sender == receiver, or amount <= 0.
	ErrInvalidParameters = errors.New("invalid transaction parameters")

	// ErrInsufficientFunds: check_balance failed.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidSignature: PSS verification failed or signature absent.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidHash: a recomputed id/current_hash does not match.
	ErrInvalidHash = errors.New("invalid hash")

	// ErrInsufficientProof: block hash does not meet the difficulty target.
	ErrInsufficientProof = errors.New("insufficient proof of work")

	// ErrUnknownParent: previous_hash not present in the chain DAG.
	ErrUnknownParent = errors.New("unknown parent block")

	// ErrStateReplayFailure: consume_block returned nil for the parent state.
	ErrStateReplayFailure = errors.New("state replay failed")

	// ErrUnauthorizedOrigin: a ring message did not originate from the
	// bootstrap address.
	ErrUnauthorizedOrigin = errors.New("unauthorized origin")

	// ErrNotReady: distribute before all peers registered, or
	// make-genesis after state is already non-empty.
	ErrNotReady = errors.New("not ready")
)
