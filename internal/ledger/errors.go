package ledger

import (
	"errors"
	"strings"
)

// ErrNotProvisioned is returned when the store's receipts account does not
// exist yet. This is a valid steady state for a freshly flashed point, not a
// failure: the store simply has not been initialized on chain.
var ErrNotProvisioned = errors.New("store account not provisioned")

// ErrRejected is returned when the program or the runtime rejects the
// transaction outright: an unauthorized signer, a failed signature check, or
// an account state the program refuses. Resubmitting the same transaction
// cannot succeed; the order is left for the next reconciliation pass or an
// operator.
var ErrRejected = errors.New("transaction rejected by program")

// classifySubmitErr folds a transaction submission failure into the error
// taxonomy. The RPC surface does not carry typed program errors, so
// rejections are recognized from the error text. Everything else is treated
// as transient I/O and left retryable.
func classifySubmitErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "custom program error") ||
		strings.Contains(msg, "missing required signature") ||
		strings.Contains(msg, "Signature verification failed") {
		return errors.Join(ErrRejected, err)
	}
	return err
}
