package ledger

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// receiptsAccountName is the Anchor account name of the store state.
const receiptsAccountName = "Receipts"

// DecodeReceipts decodes raw account data into a Receipts snapshot. The data
// must start with the Anchor discriminator for the Receipts account; anything
// else is rejected so that a foreign or reallocated account can never be
// mistaken for store state.
func DecodeReceipts(data []byte) (*Receipts, error) {
	disc := accountDiscriminator(receiptsAccountName)
	if len(data) < len(disc) {
		return nil, fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(disc)], disc[:]) {
		return nil, fmt.Errorf("unexpected account discriminator")
	}

	var out Receipts
	if err := bin.NewBorshDecoder(data[len(disc):]).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode receipts account: %w", err)
	}
	return &out, nil
}
