package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySubmitErr(t *testing.T) {
	assert.NoError(t, classifySubmitErr(nil))

	tests := []struct {
		name     string
		err      string
		rejected bool
	}{
		{
			name:     "program rejection",
			err:      "rpc error: Transaction simulation failed: custom program error: 0x1771",
			rejected: true,
		},
		{
			name:     "missing signer",
			err:      "Transaction simulation failed: missing required signature for instruction",
			rejected: true,
		},
		{
			name:     "bad signature",
			err:      "Signature verification failed",
			rejected: true,
		},
		{
			name:     "transient network failure stays retryable",
			err:      "dial tcp: connection refused",
			rejected: false,
		},
		{
			name:     "blockhash expiry stays retryable",
			err:      "BlockhashNotFound",
			rejected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySubmitErr(errors.New(tt.err))
			assert.Error(t, got)
			assert.Equal(t, tt.rejected, errors.Is(got, ErrRejected))
			assert.Contains(t, got.Error(), tt.err, "the original failure stays inspectable")
		})
	}
}
