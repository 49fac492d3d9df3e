package ledger

import (
	"encoding/json"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreAddress(t *testing.T) {
	programID := solana.MustPublicKeyFromBase58(DefaultProgramID)

	a1, err := StoreAddress(programID, "jonasbar")
	require.NoError(t, err)
	a2, err := StoreAddress(programID, "jonasbar")
	require.NoError(t, err)
	other, err := StoreAddress(programID, "otherbar")
	require.NoError(t, err)

	assert.Equal(t, a1, a2, "derivation must be deterministic")
	assert.NotEqual(t, a1, other, "different stores derive different accounts")
}

func TestAnchorDiscriminators(t *testing.T) {
	acc := accountDiscriminator("Receipts")
	ix := instructionDiscriminator("mark_as_delivered")

	assert.Len(t, acc[:], 8)
	assert.Len(t, ix[:], 8)
	assert.NotEqual(t, acc, ix)
	assert.Equal(t, acc, accountDiscriminator("Receipts"), "stable across calls")
}

func TestParsePrivateKey_Base58(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParsePrivateKey_JSONArray(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(string(raw))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "[1,2,3]", "[300]", "not-a-key!!!"} {
		_, err := ParsePrivateKey(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestNewClientValidation(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	programID := solana.MustPublicKeyFromBase58(DefaultProgramID)

	_, err = NewClient(Config{ProgramID: programID, Signer: key}, zap.NewNop())
	assert.Error(t, err, "store name required")

	_, err = NewClient(Config{ProgramID: programID, StoreName: "jonasbar"}, zap.NewNop())
	assert.Error(t, err, "signer required")

	c, err := NewClient(Config{
		RPCURL:    "http://localhost:8899",
		WSURL:     "ws://localhost:8900",
		ProgramID: programID,
		Signer:    key,
		StoreName: "jonasbar",
	}, zap.NewNop())
	require.NoError(t, err)

	want, err := StoreAddress(programID, "jonasbar")
	require.NoError(t, err)
	assert.Equal(t, want, c.StorePDA())
	assert.Equal(t, key.PublicKey(), c.Signer())
}
