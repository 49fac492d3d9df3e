package ledger

import (
	"bytes"
	"encoding/binary"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accountBuilder hand-assembles borsh account data so the decode test is
// independent of any encoder.
type accountBuilder struct {
	buf bytes.Buffer
}

func (b *accountBuilder) u8(v uint8) { b.buf.WriteByte(v) }

func (b *accountBuilder) boolean(v bool) {
	if v {
		b.buf.WriteByte(1)
	} else {
		b.buf.WriteByte(0)
	}
}

func (b *accountBuilder) u32(v uint32) { _ = binary.Write(&b.buf, binary.LittleEndian, v) }

func (b *accountBuilder) u64(v uint64) { _ = binary.Write(&b.buf, binary.LittleEndian, v) }

func (b *accountBuilder) i64(v int64) { _ = binary.Write(&b.buf, binary.LittleEndian, v) }

func (b *accountBuilder) str(s string) {
	b.u32(uint32(len(s)))
	b.buf.WriteString(s)
}
func (b *accountBuilder) pubkey(k solana.PublicKey) { b.buf.Write(k[:]) }

func buildAccountData(t *testing.T) ([]byte, solana.PublicKey, solana.PublicKey) {
	t.Helper()
	buyer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	var b accountBuilder
	disc := accountDiscriminator(receiptsAccountName)
	b.buf.Write(disc[:])

	b.u32(1) // receipts
	b.u64(42)
	b.pubkey(buyer)
	b.boolean(false)
	b.u64(500000)
	b.i64(1700000000)
	b.u8(3)
	b.str("Ale")

	b.u64(43) // total_purchases
	b.str("jonasbar")
	b.pubkey(buyer) // authority, reuse key

	b.u32(1) // products
	b.u64(500000)
	b.u8(6)
	b.pubkey(mint)
	b.str("Ale")

	b.str("") // telegram channel
	b.u8(254) // bump

	return b.buf.Bytes(), buyer, mint
}

func TestDecodeReceipts(t *testing.T) {
	data, buyer, mint := buildAccountData(t)

	snap, err := DecodeReceipts(data)
	require.NoError(t, err)

	require.Len(t, snap.Receipts, 1)
	r := snap.Receipts[0]
	assert.Equal(t, uint64(42), r.ReceiptID)
	assert.Equal(t, buyer, r.Buyer)
	assert.False(t, r.WasDelivered)
	assert.Equal(t, uint64(500000), r.Price)
	assert.Equal(t, int64(1700000000), r.Timestamp)
	assert.Equal(t, uint8(3), r.TableNumber)
	assert.Equal(t, "Ale", r.ProductName)

	assert.Equal(t, uint64(43), snap.TotalPurchases)
	assert.Equal(t, "jonasbar", snap.StoreName)

	require.Len(t, snap.Products, 1)
	p := snap.Products[0]
	assert.Equal(t, uint64(500000), p.Price)
	assert.Equal(t, uint8(6), p.Decimals)
	assert.Equal(t, mint, p.Mint)
	assert.Equal(t, "Ale", p.Name)

	assert.Equal(t, uint8(254), snap.Bump)
}

func TestDecodeReceipts_Rejections(t *testing.T) {
	_, err := DecodeReceipts([]byte{1, 2, 3})
	assert.Error(t, err, "short buffer")

	data, _, _ := buildAccountData(t)
	data[0] ^= 0xff
	_, err = DecodeReceipts(data)
	assert.Error(t, err, "wrong discriminator")
}

func TestReceiptsProductLookup(t *testing.T) {
	snap := &Receipts{Products: []Product{
		{Name: "Stout", Price: 1},
		{Name: "Ale", Price: 2},
	}}

	p, ok := snap.Product("Ale")
	require.True(t, ok)
	assert.Equal(t, "Ale", p.Name)

	// No match falls back to the first product.
	p, ok = snap.Product("Cider")
	require.True(t, ok)
	assert.Equal(t, "Stout", p.Name)

	_, ok = (&Receipts{}).Product("Ale")
	assert.False(t, ok)
}

func TestDeliveredByID(t *testing.T) {
	snap := &Receipts{Receipts: []Receipt{
		{ReceiptID: 1, WasDelivered: true},
		{ReceiptID: 2},
	}}

	m := snap.DeliveredByID()
	assert.Equal(t, map[uint64]bool{1: true, 2: false}, m)
}
