// Package ledger reads and writes the on-chain receipts account of a single
// vending point. The account is owned by the let_me_buy program; this package
// only consumes its read/subscribe interfaces and submits the one write the
// controller is allowed to make, the delivery acknowledgment.
package ledger

import (
	solana "github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the mainnet deployment of the let_me_buy program.
const DefaultProgramID = "BUYuxRfhCMWavaUWxhGtPP3ksKEDZxCD5gzknk3JfAya"

// receiptsSeed is the PDA seed prefix for a store's receipts account.
const receiptsSeed = "receipts"

// Receipt is one purchase recorded on the ledger. Receipt ids are monotonic
// but the receipts vector is a rotating log: once an id rotates out it is
// gone for good, so ids are only meaningful within the live window.
type Receipt struct {
	ReceiptID    uint64
	Buyer        solana.PublicKey
	WasDelivered bool
	Price        uint64
	Timestamp    int64
	TableNumber  uint8
	ProductName  string
}

// Product is a purchasable item registered on the store account. The
// controller uses it only to render the price on the status display.
type Product struct {
	Price    uint64
	Decimals uint8
	Mint     solana.PublicKey
	Name     string
}

// Receipts is the full decoded state of a store's receipts account.
type Receipts struct {
	Receipts          []Receipt
	TotalPurchases    uint64
	StoreName         string
	Authority         solana.PublicKey
	Products          []Product
	TelegramChannelID string
	Bump              uint8
}

// Product returns the product with the given name, falling back to the first
// registered product when there is no match. The second return is false when
// the account has no products at all.
func (r *Receipts) Product(name string) (Product, bool) {
	for _, p := range r.Products {
		if p.Name == name {
			return p, true
		}
	}
	if len(r.Products) > 0 {
		return r.Products[0], true
	}
	return Product{}, false
}

// DeliveredByID maps the receipt ids currently present in the rotating log
// to their delivered flag.
func (r *Receipts) DeliveredByID() map[uint64]bool {
	ids := make(map[uint64]bool, len(r.Receipts))
	for _, rec := range r.Receipts {
		ids[rec.ReceiptID] = rec.WasDelivered
	}
	return ids
}

// StoreAddress derives the receipts PDA for a store name. Store names are
// lowercased before hashing so the derivation agrees with the checkout app.
func StoreAddress(programID solana.PublicKey, storeName string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(receiptsSeed), []byte(storeName)},
		programID,
	)
	return addr, err
}
