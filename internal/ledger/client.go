package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	markDeliveredInstruction = "mark_as_delivered"

	fetchTimeout  = 15 * time.Second
	submitTimeout = 30 * time.Second
)

// Client wraps RPC and websocket access to one store's receipts account.
type Client struct {
	rpc       *rpc.Client
	wsURL     string
	programID solana.PublicKey
	signer    solana.PrivateKey
	storeName string
	storePDA  solana.PublicKey
	log       *zap.Logger
}

// Config carries the ledger endpoints and identity of the fulfillment point.
type Config struct {
	RPCURL    string
	WSURL     string
	ProgramID solana.PublicKey
	Signer    solana.PrivateKey
	StoreName string
}

// NewClient derives the store address and prepares RPC access. It performs no
// network I/O; the first fetch or subscribe does.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.StoreName == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if len(cfg.Signer) == 0 {
		return nil, fmt.Errorf("signer key is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	pda, err := StoreAddress(cfg.ProgramID, cfg.StoreName)
	if err != nil {
		return nil, fmt.Errorf("derive store address: %w", err)
	}

	return &Client{
		rpc:       rpc.New(cfg.RPCURL),
		wsURL:     cfg.WSURL,
		programID: cfg.ProgramID,
		signer:    cfg.Signer,
		storeName: cfg.StoreName,
		storePDA:  pda,
		log:       log.Named("ledger"),
	}, nil
}

// StorePDA returns the derived receipts account address.
func (c *Client) StorePDA() solana.PublicKey {
	return c.storePDA
}

// Signer returns the public key the client acknowledges deliveries with.
func (c *Client) Signer() solana.PublicKey {
	return c.signer.PublicKey()
}

// FetchReceipts reads the full receipts account. A missing account is
// reported as ErrNotProvisioned, which callers treat as a steady state
// rather than a transient failure.
func (c *Client) FetchReceipts(ctx context.Context) (*Receipts, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	res, err := c.rpc.GetAccountInfoWithOpts(ctx, c.storePDA, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrNotProvisioned
		}
		return nil, fmt.Errorf("fetch receipts account: %w", err)
	}
	if res == nil || res.Value == nil {
		return nil, ErrNotProvisioned
	}

	return DecodeReceipts(res.Value.Data.GetBinary())
}

// markDeliveredArgs is the borsh argument layout of mark_as_delivered.
type markDeliveredArgs struct {
	StoreName string
	ReceiptID uint64
}

// MarkDelivered submits the delivery acknowledgment for one receipt and
// returns the transaction signature. The instruction is idempotent on chain,
// so a racing duplicate acknowledgment still lands as success.
func (c *Client) MarkDelivered(ctx context.Context, receiptID uint64) (solana.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	data := new(bytes.Buffer)
	disc := instructionDiscriminator(markDeliveredInstruction)
	data.Write(disc[:])
	if err := bin.NewBorshEncoder(data).Encode(markDeliveredArgs{
		StoreName: c.storeName,
		ReceiptID: receiptID,
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("encode instruction args: %w", err)
	}

	ix := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.Meta(c.storePDA).WRITE(),
			solana.Meta(c.signer.PublicKey()).WRITE().SIGNER(),
		},
		data.Bytes(),
	)

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(c.signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.signer.PublicKey()) {
			return &c.signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, classifySubmitErr(err)
	}

	c.log.Info("delivery acknowledged",
		zap.Uint64("receipt_id", receiptID),
		zap.String("signature", sig.String()))
	return sig, nil
}

// ParsePrivateKey accepts either a base58-encoded key or the JSON byte-array
// form produced by solana-keygen, which is what ships on the device's boot
// partition.
func ParsePrivateKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("private key is empty")
	}
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("invalid key byte array: %w", err)
		}
		key := make(solana.PrivateKey, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("invalid key byte at index %d", i)
			}
			key[i] = byte(v)
		}
		if len(key) != 64 {
			return nil, fmt.Errorf("invalid key length %d, want 64", len(key))
		}
		return key, nil
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}
