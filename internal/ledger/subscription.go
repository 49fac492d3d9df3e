package ledger

import (
	"context"
	"fmt"
	"sync"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"
)

// Subscription is a live feed of decoded snapshots of the receipts account.
// Updates is closed when the feed dies; Err reports why. Close is idempotent
// and safe to call on an already-dead subscription.
type Subscription interface {
	Updates() <-chan *Receipts
	Err() error
	Close()
}

type accountSubscription struct {
	updates chan *Receipts
	sub     *ws.AccountSubscription
	conn    *ws.Client
	log     *zap.Logger

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

// Subscribe opens a websocket subscription on the receipts account at
// processed commitment, favoring latency over strict ordering the same way
// the checkout side does. Each account mutation is decoded and delivered
// latest-wins on a bounded channel; malformed notifications are dropped and
// the account's next mutation or a periodic re-fetch heals the gap.
func (c *Client) Subscribe(ctx context.Context) (Subscription, error) {
	conn, err := ws.Connect(ctx, c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}

	sub, err := conn.AccountSubscribeWithOpts(c.storePDA, rpc.CommitmentProcessed, solana.EncodingBase64)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to store account: %w", err)
	}

	s := &accountSubscription{
		updates: make(chan *Receipts, 1),
		sub:     sub,
		conn:    conn,
		log:     c.log.Named("sub"),
	}
	go s.pump(ctx)

	c.log.Info("subscribed to store account", zap.String("account", c.storePDA.String()))
	return s, nil
}

func (s *accountSubscription) pump(ctx context.Context) {
	defer close(s.updates)
	for {
		res, err := s.sub.Recv(ctx)
		if err != nil {
			s.setErr(err)
			return
		}
		if res == nil {
			s.setErr(fmt.Errorf("subscription stream ended"))
			return
		}

		snap, err := DecodeReceipts(res.Value.Data.GetBinary())
		if err != nil {
			// Drop the notification; state is re-read on the next one.
			s.log.Warn("dropping malformed account notification", zap.Error(err))
			continue
		}
		s.push(snap)
	}
}

// push delivers latest-wins: a stale undelivered snapshot is displaced
// rather than blocking the feed behind a slow consumer.
func (s *accountSubscription) push(snap *Receipts) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func (s *accountSubscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *accountSubscription) Updates() <-chan *Receipts {
	return s.updates
}

func (s *accountSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *accountSubscription) Close() {
	s.closeOnce.Do(func() {
		s.sub.Unsubscribe()
		s.conn.Close()
	})
}
