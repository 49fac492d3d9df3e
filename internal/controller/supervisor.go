package controller

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/solanabar/dispenser/internal/ledger"
)

type subState int

const (
	stateUnsubscribed subState = iota
	stateSubscribing
	stateSubscribed
)

// supervisor owns the subscription handle. At most one live subscription
// exists at any time: ensure is re-entrant and a second call while one is
// establishing or established is a no-op. The updates channel outlives
// individual subscriptions so the consumption loop never has to re-plumb.
type supervisor struct {
	client LedgerClient
	log    *zap.Logger

	updates chan *ledger.Receipts
	lost    chan struct{}

	mu    sync.Mutex
	sub   ledger.Subscription
	state subState
}

func newSupervisor(client LedgerClient, log *zap.Logger) *supervisor {
	s := &supervisor{
		client:  client,
		log:     log.Named("sub"),
		updates: make(chan *ledger.Receipts, 1),
		lost:    make(chan struct{}, 1),
	}
	return s
}

// ensure establishes the subscription if there is none, retrying with
// exponential backoff for a bounded number of attempts. Callers only invoke
// it once the store account is known to exist.
func (s *supervisor) ensure(ctx context.Context) error {
	s.mu.Lock()
	if s.state != stateUnsubscribed {
		s.mu.Unlock()
		return nil
	}
	s.state = stateSubscribing
	s.mu.Unlock()

	op := func() error {
		sub, err := s.client.Subscribe(ctx)
		if err != nil {
			s.log.Warn("subscribe attempt failed", zap.Error(err))
			return err
		}
		s.mu.Lock()
		s.sub = sub
		s.state = stateSubscribed
		s.mu.Unlock()
		go s.pump(sub)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 5), ctx)); err != nil {
		s.mu.Lock()
		s.state = stateUnsubscribed
		s.mu.Unlock()
		return err
	}
	return nil
}

// pump forwards snapshots from one subscription into the persistent updates
// channel, latest-wins. When the subscription dies it clears the handle (if
// still current) and signals loss so the loop can re-establish.
func (s *supervisor) pump(sub ledger.Subscription) {
	for snap := range sub.Updates() {
		for {
			select {
			case s.updates <- snap:
			default:
				select {
				case <-s.updates:
				default:
				}
				continue
			}
			break
		}
	}

	if err := sub.Err(); err != nil {
		s.log.Warn("subscription ended", zap.Error(err))
	}
	sub.Close()

	s.mu.Lock()
	if s.sub == sub {
		s.sub = nil
		s.state = stateUnsubscribed
		select {
		case s.lost <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}

// teardown releases the current subscription, if any. Idempotent; runs on
// every controller exit path.
func (s *supervisor) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	s.state = stateUnsubscribed
}

func (s *supervisor) subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateSubscribed
}
