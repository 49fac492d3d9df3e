// Package dispense executes physical fulfillment, one order at a time.
package dispense

import (
	"context"
	"errors"
	"sync/atomic"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solanabar/dispenser/internal/ledger"
	"github.com/solanabar/dispenser/internal/reconcile"
	"github.com/solanabar/dispenser/internal/rig"
)

// Acker submits the delivery acknowledgment for a receipt.
type Acker interface {
	MarkDelivered(ctx context.Context, receiptID uint64) (solana.Signature, error)
}

// State of the sequencer, observable for the operator surface.
type State int32

const (
	// StateIdle means no dispense is in flight.
	StateIdle State = iota
	// StatePouring means the actuator sequence is running.
	StatePouring
	// StateAcking means the pour succeeded and the acknowledgment is being
	// submitted.
	StateAcking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePouring:
		return "pouring"
	case StateAcking:
		return "acking"
	default:
		return "unknown"
	}
}

// Sequencer pours at most one order at a time. The actuator is a single
// shared mechanism, so ProcessNext is a strict single-flight operation: a
// call arriving while a job is in flight returns immediately.
//
// Known trade-off: a restart between the physical pour and the landed
// acknowledgment re-pours that order, because the ledger's delivered flag is
// the only durable record. There is deliberately no local journal bridging
// that gap.
type Sequencer struct {
	rig   rig.Rig
	acker Acker
	acked *reconcile.AckSet
	log   *zap.Logger

	state atomic.Int32
}

// NewSequencer wires the sequencer to its actuator and ledger writer.
func NewSequencer(r rig.Rig, acker Acker, acked *reconcile.AckSet, log *zap.Logger) *Sequencer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sequencer{rig: r, acker: acker, acked: acked, log: log.Named("dispense")}
}

// State returns the current sequencer state.
func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// Outcome is the terminal result of a ProcessNext call.
type Outcome int

const (
	// OutcomeNone means no job ran: the queue was empty or another job was
	// already in flight.
	OutcomeNone Outcome = iota
	// OutcomeAbandoned means a job ran but did not reach a landed
	// acknowledgment. The order is still undelivered on the ledger; it is
	// deliberately not retried in-process and waits for the next
	// reconciliation pass.
	OutcomeAbandoned
	// OutcomeFulfilled means the pour completed and the acknowledgment
	// landed.
	OutcomeFulfilled
)

// ProcessNext takes the oldest pending order and runs it to a terminal
// outcome. Only one order is processed per call; the rest of the queue waits
// for the next reconciliation pass, which throttles the mechanism to the
// cadence of real ledger events.
//
// Outcomes:
//   - pour fails: logged, no acknowledgment, OutcomeAbandoned; the order is
//     still undelivered on the ledger and will be offered again.
//   - acknowledgment fails: logged, OutcomeAbandoned; the next
//     reconciliation retries, since the delivered flag is still false.
//     Neither the pour nor the write is repeated in-process.
//   - acknowledgment succeeds: OutcomeFulfilled; the id goes into the acked
//     set so a stale replayed snapshot cannot resurrect the order.
func (s *Sequencer) ProcessNext(ctx context.Context, pending []ledger.Receipt) Outcome {
	if len(pending) == 0 {
		return OutcomeNone
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StatePouring)) {
		return OutcomeNone
	}
	defer s.state.Store(int32(StateIdle))

	order := pending[0]
	log := s.log.With(
		zap.String("job_id", uuid.NewString()),
		zap.Uint64("receipt_id", order.ReceiptID),
		zap.String("product", order.ProductName),
		zap.String("buyer", order.Buyer.String()),
	)
	log.Info("pouring", zap.Int("queued", len(pending)))

	if err := s.rig.Dispense(ctx); err != nil {
		// No acknowledgment on a failed pour: the order stays pending for a
		// human to resolve or a later pass to retry.
		log.Error("pour failed, order left pending", zap.Error(err))
		return OutcomeAbandoned
	}

	if err := s.rig.PlayCue(ctx); err != nil {
		log.Warn("confirmation cue failed", zap.Error(err))
	}

	s.state.Store(int32(StateAcking))
	sig, err := s.acker.MarkDelivered(ctx, order.ReceiptID)
	if err != nil {
		if errors.Is(err, ledger.ErrRejected) {
			log.Error("acknowledgment rejected, manual intervention required", zap.Error(err))
		} else {
			log.Warn("acknowledgment failed, will retry on next pass", zap.Error(err))
		}
		return OutcomeAbandoned
	}

	s.acked.Add(order.ReceiptID)
	log.Info("order fulfilled", zap.String("signature", sig.String()))
	return OutcomeFulfilled
}
