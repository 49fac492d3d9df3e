// Package controller owns the fulfillment session of one vending point: it
// keeps a live feed on the store's ledger account, reconciles pending orders
// out of each snapshot, hands them one at a time to the dispense sequencer,
// and keeps the status display in step with ledger state.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solanabar/dispenser/internal/dispense"
	"github.com/solanabar/dispenser/internal/ledger"
	"github.com/solanabar/dispenser/internal/reconcile"
	"github.com/solanabar/dispenser/internal/rig"
)

// LedgerClient is the slice of the ledger client the controller consumes.
type LedgerClient interface {
	FetchReceipts(ctx context.Context) (*ledger.Receipts, error)
	Subscribe(ctx context.Context) (ledger.Subscription, error)
}

// Config is the controller's slice of the process configuration.
type Config struct {
	StoreName       string
	ProductName     string
	CurrencyLabel   string
	RefreshInterval time.Duration
}

// Controller runs the single consumption loop of a fulfillment point. All
// snapshot handling happens on that one goroutine; the sequencer's
// single-flight guard is the only other concurrency control needed.
type Controller struct {
	cfg    Config
	client LedgerClient
	rig    rig.Rig
	seq    *dispense.Sequencer
	acked  *reconcile.AckSet
	sup    *supervisor
	log    *zap.Logger

	// nudge requests an immediate re-fetch after a dispense so the next
	// queued order is not left waiting a full refresh interval.
	nudge chan struct{}

	mu           sync.Mutex
	provisioned  bool
	lastStatus   rig.Status
	pendingCount int
	totals       uint64
}

// New wires a controller. The acked set is shared with the sequencer so both
// see acknowledgment submissions.
func New(cfg Config, client LedgerClient, r rig.Rig, seq *dispense.Sequencer, acked *reconcile.AckSet, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		cfg:    cfg,
		client: client,
		rig:    r,
		seq:    seq,
		acked:  acked,
		log:    log.Named("controller"),
		nudge:  make(chan struct{}, 1),
	}
	c.sup = newSupervisor(client, c.log)
	return c
}

// Run blocks until ctx is done. On every exit path the subscription is torn
// down and the rig is put to rest; that cleanup is the shutdown contract, not
// best effort.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		c.sup.teardown()
		if err := c.rig.Rest(); err != nil {
			c.log.Error("failed to rest rig on shutdown", zap.Error(err))
		}
	}()

	// Neutral screen until the first snapshot lands.
	c.render(nil)
	c.sync(ctx)

	refresh := time.NewTicker(c.cfg.RefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("shutting down")
			return nil
		case snap := <-c.sup.updates:
			c.handle(ctx, snap, true)
		case <-c.sup.lost:
			c.log.Warn("subscription lost, resyncing")
			c.sync(ctx)
		case <-c.nudge:
			c.sync(ctx)
		case <-refresh.C:
			c.sync(ctx)
		}
	}
}

// sync does a full snapshot fetch and, when the store is provisioned, makes
// sure the push subscription is up. A missing account is a steady state: the
// display goes neutral and no subscription is held until the store appears.
func (c *Controller) sync(ctx context.Context) {
	snap, err := c.client.FetchReceipts(ctx)
	switch {
	case errors.Is(err, ledger.ErrNotProvisioned):
		c.setProvisioned(false)
		c.sup.teardown()
		c.render(nil)
		return
	case err != nil:
		c.log.Warn("snapshot fetch failed", zap.Error(err))
		return
	}

	c.setProvisioned(true)
	c.handle(ctx, snap, false)
	if err := c.sup.ensure(ctx); err != nil {
		c.log.Warn("could not establish subscription, periodic fetch continues", zap.Error(err))
	}
}

// handle is the reconciliation pass for one snapshot: prune the acked set to
// the live window, derive the pending queue, run at most one dispense, then
// bring the display up to date.
func (c *Controller) handle(ctx context.Context, snap *ledger.Receipts, flash bool) {
	c.acked.Prune(snap.DeliveredByID())
	pending := reconcile.Pending(snap, c.cfg.ProductName, c.acked)

	c.mu.Lock()
	c.pendingCount = len(pending)
	c.totals = snap.TotalPurchases
	c.mu.Unlock()

	if c.seq.ProcessNext(ctx, pending) == dispense.OutcomeFulfilled {
		// More orders may be queued behind the fulfilled one; pull a fresh
		// snapshot soon rather than waiting out the refresh interval. An
		// abandoned job never nudges: its order stays pending until the next
		// push, loss resync, or refresh tick.
		select {
		case c.nudge <- struct{}{}:
		default:
		}
	}

	c.render(snap)
	if flash {
		if err := c.rig.Flash(ctx); err != nil {
			c.log.Warn("display flash failed", zap.Error(err))
		}
	}
}

// render redraws the status surface from a snapshot; nil renders the neutral
// not-yet-provisioned screen.
func (c *Controller) render(snap *ledger.Receipts) {
	st := rig.Status{Store: c.cfg.StoreName, Product: c.cfg.ProductName}
	if snap != nil {
		if p, ok := snap.Product(c.cfg.ProductName); ok {
			st.Product = p.Name
			st.Price = p.DisplayPrice(c.cfg.CurrencyLabel)
		}
	}

	c.mu.Lock()
	c.lastStatus = st
	c.mu.Unlock()

	if err := c.rig.Render(st); err != nil {
		c.log.Warn("status render failed", zap.Error(err))
	}
}

func (c *Controller) setProvisioned(v bool) {
	c.mu.Lock()
	c.provisioned = v
	c.mu.Unlock()
}

// Snapshot is the operator-facing view of the session.
type Snapshot struct {
	Store          string `json:"store"`
	Product        string `json:"product"`
	Price          string `json:"price"`
	Provisioned    bool   `json:"provisioned"`
	Subscribed     bool   `json:"subscribed"`
	Sequencer      string `json:"sequencer"`
	PendingCount   int    `json:"pending_count"`
	TotalPurchases uint64 `json:"total_purchases"`
	InFlightAcks   int    `json:"in_flight_acks"`
}

// Status reports the current session state for the ops surface.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Store:          c.cfg.StoreName,
		Product:        c.lastStatus.Product,
		Price:          c.lastStatus.Price,
		Provisioned:    c.provisioned,
		Subscribed:     c.sup.subscribed(),
		Sequencer:      c.seq.State().String(),
		PendingCount:   c.pendingCount,
		TotalPurchases: c.totals,
		InFlightAcks:   c.acked.Len(),
	}
}
