// Command dispenserd runs the fulfillment controller of one vending point:
// it watches the point's on-chain receipts account, pours newly paid orders,
// acknowledges delivery back to the ledger, and keeps the status display in
// sync.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/solanabar/dispenser/internal/config"
	"github.com/solanabar/dispenser/internal/controller"
	"github.com/solanabar/dispenser/internal/dispense"
	"github.com/solanabar/dispenser/internal/ledger"
	"github.com/solanabar/dispenser/internal/ops"
	"github.com/solanabar/dispenser/internal/reconcile"
	"github.com/solanabar/dispenser/internal/rig"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("controller exited", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) error {
	signer, err := loadSigner(cfg.PrivateKey, logger)
	if err != nil {
		return err
	}

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return err
	}

	client, err := ledger.NewClient(ledger.Config{
		RPCURL:    cfg.RPCURL,
		WSURL:     cfg.WSURL,
		ProgramID: programID,
		Signer:    signer,
		StoreName: cfg.StoreName,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("starting fulfillment controller",
		zap.String("store", cfg.StoreName),
		zap.String("product", cfg.ProductName),
		zap.String("store_account", client.StorePDA().String()),
		zap.String("signer", client.Signer().String()),
		zap.Bool("simulated", cfg.SimulateHardware))

	point, err := buildRig(cfg, logger)
	if err != nil {
		return err
	}

	acked := reconcile.NewAckSet()
	seq := dispense.NewSequencer(point, client, acked, logger)
	ctrl := controller.New(controller.Config{
		StoreName:       cfg.StoreName,
		ProductName:     cfg.ProductName,
		CurrencyLabel:   cfg.CurrencyLabel,
		RefreshInterval: cfg.RefreshInterval,
	}, client, point, seq, acked, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OpsAddr != "" {
		srv := ops.NewServer(ctrl, logger)
		go func() {
			if err := srv.Start(cfg.OpsAddr); err != nil {
				logger.Error("ops server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops server shutdown", zap.Error(err))
			}
		}()
	}

	// Run puts the rig to rest on every exit path before returning.
	return ctrl.Run(ctx)
}

func loadSigner(raw string, logger *zap.Logger) (solana.PrivateKey, error) {
	if raw == "" {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, err
		}
		logger.Warn("no PRIVATE_KEY configured, using an ephemeral key; acknowledgments will not land",
			zap.String("pubkey", key.PublicKey().String()))
		return key, nil
	}
	return ledger.ParsePrivateKey(raw)
}

func buildRig(cfg config.Config, logger *zap.Logger) (rig.Rig, error) {
	if cfg.SimulateHardware {
		return rig.NewSim(cfg.PourDuration, logger), nil
	}
	return rig.NewGPIO(rig.GPIOConfig{
		ServoPin: cfg.ServoPin,
		CuePin:   cfg.CuePin,
		Dwell:    cfg.PourDuration,
	}, logger)
}
