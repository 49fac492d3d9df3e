package rig

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sim is the stand-in rig for development machines and tests. It preserves
// the call contract of the hardware rig, including the dwell timing, while
// recording every call so behavior can be asserted without peripherals.
type Sim struct {
	log   *zap.Logger
	dwell time.Duration

	mu         sync.Mutex
	dispenses  int
	cues       int
	flashes    int
	rests      int
	lastStatus Status
	rendered   bool

	// DispenseErr, when set, is returned by Dispense to exercise the
	// hardware-failure path.
	DispenseErr error
	// CueErr, when set, is returned by PlayCue.
	CueErr error
}

// NewSim returns a simulated rig with the given pour dwell time.
func NewSim(dwell time.Duration, log *zap.Logger) *Sim {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sim{log: log.Named("sim-rig"), dwell: dwell}
}

func (s *Sim) Dispense(ctx context.Context) error {
	s.mu.Lock()
	err := s.DispenseErr
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Info("simulated pour", zap.Duration("dwell", s.dwell))
	// The pour runs to completion once started, same as the hardware.
	time.Sleep(s.dwell)

	s.mu.Lock()
	s.dispenses++
	s.mu.Unlock()
	return nil
}

func (s *Sim) PlayCue(ctx context.Context) error {
	s.mu.Lock()
	err := s.CueErr
	if err == nil {
		s.cues++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.log.Info("simulated cue")
	return nil
}

func (s *Sim) Render(st Status) error {
	s.mu.Lock()
	s.lastStatus = st
	s.rendered = true
	s.mu.Unlock()
	s.log.Debug("simulated render",
		zap.String("store", st.Store),
		zap.String("product", st.Product),
		zap.String("price", st.Price))
	return nil
}

func (s *Sim) Flash(ctx context.Context) error {
	s.mu.Lock()
	s.flashes++
	s.mu.Unlock()
	return nil
}

func (s *Sim) Rest() error {
	s.mu.Lock()
	s.rests++
	s.mu.Unlock()
	s.log.Info("simulated rig at rest")
	return nil
}

// Dispenses returns how many pours completed.
func (s *Sim) Dispenses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispenses
}

// Cues returns how many confirmation cues played.
func (s *Sim) Cues() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cues
}

// Flashes returns how many display flashes ran.
func (s *Sim) Flashes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flashes
}

// Rests returns how many times the rig was put to rest.
func (s *Sim) Rests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rests
}

// LastStatus returns the most recently rendered status and whether anything
// has been rendered yet.
func (s *Sim) LastStatus() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatus, s.rendered
}

var _ Rig = (*Sim)(nil)
