package rig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim_RecordsCalls(t *testing.T) {
	s := NewSim(0, nil)
	ctx := context.Background()

	require.NoError(t, s.Dispense(ctx))
	require.NoError(t, s.PlayCue(ctx))
	require.NoError(t, s.Flash(ctx))
	require.NoError(t, s.Rest())

	assert.Equal(t, 1, s.Dispenses())
	assert.Equal(t, 1, s.Cues())
	assert.Equal(t, 1, s.Flashes())
	assert.Equal(t, 1, s.Rests())
}

func TestSim_DispenseHonorsDwell(t *testing.T) {
	dwell := 30 * time.Millisecond
	s := NewSim(dwell, nil)

	start := time.Now()
	require.NoError(t, s.Dispense(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), dwell, "stand-in keeps the timing contract")
}

func TestSim_InjectedFailures(t *testing.T) {
	s := NewSim(0, nil)
	s.DispenseErr = errors.New("jam")
	s.CueErr = errors.New("mute")

	assert.Error(t, s.Dispense(context.Background()))
	assert.Zero(t, s.Dispenses())
	assert.Error(t, s.PlayCue(context.Background()))
	assert.Zero(t, s.Cues())
}

func TestSim_RenderTracksLastStatus(t *testing.T) {
	s := NewSim(0, nil)

	_, ok := s.LastStatus()
	assert.False(t, ok, "nothing rendered yet")

	st := Status{Store: "jonasbar", Product: "Ale", Price: "0.5 USDC"}
	require.NoError(t, s.Render(st))

	got, ok := s.LastStatus()
	require.True(t, ok)
	assert.Equal(t, st, got)

	// Idempotent redraw, including the neutral screen.
	require.NoError(t, s.Render(Status{}))
	got, _ = s.LastStatus()
	assert.Equal(t, Status{}, got)
}
