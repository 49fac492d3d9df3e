package rig

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

const (
	servoPeriod = 20 * time.Millisecond
	servoFreq   = 50 * physic.Hertz

	displayW = 128
	displayH = 32
)

// GPIOConfig names the pins and timing of the physical rig.
type GPIOConfig struct {
	// ServoPin drives the pour actuator, e.g. "GPIO18".
	ServoPin string
	// CuePin triggers the mp3 module (active low), e.g. "GPIO23".
	CuePin string
	// Dwell is how long the actuator is held in the press position.
	Dwell time.Duration
}

// GPIO is the hardware rig: a PWM servo pressing the dispenser button, an
// active-low trigger to the sound module, and a 128x32 i2c OLED.
type GPIO struct {
	cfg   GPIOConfig
	log   *zap.Logger
	servo gpio.PinIO
	cue   gpio.PinIO
	bus   i2c.BusCloser
	oled  *ssd1306.Dev

	mu     sync.Mutex
	rested bool
}

// NewGPIO initializes the host drivers, claims the pins, and brings the
// display up blank. The servo is driven to its rest position immediately so
// the mechanism starts from a known state.
func NewGPIO(cfg GPIOConfig, log *zap.Logger) (*GPIO, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	servo := gpioreg.ByName(cfg.ServoPin)
	if servo == nil {
		return nil, fmt.Errorf("servo pin %q not found", cfg.ServoPin)
	}
	cue := gpioreg.ByName(cfg.CuePin)
	if cue == nil {
		return nil, fmt.Errorf("cue pin %q not found", cfg.CuePin)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	oled, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: displayW, H: displayH})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init oled: %w", err)
	}

	g := &GPIO{cfg: cfg, log: log.Named("rig"), servo: servo, cue: cue, bus: bus, oled: oled}

	if err := g.servoWrite(restPulse); err != nil {
		bus.Close()
		return nil, fmt.Errorf("rest servo: %w", err)
	}
	// Trigger is active low; park it high.
	if err := g.cue.Out(gpio.High); err != nil {
		bus.Close()
		return nil, fmt.Errorf("park cue pin: %w", err)
	}

	g.log.Info("hardware rig ready",
		zap.String("servo", cfg.ServoPin),
		zap.String("cue", cfg.CuePin),
		zap.Duration("dwell", cfg.Dwell))
	return g, nil
}

// servoWrite drives the servo PWM to the given pulse width.
func (g *GPIO) servoWrite(pulse time.Duration) error {
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(servoPeriod))
	return g.servo.PWM(duty, servoFreq)
}

// Dispense presses the button, holds for the configured dwell, and releases.
// The sequence runs to completion once started; ctx is ignored on purpose so
// the mechanism is never abandoned mid-travel.
func (g *GPIO) Dispense(_ context.Context) error {
	if err := g.servoWrite(pressPulse); err != nil {
		// Try to get back to rest before reporting.
		_ = g.servoWrite(restPulse)
		return fmt.Errorf("press actuator: %w", err)
	}
	time.Sleep(g.cfg.Dwell)
	if err := g.servoWrite(restPulse); err != nil {
		return fmt.Errorf("release actuator: %w", err)
	}
	return nil
}

func (g *GPIO) PlayCue(_ context.Context) error {
	if err := g.cue.Out(gpio.Low); err != nil {
		return fmt.Errorf("trigger cue: %w", err)
	}
	time.Sleep(cueDuration)
	if err := g.cue.Out(gpio.High); err != nil {
		return fmt.Errorf("release cue trigger: %w", err)
	}
	return nil
}

// Render draws the three-line status layout with the brand mark on both
// sides. An empty status still produces a valid neutral screen.
func (g *GPIO) Render(st Status) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))

	drawMark(img, 15, displayH/2, 6)
	drawMark(img, displayW-15, displayH/2, 6)

	drawCentered(img, st.Store, 9)
	drawCentered(img, st.Product, 20)
	drawCentered(img, st.Price, 31)

	if err := g.oled.Draw(g.oled.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("draw status: %w", err)
	}
	return nil
}

func (g *GPIO) Flash(ctx context.Context) error {
	if err := g.oled.Invert(true); err != nil {
		return fmt.Errorf("invert display: %w", err)
	}
	select {
	case <-time.After(flashDuration):
	case <-ctx.Done():
	}
	if err := g.oled.Invert(false); err != nil {
		return fmt.Errorf("revert display: %w", err)
	}
	return nil
}

// Rest parks the servo, releases the cue trigger, and powers the display
// down. Idempotent; later calls are no-ops.
func (g *GPIO) Rest() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rested {
		return nil
	}
	g.rested = true

	var firstErr error
	if err := g.servoWrite(restPulse); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.cue.Out(gpio.High); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.oled.Halt(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.bus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	g.log.Info("hardware rig at rest")
	return firstErr
}

// drawCentered renders one line of text horizontally centered at baseline y.
func drawCentered(img *image1bit.VerticalLSB, text string, y int) {
	if text == "" {
		return
	}
	w := font.MeasureString(basicfont.Face7x13, text).Ceil()
	x := (displayW - w) / 2
	if x < 0 {
		x = 0
	}
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// drawMark draws the three-bar brand mark centered at (cx, cy).
func drawMark(img *image1bit.VerticalLSB, cx, cy, size int) {
	half := size / 2
	for _, dy := range []int{-half, 0, half} {
		// Each bar is two pixels tall with a one-pixel slant.
		hline(img, cx-half+1, cx+half+2, cy+dy)
		hline(img, cx-half, cx+half+1, cy+dy+1)
	}
}

func hline(img *image1bit.VerticalLSB, x0, x1, y int) {
	if y < 0 || y >= displayH {
		return
	}
	for x := x0; x <= x1; x++ {
		if x >= 0 && x < displayW {
			img.SetBit(x, y, image1bit.On)
		}
	}
}

var _ Rig = (*GPIO)(nil)
