package amm

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultFeeRate is the proportional swap fee kept by the pool.
	DefaultFeeRate = 0.003
	// DefaultRetainFraction is the share of reserves left behind by a rug pull.
	DefaultRetainFraction = 0.05
)

// DrainMode selects which reserves a rug pull removes.
type DrainMode string

const (
	// DrainBase removes only the base reserve, collapsing the token price.
	DrainBase DrainMode = "base"
	// DrainProportional removes the same fraction of both reserves. Spot price is unchanged.
	DrainProportional DrainMode = "proportional"
)

// ParseDrainMode validates a drain mode string.
func ParseDrainMode(s string) (DrainMode, error) {
	switch DrainMode(s) {
	case DrainBase, DrainProportional:
		return DrainMode(s), nil
	default:
		return "", fmt.Errorf("unknown drain mode: %s", s)
	}
}

// Config controls engine constants. A nil FeeRate selects DefaultFeeRate.
type Config struct {
	FeeRate        *float64
	RetainFraction float64
	DrainMode      DrainMode
	Now            func() time.Time
	NewID          func() string
}

// Engine prices swaps and computes pool transitions. It never mutates its inputs.
type Engine struct {
	cfg     Config
	feeRate float64
}

// NewEngine validates cfg and fills defaults for unset values.
func NewEngine(cfg Config) (*Engine, error) {
	fee := DefaultFeeRate
	if cfg.FeeRate != nil {
		fee = *cfg.FeeRate
	}
	if cfg.RetainFraction == 0 {
		cfg.RetainFraction = DefaultRetainFraction
	}
	if cfg.DrainMode == "" {
		cfg.DrainMode = DrainBase
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	if !isFinite(fee) || fee < 0 || fee >= 1 {
		return nil, fmt.Errorf("%w: fee rate must be in [0, 1)", ErrInvalidInput)
	}
	if !isFinite(cfg.RetainFraction) || cfg.RetainFraction <= 0 || cfg.RetainFraction >= 1 {
		return nil, fmt.Errorf("%w: retain fraction must be in (0, 1)", ErrInvalidInput)
	}
	if _, err := ParseDrainMode(string(cfg.DrainMode)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &Engine{cfg: cfg, feeRate: fee}, nil
}

// FeeRate returns the configured swap fee.
func (e *Engine) FeeRate() float64 { return e.feeRate }

// RetainFraction returns the share of reserves kept after a rug pull.
func (e *Engine) RetainFraction() float64 { return e.cfg.RetainFraction }

// DrainMode returns the configured rug-pull drain mode.
func (e *Engine) DrainMode() DrainMode { return e.cfg.DrainMode }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func geometricMean(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Sqrt(a * b)
}
