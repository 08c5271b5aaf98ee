package availability

import (
	"fmt"
	"time"
)

// Defaults for rooms without a schedule configuration. The close bound is exclusive, so the
// last generated start is 18:00.
var (
	DefaultOpen     = MustParseClock("08:00")
	DefaultClose    = MustParseClock("18:30")
	DefaultInterval = 30 * time.Minute
)

// Config is a room's bookable window: slots start at Open and every Interval after it, strictly
// before Close.
type Config struct {
	Open     Clock
	Close    Clock
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Open: DefaultOpen, Close: DefaultClose, Interval: DefaultInterval}
}

func NewConfig(open, close string, intervalMinutes int) (Config, error) {
	o, err := ParseClock(open)
	if err != nil {
		return Config{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Config{}, err
	}
	if intervalMinutes <= 0 || intervalMinutes > minutesPerDay {
		return Config{}, ErrInvalidInterval
	}
	cfg := Config{Open: o, Close: c, Interval: time.Duration(intervalMinutes) * time.Minute}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Open < 0 || c.Open >= minutesPerDay || c.Close < 0 || c.Close > minutesPerDay {
		return ErrInvalidClock
	}
	if c.Open >= c.Close {
		return fmt.Errorf("%w (%s >= %s)", ErrInvalidWindow, c.Open, c.Close)
	}
	if c.Interval < time.Minute || c.Interval > minutesPerDay*time.Minute || c.Interval%time.Minute != 0 {
		return ErrInvalidInterval
	}
	return nil
}

// Clocks returns the slot start times of the window in ascending order.
func (c Config) Clocks() []Clock {
	if c.Validate() != nil {
		return nil
	}
	step := Clock(c.Interval / time.Minute)
	out := make([]Clock, 0, int(c.Close-c.Open)/int(step)+1)
	for t := c.Open; t < c.Close; t += step {
		out = append(out, t)
	}
	return out
}

// Contains reports whether t is one of the window's slot starts.
func (c Config) Contains(t Clock) bool {
	if c.Validate() != nil || t < c.Open || t >= c.Close {
		return false
	}
	step := Clock(c.Interval / time.Minute)
	return (t-c.Open)%step == 0
}

// GenerateSlots emits open, open+interval, ... while the slot start is before close. The
// closing time is never a bookable start and no short trailing slot is produced.
func GenerateSlots(open, close string, intervalMinutes int) ([]string, error) {
	cfg, err := NewConfig(open, close, intervalMinutes)
	if err != nil {
		return nil, err
	}
	return formatClocks(cfg.Clocks()), nil
}

// SlotsFor generates slots for a room configuration, falling back to the default window when the
// room has none.
func SlotsFor(cfg *Config) []string {
	if cfg == nil {
		return formatClocks(DefaultConfig().Clocks())
	}
	return formatClocks(cfg.Clocks())
}

func formatClocks(clocks []Clock) []string {
	out := make([]string, 0, len(clocks))
	for _, c := range clocks {
		out = append(out, c.String())
	}
	return out
}
