package marketclock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone = "America/New_York"
	DefaultOpen     = "09:30"
	DefaultClose    = "16:00"
)

// Options configure the trading session. Empty fields fall back to NYSE hours.
type Options struct {
	Timezone string
	Open     string
	Close    string
}

// Clock decides whether the market is open. Holidays are not recognised.
type Clock struct {
	loc   *time.Location
	open  time.Duration
	close time.Duration
}

// New builds a Clock from options.
func New(opts Options) (*Clock, error) {
	if opts.Timezone == "" {
		opts.Timezone = DefaultTimezone
	}
	if opts.Open == "" {
		opts.Open = DefaultOpen
	}
	if opts.Close == "" {
		opts.Close = DefaultClose
	}

	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone %q: %w", opts.Timezone, err)
	}

	open, err := parseClock(opts.Open)
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	closeAt, err := parseClock(opts.Close)
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("market close %s must be after open %s", opts.Close, opts.Open)
	}

	return &Clock{loc: loc, open: open, close: closeAt}, nil
}

// Location returns the reference trading timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// IsOpen reports whether now falls on a weekday inside [open, close].
func (c *Clock) IsOpen(now time.Time) bool {
	local := now.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	// wall-clock offset, so DST transition days keep their nominal session
	wall := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return wall >= c.open && wall <= c.close
}

func parseClock(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
