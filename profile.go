package lrmp

import (
	"fmt"

	"github.com/pion/logging"
)

const (
	rcvDropTime    = 60000 /* millis */
	maxSrc         = 128
	pruneInterval  = 10000 /* millis */
	minRepairDelay = 20    /* millis */
	defaultRTT     = 100   /* millis */
)

// Profile holds the policy knobs of a recovery engine. Times are in
// milliseconds.
type Profile struct {
	// RcvDropTime is how long an entity may stay silent before it is pruned.
	RcvDropTime int
	// MaxEntities is the table size above which pruning is forced.
	MaxEntities int
	// PruneInterval is the period of the background prune.
	PruneInterval int
	// MinRepairDelay is the lower bound of the default repair delay.
	MinRepairDelay int
	// DefaultRTT is assumed for reporters whose rtt is unknown.
	DefaultRTT int

	// RepairDelay, if set, overrides the delay before a repair is sent.
	RepairDelay func(source, reporter *Entity) int

	LoggerFactory logging.LoggerFactory
}

func NewProfile() *Profile {
	p := Profile{
		RcvDropTime:    rcvDropTime,
		MaxEntities:    maxSrc,
		PruneInterval:  pruneInterval,
		MinRepairDelay: minRepairDelay,
		DefaultRTT:     defaultRTT,
	}
	return &p
}

func (p *Profile) validate() error {
	switch {
	case p.RcvDropTime <= 0:
		return fmt.Errorf("%w: rcv drop time %d", ErrBadProfile, p.RcvDropTime)
	case p.MaxEntities <= 0:
		return fmt.Errorf("%w: max entities %d", ErrBadProfile, p.MaxEntities)
	case p.PruneInterval <= 0:
		return fmt.Errorf("%w: prune interval %d", ErrBadProfile, p.PruneInterval)
	case p.MinRepairDelay < 0:
		return fmt.Errorf("%w: min repair delay %d", ErrBadProfile, p.MinRepairDelay)
	case p.DefaultRTT < 0:
		return fmt.Errorf("%w: default rtt %d", ErrBadProfile, p.DefaultRTT)
	}
	return nil
}

/*
 * the default repair timer is randomized in 0.5 to 2 times the rtt to the
 * reporter, bounded below by MinRepairDelay.
 */
func (p *Profile) repairDelay(source, reporter *Entity) int {
	if p.RepairDelay != nil {
		d := p.RepairDelay(source, reporter)
		if d < 0 {
			d = 0
		}
		return d
	}

	d := reporter.RTT()

	if d == UnknownRTT {
		d = p.DefaultRTT
	}
	if d < p.MinRepairDelay {
		d = p.MinRepairDelay
	}

	return randomize(d << 1)
}
