package lrmp

import (
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
)

// Transmitter sends a repair to the session.
type Transmitter interface {
	SendRepair(r *Repair) error
}

// RecoveryConfig configures NewRecovery.
type RecoveryConfig struct {
	// Profile defaults to NewProfile().
	Profile *Profile
	// Timer is the shared timer service. Required.
	Timer *TimerService
	// Transmitter sends the repairs. Required.
	Transmitter Transmitter
	// LocalID is the id of the local entity; 0 allocates a random one.
	LocalID   uint32
	LocalAddr *net.UDPAddr
}

// Recovery drives the loss recovery of one session. It owns the entity
// table, the loss table and the resend queue, and serializes every access
// to them, timer callbacks included, through a single mutex.
type Recovery struct {
	mu sync.Mutex

	whoami      *Entity
	profile     Profile
	entities    *EntityTable
	lossTab     *LossTable
	resendQueue *RepairQueue
	timer       *TimerService
	out         Transmitter

	nextRetransmitID int
	pruneTask        *TimerTask
	running          bool
	stats            Stats

	log logging.LeveledLogger
}

func NewRecovery(cfg RecoveryConfig) (*Recovery, error) {
	if cfg.Timer == nil {
		return nil, ErrNoTimer
	}
	if cfg.Transmitter == nil {
		return nil, ErrNoTransmitter
	}

	profile := NewProfile()
	if cfg.Profile != nil {
		/* keep a copy to prevent change by upper layer */
		*profile = *cfg.Profile
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}

	id := cfg.LocalID
	for id == 0 {
		id = AllocateID()
	}

	r := &Recovery{
		whoami:      NewEntity(id, cfg.LocalAddr),
		profile:     *profile,
		entities:    NewEntityTable(),
		lossTab:     NewLossTable(),
		resendQueue: NewRepairQueue(profile.LoggerFactory),
		timer:       cfg.Timer,
		out:         cfg.Transmitter,
		log:         newLogger(profile.LoggerFactory, "lrmp-recovery"),
	}

	r.whoami.SetLastTimeHeard(time.Now())
	r.entities.Add(r.whoami)

	r.log.Debugf("local user=%v", r.whoami)

	return r, nil
}

// WhoAmI returns the local entity.
func (r *Recovery) WhoAmI() *Entity {
	return r.whoami
}

// Start arms the periodic prune of silent entities.
func (r *Recovery) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	task, err := r.timer.Register(r.profile.PruneInterval, TimerHandlerFunc(r.onPruneTimer), nil)
	if err != nil {
		return err
	}

	r.pruneTask = task
	r.running = true

	return nil
}

// Stop cancels every armed timer and drops all outstanding losses and
// pending repairs. Timers already firing find nothing left to do.
func (r *Recovery) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false

	if r.pruneTask != nil {
		r.timer.Cancel(r.pruneTask)
		r.pruneTask = nil
	}

	r.lossTab.ForEach(func(ev *LossEvent) {
		r.timer.Cancel(ev.Timer)
	})
	r.lossTab.Clear()

	r.resendQueue.Clear()
}

// Lookup returns the entity registered under id, or nil.
func (r *Recovery) Lookup(id uint32) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entities.Lookup(id)
}

// Entity returns the entity for a packet heard from id at addr and marks it
// heard. It returns nil when id is bound to another address that is still
// active. An entity that went silent and came back under a new id at the
// same address is re-keyed instead of duplicated.
func (r *Recovery) Entity(id uint32, addr *net.UDPAddr) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	drop := time.Duration(r.profile.RcvDropTime) * time.Millisecond

	s := r.entities.Lookup(id)

	if s != nil {
		if !sameAddress(s.Address(), addr) {
			if s == r.whoami || s.silence(now) < drop {
				return nil
			}

			s.SetAddress(addr)
			s.Reset()
		}
		s.SetLastTimeHeard(now)

		return s
	}

	/*
	 * find duplicate, i.e., at the same net address, because an entity
	 * may rejoined the session.
	 */
	for _, e := range r.entities.Entities() {
		if e != r.whoami && sameAddress(e.Address(), addr) && e.silence(now) >= drop {
			r.entities.Remove(e)
			e.setID(id)
			e.Reset()
			r.add(e, now)
			e.SetLastTimeHeard(now)

			return e
		}
	}

	s = NewEntity(id, addr)
	r.add(s, now)
	s.SetLastTimeHeard(now)

	return s
}

func (r *Recovery) add(e *Entity, now time.Time) {
	if r.entities.Size() > r.profile.MaxEntities {
		for maxSilence := r.profile.RcvDropTime; r.entities.Size() > r.profile.MaxEntities; {
			r.prune(now, maxSilence)

			if maxSilence > 10000 {
				maxSilence -= 10000
			} else {
				break
			}
		}
	}

	r.entities.Add(e)
}

// HandleNack records a loss of seqno from source reported by reporter. The
// first report for a (source, reporter) pair creates a loss event and
// schedules a repair of pkt after the profile's repair delay; it returns the
// new event and true. A repeated report returns the outstanding event and
// false. Reports for a seqno whose repair is already pending share it.
func (r *Recovery) HandleNack(source, reporter *Entity, seqno int64, scope int, pkt *Packet) (*LossEvent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reporter.IncNack()
	r.stats.Nacks++

	if ev := r.lossTab.Lookup(source, reporter); ev != nil {
		r.stats.DuplicateNacks++
		r.log.Tracef("duplicate NACK %v", ev)
		return ev, false, nil
	}

	ev := NewLossEvent(source, reporter)
	ev.Low = seqno
	ev.Scope = scope

	if pending := r.pendingRepair(source, seqno, scope); pending != nil {
		ev.Repair = pending.Repair
		ev.Timer = pending.Timer
		r.lossTab.Add(ev)
		r.log.Debugf("new loss %v joins resend #%d", ev, ev.Repair.RetransmitID)
		return ev, true, nil
	}

	r.nextRetransmitID++
	rep := &Repair{
		Sender:       source,
		Seqno:        seqno,
		Scope:        scope,
		RetransmitID: r.nextRetransmitID,
		Packet:       pkt,
	}

	delay := r.profile.repairDelay(source, reporter)

	task, err := r.timer.Register(delay, TimerHandlerFunc(r.onRepairTimer), ev)
	if err != nil {
		return nil, false, err
	}

	ev.Repair = rep
	ev.Timer = task
	r.lossTab.Add(ev)
	r.resendQueue.Enqueue(rep)
	r.stats.RepairsScheduled++

	r.log.Debugf("new loss %v resend #%d in %dms", ev, rep.RetransmitID, delay)

	return ev, true, nil
}

func (r *Recovery) pendingRepair(source *Entity, seqno int64, scope int) *LossEvent {
	var found *LossEvent
	r.lossTab.ForEach(func(ev *LossEvent) {
		if found != nil || ev.Repair == nil {
			return
		}
		rep := ev.Repair
		if rep.Sender.Equal(source) && rep.Seqno == seqno && rep.Scope == scope && r.resendQueue.Contains(rep) {
			found = ev
		}
	})
	return found
}

// HeardRepair suppresses the local repairs of seqno from sender that a
// repair heard from another host at the given scope already covers. It
// returns the number of repairs cancelled. Their timers stay armed and fire
// as no-ops.
func (r *Recovery) HeardRepair(sender *Entity, seqno int64, scope int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, ev := range r.lossTab.Events() {
		rep := ev.Repair
		if rep == nil || !rep.Sender.Equal(sender) || rep.Seqno != seqno || rep.Scope > scope {
			continue
		}

		if r.resendQueue.Cancel(rep.Sender, rep.RetransmitID, rep.Scope) {
			n++
			r.stats.RepairsSuppressed++
		}

		r.lossTab.Remove(ev)
	}

	if n > 0 {
		r.log.Debugf("suppressed %d repairs of %v #%d", n, sender, seqno)
	}

	return n
}

func (r *Recovery) onRepairTimer(data any, _ time.Time) {
	ev := data.(*LossEvent)

	r.mu.Lock()

	rep := ev.Repair

	if rep == nil || !r.resendQueue.Contains(rep) {
		r.stats.RepairsObsolete++
		r.mu.Unlock()
		r.log.Tracef("resend for %v already served", ev)
		return
	}

	r.resendQueue.Discard(rep)
	r.dropLosses(rep)
	r.stats.RepairsSent++

	r.mu.Unlock()

	r.transmit(rep)
}

// Serve sends every pending repair right away, in sequence order.
func (r *Recovery) Serve() int {
	r.mu.Lock()

	var due []*Repair

	for rep := r.resendQueue.Dequeue(); rep != nil; rep = r.resendQueue.Dequeue() {
		r.lossTab.ForEach(func(ev *LossEvent) {
			if ev.Repair == rep {
				r.timer.Cancel(ev.Timer)
			}
		})
		r.dropLosses(rep)
		r.stats.RepairsSent++
		due = append(due, rep)
	}

	r.mu.Unlock()

	for _, rep := range due {
		r.transmit(rep)
	}

	return len(due)
}

func (r *Recovery) dropLosses(rep *Repair) {
	for _, ev := range r.lossTab.Events() {
		if ev.Repair == rep {
			r.lossTab.Remove(ev)
		}
	}
}

func (r *Recovery) transmit(rep *Repair) {
	if err := r.out.SendRepair(rep); err != nil {
		r.mu.Lock()
		r.stats.SendFailures++
		r.mu.Unlock()

		r.log.Errorf("unable to resend %v #%d: %v", rep.Sender, rep.Seqno, err)
	}
}

// Prune drops the entities silent for at least the profile's drop time,
// together with their outstanding losses. It returns the number dropped.
func (r *Recovery) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.prune(now, r.profile.RcvDropTime)
}

func (r *Recovery) prune(now time.Time, maxSilence int) int {
	drop := time.Duration(maxSilence) * time.Millisecond
	gone := make(map[*Entity]bool)

	n := r.entities.Prune(func(e *Entity) bool {
		if e != r.whoami && e.silence(now) >= drop {
			gone[e] = true
			return true
		}
		return false
	})

	if n == 0 {
		return 0
	}

	for _, ev := range r.lossTab.Events() {
		if !gone[ev.Source] && !gone[ev.Reporter] {
			continue
		}
		r.lossTab.Remove(ev)

		// A repair nobody left is waiting for goes with its last loss.
		if ev.Repair != nil && (gone[ev.Source] || !r.repairWanted(ev.Repair)) {
			r.resendQueue.Discard(ev.Repair)
			r.timer.Cancel(ev.Timer)
		}
	}

	r.stats.Pruned += n
	r.log.Debugf("pruned %d entities, %d left", n, r.entities.Size())

	return n
}

func (r *Recovery) repairWanted(rep *Repair) bool {
	wanted := false
	r.lossTab.ForEach(func(ev *LossEvent) {
		if ev.Repair == rep {
			wanted = true
		}
	})
	return wanted
}

func (r *Recovery) onPruneTimer(_ any, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.prune(t, r.profile.RcvDropTime)

	task, err := r.timer.Register(r.profile.PruneInterval, TimerHandlerFunc(r.onPruneTimer), nil)
	if err != nil {
		r.log.Warnf("prune timer not rearmed: %v", err)
		r.pruneTask = nil
		return
	}
	r.pruneTask = task
}

// Outstanding returns the number of loss events awaiting a repair.
func (r *Recovery) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lossTab.Size()
}

// Pending returns the number of queued repairs.
func (r *Recovery) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resendQueue.Len()
}

// Entities returns the number of known entities, the local one included.
func (r *Recovery) Entities() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entities.Size()
}

// Snapshot returns a copy of the counters.
func (r *Recovery) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
