package orchestrator

import (
	"sync"
	"time"

	"github.com/mshevtsov/concilium/internal/model"
)

// Tunable time-budget constants. The exact values are not load-bearing; the
// shape is: small individual round, large peer round, medium consensus round.
const (
	// pressure thresholds against remaining/total
	pressureHighAbove   = 0.70
	pressureMediumAbove = 0.40
	pressureLowAbove    = 0.15

	// fraction of the remaining time a phase may claim
	shareIndividual = 0.10
	sharePeer       = 0.60
	shareConsensus  = 0.30

	// fraction of the total limit a phase is capped at
	capIndividual = 0.20
	capPeer       = 0.50
	capConsensus  = 0.30

	// agentCallFloor is the minimum remaining time below which an individual
	// agent call is skipped rather than attempted.
	agentCallFloor = 10 * time.Second

	// peerPhaseFloor is the minimum allocation below which the whole peer
	// discussion phase is skipped.
	peerPhaseFloor = 30 * time.Second

	// minCallTimeout is the smallest timeout any reasoning call is given.
	minCallTimeout = 5 * time.Second
)

// TimeBudget tracks elapsed wall-clock time against a total limit and
// allocates slices of it to phases. Start happens exactly once; all later
// access is read-only, so concurrent phase goroutines may query it freely.
type TimeBudget struct {
	totalLimit  time.Duration
	phaseBudget map[model.Phase]time.Duration

	mu      sync.Mutex
	started bool
	startAt time.Time

	now func() time.Time
}

// NewTimeBudget creates a budget for the given total limit. Per-phase caps
// are fixed fractions of the total.
func NewTimeBudget(totalLimit time.Duration) *TimeBudget {
	if totalLimit < 0 {
		totalLimit = 0
	}
	return &TimeBudget{
		totalLimit: totalLimit,
		phaseBudget: map[model.Phase]time.Duration{
			model.PhaseIndividual: time.Duration(capIndividual * float64(totalLimit)),
			model.PhasePeer:       time.Duration(capPeer * float64(totalLimit)),
			model.PhaseConsensus:  time.Duration(capConsensus * float64(totalLimit)),
		},
		now: time.Now,
	}
}

// Start records the start instant. Calling it again is a no-op: a re-entrant
// call must never silently reset the clock.
func (b *TimeBudget) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	b.startAt = b.now()
}

// Elapsed returns time since Start, or zero if the budget never started.
func (b *TimeBudget) Elapsed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return 0
	}
	return b.now().Sub(b.startAt)
}

// Remaining returns the unspent portion of the total limit, never negative.
func (b *TimeBudget) Remaining() time.Duration {
	rem := b.totalLimit - b.Elapsed()
	if rem < 0 {
		return 0
	}
	return rem
}

// RemainingSeconds returns Remaining truncated to whole seconds.
func (b *TimeBudget) RemainingSeconds() int {
	return int(b.Remaining() / time.Second)
}

// Expired reports whether the total limit has been consumed.
func (b *TimeBudget) Expired() bool {
	return b.Remaining() <= 0
}

// Pressure classifies the remaining share of the budget. It is a pure
// function of remaining time at read time; nothing is cached, so successive
// reads only ever move toward critical.
func (b *TimeBudget) Pressure() model.PressureLevel {
	if b.totalLimit <= 0 {
		return model.PressureCritical
	}
	ratio := float64(b.Remaining()) / float64(b.totalLimit)
	switch {
	case ratio > pressureHighAbove:
		return model.PressureHigh
	case ratio > pressureMediumAbove:
		return model.PressureMedium
	case ratio > pressureLowAbove:
		return model.PressureLow
	default:
		return model.PressureCritical
	}
}

// AllocateForPhase returns the time a phase may spend: its share of the
// remaining time, capped by the phase's configured maximum. Never exceeds
// what is actually left.
func (b *TimeBudget) AllocateForPhase(phase model.Phase) time.Duration {
	share := 0.0
	switch phase {
	case model.PhaseIndividual:
		share = shareIndividual
	case model.PhasePeer:
		share = sharePeer
	case model.PhaseConsensus:
		share = shareConsensus
	}

	rem := b.Remaining()
	alloc := time.Duration(share * float64(rem))
	if limit, ok := b.phaseBudget[phase]; ok && alloc > limit {
		alloc = limit
	}
	if alloc > rem {
		alloc = rem
	}
	return alloc
}
