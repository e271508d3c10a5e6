package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mshevtsov/concilium/internal/model"
)

func fullPhase1() map[string]string {
	return map[string]string{
		model.PersonaExaminer.ID: "solid fundamentals",
		model.PersonaAce.ID:      "fast but sloppy on hard ones",
		model.PersonaTutor.ID:    "clear gaps in very hard material",
	}
}

func TestPeerSkipsBelowPhaseFloor(t *testing.T) {
	fake := &fakeReasoner{}
	// 40s left: the peer share (60%) allocates 24s, under the 30s phase
	// minimum, so the whole round is skipped before any dispatch.
	r := newRunWithRemaining(t, fake, 100*time.Second, 60*time.Second)

	completed := r.runPeer(context.Background(), fullPhase1())

	if completed != 0 {
		t.Errorf("completed = %d, want 0", completed)
	}
	if fake.callCount() != 0 {
		t.Errorf("reasoner called %d times for a skipped phase, want 0", fake.callCount())
	}

	entries := r.log.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want exactly the skip notice", len(entries))
	}
	if entries[0].Type != model.EntrySystem || !strings.Contains(entries[0].Message, "Peer discussion skipped") {
		t.Errorf("skip entry = %+v, want a system entry naming the skip", entries[0])
	}
}

func TestPeerRunsAbovePhaseFloor(t *testing.T) {
	fake := &fakeReasoner{}
	r := newRunWithRemaining(t, fake, 100*time.Second, 0)

	completed := r.runPeer(context.Background(), fullPhase1())

	if want := len(model.Panel()); completed != want {
		t.Errorf("completed = %d, want %d ring exchanges", completed, want)
	}
	var exchanges int
	for _, e := range r.log.Snapshot() {
		if e.Phase == model.PhasePeer && e.Type == model.EntryAnalysis {
			exchanges++
		}
	}
	if exchanges != len(model.Panel()) {
		t.Errorf("got %d exchange entries, want %d", exchanges, len(model.Panel()))
	}
}
