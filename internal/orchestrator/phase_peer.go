package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mshevtsov/concilium/internal/agent/prompts"
	"github.com/mshevtsov/concilium/internal/model"
)

// runPeer issues the peer-discussion round: a directed ring over the
// personas that produced a phase-1 assessment (A responds to B, B to C, C to
// A). Deliberately a ring, not a full mesh. Returns the number of exchanges
// that completed.
func (r *run) runPeer(ctx context.Context, phase1 map[string]string) int {
	alloc := r.budget.AllocateForPhase(model.PhasePeer)
	if alloc < peerPhaseFloor {
		r.system(model.PhasePeer, fmt.Sprintf(
			"Peer discussion skipped: %ds allocated, below the %ds minimum. The metrics-based assessment will stand in for the debate.",
			int(alloc.Seconds()), int(peerPhaseFloor.Seconds())))
		return 0
	}

	var participants []model.Persona
	for _, p := range r.eng.panel {
		if _, ok := phase1[p.ID]; ok {
			participants = append(participants, p)
		}
	}
	if len(participants) < 2 {
		r.system(model.PhasePeer, "Peer discussion skipped: not enough completed assessments to discuss.")
		return 0
	}

	start := time.Now()
	r.system(model.PhasePeer, fmt.Sprintf(
		"Phase 2: panelists respond to each other (%d exchanges, %ds allocated).",
		len(participants), int(alloc.Seconds())))

	timeout := r.callTimeout(alloc)

	var (
		mu        sync.Mutex
		completed int
		wg        sync.WaitGroup
	)
	for i, self := range participants {
		peer := participants[(i+1)%len(participants)]
		wg.Add(1)
		go func(self, peer model.Persona) {
			defer wg.Done()
			label := self.DisplayName + " → " + peer.DisplayName

			if r.budget.Remaining() < agentCallFloor {
				r.system(model.PhasePeer, fmt.Sprintf(
					"%s exchange skipped: less than %ds of budget left.",
					label, int(agentCallFloor.Seconds())))
				return
			}

			prompt := prompts.BuildPeerPrompt(self, peer, phase1[self.ID], phase1[peer.ID], r.budget.Pressure())
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			text, err := r.eng.reasoner.Ask(callCtx, self.SystemPrompt, prompt)
			if err != nil {
				r.append(label, self.Icon,
					fmt.Sprintf("exchange failed: %v", err),
					model.PhasePeer, model.EntryError)
				return
			}

			mu.Lock()
			completed++
			mu.Unlock()
			r.append(label, self.Icon, text, model.PhasePeer, model.EntryAnalysis)
		}(self, peer)
	}
	wg.Wait()

	r.timing(model.PhasePeer, fmt.Sprintf(
		"Phase 2 finished in %.1fs: %d of %d exchanges completed.",
		time.Since(start).Seconds(), completed, len(participants)))
	return completed
}
