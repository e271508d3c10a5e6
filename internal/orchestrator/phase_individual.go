package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mshevtsov/concilium/internal/agent/prompts"
	"github.com/mshevtsov/concilium/internal/model"
)

// runIndividual fans out one assessment call per persona and joins them all.
// A persona's failure or skip never affects the other personas; whatever
// completes lands in the log in completion order. Returns persona ID → text
// for the calls that succeeded.
func (r *run) runIndividual(ctx context.Context) map[string]string {
	start := time.Now()
	alloc := r.budget.AllocateForPhase(model.PhaseIndividual)
	r.system(model.PhaseIndividual, fmt.Sprintf(
		"Phase 1: each panelist assesses the student independently (%ds allocated, pressure %s).",
		int(alloc.Seconds()), r.budget.Pressure()))

	timeout := r.callTimeout(alloc)

	var (
		mu      sync.Mutex
		results = make(map[string]string)
		wg      sync.WaitGroup
	)
	for _, p := range r.eng.panel {
		wg.Add(1)
		go func(p model.Persona) {
			defer wg.Done()

			// Per-agent early exit, not a global abort: a late dispatch with
			// almost no time left is skipped instead of attempted.
			if r.budget.Remaining() < agentCallFloor {
				r.system(model.PhaseIndividual, fmt.Sprintf(
					"%s's assessment skipped: less than %ds of budget left.",
					p.DisplayName, int(agentCallFloor.Seconds())))
				return
			}

			prompt := prompts.BuildIndividualPrompt(p, r.summary, r.budget.Pressure())
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			text, err := r.eng.reasoner.Ask(callCtx, p.SystemPrompt, prompt)
			if err != nil {
				r.append(p.DisplayName, p.Icon,
					fmt.Sprintf("%s could not complete the assessment: %v", p.DisplayName, err),
					model.PhaseIndividual, model.EntryError)
				return
			}

			mu.Lock()
			results[p.ID] = text
			mu.Unlock()
			r.append(p.DisplayName, p.Icon, text, model.PhaseIndividual, model.EntryAnalysis)
		}(p)
	}
	wg.Wait()

	r.timing(model.PhaseIndividual, fmt.Sprintf(
		"Phase 1 finished in %.1fs: %d of %d assessments completed.",
		time.Since(start).Seconds(), len(results), len(r.eng.panel)))
	return results
}
