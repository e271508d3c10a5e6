package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mshevtsov/concilium/internal/agent/prompts"
	"github.com/mshevtsov/concilium/internal/model"
)

// runConsensus asks every panelist for a final vote over a bounded digest of
// the discussion so far. Returns the number of votes that completed.
func (r *run) runConsensus(ctx context.Context) int {
	start := time.Now()
	alloc := r.budget.AllocateForPhase(model.PhaseConsensus)
	r.system(model.PhaseConsensus, fmt.Sprintf(
		"Phase 3: final votes (%ds allocated, pressure %s).",
		int(alloc.Seconds()), r.budget.Pressure()))

	digest := prompts.DigestLog(r.log.Snapshot())
	timeout := r.callTimeout(alloc)

	var (
		mu    sync.Mutex
		votes int
		wg    sync.WaitGroup
	)
	for _, p := range r.eng.panel {
		wg.Add(1)
		go func(p model.Persona) {
			defer wg.Done()

			if r.budget.Remaining() < agentCallFloor {
				r.system(model.PhaseConsensus, fmt.Sprintf(
					"%s's vote skipped: less than %ds of budget left.",
					p.DisplayName, int(agentCallFloor.Seconds())))
				return
			}

			prompt := prompts.BuildConsensusPrompt(p, digest, r.budget.Pressure())
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			text, err := r.eng.reasoner.Ask(callCtx, p.SystemPrompt, prompt)
			if err != nil {
				r.append(p.DisplayName, p.Icon,
					fmt.Sprintf("vote failed: %v", err),
					model.PhaseConsensus, model.EntryError)
				return
			}

			mu.Lock()
			votes++
			mu.Unlock()
			r.append(p.DisplayName, p.Icon, text, model.PhaseConsensus, model.EntryConsensus)
		}(p)
	}
	wg.Wait()

	r.timing(model.PhaseConsensus, fmt.Sprintf(
		"Phase 3 finished in %.1fs: %d of %d votes completed.",
		time.Since(start).Seconds(), votes, len(r.eng.panel)))
	return votes
}

// levelKeywords maps substrings to levels. Checked in this order; the
// two-word spelling of grandmaster is accepted.
var levelKeywords = []struct {
	word  string
	level model.ExpertiseLevel
}{
	{"grandmaster", model.LevelGrandmaster},
	{"grand master", model.LevelGrandmaster},
	{"apprentice", model.LevelApprentice},
	{"beginner", model.LevelBeginner},
	{"pro", model.LevelPro},
}

// DetectLevelKeyword scans the most recent consensus entry for an expertise
// level name. Case-insensitive substring match, first keyword hit wins. This
// is a best-effort text classifier, not semantic parsing: free text that
// happens to contain a level word will match, and no match simply means no
// override of the algorithmic baseline. It never fails.
func DetectLevelKeyword(entries []model.DiscussionEntry) (model.ExpertiseLevel, bool) {
	var last string
	for _, e := range entries {
		if e.Type == model.EntryConsensus {
			last = e.Message
		}
	}
	if last == "" {
		return "", false
	}

	text := strings.ToLower(last)
	for _, kw := range levelKeywords {
		if strings.Contains(text, kw.word) {
			return kw.level, true
		}
	}
	return "", false
}
