// Package orchestrator drives the time-budgeted multi-agent evaluation:
// three sequential phases (individual assessment, peer discussion,
// consensus) over a shared discussion log, followed by deterministic
// expertise resolution. It always terminates at or near the configured
// limit and always produces a result, degrading to a metrics-only
// assessment when agents fail or time runs out.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mshevtsov/concilium/internal/agent"
	"github.com/mshevtsov/concilium/internal/agent/prompts"
	"github.com/mshevtsov/concilium/internal/model"
)

// Engine runs evaluations. It holds no per-request state; every run gets a
// fresh budget, log, and metrics.
type Engine struct {
	reasoner agent.Reasoner
	panel    []model.Persona
}

// NewEngine creates an engine over the given reasoning capability with the
// fixed three-persona panel.
func NewEngine(r agent.Reasoner) *Engine {
	return &Engine{reasoner: r, panel: model.Panel()}
}

// run bundles the per-evaluation state shared by the phase executors.
type run struct {
	eng     *Engine
	budget  *TimeBudget
	log     *DiscussionLog
	metrics model.PerformanceMetrics
	summary string
	lang    string
}

// Evaluate performs one full evaluation. The caller may supply the result ID
// (the session store owns identity for API runs); an empty id mints a fresh
// one. Validation errors are the only errors returned; everything else
// degrades to a fallback result. If dlog is non-nil its subscribers observe
// the discussion live; it is closed when the run finishes.
func (e *Engine) Evaluate(ctx context.Context, id string, req model.EvaluateRequest, dlog *DiscussionLog) (result model.EvaluationResult, err error) {
	if verr := req.Validate(); verr != nil {
		return model.EvaluationResult{}, verr
	}
	if dlog == nil {
		dlog = NewDiscussionLog()
	}
	defer dlog.Close()

	if id == "" {
		id = uuid.NewString()
	}
	budget := NewTimeBudget(time.Duration(req.LimitMinutes()) * time.Minute)
	budget.Start()
	metrics := ComputeMetrics(req.Answers)
	lang := req.Language
	if lang == "" {
		lang = "en"
	}

	// Last-resort boundary: a bug anywhere below must still yield a valid
	// metrics-only result instead of propagating.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("evaluation panicked, returning algorithmic fallback", "panic", rec)
			assessment := ResolveExpertise(metrics, req.Topics, nil, lang)
			result = formatResult(id, req, metrics, assessment, dlog.Snapshot(), budget, model.MethodAlgorithmic)
			err = nil
		}
	}()

	r := &run{eng: e, budget: budget, log: dlog, metrics: metrics, lang: lang}
	r.summary = prompts.SummarizeMetrics(metrics, req.Topics)

	r.system(model.PhaseIndividual, fmt.Sprintf(
		"Panel evaluation started: %d answers, %d topics, %d minute limit.",
		len(req.Answers), len(req.Topics), req.LimitMinutes()))

	var phase1 map[string]string
	if budget.Expired() {
		r.system(model.PhaseIndividual, "Individual assessments skipped: time budget exhausted. Algorithmic assessment will be used.")
	} else {
		phase1 = r.runIndividual(ctx)
	}

	if budget.Expired() {
		r.system(model.PhasePeer, "Peer discussion skipped: time budget exhausted.")
	} else {
		r.runPeer(ctx, phase1)
	}

	consensusVotes := 0
	if budget.Expired() {
		r.system(model.PhaseConsensus, "Consensus round skipped: time budget exhausted.")
	} else {
		consensusVotes = r.runConsensus(ctx)
	}

	var override *model.ExpertiseLevel
	if lvl, ok := DetectLevelKeyword(dlog.Snapshot()); ok {
		override = &lvl
	}

	assessment := ResolveExpertise(metrics, req.Topics, override, lang)

	method := model.MethodAlgorithmic
	switch {
	case len(phase1) > 0 && consensusVotes > 0:
		method = model.MethodMultiAgent
	case len(phase1) > 0 || consensusVotes > 0:
		method = model.MethodPartialDiscussion
	}

	r.append(model.SystemAgent, "", fmt.Sprintf(
		"Verdict: %s (confidence %d%%). %s",
		assessment.Level, assessment.Confidence, assessment.Justification),
		model.PhaseConsensus, model.EntryFinalAssessment)

	slog.Info("evaluation finished",
		"id", id,
		"level", assessment.Level,
		"confidence", assessment.Confidence,
		"method", method,
		"elapsed", budget.Elapsed().Round(time.Millisecond))

	return formatResult(id, req, metrics, assessment, dlog.Snapshot(), budget, method), nil
}

// append records one discussion entry stamped with the current clock state.
func (r *run) append(agentLabel, icon, msg string, phase model.Phase, typ model.EntryType) {
	r.log.Append(model.DiscussionEntry{
		Agent:         agentLabel,
		Icon:          icon,
		Message:       msg,
		Timestamp:     time.Now().UTC(),
		Phase:         phase,
		Type:          typ,
		TimeRemaining: r.budget.RemainingSeconds(),
	})
}

func (r *run) system(phase model.Phase, msg string) {
	r.append(model.SystemAgent, "", msg, phase, model.EntrySystem)
}

func (r *run) timing(phase model.Phase, msg string) {
	r.append(model.SystemAgent, "", msg, phase, model.EntryTiming)
}

// callTimeout clamps a phase allocation to a sane per-call timeout that
// never outlives the total budget. Calls within a phase run concurrently,
// so they share the phase window rather than splitting it.
func (r *run) callTimeout(alloc time.Duration) time.Duration {
	t := alloc
	if t < minCallTimeout {
		t = minCallTimeout
	}
	if rem := r.budget.Remaining(); t > rem {
		t = rem
	}
	return t
}
