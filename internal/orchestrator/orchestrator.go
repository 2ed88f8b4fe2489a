package orchestrator

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/dialdirect/backend/internal/dispatch"
	"github.com/dialdirect/backend/internal/eventlog"
	"github.com/dialdirect/backend/internal/platform"
	"github.com/dialdirect/backend/internal/prober"
	"github.com/dialdirect/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier receives finished lead processes, e.g. for the live dashboard
// feed. It must not block.
type Notifier interface {
	NotifyProcessFinished(p types.LeadProcess)
}

// Orchestrator runs the full pipeline for an incoming lead: validate,
// ensure the CRM contact, probe availability, dispatch, log.
type Orchestrator struct {
	crm      platform.CRMClient
	prober   *prober.Prober
	dispatch *dispatch.Dispatcher
	eventlog *eventlog.EventLog
	notifier Notifier
	logger   zerolog.Logger
}

func New(crm platform.CRMClient, p *prober.Prober, d *dispatch.Dispatcher, log *eventlog.EventLog, notifier Notifier, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		crm:      crm,
		prober:   p,
		dispatch: d,
		eventlog: log,
		notifier: notifier,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Process runs one lead through the pipeline. It always returns a finished
// LeadProcess, already appended to the event log; inspect FinalStatus for
// the outcome.
func (o *Orchestrator) Process(ctx context.Context, lead types.Lead) *types.LeadProcess {
	p := &types.LeadProcess{
		ProcessID: uuid.New().String(),
		Lead:      lead,
		Stage:     types.StageStarted,
		StartedAt: time.Now(),
	}

	o.logger.Info().
		Str("process_id", p.ProcessID).
		Str("phone", lead.Phone).
		Msg("lead processing started")

	phone, err := NormalizePhone(lead.Phone)
	if err != nil {
		return o.finish(p, types.StageContactFailed, types.ProcessDataError, err)
	}
	p.Lead.Phone = phone

	contactID, err := o.crm.EnsureContact(ctx, p.Lead)
	if err != nil {
		return o.finish(p, types.StageContactFailed, types.ProcessContactFailed, err)
	}
	p.ContactID = contactID
	p.Stage = types.StageContactEnsured

	roster, err := o.prober.Probe(ctx)
	if err != nil {
		return o.finish(p, types.StageNoAgent, types.ProcessTransportError, err)
	}
	available := make([]types.Agent, 0, len(roster))
	for _, agent := range roster {
		if agent.Available {
			available = append(available, agent)
		}
	}
	if len(available) == 0 {
		return o.finish(p, types.StageNoAgent, types.ProcessNoAgents, nil)
	}
	p.Stage = types.StageAgentSelected

	res := o.dispatch.Dispatch(ctx, p.Lead, available)
	p.Outcome = res.Outcome
	if res.Status != types.ProcessCompleted {
		// The probe that fed this dispatch was evidently stale.
		o.prober.Invalidate()
		return o.finish(p, types.StageCallFailed, res.Status, nil)
	}

	p.Stage = types.StageCallPlaced
	return o.finish(p, types.StageDone, types.ProcessCompleted, nil)
}

func (o *Orchestrator) finish(p *types.LeadProcess, stage types.ProcessStage, status types.ProcessStatus, cause error) *types.LeadProcess {
	p.Stage = stage
	p.FinalStatus = status
	p.FinishedAt = time.Now()
	if cause != nil {
		p.Error = cause.Error()
	}

	event := o.logger.Info()
	if status.IsFailure() {
		event = o.logger.Warn()
	}
	event.
		Str("process_id", p.ProcessID).
		Str("status", string(status)).
		Str("agent_id", p.Outcome.AgentID).
		Int("attempts", len(p.Outcome.Attempts)).
		Dur("duration", p.FinishedAt.Sub(p.StartedAt)).
		Msg("lead processing finished")

	if err := o.eventlog.Append(*p); err != nil {
		o.logger.Error().Err(err).Str("process_id", p.ProcessID).Msg("failed to append to event log")
	}
	if o.notifier != nil {
		o.notifier.NotifyProcessFinished(*p)
	}
	return p
}

// NormalizePhone strips separators and validates the result: an optional
// leading plus followed by 7 to 15 digits.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separator noise, common in submitted forms
		default:
			return "", &platform.CallError{Kind: platform.ErrKindInvalidTarget, Message: "phone number contains invalid characters"}
		}
	}

	normalized := b.String()
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", &platform.CallError{Kind: platform.ErrKindInvalidTarget, Message: "phone number must contain 7 to 15 digits"}
	}
	return normalized, nil
}
