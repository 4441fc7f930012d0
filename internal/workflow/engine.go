package workflow

import (
	"log"

	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/forms"
	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/storage"
)

// stepFields maps each disclosure step to the report column it writes. The
// map is the whole vocabulary: a step either appears here with its one
// field, or it has no field side effect at all.
var stepFields = map[Step]storage.Field{
	StepForWhom: storage.FieldForWhom,
	StepToWhom:  storage.FieldToWhom,
	StepReason:  storage.FieldReason,
	StepContext: storage.FieldContextNote,
	StepDetails: storage.FieldDetails,
	StepOutcome: storage.FieldOutcome,
}

// Engine is the disclosure-chain state machine. It is stateless: every
// Transition call rebuilds context from the token and the store, so any
// number of handler instances can serve the same report.
type Engine struct {
	Storage storage.Storage
	Steps   []Step
}

func NewEngine(s storage.Storage, steps []Step) *Engine {
	return &Engine{Storage: s, Steps: steps}
}

// Result is the outcome of one transition: the prompt to send back and the
// token the next step must carry (redirected when the step merged the
// report into another one).
type Result struct {
	Response *discord.InteractionResponse
	Token    string
}

func (e *Engine) index(step Step) int {
	for i, s := range e.Steps {
		if s == step {
			return i
		}
	}
	return -1
}

// position returns the 1-based index of a field step among the field steps
// of the active list, and the field step count, for "Reporting Process k/n"
// headings.
func (e *Engine) position(step Step) (int, int) {
	pos, total := 0, 0
	for _, s := range e.Steps {
		if _, ok := stepFields[s]; !ok {
			continue
		}
		total++
		if s == step {
			pos = total
		}
	}
	return pos, total
}

// Transition runs one step of the chain: validate the tag, apply the step's
// side effect, compute the next step, and render its prompt. Field writes
// are durable before the prompt is rendered, so a retried delivery sees the
// applied effect instead of double-applying it.
func (e *Engine) Transition(step Step, tok string, values []string) (*Result, error) {
	idx := e.index(step)
	if idx < 0 {
		return nil, ErrInvalidStep
	}

	next := step
	if idx+1 < len(e.Steps) {
		next = e.Steps[idx+1]
	}

	switch step {
	case StepMergeReports:
		if err := e.requireRedactedWindow(tok); err != nil {
			return nil, err
		}
		if len(values) == 1 && values[0] != "no" {
			merged, err := e.Storage.MergeInto(tok, values[0])
			if err != nil {
				return nil, err
			}
			// The merge target already carries its disclosure fields; skip
			// straight to the submission review.
			tok = merged
			next = StepSubmit
		} else {
			next = StepStartReport
		}

	case StepStartReport:
		if err := e.requireRedactedWindow(tok); err != nil {
			return nil, err
		}

	case StepForWhom:
		if err := e.Storage.UpdateReportField(tok, storage.FieldForWhom, values); err != nil {
			return nil, err
		}

	case StepToWhom, StepReason, StepContext, StepDetails, StepOutcome:
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		if err := e.Storage.UpdateReportField(tok, stepFields[step], value); err != nil {
			return nil, err
		}

	case StepSubmit:
		report, err := e.requireReport(tok)
		if err != nil {
			return nil, err
		}
		if err := e.Storage.SubmitReport(report.ID); err != nil {
			return nil, err
		}

	case StepFinalReview:
		// Terminal: re-render the closing summary, mutate nothing.
		next = StepFinalReview

	default:
		return nil, ErrInvalidStep
	}

	response, err := e.renderPrompt(next, tok)
	if err != nil {
		return nil, err
	}
	return &Result{Response: response, Token: tok}, nil
}

// renderPrompt builds the interactive prompt that, when answered, fires the
// given step.
func (e *Engine) renderPrompt(step Step, tok string) (*discord.InteractionResponse, error) {
	customID := CustomID(step, tok)
	pos, total := e.position(step)

	switch step {
	case StepStartReport:
		content, components := forms.StartReportMessage(customID)
		return &discord.InteractionResponse{
			Type: discord.ResponseChannelMessage,
			Data: &discord.ResponseData{Content: content, Components: components},
		}, nil
	case StepForWhom:
		return forms.ForWhomPrompt(customID, pos, total), nil
	case StepToWhom:
		return forms.ToWhomPrompt(customID, pos, total), nil
	case StepReason:
		return forms.ReasonPrompt(customID, pos, total), nil
	case StepContext:
		return forms.ContextPrompt(customID, pos, total), nil
	case StepDetails:
		return forms.DetailsModal(customID, customID), nil
	case StepOutcome:
		return forms.OutcomePrompt(customID, pos, total), nil
	case StepSubmit:
		report, err := e.requireReport(tok)
		if err != nil {
			return nil, err
		}
		return forms.SubmitPrompt(report, customID)
	case StepFinalReview:
		report, err := e.requireReport(tok)
		if err != nil {
			return nil, err
		}
		return forms.FinalReview(report)
	default:
		return nil, ErrInvalidStep
	}
}

func (e *Engine) requireReport(tok string) (*models.Report, error) {
	report, err := e.Storage.FindReport(tok)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// requireRedactedWindow gates entry into the chain: the portal redaction
// pass must have completed before the first step runs.
func (e *Engine) requireRedactedWindow(tok string) error {
	window, err := e.Storage.FindWindow(tok)
	if err != nil {
		return err
	}
	if window == nil {
		return ErrReportNotFound
	}
	if !window.IsRedacted {
		log.Printf("INFO: Rejected chain entry for window %d: not redacted yet", window.ID)
		return ErrWindowNotRedacted
	}
	return nil
}
