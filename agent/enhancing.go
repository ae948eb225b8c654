package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbxark/collectagent/extract"
	"github.com/tbxark/collectagent/intent"
	"github.com/tbxark/collectagent/types"
)

func (c *Collector) handleEnhancing(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, message string) (*Response, error) {
	req := c.turnRequest(cfg, state, message)

	done, err := c.completion.DetectCompletion(ctx, message)
	if err != nil {
		done = false
	}
	if done || intent.IsAffirmative(message) {
		state.Metadata.PendingField = ""
		if cfg.ConfirmBeforeComplete {
			state.Status = types.StatusConfirming
			return c.respond(cfg, state, c.confirmationText(ctx, cfg, state, "")), nil
		}
		return c.complete(ctx, cfg, state)
	}

	// A pending field means the previous turn already established which
	// field is being changed; this message carries the new value.
	if state.Metadata.PendingField != "" {
		field := cfg.Field(state.Metadata.PendingField)
		if field != nil {
			value := message
			if direct, ok := extract.Direct(field, message); ok {
				value = direct
			}
			if errs := c.validateAndStore(state, field, value); len(errs) > 0 {
				resp := c.respond(cfg, state, validationText(field, errs))
				resp.Success = false
				return resp, nil
			}
			state.Metadata.PendingField = ""
			msg := fmt.Sprintf("Updated %s. Anything else you'd like to change?", strings.ReplaceAll(field.Name, "_", " "))
			return c.respond(cfg, state, msg), nil
		}
		state.Metadata.PendingField = ""
	}

	rejected, err := c.rejection.DetectRejection(ctx, message)
	if err != nil {
		rejected = false
	}
	if rejected {
		if target, derr := c.target.DetectTarget(ctx, req); derr == nil && target != "" {
			state.Metadata.PendingField = target
			msg := fmt.Sprintf("Sure, what should %s be instead?", strings.ReplaceAll(target, "_", " "))
			return c.respond(cfg, state, msg), nil
		}
		return c.respond(cfg, state, "Which field would you like to change?"), nil
	}

	// No pending target: classify and run the pipeline against any field,
	// so "make the title Advanced Baking" works in one message.
	result, err := c.classifier.Classify(ctx, req)
	if err != nil || result == nil {
		result = intent.Fallback(message)
	}
	if cand, ok := extract.Extract(extract.Input{
		Req:      req,
		Intent:   result,
		AnyField: true,
	}); ok {
		if field := cfg.Field(cand.Field); field != nil {
			if errs := c.validateAndStore(state, field, cand.Value); len(errs) > 0 {
				resp := c.respond(cfg, state, validationText(field, errs))
				resp.Success = false
				return resp, nil
			}
			msg := fmt.Sprintf("Updated %s. Anything else you'd like to change?", strings.ReplaceAll(field.Name, "_", " "))
			return c.respond(cfg, state, msg), nil
		}
	}

	// A bare field name answers the standing "which field would you like
	// to change?" question; stash it and ask for the new value.
	if target, derr := c.target.DetectTarget(ctx, req); derr == nil && target != "" {
		state.Metadata.PendingField = target
		msg := fmt.Sprintf("Sure, what should %s be instead?", strings.ReplaceAll(target, "_", " "))
		return c.respond(cfg, state, msg), nil
	}

	// Requests that target the generated output rather than a collected
	// field are queued and handed to the output generator at completion.
	if cfg.OutputSchema != nil {
		state.Metadata.OutputRequests = append(state.Metadata.OutputRequests, message)
		return c.respond(cfg, state, "Noted, I'll take that into account in the final result. Anything else?"), nil
	}

	return c.respond(cfg, state, "I'm not sure which field that refers to. Which field would you like to change?"), nil
}

func validationText(field *types.Field, errs []types.ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Message)
	}
	return fmt.Sprintf("That doesn't work for %s: %s. Please try again.",
		strings.ReplaceAll(field.Name, "_", " "), strings.Join(parts, "; "))
}
