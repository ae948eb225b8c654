package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbxark/collectagent/dialogue"
	"github.com/tbxark/collectagent/intent"
	"github.com/tbxark/collectagent/types"
)

func (c *Collector) handleConfirming(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, message string) (*Response, error) {
	req := c.turnRequest(cfg, state, message)

	if intent.IsAffirmative(message) {
		if cfg.ActionSummaryPrompt != "" {
			// The confirmed summary is the text the user said yes to; it
			// anchors output generation to what was actually shown.
			state.ConfirmedSummary = state.lastAssistantTurn()
		}
		return c.complete(ctx, cfg, state)
	}

	rejected, err := c.rejection.DetectRejection(ctx, message)
	if err != nil {
		rejected = false
	}
	if intent.IsNegative(message) || rejected {
		if cfg.AllowEnhancement {
			state.Status = types.StatusEnhancing
			if target, derr := c.target.DetectTarget(ctx, req); derr == nil && target != "" {
				state.Metadata.PendingField = target
				msg := fmt.Sprintf("Okay, what should %s be instead?", strings.ReplaceAll(target, "_", " "))
				return c.respond(cfg, state, msg), nil
			}
			return c.respond(cfg, state, "Okay, which field would you like to change?"), nil
		}
		// Without enhancement a rejection restarts collection from scratch.
		state.CollectedData = map[string]any{}
		state.ValidationErrors = nil
		state.Metadata = Metadata{}
		state.ConfirmedSummary = ""
		state.LastSuggestions = nil
		state.Status = types.StatusCollecting
		state.CurrentField = state.nextField(cfg)
		freshReq := c.turnRequest(cfg, state, "")
		msg := "No problem, let's start over. " + c.compose(ctx, freshReq, dialogue.PurposePrompt)
		return c.respond(cfg, state, msg), nil
	}

	msg := "Please answer yes to confirm, or tell me what you'd like to change.\n\n" + c.confirmationText(ctx, cfg, state, "")
	return c.respond(cfg, state, msg), nil
}
