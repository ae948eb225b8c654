package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tbxark/collectagent/output"
	"github.com/tbxark/collectagent/types"
	"github.com/tbxark/collectagent/validate"
)

// complete runs final validation, output generation, and the completion
// callback. The session only becomes completed after the callback
// succeeds, so a failed callback leaves the turn retryable.
func (c *Collector) complete(ctx context.Context, cfg *types.CollectionConfig, state *SessionState) (*Response, error) {
	// Re-validate everything: enhancement edits and seeded data may have
	// drifted past per-field checks.
	if failures := validate.All(cfg, state.CollectedData); len(failures) > 0 {
		state.Status = types.StatusCollecting
		state.ValidationErrors = make(map[string][]types.ValidationError, len(failures))
		for _, e := range failures {
			state.ValidationErrors[e.Field] = append(state.ValidationErrors[e.Field], e)
		}
		// Resume at the first invalid field in config order.
		state.CurrentField = ""
		for _, f := range cfg.Fields {
			if _, bad := state.ValidationErrors[f.Name]; bad {
				state.CurrentField = f.Name
				break
			}
		}
		resp := c.respond(cfg, state, completionFailureText(failures))
		resp.Success = false
		return resp, nil
	}

	var generated map[string]any
	if cfg.OutputSchema != nil && c.output != nil {
		out, err := c.output.Generate(ctx, &output.Request{
			Config:               cfg,
			CollectedData:        state.CollectedData,
			ConfirmedSummary:     state.ConfirmedSummary,
			ModificationRequests: state.Metadata.OutputRequests,
			Locale:               state.DetectedLocale,
		})
		if err != nil {
			slog.Warn("output generation failed", "session", state.ID, "error", err)
		} else {
			generated = out
		}
	}

	if c.onComplete != nil {
		result, err := c.invokeCompletion(ctx, state.CollectedData, generated)
		if err != nil {
			// Status unchanged: the user can retry by confirming again.
			resp := c.respond(cfg, state, fmt.Sprintf("I collected everything, but finishing up failed: %v. Say yes to try again.", err))
			resp.Success = false
			resp.Output = generated
			return resp, nil
		}
		state.Status = types.StatusCompleted
		state.CurrentField = ""
		resp := c.respond(cfg, state, completionText(cfg))
		resp.Output = generated
		resp.Result = result
		return resp, nil
	}

	state.Status = types.StatusCompleted
	state.CurrentField = ""
	resp := c.respond(cfg, state, completionText(cfg))
	resp.Output = generated
	return resp, nil
}

// invokeCompletion shields the collector from a panicking callback.
func (c *Collector) invokeCompletion(ctx context.Context, data map[string]any, generated map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion callback panic: %v", r)
		}
	}()
	return c.onComplete(ctx, data, generated)
}

func completionText(cfg *types.CollectionConfig) string {
	name := cfg.Name
	if name == "" {
		name = "collection"
	}
	return fmt.Sprintf("All done, %s is complete. Thanks!", strings.ReplaceAll(name, "_", " "))
}

func completionFailureText(failures []types.ValidationError) string {
	parts := make([]string, 0, len(failures))
	for _, e := range failures {
		parts = append(parts, e.Message)
	}
	return "A few values need another look before we can finish: " + strings.Join(parts, "; ")
}
