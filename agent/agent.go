package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

type sessionIDKey struct{}

// WithSessionID routes adk invocations to a collection session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}

// Agent exposes a Collector as an eino adk.Agent. The session id comes
// from the context via WithSessionID; a session that does not exist yet is
// started on first use with the agent's config.
type Agent struct {
	name        string
	description string
	configName  string
	collector   *Collector
}

func NewAgent(name, description, configName string, collector *Collector) *Agent {
	return &Agent{
		name:        name,
		description: description,
		configName:  configName,
		collector:   collector,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("no messages in input"),
			})
			return
		}
		sessionID, ok := SessionIDFromContext(ctx)
		if !ok {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("no session id in context"),
			})
			return
		}
		message := input.Messages[len(input.Messages)-1].Content

		resp, err := a.collector.ProcessMessage(ctx, sessionID, message)
		if err != nil && errors.Is(err, ErrNoSession) {
			_, startErr := a.collector.StartSession(ctx, StartOptions{
				SessionID:  sessionID,
				ConfigName: a.configName,
			})
			if startErr != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("start session failed: %w", startErr),
				})
				return
			}
			resp, err = a.collector.ProcessMessage(ctx, sessionID, message)
		}
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("process message failed: %w", err),
			})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message: &schema.Message{
						Role:    schema.Assistant,
						Content: resp.Message,
					},
					Role: schema.Assistant,
				},
			},
		})
	}()
	return iter
}
